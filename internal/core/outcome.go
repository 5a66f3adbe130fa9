package core

// OutcomeKind tags the variant held by an Outcome
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the result of one logical request: success text, failure, or cancellation
type Outcome struct {
	Kind OutcomeKind
	Text string
	Err  error
}

// Success creates a successful outcome
func Success(text string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Text: text}
}

// Failure creates a failed outcome
func Failure(err error) Outcome {
	return Outcome{Kind: OutcomeFailure, Err: err}
}

// CancelledOutcome creates a cancelled outcome
func CancelledOutcome() Outcome {
	return Outcome{Kind: OutcomeCancelled}
}

// OutcomeOf folds a (text, error) pair into an Outcome
func OutcomeOf(text string, err error) Outcome {
	switch {
	case err == nil:
		return Success(text)
	case IsCancelled(err):
		return CancelledOutcome()
	default:
		return Failure(err)
	}
}
