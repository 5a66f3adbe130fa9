package core

import "time"

// Call describes a single HTTP attempt made on behalf of a logical request
type Call struct {
	// Attempt starts at 0
	Attempt int
	URL     string
	Body    []byte
	// StatusCode is 0 until a response has been received
	StatusCode int
	// Err is the attempt's failure, nil on a 2xx response
	Err      error
	Duration time.Duration
}

// Processor is the middleware interface for the call pipeline
type Processor interface {
	// Name returns the processor name
	Name() string
	// Priority returns the execution priority (lower = earlier)
	Priority() int
	// OnRequest is called before every HTTP attempt
	OnRequest(ctx *CallContext, call *Call) error
	// OnResponse is called after every HTTP attempt, successful or not
	OnResponse(ctx *CallContext, call *Call) error
	// OnComplete is called once with the final outcome of the logical request
	OnComplete(ctx *CallContext, outcome Outcome)
}
