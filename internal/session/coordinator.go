// Package session owns the "current operation" and "current result" slots:
// starting a request cancels the one before it, and only the most recent
// request may write the visible result.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"textpilot/internal/core"
)

// Sender is the request client as seen by the coordinator
type Sender interface {
	Send(ctx context.Context, prompt string, ep core.Endpoint) (string, error)
}

// State is a snapshot of the visible result
type State struct {
	Generation uint64 `json:"generation"`
	Loading    bool   `json:"loading"`
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
}

// Coordinator serializes user actions into a single-flight sequence
type Coordinator struct {
	sender Sender
	log    *zap.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	state      State
	wg         sync.WaitGroup
}

// NewCoordinator creates a coordinator around sender
func NewCoordinator(sender Sender, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		sender: sender,
		log:    log.Named("session"),
	}
}

// Submit cancels any pending call, starts a new one and returns its generation.
// The outcome is delivered on the returned channel, which is closed afterwards.
// ctx bounds the new call in addition to supersession.
func (c *Coordinator) Submit(ctx context.Context, prompt string, ep core.Endpoint) (uint64, <-chan core.Outcome) {
	callCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	gen := c.generation
	c.cancel = cancel
	c.state = State{Generation: gen, Loading: true}
	c.mu.Unlock()

	c.log.Debug("request submitted", zap.Uint64("generation", gen))

	out := make(chan core.Outcome, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(out)
		defer cancel()

		outcome := core.OutcomeOf(c.sender.Send(callCtx, prompt, ep))
		c.record(gen, outcome)
		out <- outcome
	}()

	return gen, out
}

// record writes outcome to the result slot if gen is still current
func (c *Coordinator) record(gen uint64, outcome core.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		c.log.Debug("discarding superseded outcome",
			zap.Uint64("generation", gen),
			zap.Uint64("current", c.generation),
			zap.String("outcome", outcome.Kind.String()),
		)
		return
	}

	c.cancel = nil
	c.state.Loading = false
	switch outcome.Kind {
	case core.OutcomeSuccess:
		c.state.Output = outcome.Text
		c.state.Error = ""
	case core.OutcomeFailure:
		c.state.Error = outcome.Err.Error()
	case core.OutcomeCancelled:
		// not an error; leave the slot as it was
	}
}

// Cancel aborts the in-flight call, if any
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// State returns a snapshot of the result slot
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until every submitted call has returned
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Close cancels the in-flight call and waits for it to return
func (c *Coordinator) Close() {
	c.Cancel()
	c.Wait()
}
