package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"textpilot/internal/client"
	"textpilot/internal/core"
)

// fakeSender blocks each call until its prompt is released.
// Prompts listed in stubborn ignore cancellation, like a response already on the wire.
type fakeSender struct {
	mu       sync.Mutex
	release  map[string]chan result
	started  chan string
	stubborn map[string]bool
}

type result struct {
	text string
	err  error
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		release:  make(map[string]chan result),
		started:  make(chan string, 16),
		stubborn: make(map[string]bool),
	}
}

func (f *fakeSender) gate(prompt string) chan result {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.release[prompt]
	if !ok {
		ch = make(chan result, 1)
		f.release[prompt] = ch
	}
	return ch
}

func (f *fakeSender) Send(ctx context.Context, prompt string, ep core.Endpoint) (string, error) {
	gate := f.gate(prompt)
	f.started <- prompt

	f.mu.Lock()
	stubborn := f.stubborn[prompt]
	f.mu.Unlock()

	if stubborn {
		r := <-gate
		return r.text, r.err
	}
	select {
	case r := <-gate:
		return r.text, r.err
	case <-ctx.Done():
		return "", core.Cancelled(ctx.Err())
	}
}

func (f *fakeSender) finish(prompt, text string, err error) {
	f.gate(prompt) <- result{text: text, err: err}
}

func waitStarted(t *testing.T, f *fakeSender, want string) {
	t.Helper()
	select {
	case got := <-f.started:
		if got != want {
			t.Fatalf("started %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("call %q never started", want)
	}
}

func receive(t *testing.T, ch <-chan core.Outcome) core.Outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outcome")
		return core.Outcome{}
	}
}

func TestSubmitRecordsSuccess(t *testing.T) {
	sender := newFakeSender()
	c := NewCoordinator(sender, zaptest.NewLogger(t))

	gen, done := c.Submit(context.Background(), "A", core.Endpoint{})
	waitStarted(t, sender, "A")

	if st := c.State(); !st.Loading || st.Generation != gen {
		t.Errorf("state while pending = %+v", st)
	}

	sender.finish("A", "result A", nil)
	if o := receive(t, done); o.Kind != core.OutcomeSuccess || o.Text != "result A" {
		t.Errorf("outcome = %+v", o)
	}

	st := c.State()
	if st.Loading || st.Output != "result A" || st.Error != "" {
		t.Errorf("state = %+v", st)
	}
}

func TestSubmitRecordsFailure(t *testing.T) {
	sender := newFakeSender()
	c := NewCoordinator(sender, zaptest.NewLogger(t))

	_, done := c.Submit(context.Background(), "A", core.Endpoint{})
	waitStarted(t, sender, "A")
	sender.finish("A", "", core.NewProtocolError("invalid response structure", nil))

	if o := receive(t, done); o.Kind != core.OutcomeFailure {
		t.Fatalf("outcome = %+v, want failure", o)
	}
	st := c.State()
	if st.Loading || !strings.Contains(st.Error, "invalid response structure") {
		t.Errorf("state = %+v", st)
	}
}

func TestNewSubmitCancelsPrevious(t *testing.T) {
	sender := newFakeSender()
	c := NewCoordinator(sender, zaptest.NewLogger(t))

	_, doneA := c.Submit(context.Background(), "A", core.Endpoint{})
	waitStarted(t, sender, "A")

	genB, doneB := c.Submit(context.Background(), "B", core.Endpoint{})
	waitStarted(t, sender, "B")

	if o := receive(t, doneA); o.Kind != core.OutcomeCancelled {
		t.Fatalf("A outcome = %+v, want cancelled", o)
	}
	if st := c.State(); !st.Loading || st.Generation != genB || st.Error != "" {
		t.Errorf("state after A cancelled = %+v", st)
	}

	sender.finish("B", "result B", nil)
	if o := receive(t, doneB); o.Kind != core.OutcomeSuccess {
		t.Fatalf("B outcome = %+v", o)
	}
	if st := c.State(); st.Output != "result B" || st.Loading {
		t.Errorf("state = %+v", st)
	}
}

func TestLateResultOfSupersededCallIsDiscarded(t *testing.T) {
	sender := newFakeSender()
	sender.stubborn["A"] = true
	c := NewCoordinator(sender, zaptest.NewLogger(t))

	_, doneA := c.Submit(context.Background(), "A", core.Endpoint{})
	waitStarted(t, sender, "A")
	_, doneB := c.Submit(context.Background(), "B", core.Endpoint{})
	waitStarted(t, sender, "B")

	sender.finish("B", "result B", nil)
	receive(t, doneB)

	// A ignores its cancellation and answers after B
	sender.finish("A", "stale A", nil)
	if o := receive(t, doneA); o.Kind != core.OutcomeSuccess {
		t.Fatalf("A outcome = %+v", o)
	}

	if st := c.State(); st.Output != "result B" {
		t.Errorf("Output = %q, want result B", st.Output)
	}

	// A late failure must not surface either
	sender.stubborn["C"] = true
	_, doneC := c.Submit(context.Background(), "C", core.Endpoint{})
	waitStarted(t, sender, "C")
	_, doneD := c.Submit(context.Background(), "D", core.Endpoint{})
	waitStarted(t, sender, "D")
	sender.finish("D", "result D", nil)
	receive(t, doneD)
	sender.finish("C", "", errors.New("boom"))
	receive(t, doneC)

	if st := c.State(); st.Error != "" || st.Output != "result D" {
		t.Errorf("state = %+v", st)
	}
}

func TestCancelIsNotAnError(t *testing.T) {
	sender := newFakeSender()
	c := NewCoordinator(sender, zaptest.NewLogger(t))

	_, done := c.Submit(context.Background(), "A", core.Endpoint{})
	waitStarted(t, sender, "A")
	c.Cancel()

	if o := receive(t, done); o.Kind != core.OutcomeCancelled {
		t.Fatalf("outcome = %+v, want cancelled", o)
	}
	st := c.State()
	if st.Loading || st.Error != "" {
		t.Errorf("state = %+v", st)
	}
	c.Close()
}

func TestCoordinatorWithClient(t *testing.T) {
	slowArrived := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "slow") {
			close(slowArrived)
			<-r.Context().Done()
			return
		}
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"fast answer"}}]}`)
	}))
	defer server.Close()

	c := NewCoordinator(client.New(), zaptest.NewLogger(t))
	defer c.Close()
	ep := core.Endpoint{URL: server.URL, Credential: "model"}

	_, slow := c.Submit(context.Background(), "slow", ep)
	select {
	case <-slowArrived:
	case <-time.After(2 * time.Second):
		t.Fatal("slow request never reached the server")
	}
	_, fast := c.Submit(context.Background(), "fast", ep)

	if o := receive(t, slow); o.Kind != core.OutcomeCancelled {
		t.Errorf("slow outcome = %+v, want cancelled", o)
	}
	if o := receive(t, fast); o.Kind != core.OutcomeSuccess || o.Text != "fast answer" {
		t.Errorf("fast outcome = %+v", o)
	}
	if st := c.State(); st.Output != "fast answer" {
		t.Errorf("state = %+v", st)
	}
}
