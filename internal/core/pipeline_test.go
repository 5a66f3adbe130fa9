package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type recordingProcessor struct {
	name     string
	priority int
	trace    *[]string
	fail     bool
}

func (p *recordingProcessor) Name() string  { return p.name }
func (p *recordingProcessor) Priority() int { return p.priority }

func (p *recordingProcessor) OnRequest(ctx *CallContext, call *Call) error {
	*p.trace = append(*p.trace, p.name+":request")
	if p.fail {
		return errors.New("rejected")
	}
	return nil
}

func (p *recordingProcessor) OnResponse(ctx *CallContext, call *Call) error {
	*p.trace = append(*p.trace, p.name+":response")
	return nil
}

func (p *recordingProcessor) OnComplete(ctx *CallContext, outcome Outcome) {
	*p.trace = append(*p.trace, p.name+":complete:"+outcome.Kind.String())
}

func TestPipelineOrdersByPriority(t *testing.T) {
	var trace []string
	p := NewPipeline(
		&recordingProcessor{name: "metrics", priority: 100, trace: &trace},
		&recordingProcessor{name: "logger", priority: -100, trace: &trace},
		&recordingProcessor{name: "middle", priority: 0, trace: &trace},
	)
	ctx := NewCallContext(context.Background(), Endpoint{URL: "http://localhost"}, nil)
	call := &Call{}

	if err := p.ExecuteRequest(ctx, call); err != nil {
		t.Fatal(err)
	}
	if err := p.ExecuteResponse(ctx, call); err != nil {
		t.Fatal(err)
	}
	p.ExecuteComplete(ctx, Success("ok"))

	want := "logger:request middle:request metrics:request " +
		"logger:response middle:response metrics:response " +
		"logger:complete:success middle:complete:success metrics:complete:success"
	if got := strings.Join(trace, " "); got != want {
		t.Errorf("trace = %s", got)
	}
}

func TestPipelineStopsOnError(t *testing.T) {
	var trace []string
	p := NewPipeline(
		&recordingProcessor{name: "guard", priority: 0, trace: &trace, fail: true},
		&recordingProcessor{name: "after", priority: 1, trace: &trace},
	)
	ctx := NewCallContext(context.Background(), Endpoint{}, nil)

	err := p.ExecuteRequest(ctx, &Call{})
	if err == nil || !strings.Contains(err.Error(), "processor guard") {
		t.Fatalf("ExecuteRequest() error = %v", err)
	}
	if len(trace) != 1 {
		t.Errorf("trace = %v", trace)
	}
}

func TestNilPipeline(t *testing.T) {
	var p *Pipeline
	ctx := NewCallContext(context.Background(), Endpoint{}, nil)
	if err := p.ExecuteRequest(ctx, &Call{}); err != nil {
		t.Error(err)
	}
	if err := p.ExecuteResponse(ctx, &Call{}); err != nil {
		t.Error(err)
	}
	p.ExecuteComplete(ctx, CancelledOutcome())
}

func TestCallContext(t *testing.T) {
	ctx := NewCallContext(context.Background(), Endpoint{URL: "http://127.0.0.1:1234"}, zap.NewNop())
	if ctx.RequestID == "" || ctx.Backend != BackendLocal {
		t.Errorf("ctx = %+v", ctx)
	}

	ctx.SetMetadata("model", "llama")
	if v, ok := ctx.GetMetadata("model"); !ok || v != "llama" {
		t.Errorf("GetMetadata() = %v, %v", v, ok)
	}
	if _, ok := ctx.GetMetadata(MetadataAttempts); ok {
		t.Error("attempts must be unset on a fresh context")
	}

	withID := NewCallContext(WithRequestID(context.Background(), "req-1"), Endpoint{}, nil)
	if withID.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want req-1", withID.RequestID)
	}
}
