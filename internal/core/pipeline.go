package core

import (
	"fmt"
	"sort"
	"sync"
)

// Pipeline holds a collection of processors and manages their execution
type Pipeline struct {
	mu         sync.RWMutex
	processors []Processor
}

// NewPipeline creates a new pipeline instance
func NewPipeline(processors ...Processor) *Pipeline {
	p := &Pipeline{
		processors: make([]Processor, 0, len(processors)),
	}
	for _, processor := range processors {
		p.AddProcessor(processor)
	}
	return p
}

// AddProcessor adds a processor, keeping the list ordered by priority
// (lower number = higher priority = runs earlier)
func (p *Pipeline) AddProcessor(processor Processor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processors = append(p.processors, processor)
	sort.SliceStable(p.processors, func(i, j int) bool {
		return p.processors[i].Priority() < p.processors[j].Priority()
	})
}

// Processors returns a copy of the ordered processor list
func (p *Pipeline) Processors() []Processor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Processor, len(p.processors))
	copy(out, p.processors)
	return out
}

// ExecuteRequest runs every processor's OnRequest, stopping at the first error
func (p *Pipeline) ExecuteRequest(ctx *CallContext, call *Call) error {
	if p == nil {
		return nil
	}
	for _, processor := range p.Processors() {
		if err := processor.OnRequest(ctx, call); err != nil {
			return fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}
	return nil
}

// ExecuteResponse runs every processor's OnResponse, stopping at the first error
func (p *Pipeline) ExecuteResponse(ctx *CallContext, call *Call) error {
	if p == nil {
		return nil
	}
	for _, processor := range p.Processors() {
		if err := processor.OnResponse(ctx, call); err != nil {
			return fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}
	return nil
}

// ExecuteComplete hands the final outcome to every processor
func (p *Pipeline) ExecuteComplete(ctx *CallContext, outcome Outcome) {
	if p == nil {
		return
	}
	for _, processor := range p.Processors() {
		processor.OnComplete(ctx, outcome)
	}
}
