package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CallContext extends standard context with the state of one logical request
type CallContext struct {
	context.Context
	RequestID string
	StartTime time.Time
	Endpoint  Endpoint
	Backend   BackendKind
	Log       *zap.Logger

	mu       sync.RWMutex
	metadata map[string]interface{}
}

type requestIDKey struct{}

// WithRequestID stores id in ctx for NewCallContext to pick up
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored by WithRequestID
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// NewCallContext creates a CallContext, reusing the request id carried by ctx or generating one.
// The logger is tagged with the request id and backend so processors need not repeat them.
func NewCallContext(ctx context.Context, ep Endpoint, logger *zap.Logger) *CallContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	id, ok := RequestIDFrom(ctx)
	if !ok {
		id = uuid.NewString()
	}
	kind := ep.Kind()
	return &CallContext{
		Context:   ctx,
		RequestID: id,
		StartTime: time.Now(),
		Endpoint:  ep,
		Backend:   kind,
		Log:       logger.With(zap.String("request_id", id), zap.String("backend", string(kind))),
		metadata:  make(map[string]interface{}),
	}
}

// Metadata keys written by the request client
const (
	// MetadataAttempts holds the number of HTTP attempts made so far (int)
	MetadataAttempts = "attempts"
	// MetadataBackoff holds the total time spent in backoff sleeps (time.Duration)
	MetadataBackoff = "backoff"
)

// SetMetadata sets a metadata value (thread-safe)
func (c *CallContext) SetMetadata(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metadata[key] = value
}

// GetMetadata gets a metadata value (thread-safe)
func (c *CallContext) GetMetadata(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.metadata[key]
	return v, ok
}
