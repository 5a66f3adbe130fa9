package processors

import (
	"time"

	"go.uber.org/zap"

	"textpilot/internal/core"
	"textpilot/internal/core/security"
)

// RequestLogger 记录每次上游调用的诊断日志（URL、请求体、状态）
type RequestLogger struct {
	name     string
	priority int
	scanner  *security.Scanner
}

// NewRequestLogger 创建一个新的请求日志处理器
func NewRequestLogger(scanner *security.Scanner) *RequestLogger {
	if scanner == nil {
		scanner = security.NewScanner()
	}
	return &RequestLogger{
		name:     "request-logger",
		priority: -100, // 必须是第一个执行
		scanner:  scanner,
	}
}

// Name 返回处理器名称
func (r *RequestLogger) Name() string {
	return r.name
}

// Priority 返回处理器优先级
func (r *RequestLogger) Priority() int {
	return r.priority
}

// secrets returns the values that must not appear in logs.
// For local backends the credential is a model id and is kept readable.
func (r *RequestLogger) secrets(ctx *core.CallContext) []string {
	if ctx.Backend == core.BackendLocal {
		return nil
	}
	return []string{ctx.Endpoint.Credential}
}

// OnRequest 记录请求 URL 和请求体
func (r *RequestLogger) OnRequest(ctx *core.CallContext, call *core.Call) error {
	secrets := r.secrets(ctx)
	ctx.Log.Info("Sending request",
		zap.Int("attempt", call.Attempt),
		zap.String("url", r.scanner.RedactURL(call.URL, secrets...)),
	)
	ctx.Log.Debug("Request payload",
		zap.Int("attempt", call.Attempt),
		zap.String("payload", r.scanner.Redact(string(call.Body), secrets...)),
	)
	return nil
}

// OnResponse 记录单次尝试的结果
func (r *RequestLogger) OnResponse(ctx *core.CallContext, call *core.Call) error {
	if call.Err != nil {
		ctx.Log.Warn("Attempt failed",
			zap.Int("attempt", call.Attempt),
			zap.Int("status", call.StatusCode),
			zap.Duration("duration", call.Duration),
			zap.String("error", r.scanner.Redact(call.Err.Error(), r.secrets(ctx)...)),
		)
		return nil
	}
	ctx.Log.Debug("Attempt succeeded",
		zap.Int("attempt", call.Attempt),
		zap.Int("status", call.StatusCode),
		zap.Duration("duration", call.Duration),
	)
	return nil
}

// OnComplete 记录请求完成，zap.Duration() 会自动格式化为带有单位的字符串
func (r *RequestLogger) OnComplete(ctx *core.CallContext, outcome core.Outcome) {
	fields := []zap.Field{
		zap.Duration("latency", time.Since(ctx.StartTime)),
		zap.String("status", outcome.Kind.String()),
	}
	// 重试次数与退避时间由 client 写入 metadata
	if v, ok := ctx.GetMetadata(core.MetadataAttempts); ok {
		if n, ok := v.(int); ok {
			fields = append(fields, zap.Int("attempts", n))
		}
	}
	if v, ok := ctx.GetMetadata(core.MetadataBackoff); ok {
		if d, ok := v.(time.Duration); ok {
			fields = append(fields, zap.Duration("backoff", d))
		}
	}
	switch outcome.Kind {
	case core.OutcomeFailure:
		fields = append(fields, zap.String("error", r.scanner.Redact(outcome.Err.Error(), r.secrets(ctx)...)))
		ctx.Log.Error("Request Finished", fields...)
	case core.OutcomeCancelled:
		ctx.Log.Info("Request aborted", fields...)
	default:
		ctx.Log.Info("Request Finished", fields...)
	}
}
