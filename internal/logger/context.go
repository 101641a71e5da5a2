package logger

import (
	"context"

	"go.uber.org/zap"
)

type contextFieldsKey struct{}

// WithFields 将日志字段写入 context（如 request_id、batch_id），后续 FromContext 自动携带
func WithFields(ctx context.Context, kv ...interface{}) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(kv) == 0 {
		return ctx
	}
	existing, _ := ctx.Value(contextFieldsKey{}).([]interface{})
	merged := make([]interface{}, 0, len(existing)+len(kv))
	merged = append(merged, existing...)
	merged = append(merged, kv...)
	return context.WithValue(ctx, contextFieldsKey{}, merged)
}

// Fields 返回 context 中携带的日志字段
func Fields(ctx context.Context) []interface{} {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(contextFieldsKey{}).([]interface{})
	return fields
}

// FromContext 返回带 context 字段的 SugaredLogger
func FromContext(ctx context.Context) *zap.SugaredLogger {
	return SW(Fields(ctx)...)
}
