package interceptors

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/metrics"
)

// NewLoggingInterceptor logs every RPC with its outcome and latency.
func NewLoggingInterceptor(logger *slog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				slog.String("procedure", req.Spec().Procedure),
				slog.Duration("duration", time.Since(start)),
			}
			if id, ok := GetUserIDFromContext(ctx); ok {
				attrs = append(attrs, slog.String("user_id", id))
			}
			if err != nil {
				code := connect.CodeOf(err)
				attrs = append(attrs, slog.String("code", code.String()), slog.Any("error", err))
				if code == connect.CodeInternal || code == connect.CodeUnknown {
					logger.Error("rpc failed", attrs...)
				} else {
					logger.Warn("rpc rejected", attrs...)
				}
				return resp, err
			}
			logger.Info("rpc completed", attrs...)
			return resp, nil
		}
	}
}

// NewMetricsInterceptor records request counts and latency.
func NewMetricsInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			code := "ok"
			if err != nil {
				code = connect.CodeOf(err).String()
			}
			m.ObserveRPC(req.Spec().Procedure, code, time.Since(start))
			return resp, err
		}
	}
}
