package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"github.com/rs/cors"

	"github.com/sulemanahmadzai/MD-Dashboard-sub001/internal/api/dashboardv1/dashboardv1connect"
	"github.com/sulemanahmadzai/MD-Dashboard-sub001/pkg/interceptors"
)

// routes mounts the RPC services and the health check.
func (d *Dependencies) routes() http.Handler {
	limiter := interceptors.NewRateLimiter(d.Config.Server.RateLimitPerSecond, d.Config.Server.RateLimitBurst)

	// The first interceptor listed is the outermost.
	opts := []connect.HandlerOption{
		connect.WithInterceptors(
			interceptors.NewLoggingInterceptor(d.Logger),
			interceptors.NewMetricsInterceptor(d.Metrics),
			interceptors.NewAuthInterceptor([]byte(d.Config.Auth.JWTSecret)),
			limiter.Interceptor(),
		),
		connect.WithReadMaxBytes(d.Config.Server.MaxRequestBytes),
	}

	mux := http.NewServeMux()
	mux.Handle(dashboardv1connect.NewIngestServiceHandler(d.IngestHandler, opts...))
	mux.Handle(dashboardv1connect.NewClassificationServiceHandler(d.ClassificationHandler, opts...))
	mux.Handle(dashboardv1connect.NewReportingServiceHandler(d.ReportingHandler, opts...))
	mux.HandleFunc("/health", d.health)

	return withCORS(d.Config.Server.AllowedOrigins, mux)
}

func (d *Dependencies) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if d.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Health(ctx); err != nil {
			d.Logger.Warn("health check failed", slog.Any("error", err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func withCORS(origins []string, h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: connectcors.AllowedMethods(),
		AllowedHeaders: append(connectcors.AllowedHeaders(), "Authorization"),
		ExposedHeaders: connectcors.ExposedHeaders(),
		MaxAge:         7200,
	}).Handler(h)
}
