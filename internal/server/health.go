package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the gRPC health service name reported next to the overall status.
const ServiceName = "file-ingestor"

// NewGRPCServer builds a gRPC server carrying only the health and reflection
// services, and returns the health server for status updates.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return s, hs
}

// WatchHealth runs ping every interval and mirrors the result into hs until
// ctx is done, then marks everything NOT_SERVING.
func WatchHealth(ctx context.Context, hs *health.Server, ping func(context.Context) error, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	last := healthpb.HealthCheckResponse_UNKNOWN
	check := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if err := ping(ctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			if last != status {
				logger.Warn("health check failing", "error", err)
			}
		} else if last != status {
			logger.Info("health check passing")
		}
		last = status
		hs.SetServingStatus("", status)
		hs.SetServingStatus(ServiceName, status)
	}

	check()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			check()
		}
	}
}
