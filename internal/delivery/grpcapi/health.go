package grpcapi

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall ("")
// status.
const ServiceName = "ib.commission.v1"

// Pinger reports whether a backing dependency is reachable.
type Pinger func(ctx context.Context) error

// HealthServer serves grpc.health.v1 and keeps the status in line with the
// ping result.
type HealthServer struct {
	health *health.Server
	ping   Pinger
	every  time.Duration
}

func NewHealthServer(ping Pinger, every time.Duration) *HealthServer {
	if every <= 0 {
		every = 15 * time.Second
	}
	h := &HealthServer{
		health: health.NewServer(),
		ping:   ping,
		every:  every,
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
	return h
}

func (h *HealthServer) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
}

// Watch runs the ping until ctx is done, then marks the service as not
// serving.
func (h *HealthServer) Watch(ctx context.Context) {
	ticker := time.NewTicker(h.every)
	defer ticker.Stop()

	for {
		h.Check(ctx)
		select {
		case <-ctx.Done():
			h.health.Shutdown()
			return
		case <-ticker.C:
		}
	}
}

// Check runs the ping once and updates the served status.
func (h *HealthServer) Check(ctx context.Context) {
	if h.ping == nil {
		return
	}
	pingCtx, cancel := context.WithTimeout(ctx, h.every)
	defer cancel()

	if err := h.ping(pingCtx); err != nil {
		slog.Warn("health ping failed", "error", err.Error())
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
}

func (h *HealthServer) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}
