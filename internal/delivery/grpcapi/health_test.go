package grpcapi

import (
	"context"
	"errors"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func servingStatus(t *testing.T, h *HealthServer, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := h.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	return resp.Status
}

func TestHealthServer_FollowsPinger(t *testing.T) {
	var pingErr error
	h := NewHealthServer(func(context.Context) error { return pingErr }, time.Second)

	if got := servingStatus(t, h, ServiceName); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("initial status = %v, want SERVING", got)
	}

	pingErr = errors.New("connection refused")
	h.Check(context.Background())
	if got := servingStatus(t, h, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status after failed ping = %v, want NOT_SERVING", got)
	}

	pingErr = nil
	h.Check(context.Background())
	if got := servingStatus(t, h, ServiceName); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status after recovery = %v, want SERVING", got)
	}
}

func TestHealthServer_NilPingerStaysServing(t *testing.T) {
	h := NewHealthServer(nil, 0)
	h.Check(context.Background())
	if got := servingStatus(t, h, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v, want SERVING", got)
	}
}
