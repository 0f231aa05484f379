package router

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dtroode/docchat-server/internal/mocks"
	"github.com/dtroode/docchat-server/internal/testutil"
)

func TestRouter_Register(t *testing.T) {
	t.Parallel()
	r := New(mocks.NewPinger(t), testutil.MakeNoopLogger())
	s := r.Register()
	if s == nil {
		t.Fatalf("expected non-nil grpc server")
	}
	_, ok := s.GetServiceInfo()[healthpb.Health_ServiceDesc.ServiceName]
	assert.True(t, ok)
}

func dialHealth(t *testing.T, r *Router) healthpb.HealthClient {
	t.Helper()

	ln := bufconn.Listen(1 << 20)
	s := r.Register()
	go func() { _ = s.Serve(ln) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return ln.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return healthpb.NewHealthClient(conn)
}

func TestRouter_Probe(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		want    healthpb.HealthCheckResponse_ServingStatus
	}{
		{name: "database reachable", pingErr: nil, want: healthpb.HealthCheckResponse_SERVING},
		{name: "database down", pingErr: assert.AnError, want: healthpb.HealthCheckResponse_NOT_SERVING},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := mocks.NewPinger(t)
			db.On("Ping", mock.Anything).Return(tt.pingErr).Once()

			r := New(db, testutil.MakeNoopLogger())
			client := dialHealth(t, r)
			r.Probe(context.Background())

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			for _, service := range []string{"", ServiceName} {
				resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
				require.NoError(t, err)
				assert.Equal(t, tt.want, resp.GetStatus())
			}
		})
	}
}

func TestRouter_Watch_StopsOnCancel(t *testing.T) {
	db := mocks.NewPinger(t)
	db.On("Ping", mock.Anything).Return(nil)

	r := New(db, testutil.MakeNoopLogger())
	client := dialHealth(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Watch(ctx, time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
