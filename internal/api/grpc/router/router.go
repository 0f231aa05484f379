package router

import (
	"context"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/docchat-server/internal/api/grpc/middleware"
	"github.com/dtroode/docchat-server/internal/logger"
)

// ServiceName is the health service name reported alongside the overall status.
const ServiceName = "docchat.Server"

const probeTimeout = 2 * time.Second

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router builds the gRPC server that exposes health checks.
type Router struct {
	database Pinger
	health   *health.Server
	logger   *logger.Logger
}

// New creates new gRPC Router instance.
func New(database Pinger, logger *logger.Logger) *Router {
	return &Router{
		database: database,
		health:   health.NewServer(),
		logger:   logger,
	}
}

// Register registers the health and reflection services with logging and
// recovery interceptors.
func (r *Router) Register() *grpc.Server {
	interceptorLogger := middleware.InterceptorLogger(r.logger)
	recoveryOpt := recovery.WithRecoveryHandlerContext(middleware.RecoveryHandler(r.logger))

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.UnaryServerInterceptor(interceptorLogger, logging.WithLogOnEvents(logging.FinishCall)),
			recovery.UnaryServerInterceptor(recoveryOpt),
		),
		grpc.ChainStreamInterceptor(
			logging.StreamServerInterceptor(interceptorLogger, logging.WithLogOnEvents(logging.FinishCall)),
			recovery.StreamServerInterceptor(recoveryOpt),
		),
	)

	healthpb.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	return s
}

// Probe pings the database once and publishes the result.
func (r *Router) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := r.database.Ping(ctx); err != nil {
		r.logger.Warn("gRPC health: database ping failed", "error", err.Error())
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	r.health.SetServingStatus("", status)
	r.health.SetServingStatus(ServiceName, status)
}

// Watch probes every interval until ctx is done, then marks every service
// as not serving.
func (r *Router) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			r.health.Shutdown()
			return
		case <-ticker.C:
			r.Probe(ctx)
		}
	}
}
