package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

// GRPCHandler serves grpc.health.v1.Health backed by the database ping.
type GRPCHandler struct {
	health *health.Server
	db     Pinger
	logger zerolog.Logger
}

// NewGRPCHandler creates a new gRPC handler
func NewGRPCHandler(db Pinger, logger zerolog.Logger) *GRPCHandler {
	return &GRPCHandler{
		health: health.NewServer(),
		db:     db,
		logger: logger.With().Str("handler", "grpc").Logger(),
	}
}

// NewServer builds a gRPC server with the health service, reflection and the
// logging interceptor.
func (h *GRPCHandler) NewServer() *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryServerInterceptor(h.logger)))
	healthpb.RegisterHealthServer(s, h.health)
	reflection.Register(s)
	return s
}

// CheckHealth pings the database and publishes the result as the overall
// serving status.
func (h *GRPCHandler) CheckHealth(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("database ping failed")
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", st)
	return st
}

// WatchHealth re-checks health every interval until ctx is done.
func (h *GRPCHandler) WatchHealth(ctx context.Context, interval time.Duration) error {
	h.CheckHealth(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h.CheckHealth(ctx)
		}
	}
}

// Shutdown reports NOT_SERVING to every watcher.
func (h *GRPCHandler) Shutdown() {
	h.health.Shutdown()
}

// UnaryServerInterceptor logs each call and converts service errors into gRPC
// statuses carrying only the public message.
func UnaryServerInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if err != nil {
			if _, ok := status.FromError(err); !ok {
				code := errors.CodeOf(err)
				if code == errors.ErrCodeInternal {
					logger.Error().Err(err).Str("method", info.FullMethod).Msg("gRPC call failed")
				}
				err = status.Error(code.GRPCCode(), errors.PublicMessage(err))
			}
		}

		logger.Debug().
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("duration", time.Since(start)).
			Msg("gRPC call")
		return resp, err
	}
}
