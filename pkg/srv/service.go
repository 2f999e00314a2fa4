package srv

import (
	"context"
	"time"

	"github.com/sandevgo/tuskmem/pkg/log"
)

// Service is a long-running component. Start may block until Shutdown is called.
type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

const shutdownTimeout = 10 * time.Second

// StartServices launches every service in its own goroutine. A failing Start
// is fatal for the process.
func StartServices(ctx context.Context, services []Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			if err := service.Start(ctx); err != nil {
				logger.Fatal().Err(err).Msgf("%T failed to start", service)
			}
		}(service)
	}
}

// ShutdownServices waits for ctx to end and stops services in reverse start order.
func ShutdownServices(ctx context.Context, services []Service) {
	<-ctx.Done()

	// ctx is already done here, so give shutdown its own deadline.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	for i := len(services) - 1; i >= 0; i-- {
		service := services[i]
		if err := service.Shutdown(sctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msgf("%T failed to shutdown", service)
		}
	}
}
