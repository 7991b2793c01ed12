package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/samber/do"
	"github.com/serroba/guildbot/internal/container"
	"github.com/serroba/guildbot/internal/lifecycle"
	"go.uber.org/zap"
)

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.CounterPackage(injector)
	container.MetricsPackage(injector)
	container.MessagingPackage(injector)
	container.PlatformPackage(injector)
	container.ReportPackage(injector)
	container.CommandsPackage(injector)
	container.SchedulerPackage(injector)
	container.DispatchPackage(injector)
	container.HTTPPackage(injector)
	container.LifecyclePackage(injector)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		registerPackages(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		var once sync.Once

		release := func() {
			once.Do(func() {
				if err := injector.Shutdown(); err != nil {
					logger.Error("service shutdown error", zap.Error(err))
				}

				logger.Info("shutdown complete")
				_ = logger.Sync()
			})
		}

		hooks.OnStart(func() {
			controller, err := do.Invoke[*lifecycle.Controller](injector)
			if err != nil {
				logger.Fatal("failed to assemble bot", zap.Error(err))
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("bot starting", zap.Int("port", options.Port))

			// Returns after the quit command or an interrupt.
			err = controller.Run(ctx)

			release()

			if err != nil && !errors.Is(err, lifecycle.ErrShuttingDown) {
				logger.Fatal("bot stopped with error", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			if controller, err := do.Invoke[*lifecycle.Controller](injector); err == nil {
				if err := controller.Shutdown(); err != nil {
					logger.Error("graceful shutdown error", zap.Error(err))
				}
			}

			release()
		})
	})

	cli.Run()
}
