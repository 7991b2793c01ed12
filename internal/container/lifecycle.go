package container

import (
	"context"
	"fmt"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/guildbot/internal/counter"
	"github.com/serroba/guildbot/internal/handlers"
	"github.com/serroba/guildbot/internal/health"
	"github.com/serroba/guildbot/internal/lifecycle"
	"github.com/serroba/guildbot/internal/messaging"
	"github.com/serroba/guildbot/internal/platform"
	"github.com/serroba/guildbot/internal/scheduler"
	"github.com/serroba/guildbot/internal/server"
	"github.com/serroba/guildbot/internal/store"
	"go.uber.org/zap"
)

// HTTPPackage provides the router, the huma API with health and stats
// routes, the /metrics endpoint and the server component.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		router := do.MustInvoke[*chi.Mux](i)
		logger := do.MustInvoke[*zap.Logger](i)
		counts := do.MustInvoke[counter.Store](i)

		api := humachi.New(router, huma.DefaultConfig("Guild Bot", "1.0.0"))

		health.RegisterRoutes(api, health.NewHandler(
			health.Check{Name: "redis", Checker: do.MustInvoke[*health.RedisChecker](i)},
			health.Check{Name: "counter", Checker: health.StoreChecker(counts)},
			health.Check{Name: "scheduler", Checker: health.SchedulerChecker(do.MustInvoke[*scheduler.Scheduler](i))},
		))

		var latest handlers.LatestReader
		if opts.HasSink(SinkPostgres) {
			latest = do.MustInvoke[*store.PostgresSink](i)
		}

		handlers.RegisterRoutes(api, handlers.NewStatsHandler(counts, latest, logger.Named("http")))

		router.Handle("/metrics", promhttp.HandlerFor(do.MustInvoke[*prometheus.Registry](i), promhttp.HandlerOpts{}))

		return api, nil
	})

	do.Provide(i, func(i *do.Injector) (*server.Server, error) {
		opts := do.MustInvoke[*Options](i)

		// Invoke API to trigger route registration
		_ = do.MustInvoke[huma.API](i)

		return server.New(
			fmt.Sprintf(":%d", opts.Port),
			do.MustInvoke[*chi.Mux](i),
			server.DefaultShutdownTimeout,
			do.MustInvoke[*zap.Logger](i).Named("http"),
		), nil
	})
}

// LifecyclePackage provides the controller owning start and shutdown order.
// Components start in the order added and stop in reverse, except the intake
// consumer, which stops first.
func LifecyclePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*lifecycle.Controller, error) {
		opts := do.MustInvoke[*Options](i)
		c := lifecycle.NewController(do.MustInvoke[*zap.Logger](i).Named("lifecycle"))

		redisClient := do.MustInvoke[*redis.Client](i)
		c.Add("redis", lifecycle.Hooks{
			OnStart: func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()

				return redisClient.Ping(ctx).Err()
			},
			OnStop: redisClient.Close,
		})

		if opts.HasSink(SinkPostgres) {
			pool := do.MustInvoke[*pgxpool.Pool](i)
			sink := do.MustInvoke[*store.PostgresSink](i)

			c.Add("postgres", lifecycle.Hooks{
				OnStart: sink.Migrate,
				OnStop: func() error {
					pool.Close()

					return nil
				},
			})
		}

		c.Add("counter store", lifecycle.Hooks{OnStop: do.MustInvoke[counter.Store](i).Close})
		c.Add("publisher", lifecycle.Hooks{OnStop: do.MustInvoke[*messaging.PublisherGroup](i).Shutdown})
		c.AddIntake("intake", do.MustInvoke[*messaging.Consumer[platform.Envelope]](i))
		c.Add("scheduler", do.MustInvoke[*scheduler.Scheduler](i))
		c.Add("http", do.MustInvoke[*server.Server](i))

		return c, nil
	})
}
