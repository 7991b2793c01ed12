package container

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/jaevor/go-nanoid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/guildbot/internal/commands"
	"github.com/serroba/guildbot/internal/counter"
	"github.com/serroba/guildbot/internal/dispatch"
	"github.com/serroba/guildbot/internal/lifecycle"
	"github.com/serroba/guildbot/internal/messaging"
	"github.com/serroba/guildbot/internal/metrics"
	"github.com/serroba/guildbot/internal/platform"
	"github.com/serroba/guildbot/internal/ratelimit"
	"github.com/serroba/guildbot/internal/report"
	"github.com/serroba/guildbot/internal/scheduler"
	"github.com/serroba/guildbot/internal/store"
	"go.uber.org/zap"
)

const (
	consumerGroup = "guildbot"
	commandWindow = time.Minute
)

// Sink names accepted by Options.Sinks.
const (
	SinkLog        = "log"
	SinkPrometheus = "prometheus"
	SinkRedis      = "redis"
	SinkPostgres   = "postgres"
	SinkStream     = "stream"
)

// MetricsPackage provides a dedicated Prometheus registry and the bot's collectors.
func MetricsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		return reg, nil
	})

	do.Provide(i, func(i *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(do.MustInvoke[*prometheus.Registry](i))
	})
}

// MessagingPackage provides the Redis Streams publisher and subscriber.
// Each gets its own client because closing them closes the client too.
func MessagingPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client:     redis.NewClient(&redis.Options{Addr: opts.RedisAddr}),
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			},
			messaging.NewZapLogger(logger.Named("publisher")),
		)
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(i, func(i *do.Injector) (*messaging.SubscriberGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		consumerID, err := nanoid.Standard(12)
		if err != nil {
			return nil, err
		}

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        redis.NewClient(&redis.Options{Addr: opts.RedisAddr}),
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: consumerGroup,
				Consumer:      consumerGroup + "-" + consumerID(),
			},
			messaging.NewZapLogger(logger.Named("subscriber")),
		)
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		return messaging.NewSubscriberGroup(subscriber), nil
	})
}

// PlatformPackage provides the outbound platform client.
func PlatformPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (platform.Client, error) {
		publisher := do.MustInvoke[*messaging.PublisherGroup](i).Publisher()

		return platform.NewBusClient(
			messaging.NewPublishFunc[platform.RoleAssignment](publisher, platform.TopicRoleAssign),
			messaging.NewPublishFunc[platform.Reply](publisher, platform.TopicReplySend),
		), nil
	})
}

// ReportPackage provides the fan-out sink built from Options.Sinks.
func ReportPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (report.Sink, error) {
		opts := do.MustInvoke[*Options](i)

		names := opts.SinkNames()
		if len(names) == 0 {
			return nil, fmt.Errorf("%w: no sinks configured", report.ErrSink)
		}

		sinks := make(report.Multi, 0, len(names))

		for _, name := range names {
			sink, err := newSink(i, name)
			if err != nil {
				return nil, err
			}

			sinks = append(sinks, report.Named{Name: name, Sink: sink})
		}

		return sinks, nil
	})
}

func newSink(i *do.Injector, name string) (report.Sink, error) {
	switch name {
	case SinkLog:
		return report.NewLogSink(do.MustInvoke[*zap.Logger](i)), nil
	case SinkPrometheus:
		return report.NewPrometheusSink(do.MustInvoke[*metrics.Metrics](i)), nil
	case SinkRedis:
		return store.NewRedisSink(do.MustInvoke[*redis.Client](i)), nil
	case SinkPostgres:
		return do.MustInvoke[*store.PostgresSink](i), nil
	case SinkStream:
		publisher := do.MustInvoke[*messaging.PublisherGroup](i).Publisher()

		return report.NewPublisherSink(
			messaging.NewPublishFunc[report.AggregateReported](publisher, report.TopicAggregate),
		), nil
	default:
		return nil, fmt.Errorf("%w: unknown sink %q", report.ErrSink, name)
	}
}

// CommandsPackage provides the command registry with throttling, the static
// reply commands and the owner-only quit command.
func CommandsPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*store.RateLimitMemoryStore, error) {
		return store.NewRateLimitMemoryStore(), nil
	})

	do.Provide(i, func(i *do.Injector) (*commands.Registry, error) {
		opts := do.MustInvoke[*Options](i)
		client := do.MustInvoke[platform.Client](i)

		limiter := ratelimit.NewSlidingWindowLimiter(
			do.MustInvoke[*store.RateLimitMemoryStore](i),
			int64(opts.CommandRateLimit),
			commandWindow,
		)
		registry := commands.NewRegistry(limiter)

		static := commands.DefaultStatic()

		if opts.CommandsFile != "" {
			loaded, err := commands.LoadStatic(opts.CommandsFile)
			if err != nil {
				return nil, err
			}

			static = loaded
		}

		commands.RegisterStatic(registry, client, static)

		owners := make([]platform.UserID, 0)
		for _, id := range splitList(opts.Owners) {
			owners = append(owners, platform.UserID(id))
		}

		// Resolved on use: the controller depends on the registry through
		// the intake consumer.
		stopper := commands.StopperFunc(func() {
			do.MustInvoke[*lifecycle.Controller](i).RequestShutdown()
		})
		registry.Register("quit", commands.Quit(client, stopper, owners))

		return registry, nil
	})
}

// SchedulerPackage provides the periodic aggregate reporter.
func SchedulerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*scheduler.Scheduler, error) {
		opts := do.MustInvoke[*Options](i)

		s := scheduler.New(
			do.MustInvoke[counter.Store](i),
			do.MustInvoke[report.Sink](i),
			time.Duration(opts.TickSeconds)*time.Second,
			time.Duration(opts.DrainSeconds)*time.Second,
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*zap.Logger](i).Named("scheduler"),
		)

		throttle := do.MustInvoke[*store.RateLimitMemoryStore](i)
		s.OnTick(func(_ scheduler.Tick, _ uint64, _ error) {
			throttle.Sweep(commandWindow)
		})

		return s, nil
	})
}

// DispatchPackage provides the event dispatcher and the intake consumer
// feeding it.
func DispatchPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*dispatch.Dispatcher, error) {
		opts := do.MustInvoke[*Options](i)

		return dispatch.New(
			do.MustInvoke[counter.Store](i),
			do.MustInvoke[platform.Client](i),
			do.MustInvoke[*commands.Registry](i),
			platform.RoleID(opts.JoinRole),
			do.MustInvoke[*metrics.Metrics](i),
			do.MustInvoke[*zap.Logger](i).Named("dispatch"),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*messaging.Consumer[platform.Envelope], error) {
		consumer := messaging.NewConsumer[platform.Envelope](
			do.MustInvoke[*messaging.SubscriberGroup](i).Subscriber(),
			platform.TopicEvents,
			do.MustInvoke[*dispatch.Dispatcher](i).HandleEnvelope,
			do.MustInvoke[*zap.Logger](i).Named("intake"),
		)

		m := do.MustInvoke[*metrics.Metrics](i)
		consumer.OnDrop(func(_ error) {
			m.RecordEvent("undecodable", "failed")
		})

		return consumer, nil
	})
}
