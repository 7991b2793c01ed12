package container_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/do"
	"github.com/serroba/guildbot/internal/commands"
	"github.com/serroba/guildbot/internal/container"
	"github.com/serroba/guildbot/internal/counter"
	"github.com/serroba/guildbot/internal/platform"
	"github.com/serroba/guildbot/internal/report"
	"github.com/serroba/guildbot/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopClient struct{}

func (nopClient) AssignRole(_ context.Context, _ platform.MemberRef, _ platform.RoleID) error {
	return nil
}

func (nopClient) SendReply(_ context.Context, _ platform.ChannelID, _ string) error {
	return nil
}

func newInjector(opts *container.Options) *do.Injector {
	injector := do.New()
	do.ProvideValue(injector, opts)
	do.ProvideValue(injector, zap.NewNop())

	return injector
}

func TestOptions_SinkNames(t *testing.T) {
	opts := &container.Options{Sinks: " log, ,prometheus,postgres "}

	assert.Equal(t, []string{"log", "prometheus", "postgres"}, opts.SinkNames())
	assert.True(t, opts.HasSink(container.SinkPostgres))
	assert.False(t, opts.HasSink(container.SinkRedis))
}

func TestLoggerPackage(t *testing.T) {
	t.Run("builds a json logger", func(t *testing.T) {
		injector := do.New()
		do.ProvideValue(injector, &container.Options{LogFormat: "json"})
		container.LoggerPackage(injector)

		logger, err := do.Invoke[*zap.Logger](injector)

		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		injector := do.New()
		do.ProvideValue(injector, &container.Options{LogFormat: "xml"})
		container.LoggerPackage(injector)

		_, err := do.Invoke[*zap.Logger](injector)

		assert.Error(t, err)
	})
}

func TestCounterPackage(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		injector := newInjector(&container.Options{CounterBackend: container.BackendMemory})
		container.CounterPackage(injector)

		s, err := do.Invoke[counter.Store](injector)

		require.NoError(t, err)
		assert.IsType(t, &store.CounterMemoryStore{}, s)
	})

	t.Run("redis backend", func(t *testing.T) {
		injector := newInjector(&container.Options{CounterBackend: container.BackendRedis, RedisAddr: "localhost:6379"})
		container.RedisPackage(injector)
		container.CounterPackage(injector)

		s, err := do.Invoke[counter.Store](injector)

		require.NoError(t, err)
		assert.IsType(t, &store.RedisCounter{}, s)
	})

	t.Run("rejects unknown backend", func(t *testing.T) {
		injector := newInjector(&container.Options{CounterBackend: "etcd"})
		container.CounterPackage(injector)

		_, err := do.Invoke[counter.Store](injector)

		assert.Error(t, err)
	})
}

func TestReportPackage(t *testing.T) {
	t.Run("builds configured sinks in order", func(t *testing.T) {
		injector := newInjector(&container.Options{Sinks: "log,prometheus"})
		container.MetricsPackage(injector)
		container.ReportPackage(injector)

		sink, err := do.Invoke[report.Sink](injector)
		require.NoError(t, err)

		multi, ok := sink.(report.Multi)
		require.True(t, ok)
		require.Len(t, multi, 2)
		assert.Equal(t, container.SinkLog, multi[0].Name)
		assert.Equal(t, container.SinkPrometheus, multi[1].Name)

		assert.NoError(t, sink.Report(context.Background(), 5))
	})

	t.Run("rejects unknown sink", func(t *testing.T) {
		injector := newInjector(&container.Options{Sinks: "log,carrier-pigeon"})
		container.ReportPackage(injector)

		_, err := do.Invoke[report.Sink](injector)

		assert.ErrorIs(t, err, report.ErrSink)
	})

	t.Run("rejects empty sink list", func(t *testing.T) {
		injector := newInjector(&container.Options{Sinks: " "})
		container.ReportPackage(injector)

		_, err := do.Invoke[report.Sink](injector)

		assert.ErrorIs(t, err, report.ErrSink)
	})
}

func TestCommandsPackage(t *testing.T) {
	t.Run("registers defaults and quit", func(t *testing.T) {
		injector := newInjector(&container.Options{CommandRateLimit: 5})
		do.ProvideValue[platform.Client](injector, nopClient{})
		container.CommandsPackage(injector)

		registry, err := do.Invoke[*commands.Registry](injector)

		require.NoError(t, err)
		assert.Equal(t, []string{"github", "quit"}, registry.Names())
	})

	t.Run("loads static commands from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "commands.yaml")
		require.NoError(t, os.WriteFile(path, []byte("commands:\n  - name: docs\n    reply: https://example.com/docs\n"), 0o600))

		injector := newInjector(&container.Options{CommandsFile: path})
		do.ProvideValue[platform.Client](injector, nopClient{})
		container.CommandsPackage(injector)

		registry, err := do.Invoke[*commands.Registry](injector)

		require.NoError(t, err)
		assert.Equal(t, []string{"docs", "quit"}, registry.Names())
	})

	t.Run("fails on missing commands file", func(t *testing.T) {
		injector := newInjector(&container.Options{CommandsFile: filepath.Join(t.TempDir(), "missing.yaml")})
		do.ProvideValue[platform.Client](injector, nopClient{})
		container.CommandsPackage(injector)

		_, err := do.Invoke[*commands.Registry](injector)

		assert.Error(t, err)
	})
}
