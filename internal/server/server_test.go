package server_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/serroba/guildbot/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServer(t *testing.T) {
	t.Run("serves until shutdown", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("pong"))
		})

		srv := server.New("127.0.0.1:0", mux, time.Second, zap.NewNop())
		require.NoError(t, srv.Start(context.Background()))

		resp, err := http.Get("http://" + srv.Addr() + "/ping")
		require.NoError(t, err)

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		require.NoError(t, err)
		assert.Equal(t, "pong", string(body))

		require.NoError(t, srv.Shutdown())

		_, err = http.Get("http://" + srv.Addr() + "/ping")
		assert.Error(t, err)
	})

	t.Run("returns bind error", func(t *testing.T) {
		first := server.New("127.0.0.1:0", http.NewServeMux(), time.Second, zap.NewNop())
		require.NoError(t, first.Start(context.Background()))

		defer func() { _ = first.Shutdown() }()

		second := server.New(first.Addr(), http.NewServeMux(), time.Second, zap.NewNop())

		assert.Error(t, second.Start(context.Background()))
	})

	t.Run("addr is safe to read while starting", func(t *testing.T) {
		srv := server.New("127.0.0.1:0", http.NewServeMux(), time.Second, zap.NewNop())

		done := make(chan struct{})

		go func() {
			defer close(done)

			for range 100 {
				_ = srv.Addr()
			}
		}()

		require.NoError(t, srv.Start(context.Background()))
		<-done

		assert.NotEqual(t, "127.0.0.1:0", srv.Addr(), "bound port replaces the configured one")
		require.NoError(t, srv.Shutdown())
	})

	t.Run("shutdown before start is a no-op", func(t *testing.T) {
		srv := server.New(":0", http.NewServeMux(), 0, zap.NewNop())

		assert.NoError(t, srv.Shutdown())
	})
}
