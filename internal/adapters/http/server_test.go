package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/vowdesk/internal/pkg/logger"
)

func testServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "127.0.0.1",
		Port:            "0", // random port
		ShutdownTimeout: 2 * time.Second,
		Logger:          logger.Discard(),
	}
}

func pingRouter() *gin.Engine {
	router := gin.New()
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReadHeaderTimeout)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.NotNil(t, cfg.Logger)
}

func TestServerConfig_Address(t *testing.T) {
	tests := []struct {
		host string
		port string
		want string
	}{
		{"localhost", "3000", "localhost:3000"},
		{"", "8080", ":8080"},
		{"::1", "9000", "[::1]:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			cfg := &ServerConfig{Host: tt.host, Port: tt.port}
			assert.Equal(t, tt.want, cfg.Address())
		})
	}
}

func TestNewServer_NilConfig(t *testing.T) {
	server := NewServer(nil, gin.New())

	require.NotNil(t, server)
	assert.Equal(t, "0.0.0.0:8080", server.httpServer.Addr)
	assert.Equal(t, 5*time.Second, server.httpServer.ReadHeaderTimeout)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	server := NewServer(testServerConfig(), pingRouter())
	require.NoError(t, server.Listen())

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	resp, err := http.Get("http://" + server.Addr() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	require.NoError(t, server.Shutdown(context.Background()))
	assert.NoError(t, <-errChan)
}

func TestServer_ShutdownHooks(t *testing.T) {
	t.Run("ReverseOrder", func(t *testing.T) {
		server := NewServer(testServerConfig(), pingRouter())
		var order []string
		server.OnShutdown(func(context.Context) error { order = append(order, "pool"); return nil })
		server.OnShutdown(func(context.Context) error { order = append(order, "relay"); return nil })

		require.NoError(t, server.Shutdown(context.Background()))

		assert.Equal(t, []string{"relay", "pool"}, order)
	})

	t.Run("ErrorsJoined", func(t *testing.T) {
		server := NewServer(testServerConfig(), pingRouter())
		boom := errors.New("nats drain failed")
		ran := false
		server.OnShutdown(func(context.Context) error { ran = true; return nil })
		server.OnShutdown(func(context.Context) error { return boom })

		err := server.Shutdown(context.Background())

		assert.ErrorIs(t, err, boom)
		assert.True(t, ran, "remaining hooks still run")
	})
}

func TestServer_Run_Cancellation(t *testing.T) {
	server := NewServer(testServerConfig(), pingRouter())
	hookCalled := make(chan struct{})
	server.OnShutdown(func(context.Context) error {
		close(hookCalled)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shutdown in time")
	}

	select {
	case <-hookCalled:
	default:
		t.Fatal("shutdown hook was not called")
	}
}

func TestServer_ListenError(t *testing.T) {
	first := NewServer(testServerConfig(), pingRouter())
	require.NoError(t, first.Listen())
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	_, port, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	cfg := testServerConfig()
	cfg.Port = port
	second := NewServer(cfg, pingRouter())

	err = second.Listen()

	assert.ErrorContains(t, err, "listen on")
}
