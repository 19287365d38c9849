package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis поднимает Redis в контейнере.
func setupRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestULULimiter_Redis(t *testing.T) {
	addr := setupRedis(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, RedisConfig{Addr: addr, DialTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	t.Run("SharedAcrossInstances", func(t *testing.T) {
		a, err := NewRedis(client, "test-shared")
		require.NoError(t, err)
		b, err := NewRedis(client, "test-shared")
		require.NoError(t, err)

		res, err := a.Allow(ctx, "10.0.0.9:/partners", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)

		res, err = b.Allow(ctx, "10.0.0.9:/partners", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)

		res, err = a.Allow(ctx, "10.0.0.9:/partners", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
	})

	t.Run("Pinger", func(t *testing.T) {
		p := RedisPinger{Client: client}
		assert.Equal(t, "redis", p.Name())
		assert.NoError(t, p.Ping(ctx))
	})
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})

	assert.Nil(t, client)
	assert.ErrorContains(t, err, "failed to ping redis")
}
