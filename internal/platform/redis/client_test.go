package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgv/internal/platform/config"
)

func TestOptions(t *testing.T) {
	t.Run("applies configured pool settings", func(t *testing.T) {
		opts, err := Options(config.RedisConfig{
			URL:          "redis://cache:6380/2",
			PoolSize:     4,
			MinIdleConns: 1,
			DialTimeout:  time.Second,
			ReadTimeout:  2 * time.Second,
		})
		require.NoError(t, err)
		assert.Equal(t, "cache:6380", opts.Addr)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, 4, opts.PoolSize)
		assert.Equal(t, 1, opts.MinIdleConns)
		assert.Equal(t, time.Second, opts.DialTimeout)
		assert.Equal(t, 2*time.Second, opts.ReadTimeout)
		assert.Equal(t, "bgv", opts.ClientName)
	})

	t.Run("keeps defaults for zero values", func(t *testing.T) {
		opts, err := Options(config.RedisConfig{URL: "redis://localhost:6379"})
		require.NoError(t, err)
		assert.Zero(t, opts.PoolSize)
		assert.Zero(t, opts.WriteTimeout)
	})

	t.Run("rejects a malformed URL", func(t *testing.T) {
		_, err := Options(config.RedisConfig{URL: "http://localhost"})
		assert.Error(t, err)
	})
}

func TestNewWithoutURL(t *testing.T) {
	client, err := New(t.Context(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}
