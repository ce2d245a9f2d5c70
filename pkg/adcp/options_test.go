package adcp

import (
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithConnectTimeout_Valid(t *testing.T) {
	cfg := defaultConfig()

	err := WithConnectTimeout(10 * time.Second)(cfg)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.connectTimeout)
}

func TestWithConnectTimeout_Invalid(t *testing.T) {
	cfg := defaultConfig()

	err := WithConnectTimeout(0)(cfg)
	assert.Error(t, err)

	err = WithConnectTimeout(-1 * time.Second)(cfg)
	assert.Error(t, err)
}

func TestWithReadTimeout_Valid(t *testing.T) {
	cfg := defaultConfig()

	err := WithReadTimeout(3 * time.Second)(cfg)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.readTimeout)
}

func TestWithReadTimeout_Invalid(t *testing.T) {
	cfg := defaultConfig()

	err := WithReadTimeout(0)(cfg)
	assert.Error(t, err)

	err = WithReadTimeout(-1 * time.Second)(cfg)
	assert.Error(t, err)
}

func TestWithLogger(t *testing.T) {
	cfg := defaultConfig()
	assert.Nil(t, cfg.logger)

	logger := slog.Default()
	err := WithLogger(logger)(cfg)
	require.NoError(t, err)
	assert.Equal(t, logger, cfg.logger)
}

func TestWithDialer(t *testing.T) {
	cfg := defaultConfig()

	d := &net.Dialer{KeepAlive: time.Second}
	require.NoError(t, WithDialer(d)(cfg))
	assert.Same(t, d, cfg.dialer)

	assert.Error(t, WithDialer(nil)(cfg))
}

func TestWithID(t *testing.T) {
	cfg := defaultConfig()
	assert.Empty(t, cfg.id)

	require.NoError(t, WithID("cinema")(cfg))
	assert.Equal(t, "cinema", cfg.id)

	assert.Error(t, WithID("")(cfg))
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, 5*time.Second, cfg.connectTimeout)
	assert.Equal(t, 5*time.Second, cfg.readTimeout)
	assert.Nil(t, cfg.logger)
	assert.NotNil(t, cfg.dialer)
}
