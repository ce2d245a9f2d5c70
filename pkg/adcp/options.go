package adcp

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"
)

// LinkOption configures a Link.
type LinkOption func(*linkConfig) error

// linkConfig holds the runtime configuration for a Link.
type linkConfig struct {
	connectTimeout time.Duration
	readTimeout    time.Duration
	logger         *slog.Logger
	dialer         Dialer
	id             string
}

// Dialer opens the connection used by a single exchange.
// *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// defaultConfig returns the default link configuration.
func defaultConfig() *linkConfig {
	return &linkConfig{
		connectTimeout: 5 * time.Second,
		readTimeout:    5 * time.Second,
		logger:         nil,
		dialer:         &net.Dialer{},
	}
}

// WithConnectTimeout sets the timeout for establishing a connection.
// Default is 5 seconds.
func WithConnectTimeout(d time.Duration) LinkOption {
	return func(c *linkConfig) error {
		if d <= 0 {
			return errors.New("connect timeout must be positive")
		}
		c.connectTimeout = d
		return nil
	}
}

// WithReadTimeout sets how long each wait for a prompt or acknowledgement
// may block. Default is 5 seconds.
func WithReadTimeout(d time.Duration) LinkOption {
	return func(c *linkConfig) error {
		if d <= 0 {
			return errors.New("read timeout must be positive")
		}
		c.readTimeout = d
		return nil
	}
}

// WithLogger sets a structured logger for debug and error logging.
// By default, no logging is performed.
func WithLogger(logger *slog.Logger) LinkOption {
	return func(c *linkConfig) error {
		c.logger = logger
		return nil
	}
}

// WithID sets the key identifying the device in metrics and errors.
// Default is the host:port address.
func WithID(id string) LinkOption {
	return func(c *linkConfig) error {
		if id == "" {
			return errors.New("id must not be empty")
		}
		c.id = id
		return nil
	}
}

// WithDialer replaces the dialer used to reach the projector.
func WithDialer(d Dialer) LinkOption {
	return func(c *linkConfig) error {
		if d == nil {
			return errors.New("dialer must not be nil")
		}
		c.dialer = d
		return nil
	}
}
