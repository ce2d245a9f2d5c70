package adcp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync/atomic"
	"time"
)

const (
	stateUnknown int32 = iota
	stateOff
	stateOn
)

// Link switches one projector. It holds no connection between calls; the
// only shared state is the cached result of the last successful exchange.
type Link struct {
	cfg            DeviceConfig
	id             string
	addr           string
	connectTimeout time.Duration
	readTimeout    time.Duration
	logger         *slog.Logger
	dialer         Dialer
	state          atomic.Int32
}

// NewLink validates cfg, applies defaults and returns a Link in the
// unknown state. No connection is opened.
func NewLink(cfg DeviceConfig, opts ...LinkOption) (*Link, error) {
	lc := defaultConfig()
	for _, opt := range opts {
		if err := opt(lc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	id := lc.id
	if id == "" {
		id = addr
	}

	l := &Link{
		cfg:            cfg,
		id:             id,
		addr:           addr,
		connectTimeout: lc.connectTimeout,
		readTimeout:    lc.readTimeout,
		logger:         lc.logger,
		dialer:         lc.dialer,
	}
	switchStateGauge.WithLabelValues(id).Set(-1)

	return l, nil
}

// ID returns the key identifying the device in metrics and errors.
func (l *Link) ID() string {
	return l.id
}

// Name returns the display name of the device.
func (l *Link) Name() string {
	return l.cfg.Name
}

// Config returns the effective device config, defaults applied.
func (l *Link) Config() DeviceConfig {
	return l.cfg
}

// IsOn reports the cached state. known is false until an exchange has
// succeeded.
func (l *Link) IsOn() (on bool, known bool) {
	switch l.state.Load() {
	case stateOn:
		return true, true
	case stateOff:
		return false, true
	}
	return false, false
}

// TurnOn sends the "on" command. The cached state becomes on only if the
// whole exchange succeeds.
func (l *Link) TurnOn(ctx context.Context, params CommandParams) error {
	return l.switchTo(ctx, true, params)
}

// TurnOff sends the "off" command. The cached state becomes off only if
// the whole exchange succeeds.
func (l *Link) TurnOff(ctx context.Context, params CommandParams) error {
	return l.switchTo(ctx, false, params)
}

func (l *Link) switchTo(ctx context.Context, on bool, params CommandParams) error {
	template, label, next := l.cfg.CommandOff, "off", stateOff
	if on {
		template, label, next = l.cfg.CommandOn, "on", stateOn
	}

	start := time.Now()
	err := l.exchange(ctx, RenderCommand(template, params.pictureMemory()))
	exchangeDuration.WithLabelValues(l.id, label).Observe(time.Since(start).Seconds())
	exchangesTotal.WithLabelValues(l.id, label, resultLabel(err)).Inc()
	if err != nil {
		if l.logger != nil {
			l.logger.Debug("exchange failed", "device", l.id, "addr", l.addr, "command", label, "error", err)
		}
		return err
	}

	l.state.Store(next)
	if on {
		switchStateGauge.WithLabelValues(l.id).Set(1)
	} else {
		switchStateGauge.WithLabelValues(l.id).Set(0)
	}
	return nil
}

// exchange runs connect, authenticate, command and acknowledge on a fresh
// connection and always closes it.
func (l *Link) exchange(ctx context.Context, command string) (err error) {
	state := StateDisconnected
	fail := func(cause error) error {
		return &ExchangeError{Device: l.id, State: state, Err: cause}
	}

	if err := checkASCII("host", l.cfg.Host); err != nil {
		return fail(err)
	}
	password, err := encodeLine("password", l.cfg.Password)
	if err != nil {
		return fail(err)
	}
	line, err := encodeLine("command", command)
	if err != nil {
		return fail(err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, l.connectTimeout)
	conn, err := l.dialer.DialContext(dialCtx, "tcp", l.addr)
	cancel()
	if err != nil {
		return fail(fmt.Errorf("%w: dial %s: %w", ErrConnection, l.addr, err))
	}
	state = StateConnected
	if l.logger != nil {
		l.logger.Debug("connected to device", "device", l.id, "addr", l.addr)
	}

	// Unblock a pending read or write as soon as ctx is done.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer func() {
		stop()
		closeErr := conn.Close()
		if err == nil && closeErr != nil {
			err = fail(fmt.Errorf("%w: close: %w", ErrConnection, closeErr))
		}
		reached := state
		state = StateClosed
		if l.logger != nil {
			l.logger.Debug("connection closed", "device", l.id, "addr", l.addr, "state", state, "reached", reached, "ok", err == nil)
		}
	}()

	s := newSession(conn, l.readTimeout)

	state = StateAuthenticating
	if err := s.waitFor(ctx, tokenPassword, nil); err != nil {
		return fail(err)
	}
	if err := s.writeLine(ctx, password); err != nil {
		return fail(err)
	}
	if err := s.waitFor(ctx, tokenOK, ErrAuthRejected); err != nil {
		return fail(err)
	}
	state = StateAuthenticated
	if l.logger != nil {
		l.logger.Debug("authenticated", "device", l.id)
	}

	if err := s.writeLine(ctx, line); err != nil {
		return fail(err)
	}
	state = StateCommandSent
	if l.logger != nil {
		l.logger.Debug("command sent", "device", l.id, "command", command)
	}

	if err := s.waitFor(ctx, tokenOK, ErrCommandRejected); err != nil {
		return fail(err)
	}
	state = StateAcknowledged

	return nil
}
