// Package controller drives a set of projector switches the way a home
// automation host does: turn on/off on demand and report cached state on
// a schedule.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/zberg/go-adcp/internal/config"
	"github.com/zberg/go-adcp/pkg/adcp"
)

var ErrUnknownSwitch = errors.New("unknown switch")

// Switch is the part of adcp.Link the controller depends on.
type Switch interface {
	Name() string
	IsOn() (on bool, known bool)
	TurnOn(ctx context.Context, params adcp.CommandParams) error
	TurnOff(ctx context.Context, params adcp.CommandParams) error
}

var _ Switch = (*adcp.Link)(nil)

// SwitchState is a snapshot of one switch's cached state.
type SwitchState struct {
	ID    string
	Name  string
	On    bool
	Known bool
}

func (s SwitchState) String() string {
	state := "unknown"
	if s.Known {
		state = "off"
		if s.On {
			state = "on"
		}
	}
	return fmt.Sprintf("%s (%s): %s", s.ID, s.Name, state)
}

type entry struct {
	sw Switch
	// mu serializes exchanges against one device.
	mu sync.Mutex
}

// Controller owns the switches keyed by id.
type Controller struct {
	switches map[string]*entry
	logger   *slog.Logger
}

// New builds a controller over existing switches.
func New(switches map[string]Switch, logger *slog.Logger) *Controller {
	c := &Controller{
		switches: make(map[string]*entry, len(switches)),
		logger:   logger,
	}
	for id, sw := range switches {
		c.switches[id] = &entry{sw: sw}
	}
	return c
}

// FromConfig creates one adcp.Link per configured switch.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Controller, error) {
	switches := make(map[string]Switch, len(cfg.Switches))
	for _, id := range cfg.Slugs() {
		link, err := adcp.NewLink(cfg.Switches[id].DeviceConfig(),
			adcp.WithConnectTimeout(cfg.ConnectTimeout),
			adcp.WithReadTimeout(cfg.ReadTimeout),
			adcp.WithLogger(logger),
			adcp.WithID(id),
		)
		if err != nil {
			return nil, fmt.Errorf("switch %q: %w", id, err)
		}
		switches[id] = link
	}
	return New(switches, logger), nil
}

// IDs returns the switch ids in sorted order.
func (c *Controller) IDs() []string {
	ids := make([]string, 0, len(c.switches))
	for id := range c.switches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TurnOn switches id on.
func (c *Controller) TurnOn(ctx context.Context, id string, params adcp.CommandParams) error {
	return c.run(ctx, id, "on", params, Switch.TurnOn)
}

// TurnOff switches id off.
func (c *Controller) TurnOff(ctx context.Context, id string, params adcp.CommandParams) error {
	return c.run(ctx, id, "off", params, Switch.TurnOff)
}

func (c *Controller) run(
	ctx context.Context,
	id, action string,
	params adcp.CommandParams,
	fn func(Switch, context.Context, adcp.CommandParams) error,
) error {
	e, ok := c.switches[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSwitch, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := fn(e.sw, ctx, params); err != nil {
		if c.logger != nil {
			c.logger.Error("switch action failed", "switch", id, "action", action, "error", err)
		}
		return fmt.Errorf("switch %q: %w", id, err)
	}
	if c.logger != nil {
		c.logger.Info("switch action succeeded", "switch", id, "action", action)
	}
	return nil
}

// States returns the cached state of every switch, sorted by id. It never
// performs network I/O.
func (c *Controller) States() []SwitchState {
	states := make([]SwitchState, 0, len(c.switches))
	for _, id := range c.IDs() {
		state, _ := c.State(id)
		states = append(states, state)
	}
	return states
}

// State returns the cached state of one switch.
func (c *Controller) State(id string) (SwitchState, error) {
	e, ok := c.switches[id]
	if !ok {
		return SwitchState{}, fmt.Errorf("%w: %q", ErrUnknownSwitch, id)
	}
	on, known := e.sw.IsOn()
	return SwitchState{ID: id, Name: e.sw.Name(), On: on, Known: known}, nil
}

// Poll calls fn with the current states immediately and then every
// interval until ctx is done.
func (c *Controller) Poll(ctx context.Context, interval time.Duration, fn func([]SwitchState)) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn(c.States())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(c.States())
		}
	}
}
