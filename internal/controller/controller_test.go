package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zberg/go-adcp/internal/config"
	"github.com/zberg/go-adcp/pkg/adcp"
)

type fakeSwitch struct {
	name     string
	mu       sync.Mutex
	on       bool
	known    bool
	err      error
	calls    []adcp.CommandParams
	inFlight atomic.Int32
	overlap  atomic.Bool
	delay    time.Duration
}

func (f *fakeSwitch) Name() string { return f.name }

func (f *fakeSwitch) IsOn() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on, f.known
}

func (f *fakeSwitch) set(ctx context.Context, on bool, params adcp.CommandParams) error {
	if f.inFlight.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.inFlight.Add(-1)
	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	if f.err != nil {
		return f.err
	}
	f.on, f.known = on, true
	return nil
}

func (f *fakeSwitch) TurnOn(ctx context.Context, params adcp.CommandParams) error {
	return f.set(ctx, true, params)
}

func (f *fakeSwitch) TurnOff(ctx context.Context, params adcp.CommandParams) error {
	return f.set(ctx, false, params)
}

func TestTurnOnOff(t *testing.T) {
	sw := &fakeSwitch{name: "Cinema"}
	c := New(map[string]Switch{"cinema": sw}, nil)

	require.NoError(t, c.TurnOn(context.Background(), "cinema", adcp.CommandParams{PictureMemory: "2.35_1"}))
	assert.Equal(t, []SwitchState{{ID: "cinema", Name: "Cinema", On: true, Known: true}}, c.States())

	require.NoError(t, c.TurnOff(context.Background(), "cinema", adcp.CommandParams{}))
	assert.Equal(t, []SwitchState{{ID: "cinema", Name: "Cinema", On: false, Known: true}}, c.States())
	assert.Equal(t, []adcp.CommandParams{{PictureMemory: "2.35_1"}, {}}, sw.calls)
}

func TestTurnOn_UnknownSwitch(t *testing.T) {
	c := New(map[string]Switch{}, nil)

	err := c.TurnOn(context.Background(), "nope", adcp.CommandParams{})
	assert.ErrorIs(t, err, ErrUnknownSwitch)
}

func TestTurnOn_FailureKeepsState(t *testing.T) {
	sw := &fakeSwitch{name: "Cinema", err: adcp.ErrTimeout}
	c := New(map[string]Switch{"cinema": sw}, nil)

	err := c.TurnOn(context.Background(), "cinema", adcp.CommandParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, adcp.ErrTimeout))
	assert.Contains(t, err.Error(), `switch "cinema"`)
	assert.Equal(t, "cinema (Cinema): unknown", c.States()[0].String())
}

func TestCallsSerializedPerSwitch(t *testing.T) {
	sw := &fakeSwitch{name: "Cinema", delay: 10 * time.Millisecond}
	c := New(map[string]Switch{"cinema": sw}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.TurnOn(context.Background(), "cinema", adcp.CommandParams{})
		}()
	}
	wg.Wait()

	assert.False(t, sw.overlap.Load())
	assert.Len(t, sw.calls, 5)
}

func TestStatesSorted(t *testing.T) {
	c := New(map[string]Switch{
		"b": &fakeSwitch{name: "B", on: true, known: true},
		"a": &fakeSwitch{name: "A"},
	}, nil)

	states := c.States()
	require.Len(t, states, 2)
	assert.Equal(t, "a (A): unknown", states[0].String())
	assert.Equal(t, "b (B): on", states[1].String())
	assert.Equal(t, []string{"a", "b"}, c.IDs())

	state, err := c.State("b")
	require.NoError(t, err)
	assert.True(t, state.On)

	_, err = c.State("c")
	assert.ErrorIs(t, err, ErrUnknownSwitch)
}

func TestPoll(t *testing.T) {
	c := New(map[string]Switch{"a": &fakeSwitch{name: "A"}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var polls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- c.Poll(ctx, 10*time.Millisecond, func(states []SwitchState) {
			assert.Len(t, states, 1)
			polls.Add(1)
		})
	}()

	assert.Eventually(t, func() bool { return polls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Error(t, c.Poll(context.Background(), 0, func([]SwitchState) {}))
}

func TestFromConfig(t *testing.T) {
	cfg, err := config.Parse([]byte("switches:\n  cinema:\n    resource: 127.0.0.1\n    name: Cinema\n"))
	require.NoError(t, err)

	c, err := FromConfig(cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, []SwitchState{{ID: "cinema", Name: "Cinema"}}, c.States())

	link, ok := c.switches["cinema"].sw.(*adcp.Link)
	require.True(t, ok)
	assert.Equal(t, "cinema", link.ID())
}
