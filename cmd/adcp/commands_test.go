package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zberg/go-adcp/internal/controller"
)

type stubSwitch struct {
	controller.Switch
	name string
}

func (s stubSwitch) Name() string { return s.name }

func TestPickSwitch(t *testing.T) {
	single := controller.New(map[string]controller.Switch{"cinema": stubSwitch{name: "Cinema"}}, nil)

	id, err := pickSwitch(single, nil)
	require.NoError(t, err)
	assert.Equal(t, "cinema", id)

	id, err = pickSwitch(single, []string{"other"})
	require.NoError(t, err)
	assert.Equal(t, "other", id)

	multi := controller.New(map[string]controller.Switch{
		"a": stubSwitch{name: "A"},
		"b": stubSwitch{name: "B"},
	}, nil)
	_, err = pickSwitch(multi, nil)
	assert.ErrorContains(t, err, "one of: a, b")
}

func TestSetupLogger(t *testing.T) {
	logLevel = "debug"
	require.NoError(t, setupLogger(nil))
	assert.NotNil(t, logger)

	logLevel = "loud"
	assert.Error(t, setupLogger(nil))
	logLevel = "info"
}

func TestLoadController_RequiresTarget(t *testing.T) {
	configPath = ""
	target.Host = ""

	_, _, err := loadController()
	assert.ErrorContains(t, err, "--host or --config")
}
