package adcp

import (
	"fmt"
	"strings"
)

// DeviceConfig describes one projector. Zero fields other than Host are
// filled with the ADCP defaults by NewLink.
type DeviceConfig struct {
	Host string
	Port int
	// Password is sent after the prompt. An empty password is sent as an
	// empty line.
	Password   string
	Name       string
	CommandOn  string
	CommandOff string
}

func (c DeviceConfig) withDefaults() DeviceConfig {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.CommandOn == "" {
		c.CommandOn = DefaultCommand
	}
	if c.CommandOff == "" {
		c.CommandOff = DefaultCommand
	}
	return c
}

// Validate checks the invariants of a device config.
func (c DeviceConfig) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535 (got %d)", ErrInvalidConfig, c.Port)
	}
	if c.CommandOn == "" {
		return fmt.Errorf("%w: command_on is required", ErrInvalidConfig)
	}
	if c.CommandOff == "" {
		return fmt.Errorf("%w: command_off is required", ErrInvalidConfig)
	}
	return nil
}

// CommandParams carries the per-call command options.
type CommandParams struct {
	// PictureMemory selects the memory slot; empty means DefaultPictureMemory.
	PictureMemory string
}

func (p CommandParams) pictureMemory() string {
	if p.PictureMemory == "" {
		return DefaultPictureMemory
	}
	return p.PictureMemory
}
