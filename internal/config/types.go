// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
)

// MaxVerbosity is the highest verbosity level.
const MaxVerbosity = 2

// ErrInvalidConfig is returned when decoded settings are out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the user settings.
type Config struct {
	// ToolsDirs are searched for exec apps.
	ToolsDirs []string `json:"tools_dirs" mapstructure:"tools_dirs"`
	// Verbosity is the default log verbosity (0-2).
	Verbosity int `json:"verbosity" mapstructure:"verbosity"`
	// ShellExec runs exec actions attached to the terminal.
	ShellExec bool `json:"shell_exec" mapstructure:"shell_exec"`
	// NoBuild skips build actions.
	NoBuild bool `json:"nobuild" mapstructure:"nobuild"`
	// DefaultTarget is the publish type used without --target.
	DefaultTarget string `json:"default_target" mapstructure:"default_target"`
	// Modules restricts builds to matching config names.
	Modules []string `json:"modules" mapstructure:"modules"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		ToolsDirs:     []string{},
		DefaultTarget: "live",
		Modules:       []string{},
	}
}

// Validate checks constraints on values that bypassed the schema, such as
// environment overrides.
func (c *Config) Validate() error {
	if c.Verbosity < 0 || c.Verbosity > MaxVerbosity {
		return fmt.Errorf("%w: verbosity %d is outside 0..%d", ErrInvalidConfig, c.Verbosity, MaxVerbosity)
	}
	if c.DefaultTarget == "" {
		return fmt.Errorf("%w: default_target must not be empty", ErrInvalidConfig)
	}
	return nil
}
