// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
)

// SettingsDirEnv names the environment variable that relocates the
// settings directory, e.g. to keep a build machine's settings in the repo.
const SettingsDirEnv = EnvPrefix + "_SETTINGS_DIR"

type (
	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath string
		// ConfigDirPath overrides the settings directory when set.
		ConfigDirPath string
	}

	// Provider loads the settings used as flag defaults.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
		// SettingsDir is the directory searched for config.cue.
		SettingsDir() (string, error)
	}

	// FileProvider reads config.cue from Dir, or from the user config
	// directory when Dir is empty.
	FileProvider struct {
		Dir string
	}
)

// NewProvider creates a FileProvider rooted at $RELEASEBUILDER_SETTINGS_DIR
// when it is set.
func NewProvider() *FileProvider {
	return &FileProvider{Dir: os.Getenv(SettingsDirEnv)}
}

// Load reads the settings. An explicit ConfigDirPath wins over Dir.
func (p *FileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if opts.ConfigDirPath == "" {
		opts.ConfigDirPath = p.Dir
	}
	cfg, _, err := Load(ctx, opts)
	return cfg, err
}

// SettingsDir returns Dir, falling back to the user config directory.
func (p *FileProvider) SettingsDir() (string, error) {
	if p.Dir != "" {
		return p.Dir, nil
	}
	return Dir()
}
