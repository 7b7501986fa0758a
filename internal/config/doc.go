// SPDX-License-Identifier: MPL-2.0

// Package config handles user settings using Viper with CUE as the file format.
//
// Settings are loaded from config.cue in the platform config directory
// (~/.config/releasebuilder on Linux, ~/Library/Application Support/releasebuilder
// on macOS, %APPDATA%\releasebuilder on Windows), then from ./config.cue. A
// file given explicitly is used exclusively. The file is validated against an
// embedded schema (config_schema.cue) before it is merged over the defaults.
// RELEASEBUILDER_* environment variables override file values.
package config
