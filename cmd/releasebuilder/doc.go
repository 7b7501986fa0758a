// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for releasebuilder.
//
// The root command interprets a ReleaseConfig file and publishes its
// artefacts. The config subcommands inspect and create the user settings
// file that supplies flag defaults.
package cmd
