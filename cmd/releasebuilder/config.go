// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rjtool/releasebuilder/internal/config"
)

// newConfigCommand creates the `releasebuilder config` command tree.
func newConfigCommand(app *App, f *buildFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage releasebuilder settings",
		Long: `Manage releasebuilder settings.

Settings supply defaults for the build flags and are stored in:
  - Linux: ~/.config/releasebuilder/config.cue
  - macOS: ~/Library/Application Support/releasebuilder/config.cue
  - Windows: %APPDATA%\releasebuilder\config.cue

RELEASEBUILDER_<KEY> environment variables override file values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.LoadOptions{ConfigFilePath: f.settingsCUE}
			if opts.ConfigFilePath == "" {
				dir, err := app.Config.SettingsDir()
				if err != nil {
					return failure(err, false)
				}
				opts.ConfigDirPath = dir
			}
			cfg, path, err := config.Load(cmd.Context(), opts)
			if err != nil {
				return failure(err, false)
			}
			showConfig(cmd.OutOrStdout(), path, cfg)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective settings as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: f.settingsCUE})
			if err != nil {
				return failure(err, false)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return err
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := app.Config.SettingsDir()
			if err != nil {
				return failure(err, false)
			}
			path, err := config.CreateDefaultConfig(dir)
			if err != nil {
				return failure(err, false)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Settings file: ")+path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the settings file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := app.Config.SettingsDir()
			if err != nil {
				return failure(err, false)
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the settings schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), config.Schema())
			return err
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, path string, cfg *config.Config) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Settings"))
	fmt.Fprintln(w)
	if path != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Settings file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Settings file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	list := func(values []string) string {
		if len(values) == 0 {
			return SubtitleStyle.Render("(none)")
		}
		return valueStyle.Render(strings.Join(values, ", "))
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("tools_dirs"), list(cfg.ToolsDirs))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("verbosity"), valueStyle.Render(fmt.Sprint(cfg.Verbosity)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("shell_exec"), valueStyle.Render(fmt.Sprint(cfg.ShellExec)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("nobuild"), valueStyle.Render(fmt.Sprint(cfg.NoBuild)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("default_target"), valueStyle.Render(cfg.DefaultTarget))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("modules"), list(cfg.Modules))
}
