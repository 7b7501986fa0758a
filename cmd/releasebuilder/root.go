// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/rjtool/releasebuilder/internal/builder"
	"github.com/rjtool/releasebuilder/internal/config"
	"github.com/rjtool/releasebuilder/internal/gitversion"
	"github.com/rjtool/releasebuilder/internal/issue"
	"github.com/rjtool/releasebuilder/internal/rlog"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// App holds the collaborators shared by all commands.
	App struct {
		Config config.Provider
		// Versions overrides the version source of builds. Nil uses the
		// GitVersion tool with a repository fallback.
		Versions gitversion.Source

		exitCode int
	}

	buildFlags struct {
		root        string
		configFile  string
		target      string
		toolsDirs   []string
		modules     []string
		verbose     int
		noBuild     bool
		shellExec   bool
		settingsCUE string
	}
)

// NewApp creates an App with the default settings provider.
func NewApp() *App {
	return &App{Config: config.NewProvider()}
}

// ExitCode is the code recorded by the last successful build run.
func (a *App) ExitCode() int {
	return a.exitCode
}

// NewRootCommand builds the command tree.
func NewRootCommand(app *App) *cobra.Command {
	f := &buildFlags{}
	root := &cobra.Command{
		Use:   "releasebuilder",
		Short: "Build release archives from a ReleaseConfig file",
		Long: TitleStyle.Render("releasebuilder") + SubtitleStyle.Render(" - declarative release packaging") + `

releasebuilder reads ReleaseConfig.xml, binds version variables from
GitVersion or the git repository, runs the configured build actions and
publishes the collected artefacts to the target selected with --target.

` + SubtitleStyle.Render("Examples:") + `
  releasebuilder                         Build the "live" target from ./ReleaseConfig.xml
  releasebuilder -t test -v              Build the "test" target with trace logging
  releasebuilder -r src -m client -n     Package only the client module without build steps
  releasebuilder config show             Show the settings used for flag defaults`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runBuild(cmd, f)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&f.root, "root", "r", "", "build root (default is the working directory)")
	flags.StringVarP(&f.configFile, "config", "c", "", "release config file (default is <root>/ReleaseConfig.xml)")
	flags.StringVarP(&f.target, "target", "t", "", "publish target (default \""+builder.DefaultPublishType+"\")")
	flags.StringArrayVarP(&f.toolsDirs, "toolsdir", "p", nil, "additional directory searched for exec apps (repeatable)")
	flags.StringArrayVarP(&f.modules, "module", "m", nil, "only build configs whose name contains this (repeatable)")
	flags.CountVarP(&f.verbose, "verbose", "v", "increase logging: -v trace, -vv debug")
	flags.BoolVarP(&f.noBuild, "nobuild", "n", false, "skip build actions")
	flags.BoolVarP(&f.shellExec, "shell-exec", "s", false, "run exec actions attached to the terminal")
	root.PersistentFlags().StringVar(&f.settingsCUE, "settings", "", "settings file (default is "+settingsHint(app.Config)+")")

	root.AddCommand(newConfigCommand(app, f), newDirectivesCommand())
	return root
}

// settingsHint names the default settings file for help output.
func settingsHint(p config.Provider) string {
	if dir, err := p.SettingsDir(); err == nil {
		return filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)
	}
	return config.ConfigFileName + "." + config.ConfigFileExt
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the build's code. This is called by
// main.main().
func Execute() {
	app := NewApp()
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	os.Exit(exitCode(app, err))
}

func exitCode(app *App, err error) int {
	if err == nil {
		return app.exitCode
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// runBuild merges the settings file under the flags, then builds and
// processes the release.
func (a *App) runBuild(cmd *cobra.Command, f *buildFlags) error {
	ctx := cmd.Context()
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: f.settingsCUE})
	if err != nil {
		return failure(err, f.verbose > 0)
	}

	changed := cmd.Flags().Changed
	target := f.target
	if !changed("target") {
		target = cfg.DefaultTarget
	}
	verbosity := f.verbose
	if !changed("verbose") {
		verbosity = cfg.Verbosity
	}
	modules := f.modules
	if len(modules) == 0 {
		modules = cfg.Modules
	}

	logger := rlog.New(cmd.ErrOrStderr(), rlog.Options{
		Level:  rlog.LevelForVerbosity(verbosity),
		Prefix: rlog.Prefix,
	})

	b, err := builder.New(builder.Options{
		Root:        f.root,
		ConfigFile:  f.configFile,
		PublishType: target,
		ToolsDirs:   append(append([]string(nil), f.toolsDirs...), cfg.ToolsDirs...),
		Modules:     builder.ModuleFilter(modules),
		NoBuild:     f.noBuild || cfg.NoBuild,
		ShellExec:   f.shellExec || cfg.ShellExec,
		Logger:      logger,
		Versions:    a.Versions,
	})
	if err != nil {
		return failure(err, verbosity > 0)
	}
	if err := b.Build(ctx); err != nil {
		return failure(err, verbosity > 0)
	}
	if !b.Built() {
		a.exitCode = ExitSuccess
		return nil
	}

	code, err := b.Process(ctx)
	if err != nil {
		return failure(err, verbosity > 0)
	}
	a.exitCode = code
	return nil
}

// failure wraps err for display with suggestions and the 255 exit code.
func failure(err error, verbose bool) error {
	return &ExitError{Code: ExitFailure, Err: err, Detail: issue.Describe(err).Format(verbose)}
}
