// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rjtool/releasebuilder/internal/fexec"
	"github.com/rjtool/releasebuilder/internal/gitversion"
	"github.com/rjtool/releasebuilder/internal/issue"
	"github.com/rjtool/releasebuilder/internal/rlog"
	"github.com/rjtool/releasebuilder/pkg/artefact"
	"github.com/rjtool/releasebuilder/pkg/pathfinder"
	"github.com/rjtool/releasebuilder/pkg/releaseconfig"
	"github.com/rjtool/releasebuilder/pkg/transform"
	"github.com/rjtool/releasebuilder/pkg/vars"
)

// DefaultPublishType selects the target when none is requested.
const DefaultPublishType = "live"

// ErrConfigNotFound is returned by New when no config file can be located.
var ErrConfigNotFound = errors.New("could not locate config file")

// configNames are the file names probed when no config file is given.
var configNames = []string{"ReleaseConfig.xml", "ReleaseConfig.Xml"}

type (
	// Runner starts external programs.
	Runner interface {
		Run(ctx context.Context, req fexec.Request) (*fexec.Result, error)
	}

	// Options configures a Builder.
	Options struct {
		// Root is the build root. Defaults to the working directory.
		Root string
		// ConfigFile overrides config discovery.
		ConfigFile string
		// PublishType selects the target. Defaults to DefaultPublishType.
		PublishType string
		// ToolsDirs are searched for exec apps and appended to PATH.
		ToolsDirs []string
		// Modules restricts the run to matching config names.
		Modules ModuleFilter
		// NoBuild skips <build> actions.
		NoBuild bool
		// ShellExec runs exec actions attached to the terminal.
		ShellExec bool
		Logger    *log.Logger
		// Versions supplies version metadata. Defaults to the GitVersion
		// tool with a repository fallback.
		Versions gitversion.Source
		// Runner starts exec actions. Defaults to an fexec.Executor.
		Runner Runner
		// Env resolves $NAME references. Defaults to os.LookupEnv.
		Env vars.LookupFunc

		// chain lists the config files of the enclosing nested builds.
		chain []string
	}

	// Builder interprets one config file.
	Builder struct {
		opts        Options
		root        string
		configFile  string
		publishType string
		toolsDirs   []string

		logger    *log.Logger
		finder    *pathfinder.Finder
		vars      *vars.Store
		transform *transform.Engine
		runner    Runner
		versions  gitversion.Source

		name      string
		targets   []*Target
		artefacts artefact.List
		built     bool
	}
)

// New resolves the root, tools directories and config file.
func New(opts Options) (*Builder, error) {
	logger := opts.Logger
	if logger == nil {
		logger = rlog.Discard()
	}

	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	publishType := opts.PublishType
	if publishType == "" {
		publishType = DefaultPublishType
	}

	tools := toolsDirs(opts.ToolsDirs)
	if len(tools) > 0 {
		rlog.Tracef(logger, "Tools directories %s", strings.Join(tools, ","))
	}

	configFile, err := locateConfig(root, opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	storeOpts := []vars.Option{vars.WithLogger(logger)}
	if opts.Env != nil {
		storeOpts = append(storeOpts, vars.WithEnv(opts.Env))
	}
	store := vars.New(storeOpts...)

	runner := opts.Runner
	if runner == nil {
		runner = fexec.New(logger, fexec.WithToolsDirs(tools))
	}

	finder := pathfinder.New(logger)
	versions := opts.Versions
	if versions == nil {
		versions = gitversion.Chain{
			gitversion.ToolSource{Runner: runner, Finder: finder, ToolsDirs: tools},
			gitversion.RepoSource{},
		}
	}

	opts.Root = root
	opts.PublishType = publishType
	opts.ToolsDirs = tools
	opts.Logger = logger
	opts.Runner = runner
	opts.Versions = versions

	return &Builder{
		opts:        opts,
		root:        root,
		configFile:  configFile,
		publishType: publishType,
		toolsDirs:   tools,
		logger:      logger,
		finder:      finder,
		vars:        store,
		transform:   transform.New(store, logger),
		runner:      runner,
		versions:    versions,
	}, nil
}

// Name returns the release name set by the <Name> directive.
func (b *Builder) Name() string { return b.name }

// Root returns the absolute build root.
func (b *Builder) Root() string { return b.root }

// ConfigFile returns the config file in use.
func (b *Builder) ConfigFile() string { return b.configFile }

// PublishType returns the selected target name.
func (b *Builder) PublishType() string { return b.publishType }

// Vars returns the variable store.
func (b *Builder) Vars() *vars.Store { return b.vars }

// Artefacts returns the registered artefacts.
func (b *Builder) Artefacts() []artefact.Artefact { return b.artefacts.Items() }

// Targets returns the declared targets in declaration order.
func (b *Builder) Targets() []*Target { return slices.Clone(b.targets) }

// Built reports whether the whole config was interpreted. It is false when
// the module filter stopped the config early.
func (b *Builder) Built() bool { return b.built }

// Target returns the target named name, compared exactly first and then
// ignoring case.
func (b *Builder) Target(name string) *Target {
	for _, t := range b.targets {
		if t.Name == name {
			return t
		}
	}
	for _, t := range b.targets {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// Build binds the build constants and version variables, then walks the
// config.
func (b *Builder) Build(ctx context.Context) error {
	b.vars.Set("TYPE", b.publishType)
	b.vars.Set("PUBLISHROOT", b.root)
	rlog.Tracef(b.logger, "Using config file %s", b.configFile)

	if err := b.bindVersion(ctx); err != nil {
		return err
	}
	b.logger.Info("Version " + b.vars.Get("SemVer", ""))

	doc, err := releaseconfig.Load(b.configFile)
	if err != nil {
		return err
	}

	complete, err := b.load(ctx, doc)
	if err != nil {
		return err
	}
	if !complete {
		return nil
	}
	if b.Target(b.publishType) == nil {
		b.logger.Info("No target config for " + b.publishType)
	}
	b.logger.Info("Publish config target: " + b.publishType)
	b.built = true
	return nil
}

func (b *Builder) bindVersion(ctx context.Context) error {
	info, raw, err := b.versions.Version(ctx, b.root)
	if err != nil {
		return fmt.Errorf("%w: %w", gitversion.ErrDecode, err)
	}
	if raw == nil {
		if raw, err = json.Marshal(info); err != nil {
			return err
		}
	}

	packed, err := gitversion.Pack(info.Major, info.Minor, info.Patch)
	if err != nil {
		return err
	}

	b.vars.Set("GITVERSION.JSON", string(raw))
	b.vars.Set("VERSION", info.Version())
	b.vars.SetInt("IntSemVer", int64(packed.Value))
	for _, f := range info.StringFields() {
		if f.Value != "" {
			b.vars.Set(f.Name, f.Value)
		}
	}
	return nil
}

func (b *Builder) expand(s string) (string, error) {
	return b.vars.Expand(s)
}

// logNode logs msg with the node's position.
func (b *Builder) logNode(level log.Level, el *releaseconfig.Element, msg string) {
	b.logger.Log(level, msg, "node", el.Name, "line", el.Location.Line, "column", el.Location.Column)
}

// workDir returns the working directory, or "" when it cannot be read.
func workDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

// searchRoots returns one single-segment sequence per distinct root,
// followed by the build root and the working directory.
func (b *Builder) searchRoots(extra ...string) pathfinder.Roots {
	var dirs []string
	for _, r := range append(extra, b.root, workDir()) {
		if r != "" && !slices.Contains(dirs, r) {
			dirs = append(dirs, r)
		}
	}
	return pathfinder.Of(dirs...)
}

func locateConfig(root, explicit string) (string, error) {
	var candidates []string
	if explicit != "" {
		candidates = append(candidates, explicit)
	} else {
		for _, name := range configNames {
			candidates = append(candidates, filepath.Join(root, name))
		}
	}
	candidates = append(candidates, configNames...)

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return filepath.Abs(c)
		}
	}
	return "", issue.NewErrorContext().
		WithOperation("locate release config").
		WithResource(candidates[0]).
		WithSuggestion("Pass --config or run from a directory containing " + configNames[0]).
		Wrap(ErrConfigNotFound).
		BuildError()
}

// toolsDirs removes duplicates and adds the directory of the running
// executable.
func toolsDirs(dirs []string) []string {
	var out []string
	add := func(d string) {
		if d == "" {
			return
		}
		if abs, err := filepath.Abs(d); err == nil {
			d = abs
		}
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	for _, d := range dirs {
		add(d)
	}
	if exe, err := os.Executable(); err == nil {
		add(filepath.Dir(exe))
	}
	return out
}
