// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/rjtool/releasebuilder/pkg/pathfinder"
	"github.com/rjtool/releasebuilder/pkg/releaseconfig"
)

// defaultNestedConfig is used when neither file nor name select a config.
const defaultNestedConfig = "ReleaseConfig.xml"

// releaseBuilder runs another config from a folder. Failures of the nested
// build are logged with this node's location and never returned; only a
// folder that cannot be found is fatal.
func (b *Builder) releaseBuilder(ctx context.Context, el *releaseconfig.Element) error {
	folder, err := b.expand(el.Path("folder", ""))
	if err != nil {
		return err
	}
	noBuild, err := el.Bool("nobuild", b.opts.NoBuild)
	if err != nil {
		return err
	}
	process, err := el.Bool("process", false)
	if err != nil {
		return err
	}
	from, err := b.finder.FindDirectory(folder, b.searchRoots())
	if err != nil {
		return err
	}
	file, err := b.expand(el.Path("file", ""))
	if err != nil {
		return err
	}

	if name := el.String("name", ""); name != "" {
		if !b.opts.Modules.Allows(name) {
			b.logger.Info(fmt.Sprintf("Not building %s because not in modules list", name))
			return nil
		}
		derived := "ReleaseConfig" + name + ".xml"
		if file == "" {
			if _, ok := b.finder.FindFile(derived, pathfinder.Of(from)); ok {
				b.logger.Debug("Using config " + derived)
				file = derived
			}
		}
	}
	if file == "" {
		file = defaultNestedConfig
	}

	if noBuild && !process {
		b.logNode(log.ErrorLevel, el, "nobuild cannot be true if process is false as no actions will result")
	}
	config, ok := b.finder.FindFile(file, pathfinder.Of(from))
	if !ok {
		b.logNode(log.ErrorLevel, el, fmt.Sprintf("ReleaseBuilder file is required and must point to a valid file (%s)", file))
		return nil
	}

	if b.onChain(config) {
		b.logNode(log.ErrorLevel, el, fmt.Sprintf("ReleaseBuilder %s is already being built", config))
		return nil
	}

	b.logger.Info("Build release from " + from)
	if err := b.runNested(ctx, from, config, noBuild, process); err != nil {
		b.logNode(log.ErrorLevel, el, err.Error())
	}
	b.logger.Info("Finished building " + from)
	return nil
}

// runNested builds config with dir as root and working directory. The
// working directory is restored and panics are turned into errors.
func (b *Builder) runNested(ctx context.Context, dir, config string, noBuild, process bool) (err error) {
	restore, err := enterDir(dir)
	if err != nil {
		return err
	}
	defer func() {
		if restoreErr := restore(); restoreErr != nil && err == nil {
			err = restoreErr
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("nested build panicked: %v", r)
		}
	}()

	opts := b.opts
	opts.chain = append(slices.Clone(b.opts.chain), b.configFile)
	opts.Root = dir
	opts.ConfigFile = config
	opts.NoBuild = noBuild
	child, err := New(opts)
	if err != nil {
		return err
	}
	if err := child.Build(ctx); err != nil {
		return err
	}
	if process && child.Built() {
		if _, err := child.Process(ctx); err != nil {
			return err
		}
	}
	return nil
}

// onChain reports whether config is this build's or an enclosing build's
// config file.
func (b *Builder) onChain(config string) bool {
	config = filepath.Clean(config)
	return config == b.configFile || slices.Contains(b.opts.chain, config)
}

// enterDir changes the working directory and returns a function that
// changes it back.
func enterDir(dir string) (func() error, error) {
	prev, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if err := os.Chdir(dir); err != nil {
		return nil, err
	}
	return func() error { return os.Chdir(prev) }, nil
}
