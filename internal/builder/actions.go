// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/rjtool/releasebuilder/internal/fexec"
	"github.com/rjtool/releasebuilder/internal/rlog"
	"github.com/rjtool/releasebuilder/pkg/archive"
	"github.com/rjtool/releasebuilder/pkg/pathfinder"
	"github.com/rjtool/releasebuilder/pkg/releaseconfig"
)

var (
	// ErrNotDirectory is returned when a recursive copy starts from a file.
	ErrNotDirectory = errors.New("must be a directory when using recursive mode")
	// ErrMultipleRename is returned when a copy with a name attribute
	// selects more than one file.
	ErrMultipleRename = errors.New("cannot use name attribute when copying multiple files")
)

// buildScope carries the resolution context of one <build> element.
type buildScope struct {
	// folder is the enclosing Artefacts folder, possibly empty.
	folder string
	roots  pathfinder.Roots
}

// processBuild runs the actions of a <build> element in document order.
func (b *Builder) processBuild(ctx context.Context, el *releaseconfig.Element, folder string) error {
	extra, err := b.expand(el.Path("folder", ""))
	if err != nil {
		return err
	}
	scope := buildScope{
		folder: folder,
		roots:  pathfinder.Roots{{folder, filepath.FromSlash(extra)}, {b.root}, {workDir()}},
	}

	for _, action := range el.Children("") {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch strings.ToLower(action.Name) {
		case "clean":
			err = b.clean(action, scope)
		case "create":
			err = b.create(action, scope)
		case "xml-edit":
			err = b.xmlEdit(action, scope)
		case "copy":
			err = b.copy(action, scope)
		case "modify":
			err = b.modify(action, scope)
		case "exec":
			err = b.exec(ctx, action, scope)
		case "release-builder":
			err = b.releaseBuilder(ctx, action)
		default:
			b.logNode(log.ErrorLevel, action, "Unknown build action "+action.Name)
		}
		if err != nil {
			return releaseconfig.WrapNode(action, err)
		}
	}
	return nil
}

// locateDir resolves an expanded attribute value to an existing directory.
// Missing directories are logged and reported as "".
func (b *Builder) locateDir(el *releaseconfig.Element, name string, roots pathfinder.Roots, what string) (string, error) {
	dir, err := b.finder.FindDirectory(filepath.FromSlash(name), roots)
	if errors.Is(err, pathfinder.ErrNotFound) {
		b.logNode(log.ErrorLevel, el, fmt.Sprintf("%s must be found: %s", what, name))
		return "", nil
	}
	return dir, err
}

func (b *Builder) clean(el *releaseconfig.Element, scope buildScope) error {
	folder := el.Path("folder", "")
	if folder == "" {
		b.logNode(log.ErrorLevel, el, "Folder to clean required")
		return nil
	}
	folder, err := b.expand(folder)
	if err != nil {
		return err
	}
	includeFolders, err := el.Bool("include-folders", false)
	if err != nil {
		return err
	}
	dir, err := b.locateDir(el, folder, scope.roots, "folder to clean")
	if err != nil || dir == "" {
		return err
	}

	b.logger.Info("Cleaning folder " + dir)
	files, dirs, err := listMatching(dir, el.String("match", AllFiles), true)
	if err != nil {
		return err
	}
	for _, f := range files {
		rlog.Trace(b.logger, "del "+f)
		if err := os.Remove(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if !includeFolders {
		return nil
	}
	for _, d := range dirs {
		if err := os.RemoveAll(d); err != nil {
			b.logNode(log.ErrorLevel, el, "Could not delete folder "+d)
			continue
		}
		rlog.Trace(b.logger, "del "+d)
	}
	return nil
}

// outputFile resolves the file attribute of create and xml-edit. An
// existing file is used as is; otherwise its directory must exist.
func (b *Builder) outputFile(el *releaseconfig.Element, scope buildScope) (string, error) {
	file, err := b.expand(el.Path("file", ""))
	if err != nil {
		return "", err
	}
	if file == "" {
		return "", fmt.Errorf("%s requires a file attribute", el.Name)
	}
	file = filepath.FromSlash(file)
	if found, ok := b.finder.FindFile(file, scope.roots); ok {
		return found, nil
	}
	dir, err := b.finder.FindDirectory(filepath.Dir(file), pathfinder.Roots{{scope.folder}, {b.root}, {workDir()}})
	if err != nil {
		return "", fmt.Errorf("could not create %s as path not found: %w", file, err)
	}
	return filepath.Join(dir, filepath.Base(file)), nil
}

func (b *Builder) create(el *releaseconfig.Element, scope buildScope) error {
	file, err := b.outputFile(el, scope)
	if err != nil {
		return err
	}
	text, err := b.expand(el.Value())
	if err != nil {
		return err
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if err := os.WriteFile(file, []byte(text), 0o644); err != nil {
		return err
	}
	rlog.Trace(b.logger, "created "+file)
	return nil
}

func (b *Builder) copy(el *releaseconfig.Element, scope buildScope) error {
	from, err := b.expand(el.Path("from", ""))
	if err != nil {
		return err
	}
	recursive, err := el.Bool("recursive", false)
	if err != nil {
		return err
	}

	var src string
	isFile := false
	if from != "" {
		if found, ok := b.finder.FindFile(filepath.FromSlash(from), scope.roots); ok {
			src, isFile = found, true
		} else if dir, err := b.finder.FindDirectory(filepath.FromSlash(from), scope.roots); err == nil {
			src = dir
		}
	}
	if src == "" {
		b.logNode(log.ErrorLevel, el, fmt.Sprintf("from must point to a valid file or directory (%s)", from))
		return nil
	}
	if recursive && isFile {
		return fmt.Errorf("%s %w", src, ErrNotDirectory)
	}

	match := el.String("match", AllFiles)
	if match == "" {
		b.logNode(log.ErrorLevel, el, "match must not be empty")
		return nil
	}

	to, err := b.expand(el.Path("to", ""))
	if err != nil {
		return err
	}
	dest := scope.folder
	if to != "" {
		dest = filepath.Join(scope.folder, filepath.FromSlash(to))
		if filepath.IsAbs(filepath.FromSlash(to)) {
			dest = filepath.FromSlash(to)
		}
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dest, err)
		}
	}
	if dest == "" {
		b.logNode(log.ErrorLevel, el, "to must point to a valid directory")
		return nil
	}
	rlog.Tracef(b.logger, "Copy from %s to %s", src, dest)

	files := []string{src}
	if !isFile {
		if files, _, err = listMatching(src, match, recursive); err != nil {
			return err
		}
	}

	rename := el.String("transform", "")
	transforms := el.Children("transform-content")
	newName, err := b.expand(el.String("name", ""))
	if err != nil {
		return err
	}
	if newName != "" && len(files) != 1 {
		return ErrMultipleRename
	}

	for _, f := range files {
		name := filepath.Base(f)
		if newName != "" {
			name = filepath.Base(filepath.FromSlash(newName))
		}
		if name, err = b.transform.Apply(rename, name); err != nil {
			return err
		}
		target := filepath.Join(dest, name)
		if recursive {
			rel, err := filepath.Rel(src, filepath.Dir(f))
			if err != nil {
				return err
			}
			target = filepath.Join(dest, rel, name)
		}
		if err := archive.CopyFile(f, target); err != nil {
			return err
		}
		if _, err := b.editFile(target, transforms); err != nil {
			return err
		}
		rlog.Trace(b.logger, "copied "+target)
	}
	return nil
}

func (b *Builder) modify(el *releaseconfig.Element, scope buildScope) error {
	file, err := b.expand(el.Path("file", ""))
	if err != nil {
		return err
	}
	found, ok := "", false
	if file != "" {
		found, ok = b.finder.FindFile(filepath.FromSlash(file), scope.roots)
	}
	if !ok {
		b.logNode(log.ErrorLevel, el, fmt.Sprintf("file must point to a valid file (%s)", file))
		return nil
	}
	changed, err := b.editFile(found, el.Children("transform-content"))
	if err != nil {
		return err
	}
	if changed {
		rlog.Trace(b.logger, "modified "+found)
	}
	return nil
}

// editFile applies each transform-content element to the file's text and
// rewrites the file when the text changed.
func (b *Builder) editFile(path string, transforms []*releaseconfig.Element) (bool, error) {
	if len(transforms) == 0 {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	original := string(data)
	contents := original
	for _, t := range transforms {
		if contents, err = b.transform.Apply(t.String("transform", ""), contents); err != nil {
			return false, releaseconfig.WrapNode(t, err)
		}
	}
	if contents == original {
		return false, nil
	}
	return true, os.WriteFile(path, []byte(contents), info.Mode().Perm())
}

func (b *Builder) exec(ctx context.Context, el *releaseconfig.Element, scope buildScope) error {
	app, ok := el.Attr("app")
	if !ok || app == "" {
		b.logNode(log.ErrorLevel, el, "exec requires an app attribute")
		return nil
	}
	app, err := b.expand(app)
	if err != nil {
		return err
	}

	dir := scope.folder
	if folder := el.Path("folder", ""); folder != "" {
		if folder, err = b.expand(folder); err != nil {
			return err
		}
		if dir, err = b.finder.FindDirectory(filepath.FromSlash(folder), scope.roots); err != nil {
			return err
		}
	}

	args, err := b.expand(el.String("args", ""))
	if err != nil {
		return err
	}
	argv, err := fexec.SplitArgs(args)
	if err != nil {
		return err
	}
	logStdout, err := el.Bool("log-stdout", false)
	if err != nil {
		return err
	}
	codes, err := el.Ints("required-exit-codes", []int{0})
	if err != nil {
		return err
	}

	exe, err := b.locateTool(app)
	if err != nil {
		return err
	}
	res, err := b.runner.Run(ctx, fexec.Request{
		Path:              exe,
		Args:              argv,
		Dir:               dir,
		RequiredExitCodes: codes,
		Terminal:          b.opts.ShellExec,
		LogOutput:         logStdout,
	})
	if err != nil {
		return err
	}
	if out := res.Output(); out != "" {
		rlog.Trace(b.logger, out)
	}
	return nil
}

// locateTool finds app below the build root, the working directory and the
// tools directories, then on PATH.
func (b *Builder) locateTool(app string) (string, error) {
	local := b.searchRoots()
	tools := pathfinder.Of(b.toolsDirs...)
	for _, name := range pathfinder.ApplicationTargets(app) {
		for _, roots := range []pathfinder.Roots{local, tools} {
			if p, ok := b.finder.FindFile(name, roots); ok && pathfinder.CanExecute(p) {
				return filepath.Abs(p)
			}
		}
	}
	search := append(filepath.SplitList(os.Getenv("PATH")), b.toolsDirs...)
	return b.finder.FindExecutable(app, search)
}
