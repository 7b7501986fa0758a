// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/rjtool/releasebuilder/internal/rlog"
	"github.com/rjtool/releasebuilder/pkg/artefact"
	"github.com/rjtool/releasebuilder/pkg/releaseconfig"
	"github.com/rjtool/releasebuilder/pkg/transform"
)

// load walks the root's children in document order. It reports false when
// the module filter stopped the walk.
func (b *Builder) load(ctx context.Context, doc *releaseconfig.Document) (bool, error) {
	for _, el := range doc.Root.Children("") {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		var err error
		switch el.Name {
		case "Name":
			var allowed bool
			if allowed, err = b.applyName(el); err == nil && !allowed {
				return false, nil
			}
		case "Target":
			err = b.addTarget(el)
		case "Folder":
			err = b.bindFolder(el)
		case "Artefacts":
			err = b.addArtefacts(ctx, el)
		case "Artefact":
			err = b.addArtefact(el)
		case "ReleaseBuilder":
			err = b.releaseBuilder(ctx, el)
		default:
			b.logNode(log.ErrorLevel, el, "Unknown directive "+el.Name)
		}
		if err != nil {
			return false, releaseconfig.WrapNode(el, err)
		}
	}
	return true, nil
}

func (b *Builder) applyName(el *releaseconfig.Element) (bool, error) {
	name, err := b.expand(strings.TrimSpace(el.Value()))
	if err != nil {
		return false, err
	}
	b.name = name
	if !b.opts.Modules.Allows(name) {
		b.logger.Info(fmt.Sprintf("Not building %s because not in modules list", name))
		return false, nil
	}
	return true, nil
}

func (b *Builder) addTarget(el *releaseconfig.Element) error {
	name, ok := el.Attr("name")
	if !ok || name == "" {
		b.logNode(log.ErrorLevel, el, "Target name missing")
		return nil
	}
	dir, err := b.expand(el.Path("path", ""))
	if err != nil {
		return err
	}
	t, err := NewTarget(name, dir)
	if err != nil {
		return err
	}

	if spec := el.String("archive-version", ""); spec != "" {
		v, err := b.transform.Apply(spec, "")
		if err != nil {
			return err
		}
		if v, err = b.expand(v); err != nil {
			return err
		}
		t.Version = v
		b.vars.Set("TargetVersion", v)
	}

	typ := el.String("type", "zip")
	if t.Type, ok = ParseTargetType(typ); !ok {
		b.logNode(log.ErrorLevel, el, "Unknown target type "+typ)
	}

	b.targets = append(b.targets, t)
	if !strings.EqualFold(name, b.publishType) {
		return nil
	}

	b.vars.Set("TARGETPATH", t.Path)
	for _, set := range el.Children("Set") {
		n, hasName := set.Attr("name")
		v, hasValue := set.Attr("value")
		if !hasName || !hasValue {
			b.logNode(log.ErrorLevel, set, "Set requires name and value")
			continue
		}
		if v, err = b.expand(v); err != nil {
			return releaseconfig.WrapNode(set, err)
		}
		b.vars.Set(n, v)
	}
	return nil
}

type folderMatch struct {
	path string
	info fs.FileInfo
}

// bindFolder binds a variable to the first directory matching a glob below
// the build root, in the order named by the version attribute.
func (b *Builder) bindFolder(el *releaseconfig.Element) error {
	name := el.String("name", "")
	pattern := el.Path("path", "")
	if name == "" || pattern == "" {
		b.logNode(log.ErrorLevel, el, "Folder requires name and path")
		return nil
	}
	pattern, err := b.expand(pattern)
	if err != nil {
		return err
	}

	matches, err := doublestar.Glob(os.DirFS(b.root), pattern)
	if err != nil {
		return fmt.Errorf("folder pattern %s: %w", pattern, err)
	}
	var dirs []folderMatch
	for _, m := range matches {
		full := filepath.Join(b.root, filepath.FromSlash(m))
		if info, err := os.Stat(full); err == nil && info.IsDir() {
			dirs = append(dirs, folderMatch{path: full, info: info})
		}
	}
	if len(dirs) == 0 {
		b.logNode(log.ErrorLevel, el, fmt.Sprintf("%s no folders matching %s", name, pattern))
		return nil
	}

	sortFolders(dirs, strings.ToLower(el.String("version", "latest")))
	chosen := dirs[0].path
	b.vars.Set(name, chosen)
	rlog.Tracef(b.logger, "Folder %s = %s", name, chosen)

	if versionName := el.String("name-version", ""); versionName != "" {
		base := filepath.Base(chosen)
		if strings.Count(base, ".") > 1 {
			if v := transform.ExtractVersion(base, ""); v != "" {
				b.vars.Set(versionName, v)
				rlog.Tracef(b.logger, "Folder version %s = %s", versionName, v)
			}
		}
	}
	return nil
}

// sortFolders orders dirs for a Folder version mode: latest, oldest,
// last-name, or name for anything else.
func sortFolders(dirs []folderMatch, mode string) {
	byName := func(i, j int) bool {
		ni, nj := filepath.Base(dirs[i].path), filepath.Base(dirs[j].path)
		if ni != nj {
			return ni < nj
		}
		return dirs[i].path < dirs[j].path
	}
	switch mode {
	case "latest", "oldest":
		// The standard library exposes no portable creation time, so the
		// modification time stands in for it.
		sort.SliceStable(dirs, func(i, j int) bool {
			ti, tj := dirs[i].info.ModTime(), dirs[j].info.ModTime()
			if ti.Equal(tj) {
				return byName(i, j)
			}
			if mode == "oldest" {
				return ti.Before(tj)
			}
			return ti.After(tj)
		})
	case "last-name":
		sort.SliceStable(dirs, func(i, j int) bool { return byName(j, i) })
	default:
		sort.SliceStable(dirs, byName)
	}
}

func (b *Builder) isActive(el *releaseconfig.Element) (bool, error) {
	spec := el.String("active", "")
	ok, err := b.transform.IsTrue(spec)
	if err != nil {
		return false, err
	}
	if !ok {
		rlog.Tracef(b.logger, "Skipping %s, active is %s", el.Name, spec)
	}
	return ok, nil
}

func (b *Builder) addArtefacts(ctx context.Context, el *releaseconfig.Element) error {
	active, err := b.isActive(el)
	if err != nil || !active {
		return err
	}

	folder := el.Path("folder", "")
	if folder != "" {
		if folder, err = b.expand(folder); err != nil {
			return err
		}
		if folder, err = b.finder.FindDirectory(folder, b.searchRoots()); err != nil {
			return err
		}
	}

	for _, child := range el.Children("") {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch strings.ToLower(child.Name) {
		case "file":
			err = b.artefactFile(child, folder)
		case "folder":
			err = b.artefactFolder(child)
		case "build":
			if b.opts.NoBuild {
				b.logNode(log.InfoLevel, child, "Ignoring build step")
				continue
			}
			err = b.processBuild(ctx, child, folder)
		default:
			b.logNode(log.ErrorLevel, child, "Unknown artefact type "+child.Name)
		}
		if err != nil {
			return releaseconfig.WrapNode(child, err)
		}
	}
	return nil
}

// artefactFile handles <file> inside <Artefacts>. The name is resolved
// against the Artefacts folder first.
func (b *Builder) artefactFile(el *releaseconfig.Element, folder string) error {
	name, err := b.expand(strings.TrimSpace(el.Value()))
	if err != nil {
		return err
	}
	newName, err := b.expand(el.String("newname", ""))
	if err != nil {
		return err
	}
	skip, err := el.Int("skip-directories-front", 0)
	if err != nil {
		return err
	}

	root := b.root
	dir := el.Path("folder", "")
	if dir != "" {
		if dir, err = b.expand(dir); err != nil {
			return err
		}
		if dir, err = b.finder.FindDirectory(dir, b.searchRoots(folder)); err != nil {
			return err
		}
		root = dir
	} else if folder != "" {
		root = folder
	}
	return b.addFile(el, skip, root, name, newName)
}

func (b *Builder) artefactFolder(el *releaseconfig.Element) error {
	skip, err := el.Int("skip-directories-front", 0)
	if err != nil {
		return err
	}
	dir, err := b.expand(strings.TrimSpace(el.Value()))
	if err != nil {
		return err
	}
	return b.addFolder(skip, b.root, dir)
}

func (b *Builder) addArtefact(el *releaseconfig.Element) error {
	root := b.root
	if r, ok := el.Attr("root"); ok && r != "" {
		r, err := b.expand(r)
		if err != nil {
			return err
		}
		if root, err = filepath.Abs(r); err != nil {
			return err
		}
	}
	skip, err := el.Int("skip-directories-front", 0)
	if err != nil {
		return err
	}
	newName, err := b.expand(el.String("newname", ""))
	if err != nil {
		return err
	}

	if file, ok := el.Attr("file"); ok {
		if file, err = b.expand(file); err != nil {
			return err
		}
		if err := b.addFile(el, skip, root, file, newName); err != nil {
			return err
		}
	}
	for _, attr := range []string{"directory", "folder"} {
		dir, ok := el.Attr(attr)
		if !ok {
			continue
		}
		if dir, err = b.expand(dir); err != nil {
			return err
		}
		if err := b.addFolder(skip, root, dir); err != nil {
			return err
		}
	}
	return nil
}

// addFile registers a single file or, when name is a pattern, a glob.
// A file that cannot be found is logged and skipped.
func (b *Builder) addFile(el *releaseconfig.Element, skip int, root, name, newName string) error {
	name = strings.ReplaceAll(name, `\`, "/")
	if artefact.IsPattern(name) {
		b.artefacts.Add(artefact.NewMatch(skip, root, name))
		rlog.Tracef(b.logger, "Artefact match %s in %s", name, root)
		return nil
	}
	found, ok := b.finder.FindFile(filepath.FromSlash(name), b.searchRoots(root))
	if !ok {
		b.logNode(log.ErrorLevel, el, "Cannot locate file artefact "+name)
		return nil
	}
	b.artefacts.Add(artefact.NewFile(found, newName, skip))
	rlog.Tracef(b.logger, "Artefact file %s", found)
	return nil
}

// addFolder registers a directory, or a glob when dir is a pattern. A
// directory that cannot be found is fatal.
func (b *Builder) addFolder(skip int, root, dir string) error {
	dir = strings.ReplaceAll(dir, `\`, "/")
	if artefact.IsPattern(dir) {
		b.artefacts.Add(artefact.NewMatch(skip, root, dir))
		rlog.Tracef(b.logger, "Artefact match %s in %s", dir, root)
		return nil
	}
	found, err := b.finder.FindDirectory(filepath.FromSlash(dir), b.searchRoots(root))
	if err != nil {
		return err
	}
	b.artefacts.Add(artefact.NewDirectory(found))
	rlog.Tracef(b.logger, "Artefact folder %s", found)
	return nil
}
