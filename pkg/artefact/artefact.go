// SPDX-License-Identifier: MPL-2.0

package artefact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind distinguishes the artefact forms.
type Kind int

const (
	// KindFile is a single resolved file.
	KindFile Kind = iota
	// KindDirectory is every file beneath a directory.
	KindDirectory
	// KindMatch is a glob pattern evaluated against a root.
	KindMatch
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindDirectory:
		return "Path"
	case KindMatch:
		return "Match"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Artefact is one entry of a release's artefact list.
type Artefact struct {
	Kind Kind
	// Path is the file, directory or glob pattern.
	Path string
	// Root anchors relative glob patterns and archive names of matches.
	Root string
	// NewName renames a single file inside the release.
	NewName string
	// SkipCount drops leading directory segments from archive names.
	SkipCount int
}

// NewFile creates a file artefact.
func NewFile(path, newName string, skip int) Artefact {
	return Artefact{Kind: KindFile, Path: path, NewName: newName, SkipCount: skip}
}

// NewDirectory creates a recursive directory artefact.
func NewDirectory(path string) Artefact {
	return Artefact{Kind: KindDirectory, Path: path}
}

// NewMatch creates a glob artefact. Backslashes in pattern are treated as
// path separators.
func NewMatch(skip int, root, pattern string) Artefact {
	return Artefact{
		Kind:      KindMatch,
		Path:      strings.ReplaceAll(pattern, `\`, "/"),
		Root:      root,
		SkipCount: skip,
	}
}

// IsPattern reports whether name contains glob metacharacters.
func IsPattern(name string) bool {
	return strings.ContainsAny(name, "*?[")
}

// String implements fmt.Stringer.
func (a Artefact) String() string {
	return a.Kind.String() + ": " + a.Path
}

// Files expands the artefact into the files it selects.
func (a Artefact) Files() ([]FileDetails, error) {
	switch a.Kind {
	case KindFile:
		return []FileDetails{NewFileDetails(a.SkipCount, filepath.Dir(a.Path), a.Path, a.NewName)}, nil
	case KindDirectory:
		return a.directoryFiles()
	case KindMatch:
		return a.matchFiles()
	default:
		return nil, fmt.Errorf("unknown artefact kind %d", int(a.Kind))
	}
}

func (a Artefact) directoryFiles() ([]FileDetails, error) {
	var out []FileDetails
	err := filepath.WalkDir(a.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			out = append(out, FileDetails{Root: a.Path, Path: path})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list directory %s: %w", a.Path, err)
	}
	return out, nil
}

func (a Artefact) matchFiles() ([]FileDetails, error) {
	root := a.Root
	if root == "" {
		root = "."
	}

	prefix, pattern := doublestar.SplitPattern(a.Path)
	base := filepath.FromSlash(prefix)
	if !filepath.IsAbs(base) {
		base = filepath.Join(root, base)
	}

	matches, err := doublestar.Glob(os.DirFS(base), pattern)
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", a.Path, err)
	}

	anchor := root
	if _, ok := relative(root, filepath.Join(base, "x")); !ok {
		anchor = base
	}

	out := make([]FileDetails, 0, len(matches))
	for _, m := range matches {
		full := filepath.Join(base, filepath.FromSlash(m))
		info, err := os.Stat(full)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, NewFileDetails(a.SkipCount, anchor, full, a.NewName))
	}
	return out, nil
}
