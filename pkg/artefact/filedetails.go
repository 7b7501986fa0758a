// SPDX-License-Identifier: MPL-2.0

package artefact

import (
	"path/filepath"
	"strings"
)

// FileDetails is one file selected for a release.
type FileDetails struct {
	// Root is the directory the archive name is computed relative to.
	Root string
	// Path is the source file.
	Path string
	// NewName overrides the archive name when set.
	NewName string
}

// NewFileDetails builds FileDetails for path found beneath root. A positive
// skip moves the first skip directory segments of the relative path into the
// root so they are dropped from the archive name.
func NewFileDetails(skip int, root, path, newName string) FileDetails {
	base := root
	if skip > 0 {
		if rel, ok := relative(root, path); ok {
			dirs := splitDirs(filepath.Dir(rel))
			if len(dirs) > skip {
				dirs = dirs[:skip]
			}
			base = filepath.Join(append([]string{root}, dirs...)...)
		}
	}
	return FileDetails{Root: base, Path: path, NewName: newName}
}

// ArchiveName is the slash-separated name of the file inside the release.
func (f FileDetails) ArchiveName() string {
	if f.NewName != "" {
		return strings.Trim(filepath.ToSlash(f.NewName), "/")
	}
	if rel, ok := relative(f.Root, f.Path); ok {
		return filepath.ToSlash(rel)
	}
	return filepath.Base(f.Path)
}

func relative(root, path string) (string, bool) {
	if root == "" {
		return "", false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func splitDirs(dir string) []string {
	if dir == "." || dir == "" {
		return nil
	}
	return strings.Split(dir, string(filepath.Separator))
}
