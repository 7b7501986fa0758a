// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// AllFiles is the match pattern that selects every name.
const AllFiles = "*.*"

// matchName reports whether a base name matches pattern. AllFiles matches
// names without a dot too.
func matchName(pattern, name string) bool {
	if pattern == AllFiles || pattern == "*" {
		return true
	}
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// listMatching returns the regular files and directories below dir whose
// base name matches pattern, parents before children. dir itself is not
// included. Only the top level is searched unless recursive is set.
func listMatching(dir, pattern string, recursive bool) (files, dirs []string, err error) {
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if d.IsDir() {
			if matchName(pattern, d.Name()) {
				dirs = append(dirs, path)
			}
			if !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && matchName(pattern, d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	return files, dirs, err
}
