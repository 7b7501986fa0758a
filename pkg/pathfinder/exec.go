// SPDX-License-Identifier: MPL-2.0

package pathfinder

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ApplicationTargets lists the platform-specific file names an application
// may be installed under. A ".exe" suffix is stripped first so configs
// written for Windows keep working elsewhere.
func ApplicationTargets(app string) []string {
	if strings.EqualFold(filepath.Ext(app), ".exe") {
		app = strings.TrimSuffix(app, filepath.Ext(app))
	}

	var out []string
	if runtime.GOOS == "windows" {
		out = append(out, app+".exe", app+".cmd", app+".bat")
	}
	out = append(out, app)
	if runtime.GOOS == "darwin" {
		out = append(out, app+".app")
	}
	return out
}

// CanExecute reports whether path is a file the current platform can run.
// On Unix any execute bit is enough; on Windows a regular file is assumed
// runnable.
func CanExecute(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if runtime.GOOS == "darwin" && info.IsDir() && strings.HasSuffix(path, ".app") {
		return true
	}
	if !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

// FindExecutable locates app by expanding environment references and, for
// bare names, searching each directory of searchPath in order.
func (f *Finder) FindExecutable(app string, searchPath []string) (string, error) {
	for _, target := range ApplicationTargets(app) {
		exe := os.ExpandEnv(target)
		if !isFile(exe) && filepath.Base(exe) == exe {
			for _, dir := range searchPath {
				dir = strings.TrimSpace(dir)
				if dir == "" {
					continue
				}
				candidate := filepath.Join(dir, exe)
				f.logger.Debug("probe executable", "path", candidate)
				if CanExecute(candidate) {
					return filepath.Abs(candidate)
				}
			}
		}
		full, err := filepath.Abs(exe)
		if err == nil && CanExecute(full) {
			return full, nil
		}
	}
	return "", fmt.Errorf("could not locate executable %s: %w", app, ErrNotFound)
}
