// SPDX-License-Identifier: MPL-2.0

package pathfinder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// HyphenSegment is the root segment that appends "-" instead of a path element.
const HyphenSegment = "-"

// ErrNotFound is matched by every *NotFoundError.
var ErrNotFound = errors.New("path not found")

type (
	// Roots is an ordered list of root sequences.
	Roots [][]string

	// NotFoundError reports a directory that could not be located in any root.
	NotFoundError struct {
		Name  string
		Tried []string
	}

	// Finder probes candidate paths and logs each attempt at debug level.
	Finder struct {
		logger *log.Logger
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("cannot locate %s", e.Name)
}

// Unwrap returns ErrNotFound so callers can use errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// New creates a Finder. A nil logger discards output.
func New(logger *log.Logger) *Finder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Finder{logger: logger}
}

// Of builds Roots from single-segment sequences, one per root.
func Of(roots ...string) Roots {
	out := make(Roots, 0, len(roots))
	for _, r := range roots {
		out = append(out, []string{r})
	}
	return out
}

// FindDirectory returns the first candidate that is an existing directory.
func (f *Finder) FindDirectory(name string, roots Roots) (string, error) {
	tried := make([]string, 0, len(roots))
	for _, seq := range roots {
		for _, candidate := range Candidates(name, seq) {
			tried = append(tried, candidate)
			f.logger.Debug("probe directory", "path", candidate)
			if isDir(candidate) {
				return candidate, nil
			}
		}
	}
	return "", &NotFoundError{Name: name, Tried: tried}
}

// FindFile returns the first candidate that is an existing regular file.
func (f *Finder) FindFile(name string, roots Roots) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, seq := range roots {
		for _, candidate := range Candidates(name, seq) {
			f.logger.Debug("probe file", "path", candidate)
			if isFile(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

// Candidates lists the paths probed for name within one root sequence, in
// probe order. An absolute name is returned unchanged for every segment.
func Candidates(name string, seq []string) []string {
	name = filepath.FromSlash(name)
	out := make([]string, 0, len(seq))
	dir := ""
	for _, seg := range seq {
		if seg == "" {
			continue
		}
		var full string
		if seg == HyphenSegment {
			dir += HyphenSegment
			full = dir + name
		} else {
			dir = join(dir, filepath.FromSlash(seg))
			full = join(dir, name)
		}
		out = append(out, full)
	}
	return out
}

// join rejoins name onto dir unless name is already absolute.
func join(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	if name == "" {
		return dir
	}
	return filepath.Join(dir, name)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
