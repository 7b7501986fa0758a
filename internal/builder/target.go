// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrTargetPath is returned when a target's destination folder is missing.
var ErrTargetPath = errors.New("target path must be an existing directory")

// TargetType selects how Process writes a release.
type TargetType int

const (
	// TargetUnset marks a target whose type attribute was not recognised.
	TargetUnset TargetType = iota
	// TargetZip writes <name>-<type>-<version>.zip.
	TargetZip
	// TargetFolder copies files into the target directory.
	TargetFolder
	// TargetTarGz writes <name>-<type>-<version>.tar.gz.
	TargetTarGz
)

// ParseTargetType maps a type attribute to a TargetType.
func ParseTargetType(s string) (TargetType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zip":
		return TargetZip, true
	case "folder":
		return TargetFolder, true
	case "tgz", "tar.gz":
		return TargetTarGz, true
	default:
		return TargetUnset, false
	}
}

// String returns the attribute spelling of the type.
func (t TargetType) String() string {
	switch t {
	case TargetZip:
		return "zip"
	case TargetFolder:
		return "folder"
	case TargetTarGz:
		return "tar.gz"
	default:
		return "unset"
	}
}

// Target is a publish destination.
type Target struct {
	Name string
	Path string
	// Version overrides the SemVer variable in archive names when set.
	Version string
	Type    TargetType
}

// NewTarget creates a Target. path must name an existing directory.
func NewTarget(name, path string) (*Target, error) {
	if path == "" {
		return nil, fmt.Errorf("%s missing path: %w", name, ErrTargetPath)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s missing path %s: %w", name, abs, ErrTargetPath)
	}
	return &Target{Name: name, Path: abs}, nil
}

// VersionOr returns the override version or def.
func (t *Target) VersionOr(def string) string {
	if t.Version != "" {
		return t.Version
	}
	return def
}
