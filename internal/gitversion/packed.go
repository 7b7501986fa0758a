// SPDX-License-Identifier: MPL-2.0

package gitversion

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a version part does not fit its field.
var ErrOutOfRange = errors.New("version part out of range")

// Packed is a version encoded as major*MajorFactor + minor*MinorFactor + patch.
type Packed struct {
	Value       int
	MajorFactor int
	MinorFactor int
}

// Pack encodes major.minor.patch with the default factors 10000 and 100.
// Major must be in [0, 9999] and minor and patch in [0, 99].
func Pack(major, minor, patch int) (Packed, error) {
	return PackScaled(major, minor, patch, 2)
}

// PackScaled encodes with factors 10^(2*scale) and 10^scale.
func PackScaled(major, minor, patch, scale int) (Packed, error) {
	p := factors(scale)
	if major < 0 || major > 9999 {
		return Packed{}, fmt.Errorf("pack version: major must be in the range [0, 9999]: %w", ErrOutOfRange)
	}
	if minor < 0 || minor > 99 || patch < 0 || patch > 99 {
		return Packed{}, fmt.Errorf("pack version: minor and patch must be in the range [0, 99]: %w", ErrOutOfRange)
	}
	p.Value = major*p.MajorFactor + minor*p.MinorFactor + patch
	return p, nil
}

// Unpack wraps an already packed value.
func Unpack(value, scale int) Packed {
	p := factors(scale)
	p.Value = value
	return p
}

func factors(scale int) Packed {
	minor := 1
	for range scale {
		minor *= 10
	}
	return Packed{MajorFactor: minor * minor, MinorFactor: minor}
}

// Major returns the major part.
func (p Packed) Major() int { return p.Value / p.MajorFactor }

// Minor returns the minor part.
func (p Packed) Minor() int { return (p.Value / p.MinorFactor) % p.MinorFactor }

// Patch returns the patch part.
func (p Packed) Patch() int { return p.Value % p.MinorFactor }

// String formats the version as major.minor.patch.
func (p Packed) String() string {
	return fmt.Sprintf("%d.%d.%d", p.Major(), p.Minor(), p.Patch())
}
