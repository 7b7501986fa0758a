// SPDX-License-Identifier: MPL-2.0

// Package fexec runs external programs for build steps.
//
// By default a program's stdout and stderr are captured line by line. Each
// complete line is recorded and logged as it arrives, and lines from the two
// streams never interleave mid-line. In terminal mode the program instead
// runs through an embedded POSIX shell interpreter with the caller's
// terminal attached and nothing is captured.
package fexec
