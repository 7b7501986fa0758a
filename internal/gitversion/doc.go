// SPDX-License-Identifier: MPL-2.0

// Package gitversion supplies the version metadata a build is stamped with.
//
// The primary source runs the dotnet-gitversion tool and decodes its JSON
// report. When the tool is unavailable, version fields are derived directly
// from the repository's semver tags with go-git. Packed encodes a
// major.minor.patch triple as a single integer for targets that need one.
package gitversion
