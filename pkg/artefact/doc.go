// SPDX-License-Identifier: MPL-2.0

// Package artefact models the files a release is assembled from.
//
// An Artefact is a single file, a directory expanded recursively, or a glob
// pattern evaluated against a root. Expanding artefacts yields FileDetails,
// which pair a source path with the name the file takes inside the release.
package artefact
