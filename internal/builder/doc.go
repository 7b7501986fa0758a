// SPDX-License-Identifier: MPL-2.0

// Package builder interprets ReleaseConfig documents.
//
// A Builder walks the root element's children in document order. Name,
// Target, Folder, Artefacts, Artefact and ReleaseBuilder directives register
// variables, publish targets and artefacts, and run build actions as they
// are met. Process then collects the artefacts and writes them to the target
// selected by the publish type.
//
// Errors come in two kinds. Configuration mistakes that leave the rest of
// the build meaningful are logged with the node's line and column and the
// walk continues. Everything else is returned as an error carrying the
// node's location and ends the build. ReleaseBuilder directives run a
// nested Builder whose failures are logged and never propagate.
package builder
