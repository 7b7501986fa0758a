// SPDX-License-Identifier: MPL-2.0

// Package releaseconfig loads ReleaseConfig XML documents into a light
// element tree that keeps the source line and column of every element, so
// diagnostics can point at the offending node.
//
// Attributes are read through typed getters that take an explicit default
// and report malformed values as errors instead of guessing.
package releaseconfig
