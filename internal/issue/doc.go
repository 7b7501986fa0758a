// SPDX-License-Identifier: MPL-2.0

// Package issue turns build failures into messages a user can act on: what
// was being done, which file or config node was involved and what to try
// next.
package issue
