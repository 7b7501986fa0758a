// SPDX-License-Identifier: MPL-2.0

// Package pathfinder resolves file and directory names against ordered
// sequences of search roots.
//
// Each sequence is joined left to right and probed after every segment, so
// the sequence {"a", "b"} tests a/<name> and then a/b/<name>. A segment equal
// to "-" appends a literal hyphen to the accumulated path and the name is
// concatenated directly after it, which lets a build reference sibling
// folders such as "release-" + "x64". Sequences are tried in order and the
// first existing candidate wins.
package pathfinder
