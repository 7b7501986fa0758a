// SPDX-License-Identifier: MPL-2.0

// Command releasebuilder packages release artefacts described by a
// ReleaseConfig file.
package main

import cmd "github.com/rjtool/releasebuilder/cmd/releasebuilder"

func main() {
	cmd.Execute()
}
