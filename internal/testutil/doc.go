// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that fail the test
// on setup errors instead of returning them.
//
// Helpers cover the working directory (MustChdir), environment variables
// (MustSetenv, SetConfigHome) and file fixtures (MustMkdirAll, MustWriteFile,
// MustReadFile).
package testutil
