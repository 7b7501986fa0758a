// SPDX-License-Identifier: MPL-2.0

package builder

import "strings"

// ModuleFilter restricts a run to configs whose name contains one of its
// entries, ignoring case. An empty filter allows everything.
type ModuleFilter []string

// Allows reports whether name passes the filter.
func (m ModuleFilter) Allows(name string) bool {
	if len(m) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, entry := range m {
		if strings.Contains(lower, strings.ToLower(entry)) {
			return true
		}
	}
	return false
}
