// SPDX-License-Identifier: MPL-2.0

package artefact

import "path/filepath"

// List is the ordered artefact list of one build.
type List struct {
	items []Artefact
}

// Add appends a to the list.
func (l *List) Add(a Artefact) {
	l.items = append(l.items, a)
}

// Len reports the number of artefacts.
func (l *List) Len() int {
	return len(l.items)
}

// Items returns a copy of the artefacts in insertion order.
func (l *List) Items() []Artefact {
	return append([]Artefact(nil), l.items...)
}

// Collect expands every artefact and drops files already selected by an
// earlier artefact. Order follows insertion, then expansion order.
func (l *List) Collect() ([]FileDetails, error) {
	seen := make(map[string]struct{})
	var out []FileDetails
	for _, a := range l.items {
		files, err := a.Files()
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			key := f.Path
			if abs, err := filepath.Abs(f.Path); err == nil {
				key = abs
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, f)
		}
	}
	return out, nil
}
