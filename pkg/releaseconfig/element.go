// SPDX-License-Identifier: MPL-2.0

package releaseconfig

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

type (
	// Location is a 1-based position in a config file.
	Location struct {
		File   string
		Line   int
		Column int
	}

	// Element is one XML element with its attributes and content.
	Element struct {
		Name     string
		Attrs    []xml.Attr
		Location Location
		content  []node
	}

	// node is either character data or a child element.
	node struct {
		text  string
		child *Element
	}

	// AttrError reports an attribute whose value could not be parsed.
	AttrError struct {
		Element  string
		Attr     string
		Value    string
		Location Location
		Err      error
	}
)

// String formats the location as "Line: L: C".
func (l Location) String() string {
	return fmt.Sprintf("Line: %d: %d", l.Line, l.Column)
}

// Error implements the error interface.
func (e *AttrError) Error() string {
	return fmt.Sprintf("%s %s=%q: %v (%s)", e.Element, e.Attr, e.Value, e.Err, e.Location)
}

// Unwrap returns the parse error.
func (e *AttrError) Unwrap() error {
	return e.Err
}

// Attr returns the raw value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttr reports whether the attribute is present, whatever its value.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

// String returns the named attribute or def when it is absent.
func (e *Element) String(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// Path returns the named attribute with backslashes turned into slashes.
func (e *Element) Path(name, def string) string {
	return strings.ReplaceAll(e.String(name, def), `\`, "/")
}

// Bool parses the named attribute as a boolean.
func (e *Element) Bool(name string, def bool) (bool, error) {
	v, ok := e.Attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def, e.attrError(name, v, err)
	}
	return b, nil
}

// Int parses the named attribute as a decimal integer.
func (e *Element) Int(name string, def int) (int, error) {
	v, ok := e.Attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, e.attrError(name, v, err)
	}
	return n, nil
}

// Ints parses the named attribute as a comma-separated list of integers.
func (e *Element) Ints(name string, def []int) ([]int, error) {
	v, ok := e.Attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		return def, nil
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return def, e.attrError(name, v, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Strings splits the named attribute on sep, trimming each element.
func (e *Element) Strings(name, sep string) []string {
	v, ok := e.Attr(name)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Children returns child elements, all of them when name is empty.
func (e *Element) Children(name string) []*Element {
	var out []*Element
	for _, n := range e.content {
		if n.child != nil && (name == "" || n.child.Name == name) {
			out = append(out, n.child)
		}
	}
	return out
}

// Value is the concatenated character data of the element and all of its
// descendants, in document order.
func (e *Element) Value() string {
	var b strings.Builder
	e.writeValue(&b)
	return b.String()
}

func (e *Element) writeValue(b *strings.Builder) {
	for _, n := range e.content {
		if n.child != nil {
			n.child.writeValue(b)
			continue
		}
		b.WriteString(n.text)
	}
}

func (e *Element) attrError(name, value string, err error) error {
	return &AttrError{Element: e.Name, Attr: name, Value: value, Location: e.Location, Err: err}
}
