// SPDX-License-Identifier: MPL-2.0

package releaseconfig

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoRoot is returned for documents without a root element.
var ErrNoRoot = errors.New("config has no root element")

type (
	// Document is a parsed config file.
	Document struct {
		Path string
		Root *Element
	}

	// NodeError ties an error to the element that caused it.
	NodeError struct {
		Element  string
		Location Location
		Err      error
	}
)

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("%v (%s %s)", e.Err, e.Element, e.Location)
}

// Unwrap returns the underlying error.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// WrapNode attaches the element's location to err. A nil err stays nil.
func WrapNode(el *Element, err error) error {
	if err == nil {
		return nil
	}
	var ne *NodeError
	if errors.As(err, &ne) {
		return err
	}
	return &NodeError{Element: el.Name, Location: el.Location, Err: err}
}

// Load reads and parses the config file at path.
func Load(path string) (doc *Document, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return Parse(bufio.NewReader(f), path)
}

// Parse reads a config document from r. name is recorded in locations.
func Parse(r io.Reader, name string) (*Document, error) {
	dec := xml.NewDecoder(r)
	doc := &Document{Path: name}

	var stack []*Element
	for {
		line, col := dec.InputPos()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Name:     t.Name.Local,
				Attrs:    append([]xml.Attr(nil), t.Attr...),
				Location: Location{File: name, Line: line, Column: col},
			}
			if len(stack) == 0 {
				if doc.Root != nil {
					return nil, fmt.Errorf("failed to parse %s: multiple root elements", name)
				}
				doc.Root = el
			} else {
				parent := stack[len(stack)-1]
				parent.content = append(parent.content, node{child: el})
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.content = append(parent.content, node{text: string(t)})
			}
		}
	}

	if doc.Root == nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, ErrNoRoot)
	}
	return doc, nil
}
