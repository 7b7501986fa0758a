// SPDX-License-Identifier: MPL-2.0

package vars

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strconv"

	"github.com/charmbracelet/log"
)

var (
	// ErrNotFound is matched by every *UndefinedError.
	ErrNotFound = errors.New("variable not found")

	envRef   = regexp.MustCompile(`\$(\w+)`)
	storeRef = regexp.MustCompile(`~(.*?)~`)
)

// Source identifies where a reference was looked up.
type Source string

const (
	// SourceEnvironment is the process environment.
	SourceEnvironment Source = "Environment variable"
	// SourceStore is the build variable store.
	SourceStore Source = "Variable"
)

type (
	// LookupFunc resolves an environment variable.
	LookupFunc func(name string) (string, bool)

	// Option configures a Store.
	Option func(*Store)

	// Store maps case-sensitive names to values. The last write wins.
	Store struct {
		values map[string]string
		env    LookupFunc
		logger *log.Logger
	}

	// Result is the outcome of a lookup. Found distinguishes a missing
	// variable from one holding the empty string.
	Result struct {
		Name  string
		Value string
		Found bool
	}

	// UndefinedError reports a reference that could not be resolved.
	UndefinedError struct {
		Source Source
		Name   string
	}
)

// Error implements the error interface.
func (e *UndefinedError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Source, e.Name)
}

// Unwrap returns ErrNotFound.
func (e *UndefinedError) Unwrap() error {
	return ErrNotFound
}

// WithEnv replaces the environment lookup, which defaults to os.LookupEnv.
func WithEnv(fn LookupFunc) Option {
	return func(s *Store) {
		s.env = fn
	}
}

// WithLogger sets the logger used for empty-value reports.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// MapEnv is a LookupFunc backed by a fixed map.
func MapEnv(m map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		values: make(map[string]string),
		env:    os.LookupEnv,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set binds name to value. Empty values are stored but reported.
func (s *Store) Set(name, value string) {
	if value == "" {
		s.logger.Error(fmt.Sprintf("%s is null or empty", name))
	}
	s.values[name] = value
}

// SetInt binds name to the decimal form of v.
func (s *Store) SetInt(name string, v int64) {
	s.Set(name, strconv.FormatInt(v, 10))
}

// Lookup fetches name from the store.
func (s *Store) Lookup(name string) Result {
	v, ok := s.values[name]
	return Result{Name: name, Value: v, Found: ok}
}

// Get returns the value of name or def when it is not set.
func (s *Store) Get(name, def string) string {
	if r := s.Lookup(name); r.Found {
		return r.Value
	}
	return def
}

// Names returns the bound names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len reports the number of bound variables.
func (s *Store) Len() int {
	return len(s.values)
}

// Err returns an *UndefinedError when the lookup missed.
func (r Result) Err() error {
	if r.Found {
		return nil
	}
	return &UndefinedError{Source: SourceStore, Name: r.Name}
}

// Expand substitutes $ENV and ~VAR~ references in text.
func (s *Store) Expand(text string) (string, error) {
	if text == "" {
		return "", nil
	}

	var firstErr error
	out := envRef.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1:]
		v, ok := s.env(name)
		if !ok {
			if firstErr == nil {
				firstErr = &UndefinedError{Source: SourceEnvironment, Name: name}
			}
			return m
		}
		return v
	})
	if firstErr != nil {
		return "", firstErr
	}

	out = storeRef.ReplaceAllStringFunc(out, func(m string) string {
		name := m[1 : len(m)-1]
		r := s.Lookup(name)
		if !r.Found {
			if firstErr == nil {
				firstErr = r.Err()
			}
			return m
		}
		return r.Value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
