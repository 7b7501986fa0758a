// SPDX-License-Identifier: MPL-2.0

// Package transform evaluates the small comma-separated transform language
// used by release configs to rewrite values.
//
// A transform is "op,arg1,arg2,..." and is applied to a current value:
//
//	set,<value>                  replace the current value
//	getversion,<path>            extract a version from the last path segment
//	replace,<from>,<to>          literal substring replacement
//	regex-replace,<pattern>,<to> regular expression replacement
//	when,<lhs>,<cond>,<rhs>      "1" when the comparison holds, else ""
//
// Arguments are variable-expanded before use. Operation names are case
// insensitive; comparison conditions are eq, ==, =, ne, != and <>.
package transform

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
)

var (
	// ErrInvalidTransform is matched by every error produced while parsing a
	// transform.
	ErrInvalidTransform = errors.New("invalid transform")

	versionPattern = regexp.MustCompile(`\d+.+\d`)
)

type (
	// Expander resolves variable references in an argument.
	Expander interface {
		Expand(text string) (string, error)
	}

	// Engine applies transforms using an Expander for argument values.
	Engine struct {
		vars   Expander
		logger *log.Logger
	}

	// ArgCountError reports a transform with the wrong number of parts.
	ArgCountError struct {
		Spec      string
		Operation string
		Required  int
		Parts     []string
	}

	// UnknownOperationError reports an unrecognised operation name.
	UnknownOperationError struct {
		Operation string
	}
)

// Error implements the error interface.
func (e *ArgCountError) Error() string {
	return fmt.Sprintf("transform %s: %s requires %d arguments; [%s]",
		e.Spec, e.Operation, e.Required, strings.Join(e.Parts, ","))
}

// Unwrap returns ErrInvalidTransform.
func (e *ArgCountError) Unwrap() error { return ErrInvalidTransform }

// Error implements the error interface.
func (e *UnknownOperationError) Error() string {
	return "unknown transform " + e.Operation
}

// Unwrap returns ErrInvalidTransform.
func (e *UnknownOperationError) Unwrap() error { return ErrInvalidTransform }

// New creates an Engine. A nil logger discards output.
func New(vars Expander, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{vars: vars, logger: logger}
}

// Apply evaluates spec against current. An empty spec returns current.
func (e *Engine) Apply(spec, current string) (string, error) {
	if spec == "" {
		return current, nil
	}

	parts := strings.Split(spec, ",")
	op := strings.ToLower(parts[0])
	check := func(n int) error {
		if len(parts) != n {
			return &ArgCountError{Spec: spec, Operation: op, Required: n, Parts: parts}
		}
		return nil
	}

	switch op {
	case "set":
		if err := check(2); err != nil {
			return "", err
		}
		return e.vars.Expand(parts[1])

	case "getversion":
		if err := check(2); err != nil {
			return "", err
		}
		v, err := e.vars.Expand(parts[1])
		if err != nil {
			return "", err
		}
		return ExtractVersion(v, spec), nil

	case "replace":
		if err := check(3); err != nil {
			return "", err
		}
		from, to, err := e.expandPair(parts[1], parts[2])
		if err != nil {
			return "", err
		}
		if from == to || from == "" {
			return current, nil
		}
		return strings.ReplaceAll(current, from, to), nil

	case "regex-replace":
		if err := check(3); err != nil {
			return "", err
		}
		pattern, repl, err := e.expandPair(parts[1], parts[2])
		if err != nil {
			return "", err
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return "", fmt.Errorf("transform %s: %w", spec, err)
		}
		return re.ReplaceAllString(current, repl), nil

	case "when":
		if err := check(4); err != nil {
			return "", err
		}
		lhs, rhs, err := e.expandPair(parts[1], parts[3])
		if err != nil {
			return "", err
		}
		return e.compare(lhs, parts[2], rhs), nil

	default:
		return "", &UnknownOperationError{Operation: parts[0]}
	}
}

// IsTrue reports whether spec, applied to the empty string, yields a
// non-empty value. An empty spec is true.
func (e *Engine) IsTrue(spec string) (bool, error) {
	if spec == "" {
		return true, nil
	}
	v, err := e.Apply(spec, "")
	if err != nil {
		return false, err
	}
	return v != "", nil
}

// ExtractVersion returns the first version-like run in the last path
// segment of path, or fallback when there is none.
func ExtractVersion(path, fallback string) string {
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '\\' || r == '/' })
	last := path
	if len(segments) > 0 {
		last = segments[len(segments)-1]
	}
	if m := versionPattern.FindString(last); m != "" {
		return m
	}
	return fallback
}

func (e *Engine) expandPair(a, b string) (string, string, error) {
	x, err := e.vars.Expand(a)
	if err != nil {
		return "", "", err
	}
	y, err := e.vars.Expand(b)
	if err != nil {
		return "", "", err
	}
	return x, y, nil
}

func (e *Engine) compare(lhs, cond, rhs string) string {
	var ok bool
	switch strings.ToLower(cond) {
	case "eq", "==", "=":
		ok = lhs == rhs
	case "ne", "!=", "<>":
		ok = lhs != rhs
	default:
		e.logger.Error("Unknown comparison " + cond)
	}
	if ok {
		return "1"
	}
	return ""
}
