// SPDX-License-Identifier: MPL-2.0

package transform_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/rjtool/releasebuilder/pkg/transform"
	"github.com/rjtool/releasebuilder/pkg/vars"
)

func newEngine(t *testing.T) (*transform.Engine, *bytes.Buffer) {
	t.Helper()
	s := vars.New(vars.WithEnv(vars.MapEnv(map[string]string{"ARCH": "x64"})))
	s.Set("SemVer", "2.1.0")
	s.Set("Config", "Release")
	var buf bytes.Buffer
	return transform.New(s, log.New(&buf)), &buf
}

func TestApply(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t)

	tests := []struct {
		name    string
		spec    string
		current string
		want    string
	}{
		{name: "empty transform keeps current", spec: "", current: "abc", want: "abc"},
		{name: "set", spec: "set,v~SemVer~", current: "old", want: "v2.1.0"},
		{name: "set is case insensitive", spec: "SET,$ARCH", current: "", want: "x64"},
		{name: "replace", spec: "replace,Debug,~Config~", current: "bin/Debug/app", want: "bin/Release/app"},
		{name: "replace identical is no-op", spec: "replace,a,a", current: "banana", want: "banana"},
		{name: "regex-replace", spec: `regex-replace,\d+,N`, current: "v1.22.333", want: "vN.N.N"},
		{name: "regex-replace braced groups", spec: `regex-replace,(\w+)-(\w+),${2}-${1}`, current: "a-b", want: "b-a"},
		{name: "getversion backslash", spec: `getversion,C:\builds\tool-1.4.2-beta1`, want: "1.4.2-beta1"},
		{name: "getversion slash", spec: "getversion,/opt/builds/app.3.0.1", want: "3.0.1"},
		{name: "getversion no match", spec: "getversion,/opt/builds/app", want: "getversion,/opt/builds/app"},
		{name: "when eq true", spec: "when,~Config~,eq,Release", want: "1"},
		{name: "when == false", spec: "when,~Config~,==,Debug", want: ""},
		{name: "when ne", spec: "when,a,<>,b", want: "1"},
		{name: "when NE upper", spec: "when,a,NE,a", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := e.Apply(tt.spec, tt.current)
			if err != nil {
				t.Fatalf("Apply(%q) error = %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("Apply(%q, %q) = %q, want %q", tt.spec, tt.current, got, tt.want)
			}
		})
	}
}

func TestApply_UnknownComparison(t *testing.T) {
	t.Parallel()

	e, buf := newEngine(t)
	got, err := e.Apply("when,a,like,a", "")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got != "" {
		t.Errorf("Apply() = %q, want empty", got)
	}
	if !strings.Contains(buf.String(), "Unknown comparison like") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestApply_Errors(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t)

	tests := []struct {
		name     string
		spec     string
		required int
	}{
		{name: "set missing value", spec: "set", required: 2},
		{name: "replace missing to", spec: "replace,a", required: 3},
		{name: "regex-replace extra", spec: "regex-replace,a,b,c", required: 3},
		{name: "when short", spec: "when,a,eq", required: 4},
		{name: "getversion extra", spec: "getversion,a,b", required: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := e.Apply(tt.spec, "x")
			var ace *transform.ArgCountError
			if !errors.As(err, &ace) {
				t.Fatalf("Apply(%q) error = %v, want *ArgCountError", tt.spec, err)
			}
			if ace.Required != tt.required {
				t.Errorf("Required = %d, want %d", ace.Required, tt.required)
			}
			if !strings.Contains(err.Error(), "["+tt.spec+"]") {
				t.Errorf("Error() = %q, should list the given parts", err.Error())
			}
			if !errors.Is(err, transform.ErrInvalidTransform) {
				t.Error("error should match ErrInvalidTransform")
			}
		})
	}

	t.Run("unknown operation", func(t *testing.T) {
		t.Parallel()
		_, err := e.Apply("upper,x", "x")
		var uoe *transform.UnknownOperationError
		if !errors.As(err, &uoe) || uoe.Operation != "upper" {
			t.Fatalf("Apply() error = %v, want *UnknownOperationError", err)
		}
	})

	t.Run("bad regex", func(t *testing.T) {
		t.Parallel()
		if _, err := e.Apply("regex-replace,(,x", "x"); err == nil {
			t.Fatal("Apply() with invalid pattern should fail")
		}
	})

	t.Run("bare group reference is an environment lookup", func(t *testing.T) {
		t.Parallel()
		_, err := e.Apply(`regex-replace,(\w+)-(\w+),$2-$1`, "a-b")
		var undefined *vars.UndefinedError
		if !errors.As(err, &undefined) || undefined.Source != vars.SourceEnvironment || undefined.Name != "2" {
			t.Fatalf("Apply() error = %v, want undefined environment variable 2", err)
		}
	})

	t.Run("undefined variable", func(t *testing.T) {
		t.Parallel()
		_, err := e.Apply("set,~Nope~", "x")
		if !errors.Is(err, vars.ErrNotFound) {
			t.Fatalf("Apply() error = %v, want vars.ErrNotFound", err)
		}
	})
}

func TestIsTrue(t *testing.T) {
	t.Parallel()

	e, _ := newEngine(t)

	tests := []struct {
		spec string
		want bool
	}{
		{spec: "", want: true},
		{spec: "set,1", want: true},
		{spec: "when,~Config~,eq,Release", want: true},
		{spec: "when,~Config~,eq,Debug", want: false},
		{spec: "replace,a,b", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			t.Parallel()
			got, err := e.IsTrue(tt.spec)
			if err != nil {
				t.Fatalf("IsTrue(%q) error = %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("IsTrue(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}
