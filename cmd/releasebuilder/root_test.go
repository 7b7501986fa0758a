// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rjtool/releasebuilder/internal/config"
	"github.com/rjtool/releasebuilder/internal/gitversion"
	"github.com/rjtool/releasebuilder/internal/testutil"
)

type staticProvider struct {
	cfg *config.Config
	err error
	dir string
}

func (p staticProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	return p.cfg, p.err
}

func (p staticProvider) SettingsDir() (string, error) {
	if p.dir == "" {
		return "", errors.New("no settings dir")
	}
	return p.dir, nil
}

func testApp(cfg *config.Config) *App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &App{
		Config: staticProvider{cfg: cfg},
		Versions: gitversion.Static{Info: &gitversion.Info{
			Major: 2, Minor: 0, Patch: 1,
			MajorMinorPatch: "2.0.1",
			SemVer:          "2.0.1",
		}},
	}
}

func runCommand(t *testing.T, app *App, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCommand(app)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// releaseTree creates a build root with a bin folder artefact and the
// given targets.
func releaseTree(t *testing.T, targets string) string {
	t.Helper()
	root := t.TempDir()
	testutil.MustMkdirAll(t, root, "out")
	testutil.MustWriteFile(t, filepath.Join(root, "bin", "tool"), "tool")
	testutil.MustWriteFile(t, filepath.Join(root, "ReleaseConfig.xml"), `<Release>
  <Name>tool</Name>
  `+targets+`
  <Artefact folder="bin"/>
</Release>`)
	return root
}

func TestRoot_BuildsArchive(t *testing.T) {
	root := releaseTree(t, `<Target name="live" path="~PUBLISHROOT~/out"/>`)
	app := testApp(nil)

	_, stderr, err := runCommand(t, app, "-r", root)
	if err != nil {
		t.Fatalf("execute error = %v\n%s", err, stderr)
	}
	if got := exitCode(app, err); got != ExitSuccess {
		t.Errorf("exit code = %d, want %d", got, ExitSuccess)
	}
	if _, err := os.Stat(filepath.Join(root, "out", "tool-live-2.0.1.zip")); err != nil {
		t.Errorf("archive missing: %v", err)
	}
	if !strings.Contains(stderr, "Version 2.0.1") {
		t.Errorf("log missing version line:\n%s", stderr)
	}
}

func TestRoot_SettingsSupplyDefaults(t *testing.T) {
	root := releaseTree(t, `<Target name="beta" path="~PUBLISHROOT~/out"/>`)
	cfg := config.DefaultConfig()
	cfg.DefaultTarget = "beta"
	cfg.Verbosity = 2
	app := testApp(cfg)

	_, stderr, err := runCommand(t, app, "--root", root)
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "out", "tool-beta-2.0.1.zip")); err != nil {
		t.Errorf("archive missing: %v", err)
	}
	if !strings.Contains(stderr, "probe") {
		t.Errorf("debug logging not enabled by settings:\n%s", stderr)
	}

	// Flags win over settings, and the tree has no live target.
	app = testApp(cfg)
	_, _, err = runCommand(t, app, "--root", root, "--target", "live")
	if got := exitCode(app, err); got != 1 {
		t.Errorf("exit code = %d, want 1 (err %v)", got, err)
	}
}

func TestRoot_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args func(root string) []string
		want int
	}{
		{"no matching target", func(root string) []string { return []string{"-r", root, "-t", "beta"} }, 1},
		{"module filtered", func(root string) []string { return []string{"-r", root, "-m", "other"} }, ExitSuccess},
		{"missing config", func(root string) []string { return []string{"-r", root, "-c", filepath.Join(root, "nope.xml")} }, ExitFailure},
		{"unknown flag", func(root string) []string { return []string{"--bogus"} }, ExitFailure},
		{"positional argument", func(root string) []string { return []string{"-r", root, "extra"} }, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := releaseTree(t, `<Target name="live" path="~PUBLISHROOT~/out"/>`)
			app := testApp(nil)
			_, _, err := runCommand(t, app, tt.args(root)...)
			if got := exitCode(app, err); got != tt.want {
				t.Errorf("exit code = %d, want %d (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestRoot_ConfigNotFound(t *testing.T) {
	restore := testutil.MustChdir(t, t.TempDir())
	defer restore()

	app := testApp(nil)
	_, _, err := runCommand(t, app, "-r", t.TempDir())
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != ExitFailure {
		t.Fatalf("error = %v, want ExitError with code %d", err, ExitFailure)
	}
	if !strings.Contains(err.Error(), "Pass --config") {
		t.Errorf("error lacks suggestion: %q", err)
	}
}

func TestRoot_FatalBuildError(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "ReleaseConfig.xml"), `<Release>
  <Name>$RELEASEBUILDER_TEST_UNSET_VARIABLE</Name>
</Release>`)
	app := testApp(nil)
	_, _, err := runCommand(t, app, "-r", root)
	if got := exitCode(app, err); got != ExitFailure {
		t.Fatalf("exit code = %d, want %d", got, ExitFailure)
	}
	msg := err.Error()
	for _, want := range []string{"RELEASEBUILDER_TEST_UNSET_VARIABLE", "Line: 2", "Export"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q does not contain %q", msg, want)
		}
	}
}

func TestRoot_SettingsLoadFailure(t *testing.T) {
	app := testApp(nil)
	app.Config = staticProvider{err: errors.New("broken settings")}
	_, _, err := runCommand(t, app, "-r", t.TempDir())
	if got := exitCode(app, err); got != ExitFailure {
		t.Errorf("exit code = %d, want %d", got, ExitFailure)
	}
}

func TestConfigCommands(t *testing.T) {
	settings := testutil.MustWriteFile(t, filepath.Join(t.TempDir(), "config.cue"), `default_target: "beta"
modules: ["client"]`)

	stdout, _, err := runCommand(t, testApp(nil), "config", "show", "--settings", settings)
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{settings, "default_target", "beta", "client"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config show output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = runCommand(t, testApp(nil), "config", "schema")
	if err != nil || !strings.Contains(stdout, "#Config") {
		t.Errorf("config schema = %q, %v", stdout, err)
	}

	stdout, _, err = runCommand(t, testApp(nil), "config", "dump")
	if err != nil || !strings.Contains(stdout, `default_target: "live"`) {
		t.Errorf("config dump = %q, %v", stdout, err)
	}
}

func TestConfigPathUsesSettingsDir(t *testing.T) {
	dir := t.TempDir()
	app := testApp(nil)
	app.Config = staticProvider{cfg: config.DefaultConfig(), dir: dir}

	stdout, _, err := runCommand(t, app, "config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if want := filepath.Join(dir, "config.cue"); strings.TrimSpace(stdout) != want {
		t.Errorf("config path = %q, want %q", stdout, want)
	}

	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), `default_target: "staging"`)
	stdout, _, err = runCommand(t, app, "config", "show")
	if err != nil || !strings.Contains(stdout, "staging") {
		t.Errorf("config show = %q, %v, want settings from the provider dir", stdout, err)
	}
}

func TestExitError(t *testing.T) {
	inner := errors.New("inner")
	tests := []struct {
		err  *ExitError
		want string
	}{
		{&ExitError{Code: 3}, "exit status 3"},
		{&ExitError{Code: 1, Err: inner}, "inner"},
		{&ExitError{Code: 1, Err: inner, Detail: "detail"}, "detail"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
	if !errors.Is(&ExitError{Err: inner}, inner) {
		t.Error("ExitError does not unwrap")
	}
}

func TestDirectivesCommand(t *testing.T) {
	stdout, _, err := runCommand(t, testApp(nil), "directives", "--raw")
	if err != nil {
		t.Fatalf("directives error = %v", err)
	}
	if stdout != directivesGuide {
		t.Error("raw output differs from the embedded guide")
	}

	stdout, _, err = runCommand(t, testApp(nil), "directives")
	if err != nil {
		t.Fatalf("directives error = %v", err)
	}
	for _, want := range []string{"ReleaseBuilder", "Artefacts", "Transforms"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("rendered guide missing %q", want)
		}
	}
}
