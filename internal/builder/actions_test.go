// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/beevik/etree"

	"github.com/rjtool/releasebuilder/internal/fexec"
	"github.com/rjtool/releasebuilder/internal/testutil"
	"github.com/rjtool/releasebuilder/pkg/archive"
	"github.com/rjtool/releasebuilder/pkg/pathfinder"
)

type fakeRunner struct {
	requests []fexec.Request
	err      error
}

func (f *fakeRunner) Run(_ context.Context, req fexec.Request) (*fexec.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return &fexec.Result{ExitCode: 1}, f.err
	}
	return &fexec.Result{Lines: []fexec.Line{{Stream: fexec.Stdout, Text: "ok"}}}, nil
}

// buildConfig wraps actions in a <build> inside an Artefacts folder "work".
func buildConfig(actions string) string {
	return `<Release>
  <Artefacts folder="work">
    <build>
` + actions + `
    </build>
  </Artefacts>
</Release>`
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestBuild_FileActions(t *testing.T) {
	root := t.TempDir()
	work := testutil.MustMkdirAll(t, root, "work")
	testutil.MustMkdirAll(t, work, "out")
	testutil.MustWriteFile(t, filepath.Join(work, "obj", "a.tmp"), "a")
	testutil.MustWriteFile(t, filepath.Join(work, "obj", "sub", "b.tmp"), "b")
	testutil.MustWriteFile(t, filepath.Join(work, "obj", "keep.txt"), "keep")
	testutil.MustWriteFile(t, filepath.Join(work, "src", "app.cfg"), "mode=DEBUG v1")
	testutil.MustWriteFile(t, filepath.Join(work, "src", "nested", "b.cfg"), "DEBUG")
	testutil.MustWriteFile(t, filepath.Join(work, "src", "readme.md"), "readme")

	b, buf := newTestBuilder(t, root, buildConfig(`
      <clean folder="obj" match="*.tmp"/>
      <create file="out/version.txt">v~SemVer~</create>
      <copy from="src" to="staged" match="*.cfg" recursive="true">
        <transform-content transform="replace,DEBUG,RELEASE"/>
      </copy>
      <copy from="src/app.cfg" to="renamed" name="final.cfg"/>
      <modify file="staged/app.cfg">
        <transform-content transform="regex-replace,v\d+,v2"/>
      </modify>
      <unknown-action/>`), Options{})
	mustBuild(t, b)

	if exists(filepath.Join(work, "obj", "a.tmp")) || exists(filepath.Join(work, "obj", "sub", "b.tmp")) {
		t.Error("clean left matching files")
	}
	if !exists(filepath.Join(work, "obj", "keep.txt")) || !exists(filepath.Join(work, "obj", "sub")) {
		t.Error("clean removed files or folders it should keep")
	}
	if got := testutil.MustReadFile(t, filepath.Join(work, "out", "version.txt")); got != "v1.2.3" {
		t.Errorf("created content = %q", got)
	}
	if got := testutil.MustReadFile(t, filepath.Join(work, "staged", "app.cfg")); got != "mode=RELEASE v2" {
		t.Errorf("staged app.cfg = %q", got)
	}
	if got := testutil.MustReadFile(t, filepath.Join(work, "staged", "nested", "b.cfg")); got != "RELEASE" {
		t.Errorf("staged nested/b.cfg = %q", got)
	}
	if exists(filepath.Join(work, "staged", "readme.md")) {
		t.Error("copy ignored match")
	}
	if got := testutil.MustReadFile(t, filepath.Join(work, "renamed", "final.cfg")); got != "mode=DEBUG v1" {
		t.Errorf("renamed copy = %q", got)
	}
	if !strings.Contains(buf.String(), "Unknown build action unknown-action") {
		t.Errorf("log missing unknown action:\n%s", buf.String())
	}
}

func TestBuild_CleanIncludeFolders(t *testing.T) {
	root := t.TempDir()
	work := testutil.MustMkdirAll(t, root, "work")
	testutil.MustWriteFile(t, filepath.Join(work, "obj", "sub", "deep", "b.bin"), "b")
	testutil.MustWriteFile(t, filepath.Join(work, "obj", "a"), "a")

	b, _ := newTestBuilder(t, root, buildConfig(`<clean folder="obj" include-folders="true"/>`), Options{})
	mustBuild(t, b)

	entries, err := os.ReadDir(filepath.Join(work, "obj"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("obj not empty: %v", entries)
	}
}

func TestBuild_LoggedActionProblems(t *testing.T) {
	tests := []struct {
		name   string
		action string
		log    string
	}{
		{"clean without folder", `<clean/>`, "Folder to clean required"},
		{"clean missing folder", `<clean folder="nope"/>`, "folder to clean must be found: nope"},
		{"copy missing source", `<copy from="nope" to="x"/>`, "from must point to a valid file or directory"},
		{"modify missing file", `<modify file="nope.txt"/>`, "file must point to a valid file"},
		{"exec without app", `<exec args="x"/>`, "exec requires an app attribute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			testutil.MustMkdirAll(t, root, "work")
			b, buf := newTestBuilder(t, root, buildConfig(tt.action), Options{})
			mustBuild(t, b)
			if !strings.Contains(buf.String(), tt.log) {
				t.Errorf("log missing %q:\n%s", tt.log, buf.String())
			}
		})
	}
}

func TestBuild_FatalActionProblems(t *testing.T) {
	tests := []struct {
		name   string
		action string
		want   error
	}{
		{"recursive copy from file", `<copy from="src/app.cfg" to="x" recursive="true"/>`, ErrNotDirectory},
		{"rename many", `<copy from="src" to="x" name="one.cfg"/>`, ErrMultipleRename},
		{"create in missing folder", `<create file="nowhere/out.txt">x</create>`, pathfinder.ErrNotFound},
		{"exec missing app", `<exec app="no-such-tool-anywhere"/>`, pathfinder.ErrNotFound},
		{"copy onto itself", `<copy from="src/app.cfg" to="src"/>`, archive.ErrSameFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			work := testutil.MustMkdirAll(t, root, "work")
			testutil.MustWriteFile(t, filepath.Join(work, "src", "app.cfg"), "a")
			testutil.MustWriteFile(t, filepath.Join(work, "src", "other.cfg"), "b")
			b, _ := newTestBuilder(t, root, buildConfig(tt.action), Options{})
			if err := b.Build(context.Background()); !errors.Is(err, tt.want) {
				t.Fatalf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuild_CopyWithoutDestination(t *testing.T) {
	root := t.TempDir()
	notes := testutil.MustWriteFile(t, filepath.Join(root, "notes.txt"), "keep me")
	restore := testutil.MustChdir(t, root)
	defer restore()

	b, buf := newTestBuilder(t, root, `<Release>
  <Artefacts>
    <build>
      <copy from="notes.txt"/>
    </build>
  </Artefacts>
</Release>`, Options{})
	mustBuild(t, b)

	if !strings.Contains(buf.String(), "to must point to a valid directory") {
		t.Errorf("log missing destination error:\n%s", buf.String())
	}
	if got := testutil.MustReadFile(t, notes); got != "keep me" {
		t.Errorf("notes.txt = %q, want it unchanged", got)
	}
}

const project = `<Project>
  <PropertyGroup>
    <Version>0.0.0</Version>
    <Company>acme</Company>
  </PropertyGroup>
</Project>
`

func TestBuild_XMLEdit(t *testing.T) {
	tests := []struct {
		name        string
		action      string
		version     string
		declaration bool
	}{
		{"set version", `<xml-edit file="app.csproj"><node path="//Version" action="set,~SemVer~"/></xml-edit>`, "1.2.3", true},
		{"omit declaration", `<xml-edit file="app.csproj" omit-declaration="true"><node path="./Project/PropertyGroup/Version" action="replace,0.0.0,4.5.6"/></xml-edit>`, "4.5.6", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			work := testutil.MustMkdirAll(t, root, "work")
			file := testutil.MustWriteFile(t, filepath.Join(work, "app.csproj"), project)

			b, _ := newTestBuilder(t, root, buildConfig(tt.action), Options{})
			mustBuild(t, b)

			doc := etree.NewDocument()
			if err := doc.ReadFromFile(file); err != nil {
				t.Fatal(err)
			}
			if got := doc.FindElement("//Version").Text(); got != tt.version {
				t.Errorf("Version = %q, want %q", got, tt.version)
			}
			if got := doc.FindElement("//Company").Text(); got != "acme" {
				t.Errorf("Company = %q", got)
			}
			content := testutil.MustReadFile(t, file)
			if got := strings.HasPrefix(content, "<?xml"); got != tt.declaration {
				t.Errorf("declaration present = %v, want %v:\n%s", got, tt.declaration, content)
			}
		})
	}
}

func TestBuild_XMLEditUnchangedFileNotRewritten(t *testing.T) {
	root := t.TempDir()
	work := testutil.MustMkdirAll(t, root, "work")
	file := testutil.MustWriteFile(t, filepath.Join(work, "app.csproj"), project)

	b, _ := newTestBuilder(t, root, buildConfig(`<xml-edit file="app.csproj"><node path="//Version" action="set,0.0.0"/></xml-edit>`), Options{})
	mustBuild(t, b)
	if got := testutil.MustReadFile(t, file); got != project {
		t.Errorf("file rewritten:\n%s", got)
	}
}

func TestBuild_XMLEditUnknownDirective(t *testing.T) {
	root := t.TempDir()
	work := testutil.MustMkdirAll(t, root, "work")
	testutil.MustWriteFile(t, filepath.Join(work, "app.csproj"), project)

	b, _ := newTestBuilder(t, root, buildConfig(`<xml-edit file="app.csproj"><attribute/></xml-edit>`), Options{})
	err := b.Build(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unknown directive attribute") {
		t.Fatalf("Build() error = %v", err)
	}
}

func TestBuild_Exec(t *testing.T) {
	root := t.TempDir()
	work := testutil.MustMkdirAll(t, root, "work")
	tool := filepath.Join(root, "tools", "pack.sh")
	testutil.MustWriteFile(t, tool, "#!/bin/sh\n")
	if err := os.Chmod(tool, 0o755); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{}
	b, _ := newTestBuilder(t, root, buildConfig(
		`<exec app="tools/pack.sh" args="-o '~SemVer~' --flag" folder="." required-exit-codes="0,3" log-stdout="true"/>`),
		Options{Runner: runner, ShellExec: true})
	mustBuild(t, b)

	if len(runner.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(runner.requests))
	}
	req := runner.requests[0]
	if req.Path != tool {
		t.Errorf("Path = %q, want %q", req.Path, tool)
	}
	if want := []string{"-o", "1.2.3", "--flag"}; !slices.Equal(req.Args, want) {
		t.Errorf("Args = %q, want %q", req.Args, want)
	}
	if req.Dir != work {
		t.Errorf("Dir = %q, want %q", req.Dir, work)
	}
	if !slices.Equal(req.RequiredExitCodes, []int{0, 3}) || !req.LogOutput || !req.Terminal {
		t.Errorf("request = %+v", req)
	}
}

func TestBuild_ExecFailureIsFatal(t *testing.T) {
	root := t.TempDir()
	testutil.MustMkdirAll(t, root, "work")
	tool := filepath.Join(root, "tools", "fail.sh")
	testutil.MustWriteFile(t, tool, "#!/bin/sh\nexit 2\n")
	if err := os.Chmod(tool, 0o755); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{err: &fexec.ExitCodeError{App: tool, Code: 2, Required: []int{0}}}
	b, _ := newTestBuilder(t, root, buildConfig(`<exec app="tools/fail.sh"/>`), Options{Runner: runner})
	err := b.Build(context.Background())
	var exitErr *fexec.ExitCodeError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("Build() error = %v, want ExitCodeError", err)
	}
}

func TestBuild_NoBuildSkipsActions(t *testing.T) {
	root := t.TempDir()
	work := testutil.MustMkdirAll(t, root, "work")
	b, buf := newTestBuilder(t, root, buildConfig(`<create file="version.txt">x</create>`), Options{NoBuild: true})
	mustBuild(t, b)

	if exists(filepath.Join(work, "version.txt")) {
		t.Error("build action ran with NoBuild")
	}
	if !strings.Contains(buf.String(), "Ignoring build step") {
		t.Errorf("log missing skip message:\n%s", buf.String())
	}
}

func TestMatchName(t *testing.T) {
	tests := []struct {
		pattern, name string
		want          bool
	}{
		{AllFiles, "Makefile", true},
		{AllFiles, "a.txt", true},
		{"*.tmp", "a.tmp", true},
		{"*.tmp", "a.txt", false},
		{"[", "a", false},
	}
	for _, tt := range tests {
		if got := matchName(tt.pattern, tt.name); got != tt.want {
			t.Errorf("matchName(%q, %q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
		}
	}
}
