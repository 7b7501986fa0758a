// SPDX-License-Identifier: MPL-2.0

package releaseconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/rjtool/releasebuilder/pkg/releaseconfig"
)

const sample = `<?xml version="1.0"?>
<Release>
  <Name>tool</Name>
  <Target name="live" path="out" type="zip" />
  <Artefacts folder="bin">
    <file skip-directories-front="2" newname="a.txt">x\y\z.txt</file>
    <!-- ignored -->
    <build nobuild="true">
      <exec app="make" required-exit-codes="0, 2,3" />
    </build>
  </Artefacts>
  <Create>line one<b>bold</b> tail</Create>
</Release>
`

func parseSample(t *testing.T) *releaseconfig.Document {
	t.Helper()
	doc, err := releaseconfig.Parse(strings.NewReader(sample), "ReleaseConfig.xml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return doc
}

func TestParse_Structure(t *testing.T) {
	t.Parallel()

	doc := parseSample(t)
	if doc.Root.Name != "Release" {
		t.Fatalf("root = %q, want Release", doc.Root.Name)
	}

	var names []string
	for _, c := range doc.Root.Children("") {
		names = append(names, c.Name)
	}
	want := []string{"Name", "Target", "Artefacts", "Create"}
	if !slices.Equal(names, want) {
		t.Errorf("children = %q, want %q", names, want)
	}

	if got := doc.Root.Children("Name")[0].Value(); got != "tool" {
		t.Errorf("Name value = %q", got)
	}
	if got := doc.Root.Children("Create")[0].Value(); got != "line onebold tail" {
		t.Errorf("Create value = %q", got)
	}
}

func TestParse_Locations(t *testing.T) {
	t.Parallel()

	doc := parseSample(t)
	target := doc.Root.Children("Target")[0]
	if target.Location.Line != 4 || target.Location.Column != 3 {
		t.Errorf("Target location = %+v, want line 4 column 3", target.Location)
	}
	if got := target.Location.String(); got != "Line: 4: 3" {
		t.Errorf("Location.String() = %q", got)
	}

	exec := doc.Root.Children("Artefacts")[0].Children("build")[0].Children("exec")[0]
	if exec.Location.Line != 9 {
		t.Errorf("exec line = %d, want 9", exec.Location.Line)
	}
	if exec.Location.File != "ReleaseConfig.xml" {
		t.Errorf("exec file = %q", exec.Location.File)
	}
}

func TestElement_Getters(t *testing.T) {
	t.Parallel()

	doc := parseSample(t)
	artefacts := doc.Root.Children("Artefacts")[0]
	file := artefacts.Children("file")[0]

	if got := file.String("newname", ""); got != "a.txt" {
		t.Errorf("String(newname) = %q", got)
	}
	if got := file.String("missing", "dflt"); got != "dflt" {
		t.Errorf("String(missing) = %q", got)
	}
	if got, err := file.Int("skip-directories-front", 0); err != nil || got != 2 {
		t.Errorf("Int() = %d, %v", got, err)
	}
	if got, err := file.Int("missing", 7); err != nil || got != 7 {
		t.Errorf("Int(missing) = %d, %v", got, err)
	}

	build := artefacts.Children("build")[0]
	if got, err := build.Bool("nobuild", false); err != nil || !got {
		t.Errorf("Bool(nobuild) = %v, %v", got, err)
	}
	if !build.HasAttr("nobuild") || build.HasAttr("process") {
		t.Error("HasAttr() mismatch")
	}

	exec := build.Children("exec")[0]
	codes, err := exec.Ints("required-exit-codes", []int{0})
	if err != nil {
		t.Fatalf("Ints() error = %v", err)
	}
	if !slices.Equal(codes, []int{0, 2, 3}) {
		t.Errorf("Ints() = %v", codes)
	}
	if got, _ := exec.Ints("other", []int{0}); !slices.Equal(got, []int{0}) {
		t.Errorf("Ints(default) = %v", got)
	}

	el, err := releaseconfig.Parse(strings.NewReader(`<a dir="x\y" list="a, b,,c"/>`), "t.xml")
	if err != nil {
		t.Fatal(err)
	}
	if got := el.Root.Path("dir", ""); got != "x/y" {
		t.Errorf("Path() = %q", got)
	}
	if got := el.Root.Strings("list", ","); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Strings() = %q", got)
	}
}

func TestElement_MalformedAttribute(t *testing.T) {
	t.Parallel()

	doc, err := releaseconfig.Parse(strings.NewReader("<r>\n <x flag=\"maybe\" n=\"two\" codes=\"1,x\"/>\n</r>"), "t.xml")
	if err != nil {
		t.Fatal(err)
	}
	x := doc.Root.Children("x")[0]

	_, err = x.Bool("flag", false)
	var ae *releaseconfig.AttrError
	if !errors.As(err, &ae) {
		t.Fatalf("Bool() error = %v, want *AttrError", err)
	}
	if ae.Location.Line != 2 {
		t.Errorf("AttrError line = %d, want 2", ae.Location.Line)
	}
	if _, err := x.Int("n", 0); !errors.Is(err, strconv.ErrSyntax) {
		t.Errorf("Int() error = %v, want strconv.ErrSyntax", err)
	}
	if _, err := x.Ints("codes", nil); err == nil {
		t.Error("Ints() should fail on non-numeric element")
	}
}

func TestWrapNode(t *testing.T) {
	t.Parallel()

	doc := parseSample(t)
	target := doc.Root.Children("Target")[0]
	base := errors.New("boom")

	err := releaseconfig.WrapNode(target, base)
	if !errors.Is(err, base) {
		t.Fatal("WrapNode() should wrap the cause")
	}
	if !strings.Contains(err.Error(), "Line: 4: 3") {
		t.Errorf("Error() = %q, want location", err.Error())
	}
	if again := releaseconfig.WrapNode(doc.Root, err); again != err {
		t.Error("WrapNode() should keep the innermost location")
	}
	if releaseconfig.WrapNode(target, nil) != nil {
		t.Error("WrapNode(nil) should be nil")
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "ReleaseConfig.xml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := releaseconfig.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Path != path {
		t.Errorf("Path = %q", doc.Path)
	}

	if _, err := releaseconfig.Load(filepath.Join(dir, "missing.xml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v", err)
	}
	if _, err := releaseconfig.Parse(strings.NewReader("<?xml version=\"1.0\"?>"), "empty.xml"); !errors.Is(err, releaseconfig.ErrNoRoot) {
		t.Errorf("Parse(empty) error = %v", err)
	}
	if _, err := releaseconfig.Parse(strings.NewReader("<a><b></a>"), "bad.xml"); err == nil {
		t.Error("Parse(mismatched) should fail")
	}
}
