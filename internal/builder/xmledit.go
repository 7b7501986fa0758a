// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/charmbracelet/log"

	"github.com/rjtool/releasebuilder/internal/rlog"
	"github.com/rjtool/releasebuilder/pkg/releaseconfig"
)

// xmlDeclaration is written when the edited document has none.
const xmlDeclaration = `version="1.0" encoding="utf-8"`

// xmlEdit applies <node path=".." action=".."/> edits to an XML file. The
// path is an etree path expression and action a transform applied to each
// selected element's text. The file is rewritten only when a value changed.
func (b *Builder) xmlEdit(el *releaseconfig.Element, scope buildScope) error {
	file, err := b.outputFile(el, scope)
	if err != nil {
		return err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(file); err != nil {
		return fmt.Errorf("failed to load %s: %w", file, err)
	}

	changed := false
	for _, edit := range el.Children("") {
		if !strings.EqualFold(edit.Name, "node") {
			return releaseconfig.WrapNode(edit, fmt.Errorf("unknown directive %s", edit.Name))
		}
		action, ok := edit.Attr("action")
		if !ok {
			b.logNode(log.ErrorLevel, edit, "node requires an action attribute")
			continue
		}
		selector := edit.Path("path", "")
		path, err := etree.CompilePath(selector)
		if err != nil {
			return releaseconfig.WrapNode(edit, fmt.Errorf("invalid path %q: %w", selector, err))
		}
		for _, e := range doc.FindElementsPath(path) {
			nv, err := b.transform.Apply(action, e.Text())
			if err != nil {
				return releaseconfig.WrapNode(edit, err)
			}
			if nv != e.Text() {
				e.SetText(nv)
				changed = true
				rlog.Tracef(b.logger, "Node %s value %s", e.Tag, nv)
			}
		}
	}
	if !changed {
		return nil
	}

	setDeclaration(doc, el.HasAttr("omit-declaration"))
	doc.Indent(2)
	return doc.WriteToFile(file)
}

// setDeclaration adds or removes the <?xml?> processing instruction.
func setDeclaration(doc *etree.Document, omit bool) {
	for _, t := range doc.Child {
		pi, ok := t.(*etree.ProcInst)
		if !ok || pi.Target != "xml" {
			continue
		}
		if omit {
			doc.RemoveChild(pi)
		}
		return
	}
	if !omit {
		doc.InsertChildAt(0, &etree.ProcInst{Target: "xml", Inst: xmlDeclaration})
	}
}
