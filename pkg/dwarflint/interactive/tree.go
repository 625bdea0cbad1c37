// Package interactive renders a finished check run as a navigable DIE
// tree instead of a flat diagnostic stream. A presentation-agnostic
// Node tree feeds two interchangeable frontends, a full-screen tview
// tree view and a readline REPL fallback.
package interactive

import (
	"fmt"

	"github.com/go-dwarf/dwarflint/pkg/dwarflint/diag"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/dwver"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/info"
	"github.com/go-dwarf/dwarflint/pkg/dwarflint/locus"
)

// Node is one entry in the browsable tree: a compile unit, a DIE, or a
// diagnostic attached at the DIE that produced it.
type Node struct {
	Label    string
	Detail   string
	Children []*Node
}

// BuildTree turns a completed .debug_info pass and its diagnostics into
// a root Node, one child per compile unit, each DIE annotated with the
// diagnostics whose locus falls at its offset.
func BuildTree(idx *info.CUIndex, d *diag.Diagnostics) *Node {
	byOffset := make(map[int64][]diag.Entry)
	for _, e := range d.All() {
		if e.Locus.Section != locus.SectionInfo {
			continue
		}
		switch e.Locus.Kind {
		case locus.KindDIE, locus.KindAttribute:
			byOffset[e.Locus.B] = append(byOffset[e.Locus.B], e)
		}
	}

	root := &Node{Label: fmt.Sprintf("dwarflint: %d compile unit(s)", len(idx.CUs()))}
	for _, cu := range idx.CUs() {
		cuNode := &Node{Label: fmt.Sprintf("CU @ 0x%x (DWARF%d)", cu.Offset, cu.Version)}
		if cu.Root != nil {
			cuNode.Children = append(cuNode.Children, buildDIENode(cu.Root, byOffset))
		}
		root.Children = append(root.Children, cuNode)
	}
	return root
}

func buildDIENode(d *info.DIE, byOffset map[int64][]diag.Entry) *Node {
	label := fmt.Sprintf("0x%x %s", d.Offset, d.Tag)
	if n, ok := d.Attr(dwver.AttrName_); ok && n.Str != "" {
		label += " " + n.Str
	}

	node := &Node{Label: label}
	for _, e := range byOffset[d.Offset] {
		node.Children = append(node.Children, &Node{
			Label:  "! " + e.Message,
			Detail: e.Category.String(),
		})
	}
	for _, c := range d.Children {
		node.Children = append(node.Children, buildDIENode(c, byOffset))
	}
	return node
}
