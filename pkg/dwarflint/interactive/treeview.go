package interactive

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// RunTreeView opens a full-screen, navigable view of root using tview's
// tree widget: arrow keys move the selection, Enter expands/collapses a
// node, q or Ctrl-C exits. Each node's detail (the diagnostic's category
// mask, for diagnostic leaves) is shown in a side panel.
func RunTreeView(root *Node) error {
	rootItem := tview.NewTreeNode(root.Label).SetColor(tcell.ColorWhite)
	tree := tview.NewTreeView().SetRoot(rootItem).SetCurrentNode(rootItem)

	detail := tview.NewTextView().SetDynamicColors(true)
	detail.SetBorder(true).SetTitle("detail")

	addChildren(rootItem, root)

	tree.SetChangedFunc(func(node *tview.TreeNode) {
		if n, ok := node.GetReference().(*Node); ok {
			detail.SetText(n.Detail)
		}
	})
	tree.SetSelectedFunc(func(node *tview.TreeNode) {
		node.SetExpanded(!node.IsExpanded())
	})

	flex := tview.NewFlex().
		AddItem(tree, 0, 2, true).
		AddItem(detail, 0, 1, false)

	app := tview.NewApplication()
	flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Rune() == 'q' {
			app.Stop()
			return nil
		}
		return event
	})

	return app.SetRoot(flex, true).SetFocus(tree).Run()
}

func addChildren(item *tview.TreeNode, n *Node) {
	item.SetReference(n)
	for _, c := range n.Children {
		child := tview.NewTreeNode(c.Label)
		if len(c.Children) == 0 {
			child.SetColor(tcell.ColorGray)
		} else {
			child.SetColor(tcell.ColorYellow)
		}
		item.AddChild(child)
		addChildren(child, c)
	}
}
