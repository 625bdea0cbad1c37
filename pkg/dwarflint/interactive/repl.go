package interactive

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

// RunREPL drives a minimal line-oriented browser over root for
// terminals too limited for the full-screen tree view: each line is a
// verb plus arguments, dispatched against the current node.
func RunREPL(root *Node, out io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dwarflint> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	stack := []*Node{root}
	printNode(out, stack[len(stack)-1])

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cur := stack[len(stack)-1]

		switch fields[0] {
		case "quit", "q", "exit":
			return nil
		case "ls":
			printNode(out, cur)
		case "up":
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
			printNode(out, stack[len(stack)-1])
		case "cd":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: cd <index>")
				continue
			}
			i, err := strconv.Atoi(fields[1])
			if err != nil || i < 0 || i >= len(cur.Children) {
				fmt.Fprintln(out, "no such child")
				continue
			}
			stack = append(stack, cur.Children[i])
			printNode(out, stack[len(stack)-1])
		default:
			fmt.Fprintln(out, "commands: ls, cd <index>, up, quit")
		}
	}
}

func printNode(out io.Writer, n *Node) {
	fmt.Fprintln(out, n.Label)
	for i, c := range n.Children {
		fmt.Fprintf(out, "  [%d] %s\n", i, c.Label)
	}
}
