package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"

	"github.com/benz9527/xbst/lib/sched"
	"github.com/benz9527/xbst/lib/tree"
)

// Mark tags a node taking part in the in-flight operation.
type Mark uint8

const (
	MarkNone Mark = iota
	MarkCursor
	MarkTarget
	MarkReplacement
	MarkFound
)

// Highlight marks nodes by handle. Later marks win over earlier ones.
type Highlight map[tree.NodeID]Mark

// Style of the console output. Without colour, marks are rendered as
// brackets around the key.
type Style struct {
	Color bool
}

var (
	brackets = map[Mark][2]string{
		MarkCursor:      {"[", "]"},
		MarkTarget:      {"{", "}"},
		MarkReplacement: {"<", ">"},
		MarkFound:       {"(", ")"},
	}
	palette = map[Mark]color.Attribute{
		MarkCursor:      color.FgYellow,
		MarkTarget:      color.FgRed,
		MarkReplacement: color.FgCyan,
		MarkFound:       color.FgGreen,
	}
)

func (s Style) paint(text string, mark Mark) string {
	if mark == MarkNone {
		return text
	}
	if s.Color {
		c := color.New(palette[mark], color.Bold)
		c.EnableColor()
		return c.Sprint(text)
	}
	b := brackets[mark]
	return b[0] + text + b[1]
}

func (s Style) Paint(text string, attr color.Attribute) string {
	if !s.Color {
		return text
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(text)
}

// HighlightOf marks the nodes the task's progress refers to.
func HighlightOf[K any](task *sched.Task[K]) Highlight {
	hl := Highlight{}
	if task == nil {
		return hl
	}
	switch task.Kind() {
	case sched.KindInsert, sched.KindSearch:
		if id := task.NodeID(); id != tree.NilNode {
			if task.Done() && task.Err() == nil {
				hl[id] = MarkFound
			} else {
				hl[id] = MarkCursor
			}
		}
	case sched.KindDelete:
		state := task.Removal()
		for _, m := range []struct {
			id   tree.NodeID
			mark Mark
		}{
			{state.Cursor, MarkCursor},
			{state.ToDelete, MarkTarget},
			{state.Replacement, MarkReplacement},
		} {
			if m.id != tree.NilNode {
				hl[m.id] = m.mark
			}
		}
	default:
	}
	return hl
}

// Levels writes one line per depth, nodes ordered left to right.
func Levels[K any](w io.Writer, bst tree.BST[K], hl Highlight, style Style) error {
	levels := bst.Levels()
	if len(levels) == 0 {
		_, err := fmt.Fprintln(w, "(empty tree)")
		return err
	}
	for depth, level := range levels {
		keys := lo.Map(level, func(node tree.BSTNode[K], _ int) string {
			return style.paint(fmt.Sprint(node.Key()), hl[node.ID()])
		})
		if _, err := fmt.Fprintf(w, "L%d: %s\n", depth, strings.Join(keys, " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "nodes: %d, leaves: %d, height: %d\n", bst.Len(), bst.NumberOfLeaves(), len(levels))
	return err
}

// Progress describes where the task stands.
func Progress[K any](task *sched.Task[K]) string {
	if task == nil {
		return "-"
	}
	if task.Kind() == sched.KindDelete {
		return task.Removal().Phase.String()
	}
	if node := task.Node(); node != nil {
		return fmt.Sprintf("at %v", node.Key())
	}
	return "-"
}

// Caption is the status line of the console.
func Caption[K any](task *sched.Task[K], tracing bool) string {
	kind := "none"
	if task != nil {
		kind = strings.ToLower(task.Kind().String())
	}
	not := "not "
	if tracing {
		not = ""
	}
	return fmt.Sprintf("performing: %s, %stracing", kind, not)
}

// Tasks writes the task stack, the current task first and starred.
func Tasks[K any](w io.Writer, tasks []*sched.Task[K], style Style) error {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "ID", "Kind", "Key", "Traced", "Steps", "Progress"})
	for i, task := range tasks {
		idx := fmt.Sprint(i)
		if i == 0 {
			idx = style.Paint("*", color.FgYellow)
		}
		tbl.AppendRow(table.Row{
			idx, task.ID(), task.Kind().String(), fmt.Sprint(task.Key()),
			task.Traced(), task.Steps(), Progress(task),
		})
	}
	tbl.AppendFooter(table.Row{"", "", "", "", "", "Total", len(tasks)})
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}
