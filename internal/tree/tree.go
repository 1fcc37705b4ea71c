// Package tree derives the visible row structure from a task list.
//
// Rows are rebuilt on every render; nothing here is persisted. Building is
// pure, so the same list and options always produce the same rows.
package tree

import "github.com/bborn/tydo/internal/task"

// RowKind discriminates the row variants.
type RowKind int

const (
	// RowTask is an ungrouped task rendered at the top level.
	RowTask RowKind = iota
	// RowGroup is a group header.
	RowGroup
	// RowChild is a task rendered under its group header.
	RowChild
)

// Row is one display line.
type Row struct {
	Kind  RowKind
	Task  task.Task // RowTask, RowChild
	Group string    // RowGroup, RowChild

	// Group header fields.
	Collapsed bool
	Total     int // all tasks in the group, hidden ones included
	DoneCount int // completed tasks in the group

	// Last marks the final visible child of a group (└ instead of ├).
	Last bool
}

// Options controls which rows Build emits.
type Options struct {
	// HideDone omits completed tasks. Group headers still count them.
	HideDone bool
	// Collapsed holds group names whose children are not emitted.
	Collapsed map[string]bool
}

// Build converts the ordered list into display rows. Groups cluster at the
// position their first task appears; tasks keep their relative order inside
// a group; ungrouped tasks stay top-level in their original position.
func Build(tasks task.List, opts Options) []Row {
	buckets := make(map[string][]task.Task)
	for _, t := range tasks {
		if g := t.Group(); g != "" {
			buckets[g] = append(buckets[g], t)
		}
	}

	var rows []Row
	emitted := make(map[string]bool)
	for _, t := range tasks {
		g := t.Group()
		if g == "" {
			if opts.HideDone && t.Done {
				continue
			}
			rows = append(rows, Row{Kind: RowTask, Task: t})
			continue
		}
		if emitted[g] {
			continue
		}
		emitted[g] = true
		rows = append(rows, buildGroup(g, buckets[g], opts)...)
	}
	return rows
}

func buildGroup(name string, members []task.Task, opts Options) []Row {
	header := Row{Kind: RowGroup, Group: name, Total: len(members)}
	for _, t := range members {
		if t.Done {
			header.DoneCount++
		}
	}
	if opts.Collapsed[name] {
		header.Collapsed = true
		return []Row{header}
	}

	rows := []Row{header}
	for _, t := range members {
		if opts.HideDone && t.Done {
			continue
		}
		rows = append(rows, Row{Kind: RowChild, Task: t, Group: name})
	}
	if len(rows) > 1 {
		rows[len(rows)-1].Last = true
	}
	return rows
}

// AllDone reports whether every task in the group is completed. Meaningful
// on RowGroup rows only.
func (r Row) AllDone() bool {
	return r.Total > 0 && r.DoneCount == r.Total
}

// Selectable reports whether the cursor can rest on this row. Expanded
// group headers are skipped during navigation; collapsed ones are selected
// so they can be expanded again.
func (r Row) Selectable() bool {
	switch r.Kind {
	case RowGroup:
		return r.Collapsed
	default:
		return true
	}
}
