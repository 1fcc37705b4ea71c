// Package merge reconciles concurrent edits to the shared task list.
//
// Each sync cycle compares three snapshots keyed by task id: base (the last
// state this session knows reached disk), local (the in-memory list with
// user edits since then) and remote (the file as just read, possibly
// written by another session). Changes are classified against base and
// folded together so that no session's edit is silently lost; residual
// divergence between racing sessions converges on their following ticks.
package merge

import "github.com/bborn/tydo/internal/task"

// Merge three-way merges the task list. The returned flag reports whether
// the file needs to be rewritten: the merged result differs from remote in
// membership or fields. Order-only differences do not request a write;
// every session keeps its own relative order, and two live sessions whose
// orders disagree would otherwise rewrite the file on every tick.
//
// Ordering: tasks retained from local keep local's relative order; tasks
// adopted from remote (creations by other sessions, and remote edits that
// resurrect a locally deleted task) are appended afterward in remote's
// relative order. This keeps the merging session's cursor stable.
func Merge(base, local, remote task.List) (task.List, bool) {
	baseByID := indexByID(base)
	localIDs := idSet(local)
	remoteByID := indexByID(remote)

	merged := make(task.List, 0, len(local)+len(remote))

	for _, l := range local {
		r, inRemote := remoteByID[l.ID]
		b, inBase := baseByID[l.ID]

		switch {
		case inRemote && inBase:
			merged = append(merged, resolve(b, l, r))
		case inRemote:
			// Created on both sides in the same instant: either an id
			// collision or this session's own write racing back. Treated
			// as one logical task.
			merged = append(merged, resolveNoBase(l, r))
		case inBase:
			// Another session deleted it. Honor the deletion unless this
			// session edited the task meanwhile.
			if !l.FieldsEqual(b) {
				merged = append(merged, l)
			}
		default:
			// Local creation not yet on disk.
			merged = append(merged, l)
		}
	}

	for _, r := range remote {
		if localIDs[r.ID] {
			continue
		}
		if b, inBase := baseByID[r.ID]; inBase {
			// This session deleted it. Honor the deletion unless another
			// session edited the task meanwhile.
			if !r.FieldsEqual(b) {
				merged = append(merged, r)
			}
			continue
		}
		// Remote creation by another session.
		merged = append(merged, r)
	}

	return merged, !setEqual(merged, remote)
}

// setEqual reports whether both lists hold the same ids with the same
// persisted fields, ignoring order.
func setEqual(a, b task.List) bool {
	if len(a) != len(b) {
		return false
	}
	byID := indexByID(b)
	for _, t := range a {
		other, ok := byID[t.ID]
		if !ok || !t.FieldsEqual(other) {
			return false
		}
	}
	return true
}

// resolve folds concurrent edits to a task present in all three snapshots.
// The persisted format carries no modification timestamp, so when both
// sides changed the same field the outcome is the deterministic default:
// the completion flag follows whichever side moved it off base, and text
// conflicts prefer local so the merging session never sees its own edit
// replaced mid-keystroke.
func resolve(b, l, r task.Task) task.Task {
	localChanged := !l.FieldsEqual(b)
	remoteChanged := !r.FieldsEqual(b)

	switch {
	case !localChanged:
		return r
	case !remoteChanged:
		return l
	}

	out := l
	// A bool that moved off base on both sides landed on the same value,
	// so following the changed side also covers the double-toggle case.
	if l.Done == b.Done {
		out.Done = r.Done
	}
	if l.Text == b.Text && r.Text != b.Text {
		out.Text = r.Text
	}
	if out.Extra == nil {
		out.Extra = r.Extra
	}
	return out
}

// resolveNoBase handles the id-collision case where no common ancestor
// exists: done true wins to avoid losing recorded progress, text prefers
// local for determinism.
func resolveNoBase(l, r task.Task) task.Task {
	if l.FieldsEqual(r) {
		if l.Extra == nil {
			l.Extra = r.Extra
		}
		return l
	}
	out := l
	out.Done = l.Done || r.Done
	if out.Extra == nil {
		out.Extra = r.Extra
	}
	return out
}

func indexByID(list task.List) map[string]task.Task {
	m := make(map[string]task.Task, len(list))
	for _, t := range list {
		m[t.ID] = t
	}
	return m
}

func idSet(list task.List) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, t := range list {
		m[t.ID] = true
	}
	return m
}
