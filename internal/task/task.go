// Package task provides the core task model and text parsing.
package task

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Priority represents task priority derived from the leading text marker.
type Priority int

const (
	PriorityNone   Priority = iota
	PriorityYellow          // "! "
	PriorityRed             // "!! "
)

// Marker returns the text marker for the priority, including the trailing
// space that separates it from the rest of the text.
func (p Priority) Marker() string {
	switch p {
	case PriorityYellow:
		return "! "
	case PriorityRed:
		return "!! "
	default:
		return ""
	}
}

// Task is one entry in the shared list. ID, Text and Done are persisted;
// everything else is derived from Text on demand.
type Task struct {
	ID   string
	Text string
	Done bool

	// Extra holds fields written by other versions of the tool. They are
	// carried through read-modify-write cycles untouched.
	Extra map[string]json.RawMessage
}

// New creates a task with a fresh id. The id is generated locally; uuid v4
// is collision-resistant enough that concurrent sessions creating tasks in
// the same instant do not collide in practice.
func New(text string) Task {
	return Task{ID: uuid.NewString(), Text: strings.TrimSpace(text)}
}

// splitMarker splits the raw text into its priority and the remainder
// following the marker. The marker must sit at the very start of the text.
func splitMarker(text string) (Priority, string) {
	switch {
	case strings.HasPrefix(text, "!!"):
		return PriorityRed, strings.TrimLeft(text[2:], " ")
	case strings.HasPrefix(text, "!"):
		return PriorityYellow, strings.TrimLeft(text[1:], " ")
	default:
		return PriorityNone, text
	}
}

// splitGroup splits the marker-stripped remainder into a group name and the
// display remainder. A group is the substring before the first colon when
// that substring is non-empty after trimming; malformed input degrades to
// no group.
func splitGroup(rest string) (string, string) {
	idx := strings.Index(rest, ":")
	if idx < 0 {
		return "", rest
	}
	group := strings.TrimSpace(rest[:idx])
	if group == "" {
		return "", rest
	}
	return group, strings.TrimSpace(rest[idx+1:])
}

// Priority returns the priority encoded in the text marker.
func (t Task) Priority() Priority {
	p, _ := splitMarker(t.Text)
	return p
}

// Group returns the task's group name, or "" for ungrouped tasks.
func (t Task) Group() string {
	_, rest := splitMarker(t.Text)
	group, _ := splitGroup(rest)
	return group
}

// DisplayText returns the text with the priority marker and group prefix
// stripped.
func (t Task) DisplayText() string {
	_, rest := splitMarker(t.Text)
	_, display := splitGroup(rest)
	return strings.TrimSpace(display)
}

// SetPriority rewrites the text marker, preserving the group prefix and
// remainder. PriorityNone clears the marker. ID and Done are never touched.
func (t *Task) SetPriority(p Priority) {
	_, rest := splitMarker(t.Text)
	t.Text = p.Marker() + rest
}

// TogglePriority sets the priority, or clears it when the task already has
// that priority.
func (t *Task) TogglePriority(p Priority) {
	if t.Priority() == p {
		t.SetPriority(PriorityNone)
		return
	}
	t.SetPriority(p)
}

// SetDisplayText replaces the display remainder while preserving the
// priority marker and group prefix.
func (t *Task) SetDisplayText(display string) {
	p, rest := splitMarker(t.Text)
	group, _ := splitGroup(rest)
	prefix := p.Marker()
	if group != "" {
		prefix += group + ": "
	}
	t.Text = prefix + strings.TrimSpace(display)
}

// FieldsEqual reports whether the mutable persisted fields (text, done)
// match. The id and unknown extra fields are not compared.
func (t Task) FieldsEqual(other Task) bool {
	return t.Text == other.Text && t.Done == other.Done
}

// clone returns a copy with its own Extra map.
func (t Task) clone() Task {
	out := t
	if t.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(t.Extra))
		for k, v := range t.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// List is an ordered task collection. Order is meaningful and preserved
// across merges.
type List []Task

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	for i, t := range l {
		out[i] = t.clone()
	}
	return out
}

// Index returns the position of the task with the given id, or -1.
func (l List) Index(id string) int {
	for i, t := range l {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the task with the given id.
func (l List) Find(id string) (Task, bool) {
	if i := l.Index(id); i >= 0 {
		return l[i], true
	}
	return Task{}, false
}

// Remove returns the list without the task with the given id.
func (l List) Remove(id string) List {
	i := l.Index(id)
	if i < 0 {
		return l
	}
	return append(l[:i:i], l[i+1:]...)
}

// Equal reports whether both lists hold the same tasks, with the same
// persisted fields, in the same order.
func (l List) Equal(other List) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i].ID != other[i].ID || !l[i].FieldsEqual(other[i]) {
			return false
		}
	}
	return true
}

// Groups returns the group names in order of first appearance.
func (l List) Groups() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range l {
		g := t.Group()
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}
