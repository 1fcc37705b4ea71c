package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// helpMarkdown is the full-screen help content, rendered with glamour.
const helpMarkdown = `# tydo help

## Navigation

| Key | Action |
|-----|--------|
| up/down | Move through tasks and collapsed group headers |
| left | Collapse the current group |
| right | Expand the selected group header |
| tab | Collapse / expand all groups |
| ctrl+h | Hide / show completed tasks |

## Tasks

| Key | Action |
|-----|--------|
| enter | Toggle completion (task selected) |
| enter | Save the new or edited task (while typing) |
| f2 | Edit the selected task |
| backspace / delete | Delete the selected task |

## Priorities

| Key | Action |
|-----|--------|
| 1 | Toggle yellow priority (` + "`!`" + `) |
| 2 | Toggle red priority (` + "`!!`" + `) |
| 0 | Clear priority |

## Groups

Start a task with ` + "`Group: rest of the task`" + ` to file it under a
group. Any number of sessions can edit the same list at once; changes from
other terminals appear within half a second.

## Other

| Key | Action |
|-----|--------|
| f1 | Toggle this help screen |
| esc | Cancel input, or quit |

*Press any key to close.*
`

// renderHelp renders the help markdown for the given width. Rendering can
// fail on exotic terminals; the raw markdown is a usable fallback.
func renderHelp(width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(width, 100)),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := renderer.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n")
}
