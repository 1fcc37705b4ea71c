// Package ui provides the terminal user interface.
package ui

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/bborn/tydo/internal/task"
)

// unicodeSupported caches whether the terminal supports Unicode.
var (
	unicodeSupported     bool
	unicodeSupportedOnce sync.Once
)

// SupportsUnicode returns true if the terminal likely supports Unicode
// characters. It checks LANG, LC_ALL, and LC_CTYPE for UTF-8 indicators.
func SupportsUnicode() bool {
	unicodeSupportedOnce.Do(func() {
		for _, envVar := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
			val := strings.ToLower(os.Getenv(envVar))
			if strings.Contains(val, "utf-8") || strings.Contains(val, "utf8") {
				unicodeSupported = true
				return
			}
		}
		unicodeSupported = false
	})
	return unicodeSupported
}

// Icon constants - Unicode and ASCII versions
const (
	IconPendingUnicode   = "☐"
	IconDoneUnicode      = "☒"
	IconBranchUnicode    = "├"
	IconBranchEndUnicode = "└"
	IconCollapsedUnicode = "▶"

	IconPendingASCII   = "[ ]"
	IconDoneASCII      = "[x]"
	IconBranchASCII    = "|-"
	IconBranchEndASCII = "`-"
	IconCollapsedASCII = ">"
)

// IconPending returns the unchecked checkbox glyph.
func IconPending() string {
	if SupportsUnicode() {
		return IconPendingUnicode
	}
	return IconPendingASCII
}

// IconDone returns the checked checkbox glyph.
func IconDone() string {
	if SupportsUnicode() {
		return IconDoneUnicode
	}
	return IconDoneASCII
}

// IconBranch returns the tree glyph for a non-final group child.
func IconBranch() string {
	if SupportsUnicode() {
		return IconBranchUnicode
	}
	return IconBranchASCII
}

// IconBranchEnd returns the tree glyph for the final group child.
func IconBranchEnd() string {
	if SupportsUnicode() {
		return IconBranchEndUnicode
	}
	return IconBranchEndASCII
}

// IconCollapsed returns the collapsed-group indicator.
func IconCollapsed() string {
	if SupportsUnicode() {
		return IconCollapsedUnicode
	}
	return IconCollapsedASCII
}

// Color palette. Priority colors mirror the classic bright-yellow /
// bright-red / gray terminal pairs.
var (
	ColorYellow = lipgloss.Color("11")
	ColorRed    = lipgloss.Color("9")
	ColorGray   = lipgloss.Color("8")
	ColorAccent = lipgloss.Color("#7C3AED")
)

// Shared styles
var (
	Bold     = lipgloss.NewStyle().Bold(true)
	Dim      = lipgloss.NewStyle().Foreground(ColorGray)
	Yellow   = lipgloss.NewStyle().Foreground(ColorYellow)
	Red      = lipgloss.NewStyle().Foreground(ColorRed)
	Selected = lipgloss.NewStyle().Reverse(true)
	HelpKey  = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	HelpDesc = lipgloss.NewStyle().Foreground(ColorGray)
)

// taskStyle picks the render style for a task line.
func taskStyle(t task.Task, selected bool) lipgloss.Style {
	style := lipgloss.NewStyle()
	switch {
	case t.Done:
		style = Dim
	case t.Priority() == task.PriorityRed:
		style = Red
	case t.Priority() == task.PriorityYellow:
		style = Yellow
	}
	if selected {
		style = style.Reverse(true)
	}
	return style
}
