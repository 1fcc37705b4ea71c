package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	tysync "github.com/bborn/tydo/internal/sync"
	"github.com/bborn/tydo/internal/task"
	"github.com/bborn/tydo/internal/tree"
	"github.com/bborn/tydo/internal/viewstate"
)

// sessionView identifies the active screen.
type sessionView int

const (
	viewList sessionView = iota
	viewHelp
	viewConfirmDelete
)

// KeyMap defines key bindings for the list view.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Collapse key.Binding
	Expand   key.Binding
	Toggle   key.Binding
	Edit     key.Binding
	Delete   key.Binding
	HideDone key.Binding
	FoldAll  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Up, k.Toggle, k.HideDone, k.Collapse}
}

// FullHelp implements help.KeyMap. The dedicated help screen covers the
// rest.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑/↓", "navigate")),
		Down:     key.NewBinding(key.WithKeys("down")),
		Collapse: key.NewBinding(key.WithKeys("left"), key.WithHelp("←/→", "collapse")),
		Expand:   key.NewBinding(key.WithKeys("right")),
		Toggle:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "toggle")),
		Edit:     key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "edit")),
		Delete:   key.NewBinding(key.WithKeys("backspace", "delete"), key.WithHelp("del", "delete")),
		HideDone: key.NewBinding(key.WithKeys("ctrl+h"), key.WithHelp("ctrl+h", "hide done")),
		FoldAll:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "fold all")),
		Help:     key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// Model is the interactive session controller. It owns local-only view
// state (collapse flags, cursor, input mode) and applies user intents to
// the shared collection through the syncer.
type Model struct {
	syncer   *tysync.Syncer
	state    *viewstate.DB // nil when the state db could not be opened
	listPath string

	tasks task.List
	rows  []tree.Row

	cursor        int // index into rows; -1 when nothing is selectable
	selectedID    string
	selectedGroup string
	offset        int // first visible row

	collapsed map[string]bool
	hideDone  bool

	input     textinput.Model
	typing    bool
	editingID string

	confirm      *huh.Form
	confirmValue bool
	confirmID    string

	currentView sessionView
	helpView    string

	keys     KeyMap
	help     help.Model
	mergedCh <-chan task.List

	width, height int
}

// New creates the session model. mergedCh receives reconciled collections
// from the syncer after each tick that changed the view.
func New(syncer *tysync.Syncer, state *viewstate.DB, listPath string, mergedCh <-chan task.List) *Model {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "type to add a task"

	m := &Model{
		syncer:    syncer,
		state:     state,
		listPath:  listPath,
		collapsed: make(map[string]bool),
		input:     input,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		mergedCh:  mergedCh,
		cursor:    -1,
	}

	// View state is a convenience; any failure leaves the defaults.
	if state != nil {
		if collapsed, err := state.Collapsed(listPath); err == nil {
			m.collapsed = collapsed
		}
		if hide, err := state.HideDone(listPath); err == nil {
			m.hideDone = hide
		}
	}

	m.tasks = syncer.Tasks()
	m.rebuild()
	m.selectFirst()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForMerge())
}

type mergedMsg struct {
	tasks task.List
}

func (m *Model) waitForMerge() tea.Cmd {
	return func() tea.Msg {
		tasks, ok := <-m.mergedCh
		if !ok {
			return nil
		}
		return mergedMsg{tasks: tasks}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = msg.Width - len(m.inputPrompt()) - 2
		m.helpView = "" // re-render for the new width
		return m, nil

	case mergedMsg:
		m.tasks = msg.tasks
		m.rebuild()
		m.restoreSelection()
		return m, m.waitForMerge()
	}

	switch m.currentView {
	case viewHelp:
		if _, ok := msg.(tea.KeyMsg); ok {
			m.currentView = viewList
		}
		return m, nil
	case viewConfirmDelete:
		return m.updateConfirmDelete(msg)
	default:
		return m.updateList(msg)
	}
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.typing {
		return m.updateTyping(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.persistViewState()
		m.syncer.Stop()
		return m, tea.Quit

	case key.Matches(keyMsg, m.keys.Help):
		m.currentView = viewHelp
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		m.move(-1)
		return m, nil

	case key.Matches(keyMsg, m.keys.Down):
		m.move(1)
		return m, nil

	case key.Matches(keyMsg, m.keys.Collapse):
		m.collapseCurrent()
		return m, nil

	case key.Matches(keyMsg, m.keys.Expand):
		m.expandCurrent()
		return m, nil

	case key.Matches(keyMsg, m.keys.FoldAll):
		m.toggleFoldAll()
		return m, nil

	case key.Matches(keyMsg, m.keys.HideDone):
		m.toggleHideDone()
		return m, nil

	case key.Matches(keyMsg, m.keys.Toggle):
		if m.selectedID != "" {
			m.syncer.ApplyToggleDone(m.selectedID)
			m.refresh()
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Edit):
		m.startEdit()
		return m, nil

	case key.Matches(keyMsg, m.keys.Delete):
		return m.startConfirmDelete()
	}

	switch keyMsg.String() {
	case "1":
		m.setPriority(task.PriorityYellow)
		return m, nil
	case "2":
		m.setPriority(task.PriorityRed)
		return m, nil
	case "0":
		m.setPriority(task.PriorityNone)
		return m, nil
	}

	// Any other printable input starts a new task.
	if keyMsg.Type == tea.KeyRunes || keyMsg.Type == tea.KeySpace {
		m.typing = true
		m.editingID = ""
		m.input.Focus()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateTyping(keyMsg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMsg.String() {
	case "enter":
		m.commitInput()
		return m, nil
	case "esc":
		m.cancelInput()
		return m, nil
	case "up", "down":
		// Navigation exits input mode, matching the classic behavior.
		m.cancelInput()
		return m.updateList(keyMsg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(keyMsg)
	return m, cmd
}

func (m *Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		m.confirm = nil
		m.currentView = viewList
		return m, nil
	}

	form, cmd := m.confirm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.confirm = f
	}

	if m.confirm.State == huh.StateCompleted {
		if m.confirmValue {
			m.syncer.ApplyDelete(m.confirmID)
			m.refresh()
		}
		m.confirm = nil
		m.confirmID = ""
		m.currentView = viewList
	}
	return m, cmd
}

func (m *Model) startConfirmDelete() (tea.Model, tea.Cmd) {
	if m.selectedID == "" {
		return m, nil
	}
	target, ok := m.tasks.Find(m.selectedID)
	if !ok {
		return m, nil
	}

	m.confirmID = target.ID
	m.confirmValue = false
	m.confirm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("delete").
				Title("Delete task?").
				Description(target.DisplayText()).
				Affirmative("Delete").
				Negative("Keep").
				Value(&m.confirmValue),
		),
	).WithWidth(m.width - 4).WithShowHelp(true)
	m.currentView = viewConfirmDelete
	return m, m.confirm.Init()
}

func (m *Model) commitInput() {
	text := m.input.Value()
	defer m.cancelInput()

	if m.editingID != "" {
		m.syncer.ApplyEdit(m.editingID, text)
		m.refresh()
		m.selectedID = m.editingID
		m.restoreSelection()
		return
	}
	created, ok := m.syncer.ApplyCreate(text)
	if !ok {
		return
	}
	m.refresh()
	m.selectedID = created.ID
	m.restoreSelection()
}

func (m *Model) cancelInput() {
	m.typing = false
	m.editingID = ""
	m.input.Reset()
	m.input.Blur()
}

func (m *Model) startEdit() {
	if m.selectedID == "" {
		return
	}
	target, ok := m.tasks.Find(m.selectedID)
	if !ok {
		return
	}
	m.typing = true
	m.editingID = target.ID
	m.input.SetValue(target.DisplayText())
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) setPriority(p task.Priority) {
	if m.selectedID == "" {
		return
	}
	m.syncer.ApplySetPriority(m.selectedID, p)
	m.refresh()
}

// refresh pulls the syncer's current view after a local mutation so the
// render does not wait for the next merge tick.
func (m *Model) refresh() {
	m.tasks = m.syncer.Tasks()
	m.rebuild()
	m.restoreSelection()
}

func (m *Model) rebuild() {
	m.rows = tree.Build(m.tasks, tree.Options{
		HideDone:  m.hideDone,
		Collapsed: m.collapsed,
	})
}

// restoreSelection re-locates the cursor after the rows changed, preferring
// the previously selected task or group, then the nearest selectable row.
func (m *Model) restoreSelection() {
	if m.selectedID != "" {
		for i, row := range m.rows {
			if row.Kind != tree.RowGroup && row.Task.ID == m.selectedID {
				m.cursor = i
				m.selectedGroup = ""
				m.scrollIntoView()
				return
			}
		}
	}
	if m.selectedGroup != "" {
		for i, row := range m.rows {
			if row.Kind == tree.RowGroup && row.Selectable() && row.Group == m.selectedGroup {
				m.cursor = i
				m.selectedID = ""
				m.scrollIntoView()
				return
			}
		}
	}

	// Previous selection vanished; clamp to the nearest selectable row.
	for delta := 0; delta < len(m.rows); delta++ {
		for _, i := range []int{m.cursor - delta, m.cursor + delta} {
			if i >= 0 && i < len(m.rows) && m.rows[i].Selectable() {
				m.setCursor(i)
				return
			}
		}
	}
	m.cursor = -1
	m.selectedID = ""
	m.selectedGroup = ""
}

func (m *Model) selectFirst() {
	for i, row := range m.rows {
		if row.Selectable() {
			m.setCursor(i)
			return
		}
	}
	m.cursor = -1
}

func (m *Model) setCursor(i int) {
	m.cursor = i
	row := m.rows[i]
	if row.Kind == tree.RowGroup {
		m.selectedGroup = row.Group
		m.selectedID = ""
	} else {
		m.selectedID = row.Task.ID
		m.selectedGroup = ""
	}
	m.scrollIntoView()
}

func (m *Model) move(delta int) {
	if len(m.rows) == 0 {
		return
	}
	i := m.cursor
	for {
		i += delta
		if i < 0 || i >= len(m.rows) {
			return
		}
		if m.rows[i].Selectable() {
			m.setCursor(i)
			return
		}
	}
}

func (m *Model) collapseCurrent() {
	group := m.selectedGroup
	if group == "" && m.selectedID != "" {
		if t, ok := m.tasks.Find(m.selectedID); ok {
			group = t.Group()
		}
	}
	if group == "" {
		return
	}
	m.collapsed[group] = true
	m.saveCollapsed(group, true)
	m.rebuild()
	m.selectedID = ""
	m.selectedGroup = group
	m.restoreSelection()
}

func (m *Model) expandCurrent() {
	group := m.selectedGroup
	if group == "" && m.selectedID != "" {
		if t, ok := m.tasks.Find(m.selectedID); ok {
			group = t.Group()
		}
	}
	if group == "" || !m.collapsed[group] {
		return
	}
	delete(m.collapsed, group)
	m.saveCollapsed(group, false)
	m.rebuild()

	// Select the first task of the expanded group.
	for i, row := range m.rows {
		if row.Kind == tree.RowChild && row.Group == group {
			m.setCursor(i)
			return
		}
	}
	m.restoreSelection()
}

func (m *Model) toggleFoldAll() {
	if len(m.collapsed) > 0 {
		m.collapsed = make(map[string]bool)
	} else {
		for _, g := range m.tasks.Groups() {
			m.collapsed[g] = true
		}
	}
	if m.state != nil {
		_ = m.state.ReplaceCollapsed(m.listPath, m.collapsed)
	}
	m.rebuild()
	m.restoreSelection()
}

func (m *Model) toggleHideDone() {
	m.hideDone = !m.hideDone
	if m.state != nil {
		_ = m.state.SetHideDone(m.listPath, m.hideDone)
	}
	m.rebuild()
	m.restoreSelection()
}

func (m *Model) saveCollapsed(group string, collapsed bool) {
	if m.state != nil {
		_ = m.state.SetCollapsed(m.listPath, group, collapsed)
	}
}

func (m *Model) persistViewState() {
	if m.state == nil {
		return
	}
	_ = m.state.ReplaceCollapsed(m.listPath, m.collapsed)
	_ = m.state.SetHideDone(m.listPath, m.hideDone)
}

func (m *Model) inputPrompt() string {
	if m.editingID != "" {
		return "Edit task: "
	}
	return "New task: "
}
