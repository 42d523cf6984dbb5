package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultListHeight = 15

var (
	colorPrimary  = lipgloss.Color("#0176d3") // Salesforce blue
	colorDisabled = lipgloss.AdaptiveColor{Light: "250", Dark: "238"}

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	cursorStyle   = lipgloss.NewStyle().Foreground(colorPrimary)
	selectedStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(colorDisabled)
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "space", "tab"),
		key.WithHelp("space", "toggle"),
	),
	Confirm: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c", "ctrl+d"),
		key.WithHelp("esc", "cancel"),
	),
}

// TUI is a full-screen checkbox picker with type-to-filter.
type TUI struct {
	// Input and Output default to the process terminal when nil.
	Input  io.Reader
	Output io.Writer
}

// Pick runs the picker until the user confirms or cancels. The result keeps
// the order in which items were checked.
func (t *TUI) Pick(ctx context.Context, candidates []string, placeholder string) ([]string, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if t.Input != nil {
		opts = append(opts, tea.WithInput(t.Input))
	}
	if t.Output != nil {
		opts = append(opts, tea.WithOutput(t.Output))
	}

	p := tea.NewProgram(newMultiSelect(candidates, placeholder), opts...)
	final, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("picker: %w", err)
	}

	m, ok := final.(multiSelect)
	if !ok {
		return nil, fmt.Errorf("picker: unexpected model type %T", final)
	}
	return m.result()
}

// multiSelect is the bubbletea model behind TUI.
type multiSelect struct {
	placeholder string
	items       []string
	filter      textinput.Model

	visible []int // indexes into items matching the filter
	cursor  int   // position within visible
	offset  int   // first visible row rendered
	height  int

	chosen []int // indexes into items, in toggle order

	confirmed bool
	cancelled bool
}

func newMultiSelect(items []string, placeholder string) multiSelect {
	ti := textinput.New()
	ti.Prompt = "filter: "
	ti.Placeholder = "type to filter"
	ti.Focus()

	m := multiSelect{
		placeholder: placeholder,
		items:       items,
		filter:      ti,
		height:      defaultListHeight,
	}
	m.applyFilter()
	return m
}

func (m multiSelect) Init() tea.Cmd {
	return textinput.Blink
}

func (m multiSelect) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// header, filter, blank, footer and status lines
		m.height = max(1, msg.Height-6)
		m.scroll()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Cancel):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, keys.Confirm):
			m.confirmed = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			m.scroll()
			return m, nil
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
			m.scroll()
			return m, nil
		case key.Matches(msg, keys.Toggle):
			m.toggle()
			return m, nil
		}
	}

	prev := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != prev {
		m.applyFilter()
	}
	return m, cmd
}

func (m multiSelect) View() string {
	if m.confirmed || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.placeholder))
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(helpStyle.Render("  no matching objects"))
		b.WriteString("\n")
	}

	end := min(len(m.visible), m.offset+m.height)
	for row := m.offset; row < end; row++ {
		idx := m.visible[row]
		pointer := "  "
		if row == m.cursor {
			pointer = cursorStyle.Render("> ")
		}
		box := "[ ]"
		name := m.items[idx]
		if slices.Contains(m.chosen, idx) {
			box = "[x]"
			name = selectedStyle.Render(name)
		}
		fmt.Fprintf(&b, "%s%s %s\n", pointer, box, name)
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("%d selected • %d/%d shown • ↑/↓ move • space toggle • enter confirm • esc cancel",
		len(m.chosen), len(m.visible), len(m.items))))
	b.WriteString("\n")
	return b.String()
}

func (m *multiSelect) applyFilter() {
	f := strings.TrimSpace(m.filter.Value())
	visible := make([]int, 0, len(m.items))
	for i, item := range m.items {
		if matchFilter(item, f) {
			visible = append(visible, i)
		}
	}
	m.visible = visible
	m.cursor = 0
	m.offset = 0
}

func (m *multiSelect) toggle() {
	if len(m.visible) == 0 {
		return
	}
	idx := m.visible[m.cursor]
	if pos := slices.Index(m.chosen, idx); pos >= 0 {
		m.chosen = slices.Delete(slices.Clone(m.chosen), pos, pos+1)
		return
	}
	m.chosen = append(slices.Clone(m.chosen), idx)
}

// scroll keeps the cursor inside the rendered window.
func (m *multiSelect) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m multiSelect) result() ([]string, error) {
	if m.cancelled || !m.confirmed {
		return nil, ErrCancelled
	}
	names := make([]string, 0, len(m.chosen))
	for _, idx := range m.chosen {
		names = append(names, m.items[idx])
	}
	return names, nil
}
