package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/gokvo/internal/core"
	"github.com/valter-silva-au/gokvo/internal/observability"
)

// maxJournal bounds how many notifications the play view keeps.
const maxJournal = 200

// playJournal collects the notifications of a live object. The model holds
// it by pointer because the subscription outlives any one model value.
type playJournal struct {
	changes []core.Change
}

func (j *playJournal) add(c core.Change) {
	j.changes = append(j.changes, c)
	if len(j.changes) > maxJournal {
		j.changes = j.changes[len(j.changes)-maxJournal:]
	}
}

type playModel struct {
	live     *core.LiveObject
	recorder *observability.Recorder
	journal  *playJournal

	fields []core.LiveField
	cursor int

	editing bool
	input   textinput.Model

	width  int
	height int

	status string
	err    error
}

func newPlayModel(live *core.LiveObject, recorder *observability.Recorder) playModel {
	j := &playJournal{}
	live.Subscribe(j.add)
	return playModel{
		live:     live,
		recorder: recorder,
		journal:  j,
		fields:   live.Fields(),
	}
}

func (m playModel) Init() tea.Cmd {
	return nil
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.fields)-1 {
				m.cursor++
			}
		case "enter", "e":
			if len(m.fields) == 0 {
				return m, nil
			}
			f := m.fields[m.cursor]
			if f.ReadOnly {
				m.err = fmt.Errorf("%w: %s", core.ErrReadOnly, f.Path)
				return m, nil
			}
			m.editing = true
			m.input = newValueInput(f)
			m.err = nil
			m.status = ""
			return m, textinput.Blink
		}
	}

	return m, nil
}

// newValueInput returns a focused text input prefilled with the value of f.
func newValueInput(f core.LiveField) textinput.Model {
	ti := textinput.New()
	ti.Prompt = f.Path + " = "
	ti.CharLimit = 1024
	ti.SetValue(editText(f.Value))
	ti.CursorEnd()
	ti.Focus()
	return ti
}

func (m playModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.editing = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.editing = false
		m.input.Blur()
		m = m.commit(m.fields[m.cursor].Path, m.input.Value())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// commit applies raw to the property at path and refreshes the field list.
func (m playModel) commit(path, raw string) playModel {
	old, _ := m.live.Get(path)
	err := m.live.SetFromString(path, raw)
	current, _ := m.live.Get(path)
	_ = m.recorder.PropertyUpdated(path, old, current, err)

	m.fields = m.live.Fields()
	if err != nil {
		m.err = err
		m.status = ""
		return m
	}
	m.err = nil
	m.status = fmt.Sprintf("%s updated", path)
	return m
}

func (m playModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(fmt.Sprintf(" genkvo play: %s ", m.live.TypeName()))
	help := helpStyle.Render("up/down: move | enter: edit | esc: cancel | q: quit")

	fieldsPanel := m.renderFieldsPanel()
	journalPanel := m.renderJournalPanel()

	availableWidth := m.width - 2

	var body string
	if availableWidth > 100 {
		colWidth := availableWidth / 2
		fieldsPanel = m.applyPanelStyle(!m.editing, fieldsPanel, colWidth-4)
		journalPanel = m.applyPanelStyle(false, journalPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, fieldsPanel, journalPanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		fieldsPanel = m.applyPanelStyle(!m.editing, fieldsPanel, panelWidth)
		journalPanel = m.applyPanelStyle(false, journalPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, fieldsPanel, journalPanel)
	}

	var footer string
	switch {
	case m.editing:
		footer = "  " + m.input.View()
	case m.err != nil:
		footer = "  " + errorStyle.Render("Error: "+m.err.Error())
	case m.status != "":
		footer = "  " + m.status
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s\n%s", title, body, footer, help)
}

func (m playModel) applyPanelStyle(active bool, content string, width int) string {
	style := panelStyle
	if active {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m playModel) renderFieldsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Properties"))
	b.WriteString("\n\n")

	if len(m.fields) == 0 {
		b.WriteString("  No properties.")
		return b.String()
	}

	width := 0
	for _, f := range m.fields {
		width = max(width, len(f.Path))
	}
	for i, f := range m.fields {
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		value := styleForKind(f.Kind).Render(displayValue(f.Value))
		line := fmt.Sprintf("%s%-*s  %s", marker, width, f.Path, value)
		if f.ReadOnly {
			line += helpStyle.Render("  (read-only)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m playModel) renderJournalPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Notifications"))
	b.WriteString("\n\n")

	changes := m.journal.changes
	if len(changes) == 0 {
		b.WriteString("  No notifications yet.")
		return b.String()
	}

	// Newest first, limited to what fits.
	limit := len(changes)
	if m.height > 12 && limit > m.height-12 {
		limit = m.height - 12
	}
	for i := len(changes) - 1; i >= len(changes)-limit; i-- {
		c := changes[i]
		b.WriteString(fmt.Sprintf("  %s: %s -> %s\n", c.Path, displayValue(c.Old), displayValue(c.Current)))
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d", len(changes)))
	return b.String()
}

// displayValue renders a property value the way it would appear in Go.
func displayValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", v)
	case *core.LiveObject:
		return v.TypeName() + "{...}"
	default:
		return fmt.Sprint(v)
	}
}

// editText is the starting text when editing a value.
func editText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

var playFormat string

var playCmd = &cobra.Command{
	Use:   "play <schema-file>",
	Short: "Edit a live object built from a schema and watch its notifications",
	Long: `Build a live object from an object description and open an interactive
terminal view of its properties.

Select a property with the arrow keys and press enter to edit it. Every
update notifies subscribers with the previous value; the notifications
panel shows each change as old -> current. Nested and external objects are
read-only. Updates are recorded in the event log.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadGeneratorConfig()
		if err != nil {
			return err
		}
		format, err := resolveFormat(playFormat, cfg)
		if err != nil {
			return err
		}

		obj, err := readSchema(cmd.InOrStdin(), args[0], format)
		if err != nil {
			return err
		}
		live, err := core.NewLiveObject(obj)
		if err != nil {
			return fmt.Errorf("building live object: %w", err)
		}

		p := tea.NewProgram(newPlayModel(live, newRecorder(cfg)), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	playCmd.Flags().StringVar(&playFormat, "format", "", "Schema format: json or yaml (default: detect)")
	rootCmd.AddCommand(playCmd)
}
