package locations

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ri-erusk/texas-dps-scheduler/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	checkedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

// ErrSelectionAborted is returned when the operator quits the picker
// without confirming a selection.
var ErrSelectionAborted = errors.New("location selection aborted")

type pickerModel struct {
	locations []models.Location
	cursor    int
	selected  map[int]bool
	confirmed bool
	aborted   bool
}

func newPickerModel(locations []models.Location) pickerModel {
	return pickerModel{
		locations: locations,
		selected:  make(map[int]bool),
	}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.aborted = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.locations)-1 {
			m.cursor++
		}
	case " ":
		m.selected[m.cursor] = !m.selected[m.cursor]
	case "enter":
		m.confirmed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Select the offices to scan"))
	b.WriteString("\n\n")
	for i, loc := range m.locations {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		mark := "[ ]"
		if m.selected[i] {
			mark = checkedStyle.Render("[x]")
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, mark, loc)
	}
	b.WriteString(helpStyle.Render("\nspace toggle · enter confirm · q abort"))
	return b.String()
}

func (m pickerModel) chosen() []models.Location {
	var out []models.Location
	for i, loc := range m.locations {
		if m.selected[i] {
			out = append(out, loc)
		}
	}
	return out
}

// Pick runs the interactive multi-select over locations and returns the
// chosen subset in its original order.
func Pick(locations []models.Location) ([]models.Location, error) {
	if len(locations) == 0 {
		return nil, errors.New("no locations to pick from")
	}

	final, err := tea.NewProgram(newPickerModel(locations)).Run()
	if err != nil {
		return nil, fmt.Errorf("run location picker: %w", err)
	}
	m, ok := final.(pickerModel)
	if !ok || m.aborted || !m.confirmed {
		return nil, ErrSelectionAborted
	}
	chosen := m.chosen()
	if len(chosen) == 0 {
		return nil, errors.New("no locations selected")
	}
	return chosen, nil
}
