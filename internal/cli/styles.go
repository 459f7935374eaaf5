package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/gokvo/pkg/models"
)

// Style definitions shared by inspect and play.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	kindBool     = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	kindNumber   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	kindString   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	kindObject   = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	kindExternal = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func styleForKind(kind models.PropertyKind) lipgloss.Style {
	switch kind {
	case models.KindBool:
		return kindBool
	case models.KindInt, models.KindFloat:
		return kindNumber
	case models.KindString:
		return kindString
	case models.KindObject:
		return kindObject
	case models.KindExternal:
		return kindExternal
	default:
		return lipgloss.NewStyle()
	}
}
