package console

import (
	"github.com/charmbracelet/lipgloss"

	"filingdesk/internal/workflow"
)

// Styles holds the lipgloss styles used by the console.
type Styles struct {
	Title    lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Pending  lipgloss.Style
	Muted    lipgloss.Style
	Panel    lipgloss.Style
	Modal    lipgloss.Style
	Help     lipgloss.Style
	Info     lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Ready    lipgloss.Style
	NotReady lipgloss.Style
}

// DefaultStyles returns the default palette.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Value:    lipgloss.NewStyle().Bold(true),
		Pending:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Panel:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1),
		Modal:    lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("212")).Padding(1, 2),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Info:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		Ready:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		NotReady: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
}

func (s Styles) notice(level workflow.Level) lipgloss.Style {
	switch level {
	case workflow.LevelSuccess:
		return s.Success
	case workflow.LevelWarning:
		return s.Warning
	case workflow.LevelError:
		return s.Error
	default:
		return s.Info
	}
}
