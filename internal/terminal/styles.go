package terminal

import (
	"github.com/caiinstall/caictl/internal/models"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#059669")
	colorWarning = lipgloss.Color("#D97706")
	colorError   = lipgloss.Color("#DC2626")
	colorInfo    = lipgloss.Color("#2DD4BF")
	colorMuted   = lipgloss.Color("#9CA3AF")
	colorAccent  = lipgloss.Color("#A78BFA")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorInfo)
	disabledStyle = lipgloss.NewStyle().Faint(true)
)

var severityIcons = map[models.Severity]string{
	models.SeveritySuccess: "✓",
	models.SeverityError:   "✗",
	models.SeverityWarning: "⚠",
	models.SeverityInfo:    "ℹ",
}

func severityStyle(s models.Severity) lipgloss.Style {
	switch s {
	case models.SeveritySuccess:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case models.SeverityError:
		return lipgloss.NewStyle().Bold(true).Foreground(colorError)
	case models.SeverityWarning:
		return lipgloss.NewStyle().Foreground(colorWarning)
	default:
		return lipgloss.NewStyle().Foreground(colorInfo)
	}
}

// eventSeverity maps the type of a progress event to a severity
func eventSeverity(eventType string) models.Severity {
	switch eventType {
	case "success":
		return models.SeveritySuccess
	case "error":
		return models.SeverityError
	case "warning", "warn":
		return models.SeverityWarning
	default:
		return models.SeverityInfo
	}
}

// formatLine renders one status line with the icon of its severity
func formatLine(s models.Severity, message string) string {
	icon, ok := severityIcons[s]
	if !ok {
		icon = severityIcons[models.SeverityInfo]
	}
	return severityStyle(s).Render(icon + " " + message)
}
