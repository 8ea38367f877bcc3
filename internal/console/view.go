package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"filingdesk/internal/stats"
	"filingdesk/internal/workflow"
)

const maxListedFolders = 12

// View implements tea.Model.
func (a App) View() string {
	main := lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		"",
		a.renderLocation(),
		a.renderStats(),
		a.renderNotice(),
		a.renderHelp(),
	)
	if !a.modalOpen() {
		return main
	}
	modal := a.renderReview()
	if a.width <= 0 || a.height <= 0 {
		return lipgloss.JoinVertical(lipgloss.Left, main, modal)
	}
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, modal)
}

func (a App) modalOpen() bool {
	return a.hasReview && (a.state == workflow.StateReviewing || a.state == workflow.StateCommitting)
}

func (a App) renderHeader() string {
	camera := a.styles.Muted.Render("camera ?")
	if a.camera != nil {
		if a.camera.Available() {
			camera = a.styles.Ready.Render("● camera ready")
		} else {
			camera = a.styles.NotReady.Render("○ camera unavailable")
		}
	}
	return fmt.Sprintf("%s  %s  %s",
		a.styles.Title.Render("filingdesk"),
		camera,
		a.styles.Label.Render(stateLabel(a.state)),
	)
}

func (a App) renderLocation() string {
	room, drawer := a.picker.Room(), a.picker.Drawer()
	if room == "" {
		room = "-"
	}
	if drawer == "" {
		drawer = "-"
	}
	line := fmt.Sprintf("%s %s  %s %s",
		a.styles.Label.Render("Room"),
		a.styles.Value.Render("‹ "+room+" ›"),
		a.styles.Label.Render("Drawer"),
		a.styles.Value.Render("‹ "+drawer+" ›"),
	)
	switch {
	case a.applying:
		line += "  " + a.styles.Muted.Render("applying…")
	case a.picker.differs(a.selection) && !a.selection.IsZero():
		line += "  " + a.styles.Pending.Render("not applied (enter); filing into "+a.selection.String())
	}
	return line
}

func (a App) renderStats() string {
	if !a.haveSummary {
		text := "Loading locations…"
		if !a.loading {
			text = "Locations not loaded (ctrl+l to reload)"
		}
		return a.styles.Panel.Render(a.styles.Muted.Render(text))
	}
	return a.styles.Panel.Render(renderSummary(a.summary, a.styles))
}

func renderSummary(summary stats.Summary, styles Styles) string {
	lines := []string{
		fmt.Sprintf("%s %s", styles.Label.Render("Filled"), styles.Value.Render(summary.Aggregate())),
		fmt.Sprintf("%s %s", styles.Label.Render(summary.Selection.Room+" / "+summary.Selection.Drawer),
			styles.Value.Render(summary.Detail())),
	}
	entries := summary.Entries()
	if len(entries) > maxListedFolders {
		hidden := len(entries) - maxListedFolders
		entries = append(entries[:maxListedFolders:maxListedFolders], fmt.Sprintf("… %d more", hidden))
	}
	for _, entry := range entries {
		if entry == stats.EmptyPlaceholder {
			lines = append(lines, "  "+styles.Muted.Render(entry))
			continue
		}
		lines = append(lines, "  "+entry)
	}
	return strings.Join(lines, "\n")
}

func (a App) renderNotice() string {
	if a.notice.message != "" {
		return a.styles.notice(a.notice.level).Render(a.notice.message)
	}
	if len(a.warnings) > 0 {
		return a.styles.Warning.Render(strings.Join(a.warnings, "\n"))
	}
	return ""
}

func (a App) renderHelp() string {
	var bindings []string
	switch a.state {
	case workflow.StateIdle:
		bindings = []string{
			helpEntry(a.keys.Capture),
			helpEntry(a.keys.NextRoom),
			helpEntry(a.keys.NextDraw),
			helpEntry(a.keys.Apply),
			helpEntry(a.keys.Reload),
			helpEntry(a.keys.Quit),
		}
	default:
		bindings = []string{helpEntry(a.keys.Cancel)}
	}
	return a.styles.Help.Render(strings.Join(bindings, " · "))
}

func (a App) renderReview() string {
	title := a.styles.Title.Render("Confirm folder name")
	lines := []string{title, ""}

	proposed := a.review.Proposed
	if proposed == "" {
		proposed = "(nothing detected)"
	}
	lines = append(lines, fmt.Sprintf("%s %s", a.styles.Label.Render("Detected"), proposed))
	if a.selection.Room != "" {
		lines = append(lines, fmt.Sprintf("%s %s", a.styles.Label.Render("Filing into"), a.selection.String()))
	}
	if frame := a.review.Frame; !frame.Empty() {
		lines = append(lines, a.styles.Muted.Render(fmt.Sprintf("Frame %dx%d, %.1f KB, %s",
			frame.Width, frame.Height, float64(len(frame.Data))/1024, frame.CapturedAt.Format("15:04:05"))))
	}
	lines = append(lines, "", a.input.View(), "")

	if a.state == workflow.StateCommitting {
		lines = append(lines, a.styles.Muted.Render("Filing…  "+helpEntry(a.keys.Cancel)))
	} else {
		if a.notice.message != "" && a.notice.level >= workflow.LevelWarning {
			lines = append(lines, a.styles.notice(a.notice.level).Render(a.notice.message))
		}
		lines = append(lines, a.styles.Help.Render(strings.Join([]string{
			helpEntry(a.keys.Confirm),
			helpEntry(a.keys.Cancel),
			helpEntry(a.keys.Retry),
		}, " · ")))
	}
	return a.styles.Modal.Render(strings.Join(lines, "\n"))
}

func helpEntry(b key.Binding) string {
	h := b.Help()
	return h.Key + " " + h.Desc
}

func stateLabel(state workflow.State) string {
	switch state {
	case workflow.StateCapturing:
		return "capturing…"
	case workflow.StateAwaitingClassification:
		return "classifying…"
	case workflow.StateReviewing:
		return "reviewing"
	case workflow.StateCommitting:
		return "filing…"
	default:
		return "ready"
	}
}
