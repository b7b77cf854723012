package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/five82/bojq/internal/dispatch"
	"github.com/five82/bojq/internal/logtail"
	"github.com/five82/bojq/internal/queue"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	switch m.view {
	case ViewCode:
		b.WriteString(m.renderCodeView())
	case ViewLogs:
		b.WriteString(m.renderLogsView())
	default:
		b.WriteString(m.renderQueue())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	counts := m.snapshot.Queue.Counts()

	parts := []string{styles.Logo.Render("bojq")}
	for _, status := range queue.AllStatuses {
		parts = append(parts, fmt.Sprintf("%s %d", styles.StatusStyle(status).Render(status.Label()), counts[status]))
	}
	if next, ok := m.snapshot.Queue.FirstWaiting(); ok {
		parts = append(parts, styles.AccentText.Render("next "+next.ID))
	}
	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, styles.DangerText.Render("OFFLINE"))
	case m.snapshot.Refreshing:
		parts = append(parts, styles.InfoText.Render("refreshing…"))
	}
	if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, styles.MutedText.Render("updated "+humanize.Time(m.snapshot.LastUpdated)))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderQueue() string {
	styles := m.theme.Styles()
	height := m.codeViewport.Height
	if len(m.snapshot.Queue) == 0 {
		msg := "Queue is empty. Press a to add a problem id."
		return lipgloss.NewStyle().Height(height).Render(styles.MutedText.Render(msg))
	}

	start := 0
	if m.selected >= height {
		start = m.selected - height + 1
	}
	end := min(start+height, len(m.snapshot.Queue))

	lines := make([]string, 0, end-start+1)
	lines = append(lines, styles.FaintText.Render(fmt.Sprintf("  %-10s %-12s %s", "BOJ", "STATUS", "ADDED")))
	for i := start; i < end; i++ {
		item := m.snapshot.Queue[i]
		added := "-"
		if !item.CreatedAt.IsZero() {
			added = humanize.Time(item.CreatedAt)
		}
		badge := styles.StatusStyle(item.Status).Render(fmt.Sprintf("%-10s", item.Status.Label()))
		row := fmt.Sprintf("  %-10s %s %s", item.ID, badge, added)
		if i == m.selected {
			row = styles.Selected.Render("›" + row[1:])
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderCodeView() string {
	styles := m.theme.Styles()
	if m.result == nil {
		return styles.MutedText.Render("No solution loaded. Select a problem and press enter.")
	}
	title := fmt.Sprintf("BOJ %s · %s", m.result.ProblemID, m.result.Origin)
	if m.result.Fallback {
		title += " (regenerated)"
	}
	return styles.AccentText.Bold(true).Render(title) + "\n" + m.codeViewport.View()
}

// renderCode lays out code followed by its sources.
func (m Model) renderCode(res dispatch.Result) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(res.Code)
	if !strings.HasSuffix(res.Code, "\n") {
		b.WriteString("\n")
	}
	if len(res.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Bold(true).Render("Sources"))
		b.WriteString("\n")
		for _, src := range res.Sources {
			b.WriteString(styles.InfoText.Render("  " + src))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderLogsView() string {
	styles := m.theme.Styles()
	title := "Logs"
	if m.logForProblem != "" {
		title = "Logs · BOJ " + m.logForProblem
	}
	return styles.AccentText.Bold(true).Render(title) + "\n" + m.logViewport.View()
}

func (m Model) renderLogLines() string {
	styles := m.theme.Styles()
	if len(m.logLines) == 0 {
		return styles.MutedText.Render("No log lines yet.")
	}
	out := make([]string, len(m.logLines))
	for i, line := range m.logLines {
		switch logtail.Level(line) {
		case "error":
			out[i] = styles.DangerText.Render(line)
		case "warn":
			out[i] = styles.WarningText.Render(line)
		case "debug":
			out[i] = styles.FaintText.Render(line)
		default:
			out[i] = styles.Text.Render(line)
		}
	}
	return strings.Join(out, "\n")
}

func (m Model) renderStatusLine() string {
	styles := m.theme.Styles()
	if m.prompt != promptNone {
		return m.input.View()
	}
	if m.busy != "" {
		return styles.InfoText.Render(m.busy + "…")
	}
	if m.status != "" {
		if m.statusErr {
			return styles.DangerText.Render(m.status)
		}
		return styles.SuccessText.Render(m.status)
	}
	if err := m.snapshot.LastError; err != nil {
		return styles.WarningText.Render(describeError("refresh", err))
	}
	return ""
}

func (m Model) renderFooter() string {
	return m.theme.Styles().Footer.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	body := m.help.FullHelpView(m.keys.FullHelp())
	return styles.Box.Render(styles.Logo.Render("bojq keys") + "\n\n" + body + "\n\n" + styles.MutedText.Render("press any key to close"))
}
