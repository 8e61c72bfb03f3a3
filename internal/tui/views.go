package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chairside/pmsflow/internal/cli"
	"github.com/chairside/pmsflow/internal/editor"
	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/transform"
)

var (
	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(cli.SubtleColor)

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(cli.PrimaryColor).
			Underline(true)

	selectedCellStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(cli.PrimaryColor)

	cellStyle = lipgloss.NewStyle()

	headerRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cli.SubtleColor)

	summaryStyle = lipgloss.NewStyle().
			Foreground(cli.InfoColor).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(cli.WarningColor).
			MarginTop(1)

	readOnlyStyle = lipgloss.NewStyle().
			Foreground(cli.SubtleColor).
			Italic(true)
)

const (
	sourceColWidth = 28
	typeColWidth   = 8
	numColWidth    = 12
)

// View renders the editor.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case StateHelp:
		return m.renderHelp()
	case StateSaving:
		return m.renderFrame(cli.InfoStyle.Render("Saving..."))
	case StateDone:
		return m.renderFrame(cli.FormatSuccess("Saved. Press any key to exit."))
	}

	return m.renderFrame(m.renderGrid())
}

func (m Model) renderFrame(body string) string {
	sections := []string{
		cli.FormatTitle(m.config.Title),
		m.renderTabs(),
		body,
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m Model) renderTabs() string {
	months := m.session.Months()
	tabs := make([]string, 0, len(months)+1)
	for _, bucket := range months {
		if bucket.ID == m.session.ActiveID() {
			tabs = append(tabs, activeTabStyle.Render(bucket.Month))
		} else {
			tabs = append(tabs, tabStyle.Render(bucket.Month))
		}
	}
	if !m.session.ReadOnly() {
		tabs = append(tabs, tabStyle.Render("[m] + month"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderGrid() string {
	active := m.session.Active()
	if active == nil {
		return cli.SubtleStyle.Render("No months loaded.")
	}

	var b strings.Builder

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		headerRowStyle.Width(sourceColWidth).Render("Source"),
		headerRowStyle.Width(typeColWidth).Render("Type"),
		headerRowStyle.Width(numColWidth).Render("Referrals"),
		headerRowStyle.Width(numColWidth).Render("Production"),
	)
	b.WriteString(header)
	b.WriteString("\n")

	if len(active.Rows) == 0 {
		b.WriteString(cli.SubtleStyle.Render("No sources. Press 'a' to add one."))
		b.WriteString("\n")
	}

	for i := range active.Rows {
		b.WriteString(m.renderRow(&active.Rows[i], i))
		b.WriteString("\n")
	}

	b.WriteString(m.renderSummary(active))
	return b.String()
}

func (m Model) renderRow(row *model.SourceRow, idx int) string {
	cells := []string{
		m.renderCell(displayOr(row.Source, "(unnamed)"), sourceColWidth, idx, ColSource),
		m.renderCell(string(row.Type), typeColWidth, idx, ColType),
		m.renderCell(displayOr(row.Referrals, "0"), numColWidth, idx, ColReferrals),
		m.renderCell("$"+transform.FormatMoney(row.Production), numColWidth, idx, ColProduction),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m Model) renderCell(text string, width, idx int, col Column) string {
	selected := idx == m.rowIdx && col == m.col

	if selected && m.state == StateEditCell {
		return cellStyle.Width(width).Render(m.input.View())
	}
	if selected {
		return selectedCellStyle.Width(width).Render(text)
	}
	return cellStyle.Width(width).Render(text)
}

func (m Model) renderSummary(active *model.MonthBucket) string {
	summary := m.session.Summary(active.ID)
	line := fmt.Sprintf("Self %d · Doctor %d · Total %d · Production $%s",
		summary.SelfReferrals,
		summary.DoctorReferrals,
		summary.TotalReferrals,
		transform.FormatMoney(fmt.Sprintf("%.0f", summary.ProductionTotal)),
	)
	return summaryStyle.Render(line)
}

func (m Model) renderFooter() string {
	if m.state == StateEditMonth {
		return statusStyle.Render("Month: "+m.input.View()) + m.renderStatus()
	}

	var hint string
	switch {
	case m.session.ReadOnly():
		hint = readOnlyStyle.Render("read-only · Tab switch month · q quit")
	case m.session.Mode() == editor.ModeReview:
		hint = cli.SubtleStyle.Render("Enter edit · t type · a add · d/D delete · s save & approve · ? help")
	default:
		hint = cli.SubtleStyle.Render("Enter edit · t type · a add · d/D delete · s submit · ? help")
	}

	return hint + m.renderStatus()
}

func (m Model) renderStatus() string {
	if m.statusMsg == "" {
		return ""
	}
	return "\n" + statusStyle.Render(m.statusMsg)
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(cli.FormatTitle("Keyboard shortcuts"))
	b.WriteString("\n")

	for _, group := range m.keymap.FullHelp() {
		for _, binding := range group {
			help := binding.Help()
			b.WriteString(fmt.Sprintf("  %-14s %s\n", help.Key, help.Desc))
		}
		b.WriteString("\n")
	}

	b.WriteString(cli.SubtleStyle.Render("Press any key to return."))
	return b.String()
}

func displayOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
