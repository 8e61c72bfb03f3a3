package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chairside/pmsflow/internal/transform"
)

// MonthLine is one rendered row of the referral summary table.
type MonthLine struct {
	Month           string
	SelfReferrals   int
	DoctorReferrals int
	TotalReferrals  int
	ProductionTotal float64
}

// RenderMonthTable renders per-month referral totals as an aligned table.
// Months are sorted chronologically regardless of input order.
func RenderMonthTable(lines []MonthLine) string {
	if len(lines) == 0 {
		return SubtleStyle.Render("No referral data.")
	}

	sorted := make([]MonthLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Month < sorted[j].Month
	})

	headers := []string{"Month", "Self", "Doctor", "Total", "Production"}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	rows := make([][]string, 0, len(sorted))
	for _, line := range sorted {
		row := []string{
			line.Month,
			fmt.Sprintf("%d", line.SelfReferrals),
			fmt.Sprintf("%d", line.DoctorReferrals),
			fmt.Sprintf("%d", line.TotalReferrals),
			"$" + transform.FormatMoney(fmt.Sprintf("%.0f", line.ProductionTotal)),
		}
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
		rows = append(rows, row)
	}

	var b strings.Builder

	headerCells := make([]string, len(headers))
	for i, h := range headers {
		headerCells[i] = TableCellStyle.Render(pad(h, widths[i]))
	}
	b.WriteString(TableHeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)))
	b.WriteString("\n")

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = TableCellStyle.Render(pad(cell, widths[i]))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}

	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
