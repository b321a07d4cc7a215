package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/baselineplan/pkg/classify"
	"github.com/matzehuels/baselineplan/pkg/feature"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success, widely available
	colorYellow = lipgloss.Color("220") // Amber - warnings, newly available
	colorRed    = lipgloss.Color("167") // Soft red - errors, limited availability
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for section headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
)

// statusStyles colors baseline statuses in tables.
var statusStyles = map[classify.Status]lipgloss.Style{
	classify.StatusWidely:  lipgloss.NewStyle().Foreground(colorGreen),
	classify.StatusNewly:   lipgloss.NewStyle().Foreground(colorYellow),
	classify.StatusLimited: lipgloss.NewStyle().Foreground(colorRed),
}

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// statusOut receives status lines. It is stderr so that JSON on stdout stays
// machine-readable.
var statusOut io.Writer = os.Stderr

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(statusOut, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(statusOut, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(statusOut, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printStats prints extraction statistics on a single line.
func printStats(records, skipped int, truncated, cached bool) {
	parts := []string{fmt.Sprintf("%d features", records)}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", skipped))
	}
	if truncated {
		parts = append(parts, "capped")
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Fprintln(statusOut, line+StyleDim.Render(" · ")+statusStyle.Render(status))
}

// =============================================================================
// Record Tables
// =============================================================================

// renderPlan renders records as two tables: features usable now and features
// to adopt later.
func renderPlan(w io.Writer, records []feature.Record) {
	plan := feature.Split(records)
	sections := []struct {
		title   string
		records []feature.Record
	}{
		{"Use now", plan.Current},
		{"Adopt later", plan.Recommended},
	}
	for _, s := range sections {
		if len(s.records) == 0 {
			continue
		}
		fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%s (%d)", s.title, len(s.records))))
		fmt.Fprintln(w, recordTable(s.records).Render())
	}
}

// recordTable builds a table with one row per record.
func recordTable(records []feature.Record) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cell := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.Name,
			r.Category,
			string(r.BaselineStatus),
			strconv.Itoa(r.CurrentUsage) + "%",
			r.AdoptionDate.String(),
			string(r.Impact),
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Feature", "Category", "Status", "Usage", "Adopt", "Impact").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			if col == 2 && row < len(records) {
				if st, ok := statusStyles[records[row].BaselineStatus]; ok {
					return st.Padding(0, 1)
				}
			}
			return cell
		})
}
