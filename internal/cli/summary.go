package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vvka-141/bookshelf/internal/fetch"
	"github.com/vvka-141/bookshelf/internal/services"
	"github.com/vvka-141/bookshelf/internal/validation"
)

var (
	colorPrimary = lipgloss.Color("39")  // Blue
	colorMuted   = lipgloss.Color("245") // Gray
	colorSuccess = lipgloss.Color("34")  // Green
	colorWarning = lipgloss.Color("214") // Orange

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	labelStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

const (
	symbolCheck = "✓"
	symbolSkip  = "•"
)

func row(label string, value any) string {
	return labelStyle.Render(fmt.Sprintf("%-14s", label)) + fmt.Sprint(value)
}

func box(title string, lines []string) string {
	return boxStyle.Render(titleStyle.Render(title) + "\n" + strings.Join(lines, "\n"))
}

func renderFetch(results []fetch.Result) string {
	var lines []string
	for _, r := range results {
		lines = append(lines, successStyle.Render(symbolCheck)+" "+
			row(r.Keyword+"/"+r.Date, fmt.Sprintf("%d pages", len(r.Files))))
	}
	return box("Fetched", lines)
}

func renderValidation(reports []validation.Report) string {
	var lines []string
	for _, r := range reports {
		lines = append(lines,
			successStyle.Render(symbolCheck)+" "+titleStyle.Render(r.Keyword+"/"+r.Date),
			row("  records", r.Total),
			row("  passed", fmt.Sprintf("%d (%.1f%%)", r.Passed, r.Percent)),
			row("  rejected", r.Rejected()),
			row("  output", r.OutputPath),
		)
	}
	return box("Validated", lines)
}

func renderLoad(reports []services.LoadReport) string {
	var lines []string
	for _, r := range reports {
		if r.Skipped {
			dir := r.Keyword
			if r.Date != "" {
				dir += "/" + r.Date
			}
			lines = append(lines, warningStyle.Render(symbolSkip+" "+dir+" skipped, directory does not exist"))
			continue
		}
		lines = append(lines,
			successStyle.Render(symbolCheck)+" "+titleStyle.Render(r.Keyword+"/"+r.Date),
			row("  records", r.Records),
			row("  new books", r.NewWorks),
			row("  new authors", r.NewAuthors),
			row("  new genres", r.NewCategories),
			row("  identifiers", r.Identifiers),
			row("  observations", r.Observations),
		)
	}
	return box("Loaded", lines)
}

func printSummary(w io.Writer, blocks ...string) {
	for _, b := range blocks {
		fmt.Fprintln(w, b)
	}
}
