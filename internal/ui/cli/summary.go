package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	coreapp "pyuml/internal/core/app"
	"pyuml/internal/data/history"
	"pyuml/internal/engine/model"
	"pyuml/internal/shared/util"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func printBatch(w io.Writer, res coreapp.BatchResult) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s diagrams", res.Kind)))
	fmt.Fprintf(w, "  %s  %s\n",
		successStyle.Render(fmt.Sprintf("%d generated", len(res.Outputs))),
		statusStyle.Render(res.Duration.Round(time.Millisecond).String()),
	)
	for _, out := range res.Outputs {
		fmt.Fprintf(w, "    %s\n", out)
	}
	if len(res.Failures) > 0 {
		fmt.Fprintf(w, "  %s\n", failureStyle.Render(fmt.Sprintf("%d skipped", len(res.Failures))))
		for _, f := range res.Failures {
			fmt.Fprintf(w, "    %s: %v\n", f.Source, f.Err)
		}
	}
	if res.Index != "" {
		fmt.Fprintf(w, "  index: %s\n", res.Index)
	}
}

// printResults prints batches in kind order.
func printResults(w io.Writer, results map[string]coreapp.BatchResult) {
	for _, kind := range model.Kinds() {
		if res, ok := results[kind.String()]; ok {
			printBatch(w, res)
		}
	}
	for _, key := range util.SortedStringKeys(results) {
		if _, err := model.ParseKind(key); err != nil {
			printBatch(w, results[key])
		}
	}
}

func renderRuns(runs []history.Run) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(statusStyle).
		Headers("STARTED", "KIND", "STATUS", "SOURCE", "DURATION", "ERROR").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, run := range runs {
		status := successStyle.Render(string(run.Status))
		if run.Status == history.StatusFailed {
			status = failureStyle.Render(string(run.Status))
		}
		t.Row(
			run.StartedAt.Local().Format(time.DateTime),
			run.Kind,
			status,
			run.Source,
			run.Duration.Round(time.Millisecond).String(),
			truncate(run.Error, 60),
		)
	}
	return t.String()
}

func renderSummary(summaries []history.KindSummary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(statusStyle).
		Headers("KIND", "SUCCEEDED", "FAILED", "LAST RUN").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, s := range summaries {
		last := "-"
		if !s.LastRun.IsZero() {
			last = s.LastRun.Local().Format(time.DateTime)
		}
		t.Row(s.Kind, fmt.Sprint(s.Succeeded), fmt.Sprint(s.Failed), last)
	}
	return t.String()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
