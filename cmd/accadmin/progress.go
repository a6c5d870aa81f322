package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmytro-yemelianov/accadmin/internal/bulk"
)

// Styles for progress and summary display
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))

	skipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	barFilledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED"))

	barEmptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#374151"))
)

// progressRenderer draws a single-line progress bar that is rewritten in
// place on every update.
type progressRenderer struct {
	startTime time.Time
	enabled   bool
	drawn     bool
}

func newProgressRenderer(enabled bool) *progressRenderer {
	return &progressRenderer{
		startTime: time.Now(),
		enabled:   enabled,
	}
}

// Update implements bulk.ProgressFunc. The executor serializes calls.
func (p *progressRenderer) Update(update bulk.ProgressUpdate) {
	if !p.enabled || update.Total == 0 {
		return
	}

	line := fmt.Sprintf("%s %d/%d  %s %s %s  %s",
		renderBar(update.Done(), update.Total),
		update.Done(),
		update.Total,
		okStyle.Render(fmt.Sprintf("✓ %d", update.Completed)),
		skipStyle.Render(fmt.Sprintf("- %d", update.Skipped)),
		failStyle.Render(fmt.Sprintf("✗ %d", update.Failed)),
		skipStyle.Render(time.Since(p.startTime).Round(time.Second).String()),
	)

	fmt.Print("\r\033[K" + line)
	p.drawn = true
}

// Finish terminates the progress line so the summary starts on a fresh row.
func (p *progressRenderer) Finish() {
	if p.drawn {
		fmt.Println()
	}
}

func renderBar(done, total int) string {
	width := 24
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	bar := barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
	return "[" + bar + "]"
}

// printSummary renders the terminal aggregate of a bulk run.
func printSummary(result *bulk.BulkOperationResult, dryRun bool) {
	fmt.Println()
	title := "Bulk operation finished"
	if dryRun {
		title = "Dry run finished (no changes applied)"
	}
	fmt.Println(headerStyle.Render(title))
	fmt.Printf("   Operation:  %s\n", result.OperationID)
	fmt.Printf("   Total:      %d\n", result.Total)
	fmt.Printf("   %s\n", okStyle.Render(fmt.Sprintf("Completed:  %d", result.Completed)))
	fmt.Printf("   %s\n", skipStyle.Render(fmt.Sprintf("Skipped:    %d", result.Skipped)))
	fmt.Printf("   %s\n", failStyle.Render(fmt.Sprintf("Failed:     %d", result.Failed)))
	if result.Duration > 0 {
		fmt.Printf("   Duration:   %s\n", result.Duration.Round(time.Millisecond))
	}

	printSkips(result)
	printFailures(result)
}

// printSkips groups skipped projects by reason.
func printSkips(result *bulk.BulkOperationResult) {
	if result.Skipped == 0 {
		return
	}

	byReason := make(map[string]int)
	for _, d := range result.Details {
		if d.Result.Kind == bulk.ResultSkipped {
			byReason[d.Result.Reason]++
		}
	}

	reasons := make([]string, 0, len(byReason))
	for reason := range byReason {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	fmt.Println()
	fmt.Println("Skipped:")
	for _, reason := range reasons {
		fmt.Printf("   %s\n", skipStyle.Render(fmt.Sprintf("%-40s %d", reason, byReason[reason])))
	}
}

// printFailures lists every failed project with its last error.
func printFailures(result *bulk.BulkOperationResult) {
	if result.Failed == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Failed:")
	for _, d := range result.Details {
		if d.Result.Kind != bulk.ResultFailed {
			continue
		}
		name := d.ProjectID
		if d.ProjectName != "" {
			name = fmt.Sprintf("%s (%s)", d.ProjectName, d.ProjectID)
		}
		fmt.Printf("   %s\n", failStyle.Render(fmt.Sprintf("%s: %s (attempts: %d)", name, d.Result.Error, d.Attempts)))
	}
	fmt.Println()
	fmt.Printf("Resume with: accadmin ops resume %s\n", result.OperationID)
}
