package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/av-estimator/engine/internal/estimate"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
)

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func hours(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + "h"
}

func renderSummary(s estimate.Summary) string {
	return fmt.Sprintf("%s  %s  %d items", money(s.Cost), hours(s.Labor), s.ItemCount)
}

func renderEstimate(w io.Writer, title string, total estimate.Summary, locs []estimate.LocationSummary) {
	fmt.Fprintln(w, titleStyle.Render(title))
	for _, ls := range locs {
		renderLocation(w, ls, 0)
	}
	fmt.Fprintln(w, titleStyle.Render("Total  "+renderSummary(total)))
}

func renderLocation(w io.Writer, ls estimate.LocationSummary, depth int) {
	line := strings.Repeat("  ", depth) + ls.Name + "  " + renderSummary(ls.Total)
	if len(ls.Children) > 0 && ls.Direct != ls.Total {
		line += mutedStyle.Render("  (direct " + money(ls.Direct.Cost) + ")")
	}
	if ls.Stale > 0 {
		line += warnStyle.Render(fmt.Sprintf("  %d out of date", ls.Stale))
	}
	if ls.Missing > 0 {
		line += errorStyle.Render(fmt.Sprintf("  %d missing", ls.Missing))
	}
	fmt.Fprintln(w, line)
	for _, c := range ls.Children {
		renderLocation(w, c, depth+1)
	}
}

func renderUsage(w io.Writer, def *estimate.PackageDefinition, found []instanceRow) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (v%d)", def.Name, def.Version)))
	if len(found) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("not used"))
		return
	}
	for _, r := range found {
		state := successStyle.Render("current")
		if r.Stale {
			state = warnStyle.Render("out of date")
		}
		fmt.Fprintf(w, "%s #%d  qty %s  %s\n", r.Path, r.ItemIndex, decimal.NewFromFloat(r.Qty).String(), state)
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%d instances", len(found))))
}

func renderSync(w io.Writer, r estimate.SyncReport, written bool) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("sync %s to v%d", r.PackageID, r.Version)))
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("updated %d", len(r.Updated))))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("already current %d", len(r.AlreadyCurrent))))
	for _, s := range r.Skipped {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("skipped %s #%d: %s", s.LocationID, s.ItemIndex, s.Reason)))
	}
	switch {
	case !r.Changed():
		fmt.Fprintln(w, mutedStyle.Render("nothing to write"))
	case written:
		fmt.Fprintln(w, successStyle.Render("file updated"))
	default:
		fmt.Fprintln(w, mutedStyle.Render("dry run, pass --write to save"))
	}
}
