// report.go: Text rendering of the plugin load plan
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/agilira/swb"
)

var (
	reportTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	reportHeader = lipgloss.NewStyle().Bold(true)
	reportDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	reportOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	reportBad    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// renderReport formats the load plan and per-plugin outcomes for `swb plugins`.
func renderReport(plan swb.LoadPlan, results []swb.LoadResult) string {
	configDir := plan.ConfigDir
	if configDir == "" {
		configDir = "(unavailable)"
	}
	manifest := plan.Order.Source
	if manifest == "" {
		manifest = "(none)"
	}

	lines := []string{
		reportTitle.Render("swb plugins"),
		fmt.Sprintf("config dir: %s (%d candidates)", configDir, len(plan.ConfigSet)),
		fmt.Sprintf("local dir:  %s (%d candidates)", plan.LocalDir, len(plan.LocalSet)),
		fmt.Sprintf("manifest:   %s", manifest),
		"",
	}

	if len(results) == 0 {
		lines = append(lines, reportDim.Render("No plugins listed."))
	} else {
		lines = append(lines, reportHeader.Render(fmt.Sprintf("%-3s │ %-24s │ %-9s │ %-6s │ %s", "#", "PLUGIN", "OUTCOME", "ORIGIN", "DETAIL")))
		for i, r := range results {
			outcome := reportBad.Render(fmt.Sprintf("%-9s", r.Outcome))
			origin := "-"
			detail := string(r.Code)
			if r.Outcome == swb.OutcomeLoaded {
				outcome = reportOK.Render(fmt.Sprintf("%-9s", r.Outcome))
				detail = r.Path
			}
			if r.Outcome == swb.OutcomeLoaded || r.Outcome == swb.OutcomeFailed {
				origin = r.Origin.String()
			}
			lines = append(lines, fmt.Sprintf("%-3d │ %-24s │ %s │ %-6s │ %s", i+1, r.Name, outcome, origin, detail))
		}
	}

	for _, w := range plan.Warnings {
		lines = append(lines, reportDim.Render("warning: "+w.Error()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
