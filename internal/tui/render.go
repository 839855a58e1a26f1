package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smeenai/lab-distributor/internal/distributor"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#43BF6D"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// RenderPlan formats a resolved plan for dry-run output.
func RenderPlan(plan *distributor.Plan) string {
	var sections []string
	sections = append(sections, headerStyle.Render(fmt.Sprintf("%s · mode %s · dry run", plan.Lab, plan.Mode)))

	if plan.Shared != nil {
		sections = append(sections, fmt.Sprintf("shared: %d file(s) into %s", len(plan.Shared.Files), plan.Shared.DestDir))
	}
	if len(plan.Entries) == 0 {
		sections = append(sections, dimStyle.Render("nothing to distribute"))
	}
	for _, e := range plan.Entries {
		count := len(e.Readonly) + len(e.Writable) + len(e.Generated)
		detail := fmt.Sprintf("%d file(s) into %s", count, e.DestDir)
		sections = append(sections, fmt.Sprintf("%s  %s", okStyle.Render(e.Student), dimStyle.Render(detail)))
	}
	if len(plan.Skipped) > 0 {
		sections = append(sections, dimStyle.Render("skipped (already present): "+strings.Join(plan.Skipped, ", ")))
	}
	if len(plan.Excluded) > 0 {
		sections = append(sections, dimStyle.Render("excluded: "+strings.Join(plan.Excluded, ", ")))
	}

	summary := fmt.Sprintf("recipients %d · skipped %d · excluded %d",
		len(plan.Entries), len(plan.Skipped), len(plan.Excluded))
	sections = append(sections, boxStyle.Render(summary))
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

// RenderReport formats the outcome of an applied plan.
func RenderReport(r *distributor.Report) string {
	var sections []string
	sections = append(sections, headerStyle.Render(fmt.Sprintf("%s · mode %s", r.Lab, r.Mode)))

	if r.SharedErr != nil {
		sections = append(sections, failStyle.Render("shared stage failed: ")+r.SharedErr.Error())
	}
	for _, o := range r.Outcomes {
		if o.OK() {
			sections = append(sections, okStyle.Render("ok   ")+o.Student)
		} else {
			sections = append(sections, failStyle.Render("fail ")+o.Student+dimStyle.Render("  "+o.Err.Error()))
		}
	}
	if len(r.Skipped) > 0 {
		sections = append(sections, dimStyle.Render("skipped (already present): "+strings.Join(r.Skipped, ", ")))
	}
	if len(r.Excluded) > 0 {
		sections = append(sections, dimStyle.Render("excluded: "+strings.Join(r.Excluded, ", ")))
	}

	summary := fmt.Sprintf("ok %d · failed %d · skipped %d · excluded %d",
		r.Succeeded(), r.Failed(), len(r.Skipped), len(r.Excluded))
	if r.Failed() > 0 || r.SharedErr != nil {
		summary = failStyle.Render(summary)
	} else {
		summary = okStyle.Render(summary)
	}
	sections = append(sections, boxStyle.Render(summary))
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}
