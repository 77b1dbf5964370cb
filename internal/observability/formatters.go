// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/hiretree/internal/skills"
	"github.com/jonathan/hiretree/internal/status"
	"github.com/jonathan/hiretree/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintJob outputs a job's details and its match against the active resume.
func (p *Printer) PrintJob(job *types.Job) {
	if job == nil {
		return
	}

	var sb strings.Builder
	title := job.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(&sb, "Title:    %s\n", title)
	for _, field := range []struct{ label, value string }{
		{"Company:  ", job.Company},
		{"Location: ", job.Location},
		{"Mode:     ", job.Mode},
		{"Level:    ", job.Seniority},
		{"Contract: ", job.Contract},
		{"Salary:   ", job.Salary},
		{"URL:      ", job.URL},
	} {
		if field.value != "" {
			sb.WriteString(field.label + field.value + "\n")
		}
	}
	fmt.Fprintf(&sb, "Status:   %s\n", job.Status)
	fmt.Fprintf(&sb, "Clipped:  %s\n", job.ClippedAt.Format("2006-01-02 15:04"))

	if len(job.Stack) > 0 {
		fmt.Fprintf(&sb, "\nStack: %s\n", strings.Join(job.Stack, ", "))
	}

	m := skills.Describe(*job)
	fmt.Fprintf(&sb, "\nMatch: %s (%s)", m.Label(), m.Band)
	if m.AllMatched {
		sb.WriteString("  all skills covered")
	}
	sb.WriteString("\n")
	writeList(&sb, "Matched", m.Matched)
	writeList(&sb, "Missing", m.Missing)

	p.printBox(fmt.Sprintf("JOB #%d", job.ID), strings.TrimSuffix(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s:\n", label)
	count := min(len(items), maxItemsToShow)
	for _, item := range items[:count] {
		fmt.Fprintf(sb, "  • %s\n", item)
	}
	if len(items) > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-maxItemsToShow)
	}
}

// PrintResume outputs a resume's headline and its strongest skills.
func (p *Printer) PrintResume(resume *types.Resume) {
	if resume == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name:     %s\n", resume.Name)
	if resume.CurrentRole != "" {
		fmt.Fprintf(&sb, "Role:     %s\n", resume.CurrentRole)
	}
	if resume.YearsExperience > 0 {
		fmt.Fprintf(&sb, "Years:    %d\n", resume.YearsExperience)
	}
	fmt.Fprintf(&sb, "Source:   %s\n", resume.Source)
	if resume.Refined {
		sb.WriteString("Refined from work history\n")
	}

	if len(resume.Skills) > 0 {
		sb.WriteString("\nSkills:\n")
		count := min(len(resume.Skills), maxItemsToShow)
		for _, s := range resume.Skills[:count] {
			fmt.Fprintf(&sb, "  %s %s\n", skills.Stars(skills.EffectiveRating(s)), s.Name)
		}
		if len(resume.Skills) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(resume.Skills)-maxItemsToShow)
		}
	}

	title := "RESUME"
	if resume.IsActive {
		title = "ACTIVE RESUME"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPipeline outputs the number of jobs in each status.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintPipeline(jobs []types.Job) {
	if len(jobs) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO JOBS CLIPPED YET")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	counts := skills.PipelineCounts(jobs)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total jobs: %d\n\n", len(jobs))
	for _, st := range status.All() {
		if st == status.Rejected {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%-10s %3d\n", st, counts[st])
	}

	p.printBox("PIPELINE", strings.TrimSuffix(sb.String(), "\n"))
}
