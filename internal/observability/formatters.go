// Package observability renders pitch results as boxed summaries for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/pitchprep/internal/pipeline"
	"github.com/jonathan/pitchprep/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	innerWidth     = boxWidth - 4
)

// Printer writes boxed summaries.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, innerWidth)))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintScore outputs the six factors and the clamped total.
func (p *Printer) PrintScore(companyName string, b types.ScoreBreakdown) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Company:  %s\n\n", companyName)
	for _, f := range b.Factors() {
		fmt.Fprintf(&sb, "%-10s %2d/%d  %s\n", f.Label, f.Score, types.MaxFactorScore, f.Reason)
	}
	fmt.Fprintf(&sb, "\nMatch score: %d/%d", b.MatchScore(), types.MaxMatchScore)
	p.printBox("MATCH SCORE", sb.String())
}

// PrintCard outputs a career fair card.
func (p *Printer) PrintCard(companyName string, card types.PitchArtifact) {
	var sb strings.Builder
	sb.WriteString("Pitch:\n")
	for _, line := range wrap(card.Pitch, innerWidth-2) {
		fmt.Fprintf(&sb, "  %s\n", line)
	}

	writeList(&sb, "Wow facts", factTexts(card.WowFacts))
	writeList(&sb, "Top roles", card.TopRoles)
	writeList(&sb, "Questions to ask", card.SmartQuestions)

	sb.WriteString("\nFollow-up:\n")
	for _, line := range wrap(card.FollowUpMessage, innerWidth-2) {
		fmt.Fprintf(&sb, "  %s\n", line)
	}
	p.printBox("CAREER FAIR CARD: "+companyName, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs a generation result and its warnings.
func (p *Printer) PrintResult(res *pipeline.GenerateResult) {
	if res == nil {
		return
	}
	p.PrintScore(res.CompanyName, res.ScoreBreakdown)
	p.PrintCard(res.CompanyName, res.CareerFairCard)
	if !res.Persisted || len(res.Warnings) > 0 {
		var sb strings.Builder
		if !res.Persisted {
			sb.WriteString("⚠ result was not saved\n")
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(&sb, "⚠ %s\n", w)
		}
		p.printBox("WARNINGS", strings.TrimSuffix(sb.String(), "\n"))
	}
}

// PrintBulk outputs the per-company outcome of a bulk run.
func (p *Printer) PrintBulk(res pipeline.BulkResult) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Succeeded: %d   Failed: %d\n", res.Succeeded, res.Failed)
	for _, item := range res.Items {
		if item.Status == pipeline.StatusSucceeded {
			fmt.Fprintf(&sb, "\n✓ %s (%d)", item.CompanyName, item.MatchScore)
			continue
		}
		fmt.Fprintf(&sb, "\n✗ %s [%s]\n  %s", item.CompanyName, item.Kind, item.Error)
	}
	p.printBox("BULK GENERATION", sb.String())
}

// PrintContext outputs a researched employer context.
func (p *Printer) PrintContext(c types.EmployerContext, fromCache bool) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Company:  %s\n", c.CompanyName)
	source := "fresh research"
	if fromCache {
		source = "cache"
	}
	if c.FetchedAt.IsZero() {
		source = "unavailable"
	} else {
		source += ", fetched " + c.FetchedAt.Format("2006-01-02 15:04")
	}
	fmt.Fprintf(&sb, "Source:   %s\n", source)
	if c.Location != "" {
		fmt.Fprintf(&sb, "Location: %s\n", c.Location)
	}
	if c.HiringNow != nil {
		fmt.Fprintf(&sb, "Hiring:   %t\n", *c.HiringNow)
	}

	if c.AboutText != "" {
		sb.WriteString("\nAbout:\n")
		for _, line := range wrap(c.AboutText, innerWidth-2) {
			fmt.Fprintf(&sb, "  %s\n", line)
		}
	}
	writeList(&sb, "Recent news", c.RecentNews)
	p.printBox("EMPLOYER CONTEXT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRecords outputs saved pitch records, newest first.
func (p *Printer) PrintRecords(records []types.PitchRecord) {
	if len(records) == 0 {
		p.printBox("SAVED PITCHES", "No saved pitches.")
		return
	}
	var sb strings.Builder
	for i, r := range records {
		fmt.Fprintf(&sb, "%3d  %-30s %s", r.MatchScore, truncate(r.CompanyName, 30), r.UpdatedAt.Format("2006-01-02"))
		if i < len(records)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox("SAVED PITCHES", sb.String())
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	count := min(len(items), maxItemsToShow)
	for _, item := range items[:count] {
		for i, line := range wrap(item, innerWidth-4) {
			if i == 0 {
				fmt.Fprintf(sb, "  • %s\n", line)
			} else {
				fmt.Fprintf(sb, "    %s\n", line)
			}
		}
	}
	if len(items) > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-maxItemsToShow)
	}
}

func factTexts(facts []types.WowFact) []string {
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		out = append(out, f.Fact)
	}
	return out
}

// wrap splits text into lines of at most width runes on word boundaries.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if utf8.RuneCountInString(line)+1+utf8.RuneCountInString(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-3]) + "..."
}

func pad(s string) string {
	if n := utf8.RuneCountInString(s); n < innerWidth {
		return s + strings.Repeat(" ", innerWidth-n)
	}
	return truncate(s, innerWidth)
}
