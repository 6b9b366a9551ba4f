package analyze

import (
	"fmt"
	"strings"

	"github.com/tayebekavousi/toothlabel/internal/classmap"
)

// Table renders per-split tables and a cross-split summary for the console.
func (s Summary) Table() string {
	var b strings.Builder

	for _, dist := range s.Splits {
		fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 60))
		fmt.Fprintf(&b, "%s - images per tooth number\n", dist.Split)
		fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 60))
		fmt.Fprintf(&b, "%-15s %-15s %-15s\n", "Tooth (FDI)", "Image Count", "Total Instances")
		fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 60))

		instances := 0
		for _, token := range sortedTokens(dist.Counts) {
			c := dist.Counts[token]
			fmt.Fprintf(&b, "%-15s %-15d %-15d\n", token, c.Images, c.Instances)
			instances += c.Instances
		}
		fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 60))
		fmt.Fprintf(&b, "Unique teeth: %d  Images: %d  Instances: %d\n\n",
			len(dist.Counts), dist.Files, instances)
	}

	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(&b, "SUMMARY - images per tooth across all splits\n")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(&b, "%-15s", "Tooth (FDI)")
	for _, dist := range s.Splits {
		fmt.Fprintf(&b, " %-12s", dist.Split)
	}
	fmt.Fprintf(&b, " %-12s\n", "Total")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 80))

	for _, token := range sortedTokens(s.Totals) {
		fmt.Fprintf(&b, "%-15s", token)
		for _, dist := range s.Splits {
			fmt.Fprintf(&b, " %-12d", dist.Counts[token].Images)
		}
		fmt.Fprintf(&b, " %-12d\n", s.Totals[token].Images)
	}
	return b.String()
}

// Markdown renders the summary as a report suitable for goldmark conversion.
func (s Summary) Markdown() string {
	var b strings.Builder

	b.WriteString("# Tooth distribution report\n\n")
	for _, dist := range s.Splits {
		fmt.Fprintf(&b, "## %s\n\n", dist.Split)
		if len(dist.Counts) == 0 {
			b.WriteString("No raw-format label lines found.\n\n")
			continue
		}
		b.WriteString("| Tooth (FDI) | Image count | Total instances |\n")
		b.WriteString("| --- | --- | --- |\n")
		for _, token := range sortedTokens(dist.Counts) {
			c := dist.Counts[token]
			fmt.Fprintf(&b, "| %s | %d | %d |\n", token, c.Images, c.Instances)
		}
		fmt.Fprintf(&b, "\nLabel files: %d\n\n", dist.Files)
	}

	b.WriteString("## All splits\n\n")
	if len(s.Totals) == 0 {
		b.WriteString("No raw-format label lines found.\n")
		return b.String()
	}
	b.WriteString("| Tooth (FDI) |")
	for _, dist := range s.Splits {
		fmt.Fprintf(&b, " %s |", dist.Split)
	}
	b.WriteString(" Total |\n")
	b.WriteString("| --- |")
	for range s.Splits {
		b.WriteString(" --- |")
	}
	b.WriteString(" --- |\n")
	for _, token := range sortedTokens(s.Totals) {
		fmt.Fprintf(&b, "| %s |", token)
		for _, dist := range s.Splits {
			fmt.Fprintf(&b, " %d |", dist.Counts[token].Images)
		}
		fmt.Fprintf(&b, " %d |\n", s.Totals[token].Images)
	}
	return b.String()
}

// sortedTokens orders tokens with the class-map rule so tables and
// classes.txt agree on ordering.
func sortedTokens(counts map[string]TokenCount) []string {
	tokens := make([]string, 0, len(counts))
	for t := range counts {
		tokens = append(tokens, t)
	}
	classmap.SortTokens(tokens)
	return tokens
}
