// Package report renders a comparison run as markdown and HTML for the
// reporting collaborator.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"deqc/domain/de"
)

// BuildMarkdown renders the run summary: correlation matrices per metric,
// overlap set cardinalities, join accounting and quality warnings.
func BuildMarkdown(manifest *de.RunManifest, long *de.LongTable, partition *de.SetPartition) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Quantification comparison run %s\n\n", manifest.RunID)
	fmt.Fprintf(&b, "Contrast: %s. FDR threshold α = %g.\n\n", manifest.Contrast, manifest.Alpha)

	b.WriteString("## Branches\n\n")
	b.WriteString("| input | shrinkage | status | rows |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, branch := range manifest.Branches {
		status := string(branch.Status)
		if branch.Error != "" {
			status = fmt.Sprintf("%s: %s", branch.Status, branch.Error)
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %d |\n",
			branch.Key.Input, branch.Key.Shrinkage, status, branch.RowCount)
	}
	b.WriteString("\n")

	b.WriteString("## Cross-input agreement\n\n")
	b.WriteString("| shrinkage | metric | value r | rank r | n |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, method := range de.ShrinkageMethods() {
		for _, metric := range de.Metrics() {
			corr, ok := long.Labels[de.MetricGroup{Shrinkage: method, Metric: metric}]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "| %s | %s | %.7f | %.7f | %d |\n",
				method, metric, corr.Value, corr.Rank, corr.N)
		}
	}
	b.WriteString("\n")

	b.WriteString("## Join accounting\n\n")
	for _, method := range de.ShrinkageMethods() {
		if dropped, ok := long.Dropped[method]; ok {
			fmt.Fprintf(&b, "- %s: %d entities dropped by the inner join\n", method, dropped)
		}
	}
	b.WriteString("\n")

	if partition != nil {
		b.WriteString("## Overlap sets (unshrunken)\n\n")
		b.WriteString("| set | cardinality |\n")
		b.WriteString("|---|---|\n")
		for _, name := range de.SetNames() {
			fmt.Fprintf(&b, "| %s | %d |\n", name, partition.Cardinality(name))
		}
		fmt.Fprintf(&b, "\n%d occurrences excluded for NaN adjusted p-values.\n\n", partition.ExcludedNaN)
	}

	if len(manifest.Warnings) > 0 {
		b.WriteString("## Quality warnings\n\n")
		for _, warning := range manifest.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Fingerprint: `%s`\n", manifest.Fingerprint)
	return b.String()
}

// RenderHTML converts the markdown report to an HTML fragment
func RenderHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}
