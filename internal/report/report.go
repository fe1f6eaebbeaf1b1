package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"goimpute/domain/impute"
)

// BuildMarkdown renders a run report: the manifest header, the pooled
// inference table, and a per-run appendix.
func BuildMarkdown(manifest *impute.RunManifest, pooled *impute.PooledEstimate, runs []impute.RunEstimate) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Imputation Report: %s\n\n", manifest.RunID))
	b.WriteString(fmt.Sprintf("- **Target column:** %s\n", manifest.Target))
	b.WriteString(fmt.Sprintf("- **Analysis response:** %s\n", manifest.Analysis.Response))
	b.WriteString(fmt.Sprintf("- **Missing cells:** %d\n", manifest.MissingCount))
	b.WriteString(fmt.Sprintf("- **Imputation runs:** %d\n", pooled.Runs))
	b.WriteString(fmt.Sprintf("- **Seed:** %d\n", manifest.Seed))
	b.WriteString(fmt.Sprintf("- **Dataset fingerprint:** `%s`\n", shortHash(manifest.DatasetFingerprint.String())))
	if manifest.ShortCircuited {
		b.WriteString("- **Note:** target had no missing values; single analysis fit, no imputation performed\n")
	}
	if pooled.Runs == 1 && !manifest.ShortCircuited {
		b.WriteString("- **Warning:** a single imputation run cannot measure imputation uncertainty\n")
	}
	b.WriteString("\n## Pooled Estimates\n\n")

	b.WriteString("| Term | Estimate | Std. Error | Statistic | df | p | 95% CI | FMI |\n")
	b.WriteString("|------|----------|-----------|-----------|----|---|--------|-----|\n")
	for _, inf := range Infer(pooled, 0.95) {
		df := "inf"
		if !isInf(inf.DF) {
			df = fmt.Sprintf("%.1f", inf.DF)
		}
		b.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.3f | %s | %.4f | [%.4f, %.4f] | %.3f |\n",
			inf.Term, inf.Estimate, inf.StdError, inf.Statistic, df, inf.PValue,
			inf.ConfLow, inf.ConfHigh, inf.MissingInfo))
	}

	b.WriteString("\n## Variance Decomposition\n\n")
	b.WriteString("| Term | Within | Between | Total |\n")
	b.WriteString("|------|--------|---------|-------|\n")
	for j, term := range pooled.Terms {
		b.WriteString(fmt.Sprintf("| %s | %.5f | %.5f | %.5f |\n",
			term, pooled.WithinVariance[j], pooled.BetweenVariance[j], pooled.TotalVariance[j]))
	}

	if len(runs) > 0 {
		b.WriteString("\n## Per-Run Estimates\n\n")
		for _, run := range runs {
			subset := run.Subset.String()
			if subset == "" {
				subset = "(none)"
			}
			b.WriteString(fmt.Sprintf("### Run %d (predictors: %s)\n\n", run.RunIndex, subset))
			b.WriteString("| Term | Estimate | Variance |\n")
			b.WriteString("|------|----------|----------|\n")
			for j, term := range run.Terms {
				b.WriteString(fmt.Sprintf("| %s | %.4f | %.5f |\n", term, run.Estimates[j], run.Variances[j]))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderHTML converts a markdown report into a standalone HTML fragment.
func RenderHTML(md string) []byte {
	extensions := parser.CommonExtensions | parser.Tables
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	opts := html.RendererOptions{Flags: html.CommonFlags}
	renderer := html.NewRenderer(opts)
	return markdown.Render(doc, renderer)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func isInf(v float64) bool {
	return v > 1e300
}
