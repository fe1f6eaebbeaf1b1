package report

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goimpute/domain/core"
	"goimpute/domain/impute"
)

func pooledFixture() *impute.PooledEstimate {
	return &impute.PooledEstimate{
		Terms:           []string{"intercept", "age"},
		Estimates:       []float64{2.0, 0.5},
		WithinVariance:  []float64{0.04, 0.01},
		BetweenVariance: []float64{0.01, 0.002},
		TotalVariance:   []float64{0.04 + (1+1.0/3)*0.01, 0.01 + (1+1.0/3)*0.002},
		MissingInfo:     []float64{0.25, 0.21},
		Runs:            3,
	}
}

func TestInferUsesStudentReference(t *testing.T) {
	infs := Infer(pooledFixture(), 0.95)
	require.Len(t, infs, 2)

	for _, inf := range infs {
		assert.False(t, math.IsInf(inf.DF, 1), "between variance present: df must be finite")
		assert.Greater(t, inf.DF, 0.0)
		assert.Greater(t, inf.StdError, 0.0)
		assert.Less(t, inf.ConfLow, inf.Estimate)
		assert.Greater(t, inf.ConfHigh, inf.Estimate)
		assert.GreaterOrEqual(t, inf.PValue, 0.0)
		assert.LessOrEqual(t, inf.PValue, 1.0)
	}

	// A strongly nonzero estimate with a small standard error must be
	// significant at conventional levels.
	assert.Less(t, infs[0].PValue, 0.05)
}

func TestInferNormalFallbackWithoutBetweenVariance(t *testing.T) {
	pooled := &impute.PooledEstimate{
		Terms:           []string{"intercept"},
		Estimates:       []float64{1.0},
		WithinVariance:  []float64{0.25},
		BetweenVariance: []float64{0},
		TotalVariance:   []float64{0.25},
		MissingInfo:     []float64{0},
		Runs:            1,
	}
	infs := Infer(pooled, 0.95)
	require.Len(t, infs, 1)
	assert.True(t, math.IsInf(infs[0].DF, 1))

	// z = 1/0.5 = 2; the normal 95% interval is estimate +/- 1.96*se.
	assert.InDelta(t, 2.0, infs[0].Statistic, 1e-9)
	assert.InDelta(t, 1.0-1.96*0.5, infs[0].ConfLow, 1e-3)
	assert.InDelta(t, 1.0+1.96*0.5, infs[0].ConfHigh, 1e-3)
}

func TestBuildMarkdownSections(t *testing.T) {
	manifest := impute.NewRunManifest(
		core.RunID("run-123"),
		core.NewHash([]byte("data")),
		"score",
		impute.AnalysisSpec{Response: "score", Covariates: []core.VariableKey{"age"}},
		[]impute.PredictorSubset{{"age"}},
		42,
	)
	manifest.MissingCount = 7

	runs := []impute.RunEstimate{
		{RunIndex: 0, Subset: impute.PredictorSubset{"age"}, Terms: []string{"intercept", "age"},
			Estimates: []float64{2.0, 0.5}, Variances: []float64{0.04, 0.01}},
	}

	md := BuildMarkdown(manifest, pooledFixture(), runs)
	for _, want := range []string{
		"# Imputation Report: run-123",
		"**Target column:** score",
		"## Pooled Estimates",
		"## Variance Decomposition",
		"### Run 0 (predictors: age)",
		"intercept",
	} {
		assert.Contains(t, md, want)
	}
	assert.NotContains(t, md, "no missing values", "non-short-circuited run must not carry the note")
}

func TestBuildMarkdownShortCircuitNote(t *testing.T) {
	manifest := impute.NewRunManifest(core.RunID("r"), core.NewHash([]byte("d")), "y",
		impute.AnalysisSpec{Response: "y"}, nil, 0)
	manifest.ShortCircuited = true

	pooled := pooledFixture()
	md := BuildMarkdown(manifest, pooled, nil)
	assert.Contains(t, md, "no missing values")
}

func TestRenderHTMLTables(t *testing.T) {
	md := BuildMarkdown(
		impute.NewRunManifest(core.RunID("r"), core.NewHash([]byte("d")), "y",
			impute.AnalysisSpec{Response: "y"}, nil, 0),
		pooledFixture(), nil)

	out := string(RenderHTML(md))
	assert.True(t, strings.Contains(out, "<table>"), "markdown tables must render as HTML tables")
	assert.Contains(t, out, "<h1")
}
