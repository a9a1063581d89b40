package simulation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimals(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func TestPercentileInterpolation(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		p        float64
		expected float64
	}{
		{"empty returns zero", nil, 50, 0},
		{"single value", []float64{7}, 10, 7},
		{"median of even count interpolates", []float64{1, 2, 3, 4}, 50, 2.5},
		{"p10 interpolates fractionally", []float64{1, 2, 3, 4}, 10, 1.3},
		{"p0 is the minimum", []float64{5, 1, 9}, 0, 1},
		{"p100 is the maximum", []float64{5, 1, 9}, 100, 9},
		{"unsorted input", []float64{9, 1, 5}, 50, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentile(decimals(tt.values...), tt.p)
			assert.True(t, got.Sub(decimal.NewFromFloat(tt.expected)).Abs().LessThan(d(1e-9)),
				"expected %v, got %s", tt.expected, got)
		})
	}
}

func TestPercentileDoesNotMutateInput(t *testing.T) {
	values := decimals(3, 1, 2)
	percentile(values, 50)
	assert.True(t, values[0].Equal(d(3)), "input order must be preserved")
}

func TestPercentileLaw(t *testing.T) {
	smp := newSampler(stochasticInputs(), 41)
	var values []decimal.Decimal
	for i := 0; i < 500; i++ {
		values = append(values, smp.draw(i, 0).isaReturn)
	}
	p10 := percentile(values, 10)
	p50 := percentile(values, 50)
	require.True(t, p10.LessThanOrEqual(p50), "P10 %s must not exceed P50 %s", p10, p50)
}

func successResult(terminal float64) scenarioResult {
	return scenarioResult{
		success:  true,
		terminal: accountSnapshot{total: decimal.NewFromFloat(terminal)},
	}
}

func failedResult() scenarioResult {
	return scenarioResult{success: false}
}

func TestSelectTraceScenarioPicksNearestToMedian(t *testing.T) {
	stats := newAgeScenarioStats([]scenarioResult{
		successResult(100),
		successResult(200),
		successResult(300),
		successResult(400),
		successResult(500),
	})
	// P50 of five values is 300, scenario 2.
	assert.Equal(t, 2, selectTraceScenario(stats))
}

func TestSelectTraceScenarioIgnoresFailures(t *testing.T) {
	stats := newAgeScenarioStats([]scenarioResult{
		failedResult(),
		successResult(100),
		failedResult(),
		successResult(300),
	})
	// Median of {100, 300} is 200; both candidates are 100 away, so the
	// smaller index wins.
	assert.Equal(t, 1, selectTraceScenario(stats))
}

func TestSelectTraceScenarioAllFailedFallsBack(t *testing.T) {
	stats := newAgeScenarioStats([]scenarioResult{failedResult(), failedResult()})
	assert.Equal(t, 0, selectTraceScenario(stats))
}

func TestBuildAgeResultSuccessRate(t *testing.T) {
	results := []scenarioResult{
		successResult(100), successResult(200), failedResult(), failedResult(),
	}
	r := buildAgeResult(55, results)
	assert.Equal(t, 55, r.RetirementAge)
	assert.True(t, r.SuccessRate.Equal(d(0.5)), "rate %s", r.SuccessRate)
	// Failed scenarios contribute zero terminals, dragging P10 to zero.
	assert.True(t, r.P10TerminalTotal.LessThanOrEqual(r.MedianTerminalTotal))
}
