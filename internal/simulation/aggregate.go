package simulation

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/RickyBoyd/fire/internal/domain"
)

// percentile computes the p-th percentile of values by fractional-rank linear
// interpolation over an ascending sort. The input slice is not modified.
func percentile(values []decimal.Decimal, p float64) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}

	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	rank := (p / 100.0) * float64(n-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	w := decimal.NewFromFloat(rank - float64(lower))
	return sorted[lower].Mul(one.Sub(w)).Add(sorted[upper].Mul(w))
}

// buildAgeResult aggregates one candidate age's scenarios into success rate
// and P50/P10 statistics.
func buildAgeResult(reportedAge int, results []scenarioResult) domain.AgeResult {
	n := len(results)
	successes := 0

	retirementTotal := make([]decimal.Decimal, n)
	retirementIsa := make([]decimal.Decimal, n)
	retirementTaxable := make([]decimal.Decimal, n)
	retirementPension := make([]decimal.Decimal, n)
	retirementCash := make([]decimal.Decimal, n)
	retirementLadder := make([]decimal.Decimal, n)
	terminalTotal := make([]decimal.Decimal, n)
	terminalIsa := make([]decimal.Decimal, n)
	terminalTaxable := make([]decimal.Decimal, n)
	terminalPension := make([]decimal.Decimal, n)
	terminalCash := make([]decimal.Decimal, n)
	terminalLadder := make([]decimal.Decimal, n)
	minRatios := make([]decimal.Decimal, n)
	avgRatios := make([]decimal.Decimal, n)

	for i, r := range results {
		if r.success {
			successes++
		}
		retirementTotal[i] = r.retirement.total
		retirementIsa[i] = r.retirement.isa
		retirementTaxable[i] = r.retirement.taxable
		retirementPension[i] = r.retirement.pension
		retirementCash[i] = r.retirement.cash
		retirementLadder[i] = r.retirement.bondLadder
		terminalTotal[i] = r.terminal.total
		terminalIsa[i] = r.terminal.isa
		terminalTaxable[i] = r.terminal.taxable
		terminalPension[i] = r.terminal.pension
		terminalCash[i] = r.terminal.cash
		terminalLadder[i] = r.terminal.bondLadder
		minRatios[i] = r.minIncomeRatio
		avgRatios[i] = r.avgIncomeRatio
	}

	return domain.AgeResult{
		RetirementAge: reportedAge,
		SuccessRate:   decimal.NewFromInt(int64(successes)).Div(decimal.NewFromInt(int64(n))),

		MedianRetirementTotal:      percentile(retirementTotal, 50),
		P10RetirementTotal:         percentile(retirementTotal, 10),
		MedianRetirementIsa:        percentile(retirementIsa, 50),
		P10RetirementIsa:           percentile(retirementIsa, 10),
		MedianRetirementTaxable:    percentile(retirementTaxable, 50),
		P10RetirementTaxable:       percentile(retirementTaxable, 10),
		MedianRetirementPension:    percentile(retirementPension, 50),
		P10RetirementPension:       percentile(retirementPension, 10),
		MedianRetirementCash:       percentile(retirementCash, 50),
		P10RetirementCash:          percentile(retirementCash, 10),
		MedianRetirementBondLadder: percentile(retirementLadder, 50),
		P10RetirementBondLadder:    percentile(retirementLadder, 10),

		MedianTerminalTotal:      percentile(terminalTotal, 50),
		P10TerminalTotal:         percentile(terminalTotal, 10),
		MedianTerminalIsa:        percentile(terminalIsa, 50),
		P10TerminalIsa:           percentile(terminalIsa, 10),
		MedianTerminalTaxable:    percentile(terminalTaxable, 50),
		P10TerminalTaxable:       percentile(terminalTaxable, 10),
		MedianTerminalPension:    percentile(terminalPension, 50),
		P10TerminalPension:       percentile(terminalPension, 10),
		MedianTerminalCash:       percentile(terminalCash, 50),
		P10TerminalCash:          percentile(terminalCash, 10),
		MedianTerminalBondLadder: percentile(terminalLadder, 50),
		P10TerminalBondLadder:    percentile(terminalLadder, 10),

		P10MinIncomeRatio:    percentile(minRatios, 10),
		MedianAvgIncomeRatio: percentile(avgRatios, 50),
	}
}

// ageScenarioStats is the slim per-age record kept after aggregation so the
// trace scenario can be selected once the sweep finishes.
type ageScenarioStats struct {
	successes      []bool
	terminalTotals []decimal.Decimal
}

func newAgeScenarioStats(results []scenarioResult) ageScenarioStats {
	stats := ageScenarioStats{
		successes:      make([]bool, len(results)),
		terminalTotals: make([]decimal.Decimal, len(results)),
	}
	for i, r := range results {
		stats.successes[i] = r.success
		stats.terminalTotals[i] = r.terminal.total
	}
	return stats
}

// selectTraceScenario picks the scenario whose cashflow illustrates the
// median outcome: among successful scenarios, the one whose terminal total is
// nearest the P50 terminal total, smaller index on ties. With no successes it
// falls back to scenario 0, which shows a representative failure path.
func selectTraceScenario(stats ageScenarioStats) int {
	var successTotals []decimal.Decimal
	for i, total := range stats.terminalTotals {
		if stats.successes[i] {
			successTotals = append(successTotals, total)
		}
	}
	if len(successTotals) == 0 {
		return 0
	}

	p50 := percentile(successTotals, 50)
	best := -1
	var bestDistance decimal.Decimal
	for i, total := range stats.terminalTotals {
		if !stats.successes[i] {
			continue
		}
		distance := total.Sub(p50).Abs()
		if best < 0 || distance.LessThan(bestDistance) {
			best = i
			bestDistance = distance
		}
	}
	return best
}
