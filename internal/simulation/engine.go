package simulation

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"github.com/RickyBoyd/fire/internal/domain"
)

// Engine runs the Monte Carlo model for one frozen set of inputs. Scenarios
// fan out across a fixed-size worker pool; because every random draw is a
// pure function of its coordinates, results are identical for any worker
// count. Cancellation is checked before each candidate age.
type Engine struct {
	inputs  *domain.Inputs
	logger  zerolog.Logger
	workers int
}

// NewEngine validates the inputs and returns an engine sized to the machine.
func NewEngine(in *domain.Inputs) (*Engine, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		inputs:  in,
		logger:  zerolog.Nop(),
		workers: runtime.NumCPU(),
	}, nil
}

// SetLogger replaces the engine's logger (no-op by default).
func (e *Engine) SetLogger(l zerolog.Logger) { e.logger = l }

// SetWorkers overrides the worker pool size. Values below 1 reset it to the
// machine's parallelism.
func (e *Engine) SetWorkers(n int) {
	if n < 1 {
		n = runtime.NumCPU()
	}
	e.workers = n
}

// evaluateAge runs every scenario for one candidate age and aggregates them.
// The slim per-scenario stats come back alongside so the caller can select a
// trace scenario later without re-simulating the whole age.
func (e *Engine) evaluateAge(retirementAge, contributionStopAge, reportedAge, simulations int) (domain.AgeResult, ageScenarioStats) {
	smp := newSampler(e.inputs, reportedAge)
	results := make([]scenarioResult, simulations)

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, e.workers)
	for i := 0; i < simulations; i++ {
		wg.Add(1)
		go func(scenario int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[scenario] = simulateScenario(e.inputs, smp, retirementAge, contributionStopAge, scenario, nil)
		}(i)
	}
	wg.Wait()

	return buildAgeResult(reportedAge, results), newAgeScenarioStats(results)
}

// traceScenario replays one scenario with cashflow recording on. Determinism
// of the draw coordinates guarantees the replay matches the original run.
func (e *Engine) traceScenario(retirementAge, contributionStopAge, reportedAge, scenario int) []domain.CashflowYear {
	smp := newSampler(e.inputs, reportedAge)
	trace := make([]domain.CashflowYear, 0, e.inputs.HorizonAge-e.inputs.CurrentAge)
	simulateScenario(e.inputs, smp, retirementAge, contributionStopAge, scenario, &trace)
	return trace
}

// RunRetirementSweep evaluates every candidate retirement age from the
// current age through the configured maximum.
func (e *Engine) RunRetirementSweep(ctx context.Context) (*domain.ModelResult, error) {
	ages, stats, err := e.sweep(ctx, e.inputs.CurrentAge, e.inputs.MaxRetirementAge, func(candidate int) (int, int) {
		return candidate, candidate
	})
	if err != nil {
		return nil, err
	}
	result := e.buildModelResult(domain.ModeRetirementSweep, nil, ages, stats, func(candidate int) (int, int) {
		return candidate, candidate
	})
	return result, nil
}

// RunCoast evaluates contribution-stop ages for a coast-FIRE plan. When no
// target retirement age is supplied, a retirement sweep runs first and its
// best age becomes the target.
func (e *Engine) RunCoast(ctx context.Context, coastRetirementAge *int) (*domain.ModelResult, error) {
	target := 0
	if coastRetirementAge != nil {
		target = *coastRetirementAge
	} else {
		baseline, err := e.RunRetirementSweep(ctx)
		if err != nil {
			return nil, err
		}
		target = baseline.BestAge
		e.logger.Debug().Int("target_age", target).Msg("coast target adopted from retirement sweep")
	}
	if target < e.inputs.CurrentAge || target >= e.inputs.HorizonAge {
		return nil, &domain.ValidationError{Field: "coast_retirement_age", Message: "must be within [current_age, horizon_age)"}
	}

	ages, stats, err := e.sweep(ctx, e.inputs.CurrentAge, target, func(candidate int) (int, int) {
		return target, candidate
	})
	if err != nil {
		return nil, err
	}
	result := e.buildModelResult(domain.ModeCoastFire, &target, ages, stats, func(candidate int) (int, int) {
		return target, candidate
	})
	return result, nil
}

// sweep evaluates each candidate in [first, last], mapping a candidate to its
// (retirementAge, contributionStopAge) pair through ages.
func (e *Engine) sweep(ctx context.Context, first, last int, ages func(candidate int) (int, int)) ([]domain.AgeResult, []ageScenarioStats, error) {
	var ageResults []domain.AgeResult
	var stats []ageScenarioStats

	for candidate := first; candidate <= last; candidate++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("sweep aborted before age %d: %w", candidate, err)
		}
		retirementAge, stopAge := ages(candidate)
		result, scenarios := e.evaluateAge(retirementAge, stopAge, candidate, e.inputs.Simulations)
		e.logger.Debug().
			Int("candidate_age", candidate).
			Str("success_rate", result.SuccessRate.StringFixed(4)).
			Msg("candidate age evaluated")
		ageResults = append(ageResults, result)
		stats = append(stats, scenarios)
	}
	return ageResults, stats, nil
}

// buildModelResult derives selected/best ages and attaches the median-outcome
// cashflow trace for the selected (or best) candidate.
func (e *Engine) buildModelResult(
	mode domain.AnalysisMode,
	coastTarget *int,
	ageResults []domain.AgeResult,
	stats []ageScenarioStats,
	ages func(candidate int) (int, int),
) *domain.ModelResult {
	var selected *int
	bestIndex := 0
	for i, r := range ageResults {
		if selected == nil && r.SuccessRate.GreaterThanOrEqual(e.inputs.SuccessThreshold) {
			age := r.RetirementAge
			selected = &age
		}
		if r.SuccessRate.GreaterThan(ageResults[bestIndex].SuccessRate) {
			bestIndex = i
		}
	}

	traceIndex := bestIndex
	if selected != nil {
		traceIndex = *selected - ageResults[0].RetirementAge
	}
	candidate := ageResults[traceIndex].RetirementAge
	retirementAge, stopAge := ages(candidate)
	scenario := selectTraceScenario(stats[traceIndex])

	return &domain.ModelResult{
		Mode:             mode,
		Policy:           e.inputs.Policy,
		CoastTargetAge:   coastTarget,
		SuccessThreshold: e.inputs.SuccessThreshold,
		SelectedAge:      selected,
		BestAge:          ageResults[bestIndex].RetirementAge,
		AgeResults:       ageResults,
		Cashflow: domain.CashflowTrace{
			CandidateAge:        candidate,
			RetirementAge:       retirementAge,
			ContributionStopAge: stopAge,
			Years:               e.traceScenario(retirementAge, stopAge, candidate, scenario),
		},
	}
}
