package simulation

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/RickyBoyd/fire/internal/domain"
)

// contributionMix is the ratio the solver splits a candidate total
// contribution by, taken from the user's current plan.
type contributionMix struct {
	isa     decimal.Decimal
	taxable decimal.Decimal
	pension decimal.Decimal
	total   decimal.Decimal
}

func newContributionMix(in *domain.Inputs) contributionMix {
	isa := decimal.Max(in.IsaContribution, decimal.Zero)
	taxable := decimal.Max(in.TaxableContribution, decimal.Zero)
	pension := decimal.Max(in.PensionContribution, decimal.Zero)
	return contributionMix{
		isa:     isa,
		taxable: taxable,
		pension: pension,
		total:   isa.Add(taxable).Add(pension),
	}
}

// splitForTotal allocates a candidate total across accounts by the current
// plan's ratio, or equal thirds when the plan contributes nothing anywhere.
func (m contributionMix) splitForTotal(total decimal.Decimal) domain.ContributionSplit {
	total = decimal.Max(total, decimal.Zero)
	if m.total.LessThanOrEqual(eps) {
		third := total.Div(decimal.NewFromInt(3))
		return domain.ContributionSplit{Isa: third, Taxable: third, Pension: third}
	}
	scale := total.Div(m.total)
	return domain.ContributionSplit{
		Isa:     m.isa.Mul(scale),
		Taxable: m.taxable.Mul(scale),
		Pension: m.pension.Mul(scale),
	}
}

type candidateEval struct {
	successRate decimal.Decimal
	ciHalfWidth decimal.Decimal
}

// binomialCIHalfWidth is the 95% normal-approximation half-width for a
// success proportion estimated from n simulations.
func binomialCIHalfWidth(p decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	pf := clampFloat(p.InexactFloat64(), 0, 1)
	return decimal.NewFromFloat(1.96 * math.Sqrt(pf*(1.0-pf)/float64(n)))
}

// evaluateGoalCandidate probes one candidate value at the target retirement
// age with a reduced simulation count.
func (e *Engine) evaluateGoalCandidate(cfg domain.GoalSolveConfig, candidate decimal.Decimal, mix contributionMix, simulations int) candidateEval {
	probeInputs := *e.inputs
	probeInputs.Simulations = simulations

	switch cfg.GoalType {
	case domain.GoalRequiredContribution:
		split := mix.splitForTotal(candidate)
		probeInputs.IsaContribution = split.Isa
		probeInputs.TaxableContribution = split.Taxable
		probeInputs.PensionContribution = split.Pension
	case domain.GoalMaxIncome:
		probeInputs.TargetAnnualIncome = decimal.Max(candidate, decimal.Zero)
	}

	probe := &Engine{inputs: &probeInputs, logger: e.logger, workers: e.workers}
	result, _ := probe.evaluateAge(cfg.TargetRetirementAge, cfg.TargetRetirementAge, cfg.TargetRetirementAge, simulations)
	return candidateEval{
		successRate: result.SuccessRate,
		ciHalfWidth: binomialCIHalfWidth(result.SuccessRate, simulations),
	}
}

func validateGoalConfig(in *domain.Inputs, cfg domain.GoalSolveConfig) error {
	if !cfg.GoalType.Valid() {
		return &domain.ValidationError{Field: "goal_type", Message: fmt.Sprintf("unknown goal type %q", cfg.GoalType)}
	}
	if cfg.TargetRetirementAge < in.CurrentAge {
		return &domain.ValidationError{Field: "target_retirement_age", Message: "must be >= current_age"}
	}
	if cfg.TargetRetirementAge >= in.HorizonAge {
		return &domain.ValidationError{Field: "target_retirement_age", Message: "must be < horizon_age"}
	}
	if cfg.TargetSuccessThreshold.IsNegative() || cfg.TargetSuccessThreshold.GreaterThan(one) {
		return &domain.ValidationError{Field: "target_success_threshold", Message: "must be between 0 and 1"}
	}
	if cfg.SearchMax.LessThanOrEqual(cfg.SearchMin) {
		return &domain.ValidationError{Field: "search_max", Message: "must be greater than search_min"}
	}
	if cfg.Tolerance.Sign() <= 0 {
		return &domain.ValidationError{Field: "tolerance", Message: "must be > 0"}
	}
	if cfg.MaxIterations <= 0 {
		return &domain.ValidationError{Field: "max_iterations", Message: "must be > 0"}
	}
	if cfg.SimulationsPerIteration <= 0 {
		return &domain.ValidationError{Field: "simulations_per_iteration", Message: "must be > 0"}
	}
	if cfg.FinalSimulations <= 0 {
		return &domain.ValidationError{Field: "final_simulations", Message: "must be > 0"}
	}
	return nil
}

// SolveGoal bisects the goal scalar until the success rate at the target
// retirement age crosses the threshold: required-contribution moves success
// up with the scalar, max-income moves it down. Probes run with the reduced
// per-iteration simulation count; the converged candidate is confirmed at
// the full count. Infeasibility and non-convergence are reported in the
// result, not as errors.
func (e *Engine) SolveGoal(ctx context.Context, cfg domain.GoalSolveConfig) (*domain.GoalSolveResult, error) {
	if err := validateGoalConfig(e.inputs, cfg); err != nil {
		return nil, err
	}

	mix := newContributionMix(e.inputs)
	result := &domain.GoalSolveResult{GoalSolveConfig: cfg}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("goal solve aborted: %w", err)
	}
	lowEval := e.evaluateGoalCandidate(cfg, cfg.SearchMin, mix, cfg.SimulationsPerIteration)
	highEval := e.evaluateGoalCandidate(cfg, cfg.SearchMax, mix, cfg.SimulationsPerIteration)

	meets := func(rate decimal.Decimal) bool {
		return rate.Add(eps).GreaterThanOrEqual(cfg.TargetSuccessThreshold)
	}

	var solved *decimal.Decimal
	switch cfg.GoalType {
	case domain.GoalRequiredContribution:
		switch {
		case meets(lowEval.successRate):
			v := cfg.SearchMin
			solved = &v
			result.Converged = true
			result.Feasible = true
			result.Message = "Already meets target at lower contribution bound."
		case !meets(highEval.successRate):
			result.Feasible = false
			result.Message = "No feasible contribution found within the search bounds."
		default:
			solved = e.bisectGoal(ctx, cfg, mix, result, true)
			result.Feasible = true
		}
	case domain.GoalMaxIncome:
		switch {
		case !meets(lowEval.successRate):
			result.Feasible = false
			result.Message = "No feasible income found within the search bounds."
		case meets(highEval.successRate):
			v := cfg.SearchMax
			solved = &v
			result.Converged = true
			result.Feasible = true
			result.Message = "Upper income bound is still feasible; increase search max for a higher target."
		default:
			solved = e.bisectGoal(ctx, cfg, mix, result, false)
			result.Feasible = true
		}
	}

	if solved != nil {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("goal solve aborted before confirmation: %w", err)
		}
		confirmation := e.evaluateGoalCandidate(cfg, *solved, mix, cfg.FinalSimulations)
		result.SolvedValue = solved
		result.AchievedSuccessRate = &confirmation.successRate
		result.AchievedSuccessCI = &confirmation.ciHalfWidth
		if cfg.GoalType == domain.GoalRequiredContribution {
			split := mix.splitForTotal(*solved)
			result.SolvedContributions = &split
		}
	}
	return result, nil
}

// bisectGoal narrows [SearchMin, SearchMax] preserving the invariant that one
// endpoint meets the threshold and the other does not. For
// required-contribution the meeting endpoint is the upper one; for max-income
// it is the lower one, and the returned value is that endpoint.
func (e *Engine) bisectGoal(ctx context.Context, cfg domain.GoalSolveConfig, mix contributionMix, result *domain.GoalSolveResult, contributionGoal bool) *decimal.Decimal {
	lo := cfg.SearchMin
	hi := cfg.SearchMax

	for it := 1; it <= cfg.MaxIterations; it++ {
		if ctx.Err() != nil {
			break
		}
		mid := lo.Add(hi).Div(two)
		eval := e.evaluateGoalCandidate(cfg, mid, mix, cfg.SimulationsPerIteration)
		result.Iterations = append(result.Iterations, domain.GoalSolveIteration{
			Iteration:          it,
			LowerBound:         lo,
			UpperBound:         hi,
			CandidateValue:     mid,
			SuccessRate:        eval.successRate,
			SuccessCIHalfWidth: eval.ciHalfWidth,
		})
		e.logger.Debug().
			Int("iteration", it).
			Str("candidate", mid.StringFixed(2)).
			Str("success_rate", eval.successRate.StringFixed(4)).
			Msg("goal solver probe")

		meetsTarget := eval.successRate.Add(eps).GreaterThanOrEqual(cfg.TargetSuccessThreshold)
		if contributionGoal {
			if meetsTarget {
				hi = mid
			} else {
				lo = mid
			}
		} else {
			if meetsTarget {
				lo = mid
			} else {
				hi = mid
			}
		}

		if hi.Sub(lo).Abs().LessThanOrEqual(cfg.Tolerance) {
			result.Converged = true
			break
		}
	}

	var solved decimal.Decimal
	if contributionGoal {
		solved = hi
	} else {
		solved = lo
	}
	if result.Converged {
		if contributionGoal {
			result.Message = "Solved required contribution."
		} else {
			result.Message = "Solved maximum sustainable income."
		}
	} else {
		result.Message = "Reached max iterations before tolerance was met; returning best estimate."
	}
	return &solved
}
