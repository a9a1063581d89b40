package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports an input that violates a model invariant. It is the
// only error kind the engine produces before simulating; the calling harness
// maps it to its own status codes.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Message)
}

func validationf(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AgeResult summarizes all Monte Carlo scenarios for one candidate age.
// Every monetary field is real (deflated by each scenario's price index
// before aggregation). Percentiles use linear interpolation.
type AgeResult struct {
	RetirementAge int             `json:"retirement_age"`
	SuccessRate   decimal.Decimal `json:"success_rate"`

	MedianRetirementTotal      decimal.Decimal `json:"median_retirement_total"`
	P10RetirementTotal         decimal.Decimal `json:"p10_retirement_total"`
	MedianRetirementIsa        decimal.Decimal `json:"median_retirement_isa"`
	P10RetirementIsa           decimal.Decimal `json:"p10_retirement_isa"`
	MedianRetirementTaxable    decimal.Decimal `json:"median_retirement_taxable"`
	P10RetirementTaxable       decimal.Decimal `json:"p10_retirement_taxable"`
	MedianRetirementPension    decimal.Decimal `json:"median_retirement_pension"`
	P10RetirementPension       decimal.Decimal `json:"p10_retirement_pension"`
	MedianRetirementCash       decimal.Decimal `json:"median_retirement_cash"`
	P10RetirementCash          decimal.Decimal `json:"p10_retirement_cash"`
	MedianRetirementBondLadder decimal.Decimal `json:"median_retirement_bond_ladder"`
	P10RetirementBondLadder    decimal.Decimal `json:"p10_retirement_bond_ladder"`

	MedianTerminalTotal      decimal.Decimal `json:"median_terminal_total"`
	P10TerminalTotal         decimal.Decimal `json:"p10_terminal_total"`
	MedianTerminalIsa        decimal.Decimal `json:"median_terminal_isa"`
	P10TerminalIsa           decimal.Decimal `json:"p10_terminal_isa"`
	MedianTerminalTaxable    decimal.Decimal `json:"median_terminal_taxable"`
	P10TerminalTaxable       decimal.Decimal `json:"p10_terminal_taxable"`
	MedianTerminalPension    decimal.Decimal `json:"median_terminal_pension"`
	P10TerminalPension       decimal.Decimal `json:"p10_terminal_pension"`
	MedianTerminalCash       decimal.Decimal `json:"median_terminal_cash"`
	P10TerminalCash          decimal.Decimal `json:"p10_terminal_cash"`
	MedianTerminalBondLadder decimal.Decimal `json:"median_terminal_bond_ladder"`
	P10TerminalBondLadder    decimal.Decimal `json:"p10_terminal_bond_ladder"`

	P10MinIncomeRatio    decimal.Decimal `json:"p10_min_income_ratio"`
	MedianAvgIncomeRatio decimal.Decimal `json:"median_avg_income_ratio"`
}

// CashflowYear is one year of the illustrative cashflow trace, in real terms.
type CashflowYear struct {
	Age                 int             `json:"age"`
	ContributionIsa     decimal.Decimal `json:"contribution_isa"`
	ContributionTaxable decimal.Decimal `json:"contribution_taxable"`
	ContributionPension decimal.Decimal `json:"contribution_pension"`
	ContributionTotal   decimal.Decimal `json:"contribution_total"`
	WithdrawalPortfolio decimal.Decimal `json:"withdrawal_portfolio"`
	StatePensionNet     decimal.Decimal `json:"state_pension_net"`
	SpendingTotal       decimal.Decimal `json:"spending_total"`
	TaxCapitalGains     decimal.Decimal `json:"tax_capital_gains"`
	TaxIncome           decimal.Decimal `json:"tax_income"`
	TaxTotal            decimal.Decimal `json:"tax_total"`
	EndIsa              decimal.Decimal `json:"end_isa"`
	EndTaxable          decimal.Decimal `json:"end_taxable"`
	EndPension          decimal.Decimal `json:"end_pension"`
	EndCash             decimal.Decimal `json:"end_cash"`
	EndBondLadder       decimal.Decimal `json:"end_bond_ladder"`
	EndTotal            decimal.Decimal `json:"end_total"`
}

// CashflowTrace is the per-year record of the median-outcome scenario for the
// selected (or best) candidate age.
type CashflowTrace struct {
	CandidateAge        int            `json:"candidate_age"`
	RetirementAge       int            `json:"retirement_age"`
	ContributionStopAge int            `json:"contribution_stop_age"`
	Years               []CashflowYear `json:"years"`
}

// ModelResult is the complete outcome of a sweep. AgeResults are ordered by
// candidate age ascending. SelectedAge is the earliest candidate meeting the
// success threshold, nil when none does; BestAge is the argmax success rate
// with ties broken toward the smallest age.
type ModelResult struct {
	Mode             AnalysisMode     `json:"mode"`
	Policy           WithdrawalPolicy `json:"withdrawal_policy"`
	CoastTargetAge   *int             `json:"coast_target_age,omitempty"`
	SuccessThreshold decimal.Decimal  `json:"success_threshold"`
	SelectedAge      *int             `json:"selected_age,omitempty"`
	BestAge          int              `json:"best_age"`
	AgeResults       []AgeResult      `json:"age_results"`
	Cashflow         CashflowTrace    `json:"cashflow"`
}

// GoalSolveConfig drives the bisection goal solver.
type GoalSolveConfig struct {
	GoalType                GoalType        `yaml:"goal_type" json:"goal_type"`
	TargetRetirementAge     int             `yaml:"target_retirement_age" json:"target_retirement_age"`
	TargetSuccessThreshold  decimal.Decimal `yaml:"target_success_threshold" json:"target_success_threshold"`
	SearchMin               decimal.Decimal `yaml:"search_min" json:"search_min"`
	SearchMax               decimal.Decimal `yaml:"search_max" json:"search_max"`
	Tolerance               decimal.Decimal `yaml:"tolerance" json:"tolerance"`
	MaxIterations           int             `yaml:"max_iterations" json:"max_iterations"`
	SimulationsPerIteration int             `yaml:"simulations_per_iteration" json:"simulations_per_iteration"`
	FinalSimulations        int             `yaml:"final_simulations" json:"final_simulations"`
}

// GoalSolveIteration records one bisection probe.
type GoalSolveIteration struct {
	Iteration          int             `json:"iteration"`
	LowerBound         decimal.Decimal `json:"lower_bound"`
	UpperBound         decimal.Decimal `json:"upper_bound"`
	CandidateValue     decimal.Decimal `json:"candidate_value"`
	SuccessRate        decimal.Decimal `json:"success_rate"`
	SuccessCIHalfWidth decimal.Decimal `json:"success_ci_half_width"`
}

// ContributionSplit is the per-account allocation of a solved total
// contribution, in today's money.
type ContributionSplit struct {
	Isa     decimal.Decimal `json:"isa"`
	Taxable decimal.Decimal `json:"taxable"`
	Pension decimal.Decimal `json:"pension"`
}

// GoalSolveResult reports the solver outcome. Feasible=false means the search
// bounds did not bracket the threshold; Converged=false means MaxIterations
// ran out first. Neither is an error.
type GoalSolveResult struct {
	GoalSolveConfig

	SolvedValue         *decimal.Decimal     `json:"solved_value,omitempty"`
	SolvedContributions *ContributionSplit   `json:"solved_contributions,omitempty"`
	AchievedSuccessRate *decimal.Decimal     `json:"achieved_success_rate,omitempty"`
	AchievedSuccessCI   *decimal.Decimal     `json:"achieved_success_ci_half_width,omitempty"`
	Iterations          []GoalSolveIteration `json:"iterations"`
	Converged           bool                 `json:"converged"`
	Feasible            bool                 `json:"feasible"`
	Message             string               `json:"message"`
}
