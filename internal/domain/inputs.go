package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// WithdrawalPolicy selects the dynamic spending rule applied during retirement.
type WithdrawalPolicy string

const (
	PolicyGuardrails    WithdrawalPolicy = "guardrails"
	PolicyGuytonKlinger WithdrawalPolicy = "guyton-klinger"
	PolicyVPW           WithdrawalPolicy = "vpw"
	PolicyFloorUpside   WithdrawalPolicy = "floor-upside"
	PolicyBucket        WithdrawalPolicy = "bucket"
)

// Valid reports whether the policy is one of the wire-stable identifiers.
func (p WithdrawalPolicy) Valid() bool {
	switch p {
	case PolicyGuardrails, PolicyGuytonKlinger, PolicyVPW, PolicyFloorUpside, PolicyBucket:
		return true
	}
	return false
}

// WithdrawalOrder selects the sequence in which investment accounts are tapped
// once cash and scheduled bond ladder maturities are exhausted.
type WithdrawalOrder string

const (
	OrderProRata         WithdrawalOrder = "pro-rata"
	OrderIsaFirst        WithdrawalOrder = "isa-first"
	OrderTaxableFirst    WithdrawalOrder = "taxable-first"
	OrderPensionFirst    WithdrawalOrder = "pension-first"
	OrderBondLadderFirst WithdrawalOrder = "bond-ladder-first"
)

// Valid reports whether the order is one of the wire-stable identifiers.
func (o WithdrawalOrder) Valid() bool {
	switch o {
	case OrderProRata, OrderIsaFirst, OrderTaxableFirst, OrderPensionFirst, OrderBondLadderFirst:
		return true
	}
	return false
}

// PensionTaxMode selects how pension and state-pension income is taxed.
type PensionTaxMode string

const (
	TaxModeFlat    PensionTaxMode = "flat"
	TaxModeUKBands PensionTaxMode = "uk-bands"
)

// Valid reports whether the mode is one of the wire-stable identifiers.
func (m PensionTaxMode) Valid() bool {
	return m == TaxModeFlat || m == TaxModeUKBands
}

// AnalysisMode selects between a retirement-age sweep and a coast-FIRE
// contribution-stop sweep.
type AnalysisMode string

const (
	ModeRetirementSweep AnalysisMode = "retirement-sweep"
	ModeCoastFire       AnalysisMode = "coast-fire"
)

// GoalType selects the scalar the goal solver bisects over.
type GoalType string

const (
	GoalRequiredContribution GoalType = "required-contribution"
	GoalMaxIncome            GoalType = "max-income"
)

// Valid reports whether the goal type is one of the wire-stable identifiers.
func (g GoalType) Valid() bool {
	return g == GoalRequiredContribution || g == GoalMaxIncome
}

// Inputs is the immutable description of one household model run. All rates
// are decimals (0.05 = 5%) and all monetary amounts are nominal at the start
// year unless a field says otherwise.
type Inputs struct {
	// Ages. CurrentAge <= MaxRetirementAge < HorizonAge.
	CurrentAge       int `yaml:"current_age" json:"current_age"`
	MaxRetirementAge int `yaml:"max_retirement_age" json:"max_retirement_age"`
	HorizonAge       int `yaml:"horizon_age" json:"horizon_age"`
	PensionAccessAge int `yaml:"pension_access_age" json:"pension_access_age"`

	// Starting balances.
	IsaStart          decimal.Decimal `yaml:"isa_start" json:"isa_start"`
	TaxableStart      decimal.Decimal `yaml:"taxable_start" json:"taxable_start"`
	TaxableBasisStart decimal.Decimal `yaml:"taxable_basis_start" json:"taxable_basis_start"`
	PensionStart      decimal.Decimal `yaml:"pension_start" json:"pension_start"`
	CashStart         decimal.Decimal `yaml:"cash_start" json:"cash_start"`
	BondLadderStart   decimal.Decimal `yaml:"bond_ladder_start" json:"bond_ladder_start"`

	// Contribution plan. Annual amounts in today's money, escalated by
	// ContributionGrowthRate each year until retirement (or the coast stop age).
	IsaContribution        decimal.Decimal `yaml:"isa_contribution" json:"isa_contribution"`
	IsaContributionLimit   decimal.Decimal `yaml:"isa_contribution_limit" json:"isa_contribution_limit"`
	TaxableContribution    decimal.Decimal `yaml:"taxable_contribution" json:"taxable_contribution"`
	PensionContribution    decimal.Decimal `yaml:"pension_contribution" json:"pension_contribution"`
	ContributionGrowthRate decimal.Decimal `yaml:"contribution_growth_rate" json:"contribution_growth_rate"`

	// Return model.
	IsaReturnMean        decimal.Decimal `yaml:"isa_return_mean" json:"isa_return_mean"`
	IsaReturnVol         decimal.Decimal `yaml:"isa_return_vol" json:"isa_return_vol"`
	TaxableReturnMean    decimal.Decimal `yaml:"taxable_return_mean" json:"taxable_return_mean"`
	TaxableReturnVol     decimal.Decimal `yaml:"taxable_return_vol" json:"taxable_return_vol"`
	PensionReturnMean    decimal.Decimal `yaml:"pension_return_mean" json:"pension_return_mean"`
	PensionReturnVol     decimal.Decimal `yaml:"pension_return_vol" json:"pension_return_vol"`
	ReturnCorrelation    decimal.Decimal `yaml:"return_correlation" json:"return_correlation"`
	InflationMean        decimal.Decimal `yaml:"inflation_mean" json:"inflation_mean"`
	InflationVol         decimal.Decimal `yaml:"inflation_vol" json:"inflation_vol"`
	CashGrowthRate       decimal.Decimal `yaml:"cash_growth_rate" json:"cash_growth_rate"`
	TaxableReturnTaxDrag decimal.Decimal `yaml:"taxable_return_tax_drag" json:"taxable_return_tax_drag"`

	// Bond ladder: grows at its own yield and matures in equal tranches over
	// BondLadderYears of retirement before acting as an emergency backstop.
	BondLadderYield decimal.Decimal `yaml:"bond_ladder_yield" json:"bond_ladder_yield"`
	BondLadderYears int             `yaml:"bond_ladder_years" json:"bond_ladder_years"`

	// Tax regime.
	PensionTaxMode        PensionTaxMode  `yaml:"pension_tax_mode" json:"pension_tax_mode"`
	PensionFlatTaxRate    decimal.Decimal `yaml:"pension_flat_tax_rate" json:"pension_flat_tax_rate"`
	PersonalAllowance     decimal.Decimal `yaml:"personal_allowance" json:"personal_allowance"`
	AllowanceTaperStart   decimal.Decimal `yaml:"allowance_taper_start" json:"allowance_taper_start"`
	AllowanceTaperEnd     decimal.Decimal `yaml:"allowance_taper_end" json:"allowance_taper_end"`
	BasicRateLimit        decimal.Decimal `yaml:"basic_rate_limit" json:"basic_rate_limit"`
	HigherRateLimit       decimal.Decimal `yaml:"higher_rate_limit" json:"higher_rate_limit"`
	BasicRate             decimal.Decimal `yaml:"basic_rate" json:"basic_rate"`
	HigherRate            decimal.Decimal `yaml:"higher_rate" json:"higher_rate"`
	AdditionalRate        decimal.Decimal `yaml:"additional_rate" json:"additional_rate"`
	CapitalGainsTaxRate   decimal.Decimal `yaml:"capital_gains_tax_rate" json:"capital_gains_tax_rate"`
	CapitalGainsAllowance decimal.Decimal `yaml:"capital_gains_allowance" json:"capital_gains_allowance"`

	// State pension and mortgage.
	StatePensionStartAge  int             `yaml:"state_pension_start_age" json:"state_pension_start_age"`
	StatePensionIncome    decimal.Decimal `yaml:"state_pension_income" json:"state_pension_income"`
	MortgageAnnualPayment decimal.Decimal `yaml:"mortgage_annual_payment" json:"mortgage_annual_payment"`
	MortgageEndAge        int             `yaml:"mortgage_end_age" json:"mortgage_end_age"`

	// Spending target and policy parameters. TargetAnnualIncome is real
	// (today's money); floors and ceilings are multipliers on it.
	TargetAnnualIncome  decimal.Decimal  `yaml:"target_annual_income" json:"target_annual_income"`
	Policy              WithdrawalPolicy `yaml:"withdrawal_policy" json:"withdrawal_policy"`
	Order               WithdrawalOrder  `yaml:"withdrawal_order" json:"withdrawal_order"`
	BadYearThreshold    decimal.Decimal  `yaml:"bad_year_threshold" json:"bad_year_threshold"`
	GoodYearThreshold   decimal.Decimal  `yaml:"good_year_threshold" json:"good_year_threshold"`
	BadYearCut          decimal.Decimal  `yaml:"bad_year_cut" json:"bad_year_cut"`
	GoodYearRaise       decimal.Decimal  `yaml:"good_year_raise" json:"good_year_raise"`
	MinIncomeFloor      decimal.Decimal  `yaml:"min_income_floor" json:"min_income_floor"`
	MaxIncomeCeiling    decimal.Decimal  `yaml:"max_income_ceiling" json:"max_income_ceiling"`
	GKLowerGuardrail    decimal.Decimal  `yaml:"gk_lower_guardrail" json:"gk_lower_guardrail"`
	GKUpperGuardrail    decimal.Decimal  `yaml:"gk_upper_guardrail" json:"gk_upper_guardrail"`
	VPWRealReturn       decimal.Decimal  `yaml:"vpw_real_return" json:"vpw_real_return"`
	FloorUpsideCapture  decimal.Decimal  `yaml:"floor_upside_capture" json:"floor_upside_capture"`
	BucketTargetYears   decimal.Decimal  `yaml:"bucket_target_years" json:"bucket_target_years"`
	GoodYearExtraToCash decimal.Decimal  `yaml:"good_year_extra_to_cash" json:"good_year_extra_to_cash"`

	// Monte Carlo controls.
	Simulations      int             `yaml:"simulations" json:"simulations"`
	SuccessThreshold decimal.Decimal `yaml:"success_threshold" json:"success_threshold"`
	Seed             uint64          `yaml:"seed" json:"seed"`
}

// Validate checks the invariants every run relies on. It returns a
// *ValidationError naming the offending field; the engine refuses to simulate
// with invalid inputs.
func (in *Inputs) Validate() error {
	if in.CurrentAge <= 0 {
		return validationf("current_age", "must be positive")
	}
	if in.MaxRetirementAge < in.CurrentAge {
		return validationf("max_retirement_age", "must be >= current_age")
	}
	if in.HorizonAge <= in.MaxRetirementAge {
		return validationf("horizon_age", "must be > max_retirement_age")
	}
	if in.PensionAccessAge < in.CurrentAge {
		return validationf("pension_access_age", "must be >= current_age")
	}
	for _, b := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"isa_start", in.IsaStart},
		{"taxable_start", in.TaxableStart},
		{"taxable_basis_start", in.TaxableBasisStart},
		{"pension_start", in.PensionStart},
		{"cash_start", in.CashStart},
		{"bond_ladder_start", in.BondLadderStart},
		{"isa_contribution_limit", in.IsaContributionLimit},
		{"target_annual_income", in.TargetAnnualIncome},
		{"state_pension_income", in.StatePensionIncome},
		{"mortgage_annual_payment", in.MortgageAnnualPayment},
		{"capital_gains_allowance", in.CapitalGainsAllowance},
	} {
		if b.value.IsNegative() {
			return validationf(b.name, "cannot be negative")
		}
	}
	if in.TaxableBasisStart.GreaterThan(in.TaxableStart) {
		return validationf("taxable_basis_start", "cannot exceed taxable_start")
	}
	for _, r := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"return_correlation", in.ReturnCorrelation},
		{"pension_flat_tax_rate", in.PensionFlatTaxRate},
		{"basic_rate", in.BasicRate},
		{"higher_rate", in.HigherRate},
		{"additional_rate", in.AdditionalRate},
		{"capital_gains_tax_rate", in.CapitalGainsTaxRate},
		{"taxable_return_tax_drag", in.TaxableReturnTaxDrag},
		{"success_threshold", in.SuccessThreshold},
	} {
		if r.value.IsNegative() || r.value.GreaterThan(decimal.NewFromInt(1)) {
			return validationf(r.name, "must be between 0 and 1")
		}
	}
	if !in.Policy.Valid() {
		return validationf("withdrawal_policy", fmt.Sprintf("unknown policy %q", in.Policy))
	}
	if !in.Order.Valid() {
		return validationf("withdrawal_order", fmt.Sprintf("unknown order %q", in.Order))
	}
	if !in.PensionTaxMode.Valid() {
		return validationf("pension_tax_mode", fmt.Sprintf("unknown mode %q", in.PensionTaxMode))
	}
	if in.PensionTaxMode == TaxModeUKBands {
		if in.AllowanceTaperEnd.LessThan(in.AllowanceTaperStart) {
			return validationf("allowance_taper_end", "must be >= allowance_taper_start")
		}
		if in.HigherRateLimit.LessThan(in.BasicRateLimit) {
			return validationf("higher_rate_limit", "must be >= basic_rate_limit")
		}
	}
	if in.MinIncomeFloor.IsNegative() {
		return validationf("min_income_floor", "cannot be negative")
	}
	if in.MaxIncomeCeiling.LessThan(in.MinIncomeFloor) {
		return validationf("max_income_ceiling", "must be >= min_income_floor")
	}
	if in.BondLadderYears < 0 {
		return validationf("bond_ladder_years", "cannot be negative")
	}
	if in.Simulations < 1 {
		return validationf("simulations", "must be at least 1")
	}
	return nil
}
