package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/RickyBoyd/fire/internal/domain"
)

// InputParser handles parsing of model input files.
type InputParser struct{}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads inputs from a YAML file. Fields absent from the file
// keep their defaults, so a minimal config only needs balances and a target.
func (ip *InputParser) LoadFromFile(filename string) (*domain.Inputs, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	inputs := DefaultInputs()
	if err := yaml.Unmarshal(data, inputs); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := inputs.Validate(); err != nil {
		return nil, fmt.Errorf("input validation failed: %w", err)
	}
	return inputs, nil
}

// DefaultInputs returns the baseline UK assumptions a config file overrides:
// current tax bands and ISA limit, a 2.5% inflation world, and the guardrails
// policy with a pro-rata withdrawal order.
func DefaultInputs() *domain.Inputs {
	return &domain.Inputs{
		CurrentAge:       40,
		MaxRetirementAge: 75,
		HorizonAge:       95,
		PensionAccessAge: 57,

		IsaContributionLimit:   decimal.NewFromInt(20000),
		ContributionGrowthRate: decimal.Zero,

		IsaReturnMean:        decimal.NewFromFloat(0.08),
		IsaReturnVol:         decimal.NewFromFloat(0.12),
		TaxableReturnMean:    decimal.NewFromFloat(0.08),
		TaxableReturnVol:     decimal.NewFromFloat(0.12),
		PensionReturnMean:    decimal.NewFromFloat(0.08),
		PensionReturnVol:     decimal.NewFromFloat(0.12),
		ReturnCorrelation:    decimal.NewFromFloat(0.8),
		InflationMean:        decimal.NewFromFloat(0.025),
		InflationVol:         decimal.NewFromFloat(0.01),
		CashGrowthRate:       decimal.NewFromFloat(0.01),
		TaxableReturnTaxDrag: decimal.Zero,

		BondLadderYield: decimal.NewFromFloat(0.04),
		BondLadderYears: 10,

		PensionTaxMode:        domain.TaxModeUKBands,
		PensionFlatTaxRate:    decimal.NewFromFloat(0.20),
		PersonalAllowance:     decimal.NewFromInt(12570),
		AllowanceTaperStart:   decimal.NewFromInt(100000),
		AllowanceTaperEnd:     decimal.NewFromInt(125140),
		BasicRateLimit:        decimal.NewFromInt(50270),
		HigherRateLimit:       decimal.NewFromInt(125140),
		BasicRate:             decimal.NewFromFloat(0.20),
		HigherRate:            decimal.NewFromFloat(0.40),
		AdditionalRate:        decimal.NewFromFloat(0.45),
		CapitalGainsTaxRate:   decimal.NewFromFloat(0.20),
		CapitalGainsAllowance: decimal.NewFromInt(3000),

		StatePensionStartAge: 67,

		Policy:              domain.PolicyGuardrails,
		Order:               domain.OrderProRata,
		BadYearThreshold:    decimal.NewFromFloat(-0.05),
		GoodYearThreshold:   decimal.NewFromFloat(0.10),
		BadYearCut:          decimal.NewFromFloat(0.10),
		GoodYearRaise:       decimal.NewFromFloat(0.05),
		MinIncomeFloor:      decimal.NewFromFloat(0.80),
		MaxIncomeCeiling:    decimal.NewFromFloat(1.30),
		GKLowerGuardrail:    decimal.NewFromFloat(0.80),
		GKUpperGuardrail:    decimal.NewFromFloat(1.20),
		VPWRealReturn:       decimal.NewFromFloat(0.035),
		FloorUpsideCapture:  decimal.NewFromFloat(0.50),
		BucketTargetYears:   decimal.NewFromInt(2),
		GoodYearExtraToCash: decimal.NewFromFloat(0.10),

		Simulations:      10000,
		SuccessThreshold: decimal.NewFromFloat(0.90),
		Seed:             42,
	}
}

// CreateExampleInputs returns a worked example a new user can start from.
func (ip *InputParser) CreateExampleInputs() *domain.Inputs {
	inputs := DefaultInputs()
	inputs.IsaStart = decimal.NewFromInt(150000)
	inputs.TaxableStart = decimal.NewFromInt(40000)
	inputs.TaxableBasisStart = decimal.NewFromInt(30000)
	inputs.PensionStart = decimal.NewFromInt(250000)
	inputs.CashStart = decimal.NewFromInt(20000)
	inputs.IsaContribution = decimal.NewFromInt(20000)
	inputs.TaxableContribution = decimal.NewFromInt(5000)
	inputs.PensionContribution = decimal.NewFromInt(15000)
	inputs.TargetAnnualIncome = decimal.NewFromInt(35000)
	inputs.StatePensionIncome = decimal.NewFromInt(11500)
	inputs.MortgageAnnualPayment = decimal.NewFromInt(12000)
	inputs.MortgageEndAge = 55
	inputs.Simulations = 2000
	return inputs
}

// WriteExampleFile writes the example configuration as YAML.
func (ip *InputParser) WriteExampleFile(path string) error {
	data, err := yaml.Marshal(ip.CreateExampleInputs())
	if err != nil {
		return fmt.Errorf("failed to marshal example inputs: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
