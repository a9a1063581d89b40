package simulation

import (
	"github.com/shopspring/decimal"

	"github.com/RickyBoyd/fire/internal/domain"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// deterministicInputs is a zero-volatility baseline the tests override: one
// accumulation year, one retirement year, no taxes, no market noise.
func deterministicInputs() *domain.Inputs {
	return &domain.Inputs{
		CurrentAge:       30,
		MaxRetirementAge: 31,
		HorizonAge:       32,
		PensionAccessAge: 30,

		IsaContributionLimit: d(20000),

		PensionTaxMode:      domain.TaxModeFlat,
		PensionFlatTaxRate:  decimal.Zero,
		PersonalAllowance:   d(12570),
		BasicRateLimit:      d(50270),
		HigherRateLimit:     d(125140),
		BasicRate:           d(0.20),
		HigherRate:          d(0.40),
		AdditionalRate:      d(0.45),
		AllowanceTaperStart: d(100000),
		AllowanceTaperEnd:   d(125140),

		StatePensionStartAge: 200,

		TargetAnnualIncome: d(100),
		Policy:             domain.PolicyGuardrails,
		Order:              domain.OrderIsaFirst,
		BadYearThreshold:   d(-1),
		GoodYearThreshold:  d(1),
		MinIncomeFloor:     d(1),
		MaxIncomeCeiling:   d(1),
		GKLowerGuardrail:   d(0.8),
		GKUpperGuardrail:   d(1.2),
		VPWRealReturn:      d(0.03),
		FloorUpsideCapture: d(0.5),
		BucketTargetYears:  d(2),

		Simulations:      1,
		SuccessThreshold: decimal.NewFromInt(1),
		Seed:             7,
	}
}

// stochasticInputs is a small noisy setup for determinism and aggregation
// tests.
func stochasticInputs() *domain.Inputs {
	in := deterministicInputs()
	in.CurrentAge = 40
	in.MaxRetirementAge = 42
	in.HorizonAge = 55
	in.PensionAccessAge = 47
	in.IsaStart = d(300000)
	in.TaxableStart = d(100000)
	in.TaxableBasisStart = d(60000)
	in.PensionStart = d(200000)
	in.CashStart = d(10000)
	in.IsaContribution = d(10000)
	in.TaxableContribution = d(5000)
	in.PensionContribution = d(8000)
	in.ContributionGrowthRate = d(0.01)
	in.IsaReturnMean = d(0.07)
	in.IsaReturnVol = d(0.15)
	in.TaxableReturnMean = d(0.07)
	in.TaxableReturnVol = d(0.15)
	in.PensionReturnMean = d(0.07)
	in.PensionReturnVol = d(0.15)
	in.ReturnCorrelation = d(0.8)
	in.InflationMean = d(0.025)
	in.InflationVol = d(0.015)
	in.CashGrowthRate = d(0.01)
	in.PensionTaxMode = domain.TaxModeUKBands
	in.CapitalGainsTaxRate = d(0.20)
	in.CapitalGainsAllowance = d(3000)
	in.StatePensionStartAge = 68
	in.StatePensionIncome = d(11500)
	in.TargetAnnualIncome = d(30000)
	in.Order = domain.OrderProRata
	in.BadYearThreshold = d(-0.05)
	in.GoodYearThreshold = d(0.10)
	in.BadYearCut = d(0.10)
	in.GoodYearRaise = d(0.05)
	in.MinIncomeFloor = d(0.8)
	in.MaxIncomeCeiling = d(1.3)
	in.GoodYearExtraToCash = d(0.1)
	in.Simulations = 64
	in.SuccessThreshold = d(0.9)
	in.Seed = 12345
	return in
}
