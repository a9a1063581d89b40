package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInputs() *Inputs {
	return &Inputs{
		CurrentAge:       40,
		MaxRetirementAge: 60,
		HorizonAge:       90,
		PensionAccessAge: 57,

		IsaStart:             decimal.NewFromInt(100000),
		TaxableStart:         decimal.NewFromInt(50000),
		TaxableBasisStart:    decimal.NewFromInt(40000),
		IsaContributionLimit: decimal.NewFromInt(20000),

		PensionTaxMode:      TaxModeUKBands,
		PersonalAllowance:   decimal.NewFromInt(12570),
		AllowanceTaperStart: decimal.NewFromInt(100000),
		AllowanceTaperEnd:   decimal.NewFromInt(125140),
		BasicRateLimit:      decimal.NewFromInt(50270),
		HigherRateLimit:     decimal.NewFromInt(125140),
		BasicRate:           decimal.NewFromFloat(0.20),
		HigherRate:          decimal.NewFromFloat(0.40),
		AdditionalRate:      decimal.NewFromFloat(0.45),

		TargetAnnualIncome: decimal.NewFromInt(30000),
		Policy:             PolicyGuardrails,
		Order:              OrderProRata,
		MinIncomeFloor:     decimal.NewFromFloat(0.8),
		MaxIncomeCeiling:   decimal.NewFromFloat(1.3),

		Simulations:      100,
		SuccessThreshold: decimal.NewFromFloat(0.9),
		Seed:             42,
	}
}

func TestValidateAcceptsWellFormedInputs(t *testing.T) {
	assert.NoError(t, validInputs().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Inputs)
		field  string
	}{
		{"zero current age", func(in *Inputs) { in.CurrentAge = 0 }, "current_age"},
		{"max below current", func(in *Inputs) { in.MaxRetirementAge = 39 }, "max_retirement_age"},
		{"horizon at max", func(in *Inputs) { in.HorizonAge = 60 }, "horizon_age"},
		{"pension access below current", func(in *Inputs) { in.PensionAccessAge = 30 }, "pension_access_age"},
		{"negative isa", func(in *Inputs) { in.IsaStart = decimal.NewFromInt(-1) }, "isa_start"},
		{"negative cash", func(in *Inputs) { in.CashStart = decimal.NewFromInt(-1) }, "cash_start"},
		{"basis above taxable", func(in *Inputs) { in.TaxableBasisStart = decimal.NewFromInt(60000) }, "taxable_basis_start"},
		{"correlation above one", func(in *Inputs) { in.ReturnCorrelation = decimal.NewFromInt(2) }, "return_correlation"},
		{"negative correlation", func(in *Inputs) { in.ReturnCorrelation = decimal.NewFromFloat(-0.1) }, "return_correlation"},
		{"cgt rate above one", func(in *Inputs) { in.CapitalGainsTaxRate = decimal.NewFromInt(2) }, "capital_gains_tax_rate"},
		{"threshold above one", func(in *Inputs) { in.SuccessThreshold = decimal.NewFromFloat(1.1) }, "success_threshold"},
		{"unknown policy", func(in *Inputs) { in.Policy = "fixed" }, "withdrawal_policy"},
		{"unknown order", func(in *Inputs) { in.Order = "biggest-first" }, "withdrawal_order"},
		{"unknown tax mode", func(in *Inputs) { in.PensionTaxMode = "none" }, "pension_tax_mode"},
		{"taper ends before start", func(in *Inputs) { in.AllowanceTaperEnd = decimal.NewFromInt(90000) }, "allowance_taper_end"},
		{"higher limit below basic", func(in *Inputs) { in.HigherRateLimit = decimal.NewFromInt(40000) }, "higher_rate_limit"},
		{"ceiling below floor", func(in *Inputs) { in.MaxIncomeCeiling = decimal.NewFromFloat(0.5) }, "max_income_ceiling"},
		{"negative ladder years", func(in *Inputs) { in.BondLadderYears = -1 }, "bond_ladder_years"},
		{"zero simulations", func(in *Inputs) { in.Simulations = 0 }, "simulations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInputs()
			tt.mutate(in)
			err := in.Validate()
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestFlatModeSkipsBandChecks(t *testing.T) {
	in := validInputs()
	in.PensionTaxMode = TaxModeFlat
	in.AllowanceTaperEnd = decimal.Zero
	in.HigherRateLimit = decimal.Zero
	assert.NoError(t, in.Validate())
}

func TestEnumValidity(t *testing.T) {
	for _, p := range []WithdrawalPolicy{PolicyGuardrails, PolicyGuytonKlinger, PolicyVPW, PolicyFloorUpside, PolicyBucket} {
		assert.True(t, p.Valid(), "policy %s", p)
	}
	assert.False(t, WithdrawalPolicy("fixed").Valid())

	for _, o := range []WithdrawalOrder{OrderProRata, OrderIsaFirst, OrderTaxableFirst, OrderPensionFirst, OrderBondLadderFirst} {
		assert.True(t, o.Valid(), "order %s", o)
	}
	assert.False(t, WithdrawalOrder("random").Valid())

	assert.True(t, TaxModeFlat.Valid())
	assert.True(t, TaxModeUKBands.Valid())
	assert.False(t, PensionTaxMode("none").Valid())

	assert.True(t, GoalRequiredContribution.Valid())
	assert.True(t, GoalMaxIncome.Valid())
	assert.False(t, GoalType("net-worth").Valid())
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "isa_start", Message: "cannot be negative"}
	assert.Equal(t, "invalid input isa_start: cannot be negative", err.Error())
}
