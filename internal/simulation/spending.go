package simulation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/RickyBoyd/fire/internal/domain"
)

// planState is the explicit per-path spending state. currentRealSpending
// starts at the target income when retirement begins and tracks every
// adjustment; initialWithdrawalRate is captured once at the retirement
// transition for the Guyton-Klinger guardrails. prevRealReturn is zero for
// the first retirement year.
type planState struct {
	currentRealSpending   decimal.Decimal
	initialWithdrawalRate decimal.Decimal
	prevRealReturn        decimal.Decimal
}

func newPlanState(in *domain.Inputs, retirementRealTotal decimal.Decimal) *planState {
	return &planState{
		currentRealSpending:   in.TargetAnnualIncome,
		initialWithdrawalRate: in.TargetAnnualIncome.Div(decimal.Max(retirementRealTotal, eps)),
		prevRealReturn:        decimal.Zero,
	}
}

// spendingBounds returns the real floor and ceiling on planned spending.
func spendingBounds(in *domain.Inputs) (decimal.Decimal, decimal.Decimal) {
	minSpend := in.TargetAnnualIncome.Mul(in.MinIncomeFloor)
	maxSpend := in.TargetAnnualIncome.Mul(in.MaxIncomeCeiling)
	return minSpend, decimal.Max(maxSpend, minSpend)
}

// planRealSpending maps prior-year experience and current state to this
// year's planned real spend under the configured policy, clamped to the
// floor/ceiling band, and carries the plan forward as next year's baseline.
func planRealSpending(in *domain.Inputs, age int, availableReal decimal.Decimal, st *planState) decimal.Decimal {
	minSpend, maxSpend := spendingBounds(in)

	var spending decimal.Decimal
	switch in.Policy {
	case domain.PolicyGuardrails:
		spending = st.currentRealSpending
		if st.prevRealReturn.LessThan(in.BadYearThreshold) {
			spending = spending.Mul(one.Sub(in.BadYearCut))
		} else if st.prevRealReturn.GreaterThan(in.GoodYearThreshold) {
			spending = spending.Mul(one.Add(in.GoodYearRaise))
		}

	case domain.PolicyGuytonKlinger:
		spending = st.currentRealSpending
		currentRate := spending.Div(decimal.Max(availableReal, eps))
		lower := st.initialWithdrawalRate.Mul(in.GKLowerGuardrail)
		upper := st.initialWithdrawalRate.Mul(in.GKUpperGuardrail)
		if st.prevRealReturn.LessThan(in.BadYearThreshold) && currentRate.GreaterThan(upper) {
			spending = spending.Mul(one.Sub(in.BadYearCut))
		} else if st.prevRealReturn.GreaterThan(in.GoodYearThreshold) && currentRate.LessThan(lower) {
			spending = spending.Mul(one.Add(in.GoodYearRaise))
		}

	case domain.PolicyVPW:
		yearsRemaining := in.HorizonAge - age
		if yearsRemaining < 1 {
			yearsRemaining = 1
		}
		rate := annuityWithdrawalRate(in.VPWRealReturn.InexactFloat64(), yearsRemaining)
		spending = decimal.Max(availableReal, decimal.Zero).Mul(decimal.NewFromFloat(rate))

	case domain.PolicyFloorUpside:
		spending = decimal.Max(st.currentRealSpending, minSpend)
		if st.prevRealReturn.LessThan(in.BadYearThreshold) {
			spending = spending.Mul(one.Sub(in.BadYearCut))
		}
		if st.prevRealReturn.Sign() > 0 {
			capture := decimal.Max(in.FloorUpsideCapture, decimal.Zero)
			spending = spending.Mul(one.Add(st.prevRealReturn.Mul(capture)))
		}

	case domain.PolicyBucket:
		// Spending moves conservatively; good years mostly refill the cash
		// bucket through the waterfall rather than raise the plan.
		spending = st.currentRealSpending
		if st.prevRealReturn.LessThan(in.BadYearThreshold) {
			spending = spending.Mul(one.Sub(in.BadYearCut))
		} else if st.prevRealReturn.GreaterThan(in.GoodYearThreshold) {
			spending = spending.Mul(one.Add(in.GoodYearRaise.Mul(half)))
		}
	}

	spending = decimal.Min(decimal.Max(spending, minSpend), maxSpend)
	st.currentRealSpending = spending
	return spending
}

// annuityWithdrawalRate is the level real payout rate that amortizes a pot
// over n years at real rate r: r / (1 - (1+r)^-n), degrading to 1/n as r
// approaches zero. The result is clamped to [0, 1]; n has already been
// clamped to the horizon by the caller.
func annuityWithdrawalRate(realReturn float64, yearsRemaining int) float64 {
	years := float64(yearsRemaining)
	if math.Abs(realReturn) < 1e-9 {
		return clampFloat(1.0/years, 0.0, 1.0)
	}
	if realReturn <= -0.99 {
		return 1.0
	}
	denom := 1.0 - math.Pow(1.0+realReturn, -years)
	if denom <= 1e-9 {
		return 1.0
	}
	return clampFloat(realReturn/denom, 0.0, 1.0)
}
