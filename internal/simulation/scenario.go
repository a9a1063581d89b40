package simulation

import (
	"github.com/shopspring/decimal"

	"github.com/RickyBoyd/fire/internal/domain"
)

// accountSnapshot holds real per-account balances at a point in time.
type accountSnapshot struct {
	isa        decimal.Decimal
	taxable    decimal.Decimal
	pension    decimal.Decimal
	cash       decimal.Decimal
	bondLadder decimal.Decimal
	total      decimal.Decimal
}

func snapshotReal(p *portfolio, priceIndex decimal.Decimal) accountSnapshot {
	deflator := decimal.Max(priceIndex, eps)
	return accountSnapshot{
		isa:        p.isa.Div(deflator),
		taxable:    p.taxable.Div(deflator),
		pension:    p.pension.Div(deflator),
		cash:       p.cash.Div(deflator),
		bondLadder: p.bondLadder.Div(deflator),
		total:      p.total().Div(deflator),
	}
}

// scenarioResult is one Monte Carlo path's outcome. On failure every terminal
// balance is zero; at-retirement balances and income ratios up to the failure
// year are preserved.
type scenarioResult struct {
	success        bool
	retirement     accountSnapshot
	terminal       accountSnapshot
	minIncomeRatio decimal.Decimal
	avgIncomeRatio decimal.Decimal
}

func mortgagePaymentReal(in *domain.Inputs, age int) decimal.Decimal {
	if in.MortgageAnnualPayment.Sign() <= 0 || in.MortgageEndAge <= 0 {
		return decimal.Zero
	}
	if age < in.MortgageEndAge {
		return in.MortgageAnnualPayment
	}
	return decimal.Zero
}

func statePensionGross(in *domain.Inputs, age int, priceIndex decimal.Decimal) decimal.Decimal {
	if age < in.StatePensionStartAge {
		return decimal.Zero
	}
	return decimal.Max(in.StatePensionIncome.Mul(priceIndex), decimal.Zero)
}

// realizedRealReturn is the inflation-adjusted return on invested (non-cash)
// assets over one year, zero when nothing was invested.
func realizedRealReturn(startInvested, endInvested, inflation decimal.Decimal) decimal.Decimal {
	if startInvested.Sign() <= 0 {
		return decimal.Zero
	}
	nominal := decimal.Max(endInvested.Div(startInvested), decimal.Zero).Sub(one)
	return one.Add(nominal).Div(one.Add(inflation)).Sub(one)
}

func clampRatio(r decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(r, decimal.Zero), one)
}

// simulateScenario advances one path from the current age to the horizon:
// accumulate (growth then contributions, stopping at the contribution stop
// age), transition to retirement at the candidate age, then plan, withdraw,
// and grow each year until the horizon or the first shortfall. When trace is
// non-nil a real-terms cashflow row is appended for every year.
func simulateScenario(
	in *domain.Inputs,
	smp *sampler,
	retirementAge int,
	contributionStopAge int,
	scenario int,
	trace *[]domain.CashflowYear,
) scenarioResult {
	p := newPortfolio(in)
	priceIndex := one

	for age := in.CurrentAge; age < retirementAge; age++ {
		yearIndex := age - in.CurrentAge
		sampled := smp.draw(scenario, yearIndex)
		p.grow(in, sampled, decimal.Zero)

		var contributions contributionFlow
		if age < contributionStopAge {
			escalator := one.Add(in.ContributionGrowthRate).Pow(decimal.NewFromInt(int64(yearIndex)))
			contributions = p.contribute(
				in.IsaContribution.Mul(escalator),
				in.TaxableContribution.Mul(escalator),
				in.PensionContribution.Mul(escalator),
				in.IsaContributionLimit,
			)
		}

		priceIndex = priceIndex.Mul(one.Add(sampled.inflation))

		if trace != nil {
			deflator := decimal.Max(priceIndex, eps)
			*trace = append(*trace, domain.CashflowYear{
				Age:                 age,
				ContributionIsa:     contributions.isa.Div(deflator),
				ContributionTaxable: contributions.taxable.Div(deflator),
				ContributionPension: contributions.pension.Div(deflator),
				ContributionTotal:   contributions.total().Div(deflator),
				EndIsa:              p.isa.Div(deflator),
				EndTaxable:          p.taxable.Div(deflator),
				EndPension:          p.pension.Div(deflator),
				EndCash:             p.cash.Div(deflator),
				EndBondLadder:       p.bondLadder.Div(deflator),
				EndTotal:            p.total().Div(deflator),
			})
		}
	}

	retirement := snapshotReal(p, priceIndex)
	st := newPlanState(in, retirement.total)

	minIncomeRatio := one
	ratioSum := decimal.Zero
	years := 0

	for age := retirementAge; age < in.HorizonAge; age++ {
		yearIndex := age - in.CurrentAge

		mortgageReal := mortgagePaymentReal(in, age)
		availableReal := p.spendableReal(in, age, priceIndex)
		availableCoreReal := decimal.Max(availableReal.Sub(mortgageReal), decimal.Zero)
		plannedCoreReal := planRealSpending(in, age, availableCoreReal, st)
		plannedReal := plannedCoreReal.Add(mortgageReal)

		sampled := smp.draw(scenario, yearIndex)
		priceIndex = priceIndex.Mul(one.Add(sampled.inflation))

		plannedNominal := plannedReal.Mul(priceIndex)
		cgt := &cgtYear{allowanceRemaining: in.CapitalGainsAllowance}

		spGross := statePensionGross(in, age, priceIndex)
		spNet := netOfIncomeTax(in, spGross, priceIndex)
		ty := &taxYear{nonPensionIncome: spGross, priceIndex: priceIndex}

		outcome := runWithdrawalYear(in, age, age-retirementAge, plannedNominal,
			st.prevRealReturn, plannedReal, p, cgt, ty, spNet)

		requiredReal := decimal.Max(in.TargetAnnualIncome.Add(mortgageReal), eps)
		ratio := clampRatio(outcome.realizedNet.Div(priceIndex).Div(requiredReal))
		minIncomeRatio = decimal.Min(minIncomeRatio, ratio)
		ratioSum = ratioSum.Add(ratio)
		years++

		if outcome.realizedNet.Add(eps).LessThan(plannedNominal) {
			if trace != nil {
				deflator := decimal.Max(priceIndex, eps)
				*trace = append(*trace, domain.CashflowYear{
					Age:                 age,
					WithdrawalPortfolio: outcome.portfolioWithdrawn.Div(deflator),
					StatePensionNet:     outcome.statePensionUsed.Div(deflator),
					SpendingTotal:       outcome.realizedNet.Div(deflator),
					TaxCapitalGains:     outcome.cgtPaid.Div(deflator),
					TaxIncome:           outcome.incomeTaxPaid.Div(deflator),
					TaxTotal:            outcome.totalTax().Div(deflator),
				})
				for tailAge := age + 1; tailAge < in.HorizonAge; tailAge++ {
					*trace = append(*trace, domain.CashflowYear{Age: tailAge})
				}
			}
			return scenarioResult{
				success:        false,
				retirement:     retirement,
				terminal:       accountSnapshot{},
				minIncomeRatio: minIncomeRatio,
				avgIncomeRatio: ratioSum.Div(decimal.NewFromInt(int64(years))),
			}
		}

		startInvested := p.investedTotal()
		p.grow(in, sampled, in.CashGrowthRate)
		st.prevRealReturn = realizedRealReturn(startInvested, p.investedTotal(), sampled.inflation)

		if trace != nil {
			deflator := decimal.Max(priceIndex, eps)
			*trace = append(*trace, domain.CashflowYear{
				Age:                 age,
				WithdrawalPortfolio: outcome.portfolioWithdrawn.Div(deflator),
				StatePensionNet:     outcome.statePensionUsed.Div(deflator),
				SpendingTotal:       outcome.realizedNet.Div(deflator),
				TaxCapitalGains:     outcome.cgtPaid.Div(deflator),
				TaxIncome:           outcome.incomeTaxPaid.Div(deflator),
				TaxTotal:            outcome.totalTax().Div(deflator),
				EndIsa:              p.isa.Div(deflator),
				EndTaxable:          p.taxable.Div(deflator),
				EndPension:          p.pension.Div(deflator),
				EndCash:             p.cash.Div(deflator),
				EndBondLadder:       p.bondLadder.Div(deflator),
				EndTotal:            p.total().Div(deflator),
			})
		}
	}

	avg := one
	if years > 0 {
		avg = ratioSum.Div(decimal.NewFromInt(int64(years)))
	}
	return scenarioResult{
		success:        true,
		retirement:     retirement,
		terminal:       snapshotReal(p, priceIndex),
		minIncomeRatio: minIncomeRatio,
		avgIncomeRatio: avg,
	}
}
