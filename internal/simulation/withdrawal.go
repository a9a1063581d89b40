package simulation

import (
	"github.com/shopspring/decimal"

	"github.com/RickyBoyd/fire/internal/domain"
)

// yearOutcome reports what one retirement year actually delivered, all
// nominal.
type yearOutcome struct {
	realizedNet        decimal.Decimal
	portfolioWithdrawn decimal.Decimal
	statePensionUsed   decimal.Decimal
	cgtPaid            decimal.Decimal
	incomeTaxPaid      decimal.Decimal
}

func (y yearOutcome) totalTax() decimal.Decimal {
	return y.cgtPaid.Add(y.incomeTaxPaid)
}

// potKind names the account a waterfall step draws from.
type potKind int

const (
	potBondLadder potKind = iota
	potIsa
	potTaxable
	potPension
)

// runWithdrawalYear satisfies one year's nominal spending need: state-pension
// net first (any surplus banked into cash), then the cash buffer, then the
// scheduled bond ladder tranche, then the configured investment order, then
// the remaining ladder balance as an emergency backstop. In good years an
// extra withdrawal tops up the cash buffer (the bucket policy's refill, or a
// flat fraction of planned spending otherwise).
func runWithdrawalYear(
	in *domain.Inputs,
	age int,
	retirementYearIndex int,
	plannedNominal decimal.Decimal,
	prevRealReturn decimal.Decimal,
	plannedReal decimal.Decimal,
	p *portfolio,
	cgt *cgtYear,
	ty *taxYear,
	statePensionNet decimal.Decimal,
) yearOutcome {
	realized := decimal.Zero
	startingCgtPaid := cgt.taxPaid
	portfolioWithdrawn := decimal.Zero

	statePensionUsed := decimal.Min(statePensionNet, plannedNominal)
	realized = realized.Add(statePensionUsed)
	surplus := decimal.Max(statePensionNet.Sub(statePensionUsed), decimal.Zero)
	p.cash = p.cash.Add(surplus)

	fromCash := decimal.Min(p.cash, decimal.Max(plannedNominal.Sub(realized), decimal.Zero))
	p.cash = p.cash.Sub(fromCash)
	realized = realized.Add(fromCash)

	ladderScheduled := withdrawBondLadder(in, retirementYearIndex,
		decimal.Max(plannedNominal.Sub(realized), decimal.Zero), p, true)
	realized = realized.Add(ladderScheduled)
	portfolioWithdrawn = portfolioWithdrawn.Add(ladderScheduled)

	needed := decimal.Max(plannedNominal.Sub(realized), decimal.Zero)
	mainWithdrawn := withdrawFromPortfolio(in, age, needed, p, cgt, ty, in.Order)
	realized = realized.Add(mainWithdrawn)
	portfolioWithdrawn = portfolioWithdrawn.Add(mainWithdrawn)

	// Scheduled maturities plus the normal order may still fall short; the
	// rest of the ladder is then fair game.
	ladderBackstop := withdrawBondLadder(in, retirementYearIndex,
		decimal.Max(plannedNominal.Sub(realized), decimal.Zero), p, false)
	realized = realized.Add(ladderBackstop)
	portfolioWithdrawn = portfolioWithdrawn.Add(ladderBackstop)

	if prevRealReturn.GreaterThan(in.GoodYearThreshold) {
		extra := goodYearCashTopUp(in, plannedNominal, plannedReal, p)
		if extra.Sign() > 0 {
			extraWithdrawn := withdrawFromPortfolio(in, age, extra, p, cgt, ty, in.Order)
			p.cash = p.cash.Add(extraWithdrawn)
			portfolioWithdrawn = portfolioWithdrawn.Add(extraWithdrawn)
		}
	}

	totalGrossIncome := ty.nonPensionIncome.Add(ty.pensionGross)
	return yearOutcome{
		realizedNet:        realized,
		portfolioWithdrawn: portfolioWithdrawn,
		statePensionUsed:   statePensionUsed,
		cgtPaid:            decimal.Max(cgt.taxPaid.Sub(startingCgtPaid), decimal.Zero),
		incomeTaxPaid:      incomeTax(in, totalGrossIncome, ty.priceIndex),
	}
}

// goodYearCashTopUp sizes the extra withdrawal routed into the cash buffer
// after a good year. The bucket policy refills toward its target of
// bucket_target_years of spending, capped by the extra-to-cash ratio (or
// uncapped when the ratio is zero); other policies take a flat fraction of
// planned spending.
func goodYearCashTopUp(in *domain.Inputs, plannedNominal, plannedReal decimal.Decimal, p *portfolio) decimal.Decimal {
	if in.Policy != domain.PolicyBucket {
		return plannedNominal.Mul(decimal.Max(in.GoodYearExtraToCash, decimal.Zero))
	}
	spending := decimal.Max(plannedNominal, plannedReal)
	targetCash := spending.Mul(decimal.Max(in.BucketTargetYears, decimal.Zero))
	shortfall := decimal.Max(targetCash.Sub(p.cash), decimal.Zero)
	cap := spending.Mul(decimal.Max(in.GoodYearExtraToCash, decimal.Zero))
	if cap.Sign() > 0 {
		return decimal.Min(shortfall, cap)
	}
	return shortfall
}

// withdrawBondLadder takes up to the scheduled tranche (balance divided by
// the ladder years remaining) while the ladder window is open, or anything
// left when called as a backstop. Ladder proceeds are untaxed principal.
func withdrawBondLadder(in *domain.Inputs, retirementYearIndex int, targetNet decimal.Decimal, p *portfolio, scheduled bool) decimal.Decimal {
	if targetNet.Sign() <= 0 || p.bondLadder.Sign() <= 0 {
		return decimal.Zero
	}

	maxAvailable := p.bondLadder
	if scheduled && in.BondLadderYears > 0 && retirementYearIndex < in.BondLadderYears {
		yearsLeft := in.BondLadderYears - retirementYearIndex
		if yearsLeft < 1 {
			yearsLeft = 1
		}
		maxAvailable = decimal.Min(p.bondLadder.Div(decimal.NewFromInt(int64(yearsLeft))), p.bondLadder)
		maxAvailable = decimal.Max(maxAvailable, decimal.Zero)
	}

	withdrawn := decimal.Min(targetNet, maxAvailable)
	p.bondLadder = p.bondLadder.Sub(withdrawn)
	return withdrawn
}

// withdrawFromPortfolio routes a net need through the configured order. The
// pension is skipped entirely before the access age.
func withdrawFromPortfolio(in *domain.Inputs, age int, targetNet decimal.Decimal, p *portfolio, cgt *cgtYear, ty *taxYear, order domain.WithdrawalOrder) decimal.Decimal {
	if targetNet.Sign() <= 0 {
		return decimal.Zero
	}

	pensionAccess := age >= in.PensionAccessAge

	if order == domain.OrderProRata {
		return withdrawProRata(in, pensionAccess, targetNet, p, cgt, ty)
	}

	var sequence []potKind
	if !pensionAccess {
		switch order {
		case domain.OrderBondLadderFirst:
			sequence = []potKind{potBondLadder, potIsa, potTaxable}
		default:
			sequence = []potKind{potIsa, potTaxable}
		}
	} else {
		switch order {
		case domain.OrderIsaFirst:
			sequence = []potKind{potIsa, potTaxable, potPension}
		case domain.OrderTaxableFirst:
			sequence = []potKind{potTaxable, potIsa, potPension}
		case domain.OrderPensionFirst:
			sequence = []potKind{potPension, potTaxable, potIsa}
		case domain.OrderBondLadderFirst:
			sequence = []potKind{potBondLadder, potIsa, potTaxable, potPension}
		}
	}

	realized := decimal.Zero
	remaining := targetNet
	for _, pot := range sequence {
		if remaining.Sign() <= 0 {
			break
		}
		withdrawn := withdrawSinglePot(in, pot, remaining, pensionAccess, p, cgt, ty)
		realized = realized.Add(withdrawn)
		remaining = remaining.Sub(withdrawn)
	}
	return realized
}

func withdrawSinglePot(in *domain.Inputs, pot potKind, targetNet decimal.Decimal, pensionAccess bool, p *portfolio, cgt *cgtYear, ty *taxYear) decimal.Decimal {
	if targetNet.Sign() <= 0 {
		return decimal.Zero
	}
	switch pot {
	case potBondLadder:
		x := decimal.Min(p.bondLadder, targetNet)
		p.bondLadder = p.bondLadder.Sub(x)
		return x
	case potIsa:
		x := decimal.Min(p.isa, targetNet)
		p.isa = p.isa.Sub(x)
		return x
	case potPension:
		if !pensionAccess {
			return decimal.Zero
		}
		return withdrawPensionForNet(in, targetNet, p, ty)
	case potTaxable:
		return withdrawTaxableForNet(in, targetNet, p, cgt)
	}
	return decimal.Zero
}

// withdrawProRata allocates the residual need across available accounts in
// proportion to their net capacity, iterating a few rounds to absorb the
// nonlinearity of taxes, then falls back to a fixed order for any remainder.
func withdrawProRata(in *domain.Inputs, pensionAccess bool, targetNet decimal.Decimal, p *portfolio, cgt *cgtYear, ty *taxYear) decimal.Decimal {
	realized := decimal.Zero
	remaining := targetNet

	for round := 0; round < 4; round++ {
		if remaining.LessThanOrEqual(eps) {
			break
		}

		isaCapacity := decimal.Max(p.isa, decimal.Zero)
		ladderCapacity := decimal.Max(p.bondLadder, decimal.Zero)
		taxableCapacity := decimal.Max(netFromTaxableGross(
			p.taxable, p.taxable, p.taxableBasis, cgt.allowanceRemaining, in.CapitalGainsTaxRate,
		), decimal.Zero)
		pensionCapacity := decimal.Zero
		if pensionAccess {
			pensionCapacity = decimal.Max(ty.netFromPensionGross(in, p.pension), decimal.Zero)
		}

		totalCapacity := isaCapacity.Add(taxableCapacity).Add(pensionCapacity).Add(ladderCapacity)
		if totalCapacity.LessThanOrEqual(eps) {
			break
		}

		isaTarget := remaining.Mul(isaCapacity).Div(totalCapacity)
		ladderTarget := remaining.Mul(ladderCapacity).Div(totalCapacity)
		pensionTarget := remaining.Mul(pensionCapacity).Div(totalCapacity)
		taxableTarget := remaining.Mul(taxableCapacity).Div(totalCapacity)

		roundRealized := decimal.Zero
		roundRealized = roundRealized.Add(withdrawSinglePot(in, potBondLadder, ladderTarget, pensionAccess, p, cgt, ty))
		roundRealized = roundRealized.Add(withdrawSinglePot(in, potIsa, isaTarget, pensionAccess, p, cgt, ty))
		if pensionAccess {
			roundRealized = roundRealized.Add(withdrawSinglePot(in, potPension, pensionTarget, pensionAccess, p, cgt, ty))
		}
		roundRealized = roundRealized.Add(withdrawSinglePot(in, potTaxable, taxableTarget, pensionAccess, p, cgt, ty))

		realized = realized.Add(roundRealized)
		remaining = targetNet.Sub(realized)

		if roundRealized.LessThanOrEqual(eps) {
			break
		}
	}

	fallback := []potKind{potIsa, potTaxable, potBondLadder}
	if pensionAccess {
		fallback = []potKind{potIsa, potPension, potTaxable, potBondLadder}
	}
	for _, pot := range fallback {
		if remaining.LessThanOrEqual(eps) {
			break
		}
		withdrawn := withdrawSinglePot(in, pot, remaining, pensionAccess, p, cgt, ty)
		realized = realized.Add(withdrawn)
		remaining = remaining.Sub(withdrawn)
	}

	return realized
}

// withdrawPensionForNet solves the gross pension withdrawal whose marginal
// net meets the target, capped at the pot, and records the gross against the
// year's taxable income.
func withdrawPensionForNet(in *domain.Inputs, targetNet decimal.Decimal, p *portfolio, ty *taxYear) decimal.Decimal {
	if targetNet.Sign() <= 0 || p.pension.Sign() <= 0 {
		return decimal.Zero
	}

	gross := solveGrossForNet(targetNet, p.pension, func(g decimal.Decimal) decimal.Decimal {
		return ty.netFromPensionGross(in, g)
	})
	gross = decimal.Min(gross, p.pension)
	if gross.Sign() <= 0 {
		return decimal.Zero
	}

	net := ty.netFromPensionGross(in, gross)
	p.pension = p.pension.Sub(gross)
	ty.pensionGross = ty.pensionGross.Add(gross)
	return net
}

// withdrawTaxableForNet solves the gross sale whose net-of-CGT proceeds meet
// the target, then executes it.
func withdrawTaxableForNet(in *domain.Inputs, targetNet decimal.Decimal, p *portfolio, cgt *cgtYear) decimal.Decimal {
	if targetNet.Sign() <= 0 || p.taxable.Sign() <= 0 {
		return decimal.Zero
	}

	gross := solveGrossForNet(targetNet, p.taxable, func(g decimal.Decimal) decimal.Decimal {
		return netFromTaxableGross(g, p.taxable, p.taxableBasis, cgt.allowanceRemaining, in.CapitalGainsTaxRate)
	})
	return p.sellTaxable(gross, cgt, in.CapitalGainsTaxRate)
}
