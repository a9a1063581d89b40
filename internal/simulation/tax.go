package simulation

import (
	"github.com/shopspring/decimal"

	"github.com/RickyBoyd/fire/internal/domain"
)

var (
	one  = decimal.NewFromInt(1)
	two  = decimal.NewFromInt(2)
	ten  = decimal.NewFromInt(10)
	half = decimal.NewFromFloat(0.5)
	eps  = decimal.NewFromFloat(1e-9)
)

// taxYear tracks taxable income recognized so far within one simulated year,
// so pension withdrawals can be netted at the margin against income already
// received (state pension plus earlier pension withdrawals the same year).
type taxYear struct {
	nonPensionIncome decimal.Decimal
	pensionGross     decimal.Decimal
	priceIndex       decimal.Decimal
}

// cgtYear tracks the annual capital gains allowance and tax paid within one
// year. The allowance resets at the start of each retirement year and is not
// indexed to inflation.
type cgtYear struct {
	allowanceRemaining decimal.Decimal
	taxPaid            decimal.Decimal
}

// incomeTax computes the tax on a year's total gross income under the
// configured regime. Band thresholds are nominal for the input year, so they
// scale with the price index; the flat rate does not.
func incomeTax(in *domain.Inputs, gross, priceIndex decimal.Decimal) decimal.Decimal {
	g := decimal.Max(gross, decimal.Zero)
	if in.PensionTaxMode == domain.TaxModeFlat {
		return g.Mul(in.PensionFlatTaxRate)
	}
	return ukBandIncomeTax(in, g, priceIndex)
}

// ukBandIncomeTax applies the personal allowance (tapered away at 50p per
// pound above the taper start), then the basic, higher, and additional rates
// across the price-indexed band edges. Monotonic in gross.
func ukBandIncomeTax(in *domain.Inputs, gross, priceIndex decimal.Decimal) decimal.Decimal {
	taperStart := decimal.Max(in.AllowanceTaperStart.Mul(priceIndex), decimal.Zero)
	taperEnd := decimal.Max(in.AllowanceTaperEnd.Mul(priceIndex), taperStart)

	allowance := decimal.Max(in.PersonalAllowance.Mul(priceIndex), decimal.Zero)
	if gross.GreaterThan(taperStart) {
		reduction := gross.Sub(taperStart).Mul(half)
		allowance = decimal.Max(allowance.Sub(reduction), decimal.Zero)
	}
	if gross.GreaterThanOrEqual(taperEnd) {
		allowance = decimal.Zero
	}

	taxable := decimal.Max(gross.Sub(allowance), decimal.Zero)

	basicLimit := decimal.Max(in.BasicRateLimit.Mul(priceIndex), decimal.Zero)
	higherLimit := decimal.Max(in.HigherRateLimit.Mul(priceIndex), basicLimit)

	basicBand := decimal.Max(basicLimit.Sub(allowance), decimal.Zero)
	higherBand := decimal.Max(higherLimit.Sub(basicLimit), decimal.Zero)

	basicTaxable := decimal.Min(taxable, basicBand)
	higherTaxable := decimal.Max(decimal.Min(taxable.Sub(basicTaxable), higherBand), decimal.Zero)
	additionalTaxable := decimal.Max(taxable.Sub(basicTaxable).Sub(higherTaxable), decimal.Zero)

	return basicTaxable.Mul(in.BasicRate).
		Add(higherTaxable.Mul(in.HigherRate)).
		Add(additionalTaxable.Mul(in.AdditionalRate))
}

// netOfIncomeTax is the take-home amount of a gross income on its own.
func netOfIncomeTax(in *domain.Inputs, gross, priceIndex decimal.Decimal) decimal.Decimal {
	g := decimal.Max(gross, decimal.Zero)
	return decimal.Max(g.Sub(incomeTax(in, g, priceIndex)), decimal.Zero)
}

// netFromPensionGross returns the net received from withdrawing an additional
// gross amount from the pension, taxed at the margin on top of income already
// recognized this year.
func (ty *taxYear) netFromPensionGross(in *domain.Inputs, additionalGross decimal.Decimal) decimal.Decimal {
	if additionalGross.Sign() <= 0 {
		return decimal.Zero
	}
	before := ty.nonPensionIncome.Add(ty.pensionGross)
	after := before.Add(additionalGross)
	incremental := decimal.Max(
		incomeTax(in, after, ty.priceIndex).Sub(incomeTax(in, before, ty.priceIndex)),
		decimal.Zero,
	)
	return decimal.Max(additionalGross.Sub(incremental), decimal.Zero)
}

// netFromTaxableGross computes the net proceeds of a gross sale from the
// taxable account without mutating anything: the basis sold is the value
// fraction sold, the remaining annual allowance shelters the gain, and the
// rest is taxed at the CGT rate.
func netFromTaxableGross(grossSale, valueBefore, basisBefore, allowanceRemaining, cgtRate decimal.Decimal) decimal.Decimal {
	if grossSale.Sign() <= 0 || valueBefore.Sign() <= 0 {
		return decimal.Zero
	}
	gross := decimal.Min(grossSale, valueBefore)
	basisPortion := decimal.Min(basisBefore.Mul(gross).Div(valueBefore), basisBefore)
	gain := gross.Sub(basisPortion)
	if gain.Sign() <= 0 {
		return gross
	}
	allowanceUsed := decimal.Min(decimal.Max(allowanceRemaining, decimal.Zero), gain)
	taxableGain := decimal.Max(gain.Sub(allowanceUsed), decimal.Zero)
	tax := taxableGain.Mul(decimal.Max(cgtRate, decimal.Zero))
	return decimal.Max(gross.Sub(tax), decimal.Zero)
}

// solveGrossForNet inverts a monotone net-of-tax function by bisection: find
// the gross in [0, maxGross] whose net meets the target. The bracket starts
// at twice the target plus a margin and widens by doubling up to ten times
// the target (always capped at maxGross); when even the widest gross cannot
// deliver the target the solver settles for the best achievable net, which
// degrades to zero when nothing can be netted.
func solveGrossForNet(target, maxGross decimal.Decimal, net func(decimal.Decimal) decimal.Decimal) decimal.Decimal {
	if target.Sign() <= 0 || maxGross.Sign() <= 0 {
		return decimal.Zero
	}

	margin := decimal.NewFromInt(1000)
	upper := decimal.Min(target.Mul(two).Add(margin), maxGross)
	ceiling := decimal.Min(target.Mul(ten).Add(margin), maxGross)
	for net(upper).LessThan(target) && upper.LessThan(ceiling) {
		upper = decimal.Min(upper.Mul(two), ceiling)
	}

	desired := decimal.Min(target, net(upper))
	if desired.Sign() <= 0 {
		return decimal.Zero
	}

	lo := decimal.Zero
	hi := upper
	for i := 0; i < 40; i++ {
		mid := lo.Add(hi).Div(two)
		if net(mid).LessThan(desired) {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}
