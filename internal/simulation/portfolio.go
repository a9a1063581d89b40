package simulation

import (
	"github.com/shopspring/decimal"

	"github.com/RickyBoyd/fire/internal/domain"
)

// portfolio holds one scenario's nominal balances. All mutations keep every
// balance non-negative and the taxable cost basis within the taxable value.
type portfolio struct {
	isa          decimal.Decimal
	taxable      decimal.Decimal
	taxableBasis decimal.Decimal
	pension      decimal.Decimal
	cash         decimal.Decimal
	bondLadder   decimal.Decimal
}

func newPortfolio(in *domain.Inputs) *portfolio {
	return &portfolio{
		isa:          in.IsaStart,
		taxable:      in.TaxableStart,
		taxableBasis: decimal.Min(in.TaxableBasisStart, in.TaxableStart),
		pension:      in.PensionStart,
		cash:         in.CashStart,
		bondLadder:   in.BondLadderStart,
	}
}

// contributionFlow records the amounts actually posted in one year.
type contributionFlow struct {
	isa     decimal.Decimal
	taxable decimal.Decimal
	pension decimal.Decimal
}

func (c contributionFlow) total() decimal.Decimal {
	return c.isa.Add(c.taxable).Add(c.pension)
}

// grow applies one year of nominal growth. The taxable account additionally
// loses its configured annual tax drag; cash grows at the supplied rate
// (zero during accumulation) and the bond ladder at its own yield. Basis is
// unchanged by growth but clamped back under the taxable value.
func (p *portfolio) grow(in *domain.Inputs, s marketSample, cashGrowth decimal.Decimal) {
	p.isa = decimal.Max(p.isa.Mul(one.Add(s.isaReturn)), decimal.Zero)
	p.taxable = decimal.Max(p.taxable.Mul(one.Add(s.taxableReturn)), decimal.Zero)
	p.taxable = decimal.Max(p.taxable.Mul(one.Sub(in.TaxableReturnTaxDrag)), decimal.Zero)
	p.pension = decimal.Max(p.pension.Mul(one.Add(s.pensionReturn)), decimal.Zero)
	p.cash = decimal.Max(p.cash.Mul(one.Add(cashGrowth)), decimal.Zero)
	p.bondLadder = decimal.Max(p.bondLadder.Mul(one.Add(in.BondLadderYield)), decimal.Zero)
	p.taxableBasis = decimal.Min(p.taxableBasis, p.taxable)
}

// contribute posts the requested annual amounts. ISA contributions are capped
// at the annual limit and the overflow is redirected into the taxable
// account, which raises the cost basis by everything posted there.
func (p *portfolio) contribute(isaReq, taxableReq, pensionReq, isaLimit decimal.Decimal) contributionFlow {
	isaPosted := decimal.Min(decimal.Max(isaReq, decimal.Zero), isaLimit)
	overflow := decimal.Max(isaReq.Sub(isaPosted), decimal.Zero)
	taxablePosted := decimal.Max(taxableReq, decimal.Zero).Add(overflow)
	pensionPosted := decimal.Max(pensionReq, decimal.Zero)

	p.isa = p.isa.Add(isaPosted)
	p.taxable = p.taxable.Add(taxablePosted)
	p.taxableBasis = p.taxableBasis.Add(taxablePosted)
	p.pension = p.pension.Add(pensionPosted)

	return contributionFlow{isa: isaPosted, taxable: taxablePosted, pension: pensionPosted}
}

// sellTaxable executes a gross sale from the taxable account, reducing basis
// by the fraction of value sold, consuming CGT allowance, and accumulating
// tax paid. Returns the net proceeds.
func (p *portfolio) sellTaxable(grossSale decimal.Decimal, cgt *cgtYear, cgtRate decimal.Decimal) decimal.Decimal {
	if grossSale.Sign() <= 0 || p.taxable.Sign() <= 0 {
		return decimal.Zero
	}

	gross := decimal.Min(grossSale, p.taxable)
	valueBefore := p.taxable
	basisBefore := p.taxableBasis

	basisPortion := decimal.Min(basisBefore.Mul(gross).Div(valueBefore), basisBefore)
	gain := gross.Sub(basisPortion)

	p.taxable = p.taxable.Sub(gross)
	p.taxableBasis = decimal.Min(decimal.Max(basisBefore.Sub(basisPortion), decimal.Zero), p.taxable)

	if gain.Sign() <= 0 {
		return gross
	}

	allowanceUsed := decimal.Max(decimal.Min(cgt.allowanceRemaining, gain), decimal.Zero)
	cgt.allowanceRemaining = decimal.Max(cgt.allowanceRemaining.Sub(allowanceUsed), decimal.Zero)

	taxableGain := decimal.Max(gain.Sub(allowanceUsed), decimal.Zero)
	tax := taxableGain.Mul(decimal.Max(cgtRate, decimal.Zero))
	cgt.taxPaid = cgt.taxPaid.Add(tax)
	return decimal.Max(gross.Sub(tax), decimal.Zero)
}

// investedTotal is everything except the cash buffer.
func (p *portfolio) investedTotal() decimal.Decimal {
	return p.isa.Add(p.taxable).Add(p.pension).Add(p.bondLadder)
}

// total is the whole nominal pot.
func (p *portfolio) total() decimal.Decimal {
	return p.investedTotal().Add(p.cash)
}

// spendableReal is the real value of everything the household could spend
// this year: cash, ISA, taxable and bond ladder always, the pension only once
// it is accessible.
func (p *portfolio) spendableReal(in *domain.Inputs, age int, priceIndex decimal.Decimal) decimal.Decimal {
	total := p.cash.Add(p.isa).Add(p.taxable).Add(p.bondLadder)
	if age >= in.PensionAccessAge {
		total = total.Add(p.pension)
	}
	return total.Div(decimal.Max(priceIndex, eps))
}
