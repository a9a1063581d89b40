package simulation

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RickyBoyd/fire/internal/domain"
)

func ukInputs() *domain.Inputs {
	in := deterministicInputs()
	in.PensionTaxMode = domain.TaxModeUKBands
	return in
}

func TestFlatIncomeTax(t *testing.T) {
	in := deterministicInputs()
	in.PensionFlatTaxRate = d(0.25)

	tax := incomeTax(in, d(40000), one)
	assert.True(t, tax.Equal(d(10000)), "got %s", tax)
}

func TestUKBandIncomeTax(t *testing.T) {
	in := ukInputs()

	tests := []struct {
		gross    float64
		expected float64
	}{
		{0, 0},
		{10000, 0},      // under the personal allowance
		{12570, 0},      // exactly the allowance
		{22570, 2000},   // 10000 at basic rate
		{50270, 7540},   // fills the basic band
		{100000, 27432}, // 37700 basic + 49730 higher
		{110000, 32432}, // tapered allowance: 7570 left
		{125140, 40002}, // allowance fully tapered away
		{150000, 51189}, // additional rate above the higher limit
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("gross_%v", tt.gross), func(t *testing.T) {
			tax := incomeTax(in, d(tt.gross), one)
			assert.True(t, tax.Sub(d(tt.expected)).Abs().LessThan(d(0.01)),
				"gross %v: expected %v, got %s", tt.gross, tt.expected, tax)
		})
	}
}

func TestUKBandIncomeTaxIsMonotonic(t *testing.T) {
	in := ukInputs()
	prev := decimal.Zero
	for gross := 0; gross <= 300000; gross += 2500 {
		tax := incomeTax(in, decimal.NewFromInt(int64(gross)), one)
		require.True(t, tax.GreaterThanOrEqual(prev),
			"tax must not decrease: gross %d gave %s after %s", gross, tax, prev)
		prev = tax
	}
}

func TestUKBandThresholdsScaleWithPriceIndex(t *testing.T) {
	in := ukInputs()

	// Income exactly tracking inflation should pay exactly scaled tax.
	index := d(1.5)
	base := incomeTax(in, d(60000), one)
	scaled := incomeTax(in, d(90000), index)
	assert.True(t, scaled.Sub(base.Mul(index)).Abs().LessThan(d(0.01)),
		"expected %s, got %s", base.Mul(index), scaled)
}

func TestNetFromTaxableGross(t *testing.T) {
	// Sale entirely covered by basis realizes no gain.
	net := netFromTaxableGross(d(1000), d(10000), d(10000), d(3000), d(0.2))
	assert.True(t, net.Equal(d(1000)), "got %s", net)

	// Gain fully inside the allowance is untaxed.
	net = netFromTaxableGross(d(1000), d(10000), d(5000), d(3000), d(0.2))
	assert.True(t, net.Equal(d(1000)), "got %s", net)

	// Zero allowance taxes the whole gain portion.
	net = netFromTaxableGross(d(1000), d(10000), d(5000), decimal.Zero, d(0.2))
	assert.True(t, net.Equal(d(900)), "got %s", net)
}

func TestCGTInversionSolvesGrossForNet(t *testing.T) {
	// Balance 100k, basis 40k, allowance 3k, CGT 20%: request net 10k.
	// G - (0.6G - 3000)*0.2 = 10000  =>  G = 9400 / 0.88.
	in := deterministicInputs()
	in.CapitalGainsTaxRate = d(0.20)
	p := &portfolio{taxable: d(100000), taxableBasis: d(40000)}
	cgt := &cgtYear{allowanceRemaining: d(3000)}

	net := withdrawTaxableForNet(in, d(10000), p, cgt)
	require.True(t, net.Sub(d(10000)).Abs().LessThanOrEqual(one),
		"net should hit the target within £1, got %s", net)

	expectedGross := d(9400.0 / 0.88)
	gross := d(100000).Sub(p.taxable)
	assert.True(t, gross.Sub(expectedGross).Abs().LessThanOrEqual(one),
		"expected gross ~%s, got %s", expectedGross, gross)
}

func TestPensionInversionRoundTrip(t *testing.T) {
	in := ukInputs()

	targets := []float64{500, 5000, 15000, 40000, 90000}
	for _, target := range targets {
		p := &portfolio{pension: d(500000)}
		ty := &taxYear{nonPensionIncome: d(9000), priceIndex: one}

		net := withdrawPensionForNet(in, d(target), p, ty)
		assert.True(t, net.Sub(d(target)).Abs().LessThan(d(0.01)),
			"target %v: net came back as %s", target, net)

		// The recorded gross must reproduce the net through the tax engine.
		check := &taxYear{nonPensionIncome: d(9000), priceIndex: one}
		reNet := check.netFromPensionGross(in, ty.pensionGross)
		assert.True(t, reNet.Sub(net).Abs().LessThan(d(0.01)),
			"target %v: round trip drifted from %s to %s", target, net, reNet)
	}
}

func TestPensionInversionCapsAtPot(t *testing.T) {
	in := deterministicInputs()
	in.PensionFlatTaxRate = d(0.20)
	p := &portfolio{pension: d(1000)}
	ty := &taxYear{priceIndex: one}

	net := withdrawPensionForNet(in, d(5000), p, ty)
	assert.True(t, net.Sub(d(800)).Abs().LessThan(d(0.01)),
		"the whole pot nets 80%% of 1000, got %s", net)
	assert.True(t, p.pension.LessThan(d(0.01)), "pot should be drained, got %s", p.pension)
}

func TestSolveGrossForNetHandlesZeroTargets(t *testing.T) {
	identity := func(g decimal.Decimal) decimal.Decimal { return g }
	assert.True(t, solveGrossForNet(decimal.Zero, d(100), identity).IsZero())
	assert.True(t, solveGrossForNet(d(10), decimal.Zero, identity).IsZero())
}
