package simulation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/RickyBoyd/fire/internal/domain"
)

// marketSample holds one year's sampled nominal returns and inflation.
type marketSample struct {
	isaReturn     decimal.Decimal
	taxableReturn decimal.Decimal
	pensionReturn decimal.Decimal
	inflation     decimal.Decimal
}

// sampler draws correlated annual returns for one candidate age. ISA and
// taxable share the equity shock z1; the pension return mixes in an
// orthogonal shock z2 through the configured correlation; inflation uses z3.
// A fourth stream is reserved (and still derived, so stream offsets stay
// stable if it is ever used). A full cross-account covariance would replace
// draw wholesale.
type sampler struct {
	seed uint64
	age  int

	isaMean, isaVol         float64
	taxableMean, taxableVol float64
	pensionMean, pensionVol float64
	inflationMean, inflVol  float64
	corr, orth              float64
}

func newSampler(in *domain.Inputs, age int) *sampler {
	corr := in.ReturnCorrelation.InexactFloat64()
	return &sampler{
		seed:          in.Seed,
		age:           age,
		isaMean:       in.IsaReturnMean.InexactFloat64(),
		isaVol:        in.IsaReturnVol.InexactFloat64(),
		taxableMean:   in.TaxableReturnMean.InexactFloat64(),
		taxableVol:    in.TaxableReturnVol.InexactFloat64(),
		pensionMean:   in.PensionReturnMean.InexactFloat64(),
		pensionVol:    in.PensionReturnVol.InexactFloat64(),
		inflationMean: in.InflationMean.InexactFloat64(),
		inflVol:       in.InflationVol.InexactFloat64(),
		corr:          corr,
		orth:          math.Sqrt(math.Max(1.0-corr*corr, 0.0)),
	}
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// draw samples one year for one scenario. Returns clamp to [-0.95, 2.5] and
// inflation to [-0.03, 0.20].
func (s *sampler) draw(scenario, year int) marketSample {
	z1 := standardNormal(s.seed, s.age, scenario, year, 0)
	z2 := standardNormal(s.seed, s.age, scenario, year, 1)
	z3 := standardNormal(s.seed, s.age, scenario, year, 2)
	_ = standardNormal(s.seed, s.age, scenario, year, 3) // z4 reserved

	isa := clampFloat(s.isaMean+s.isaVol*z1, -0.95, 2.5)
	taxable := clampFloat(s.taxableMean+s.taxableVol*z1, -0.95, 2.5)
	pension := clampFloat(s.pensionMean+s.pensionVol*(s.corr*z1+s.orth*z2), -0.95, 2.5)
	inflation := clampFloat(s.inflationMean+s.inflVol*z3, -0.03, 0.20)

	return marketSample{
		isaReturn:     decimal.NewFromFloat(isa),
		taxableReturn: decimal.NewFromFloat(taxable),
		pensionReturn: decimal.NewFromFloat(pension),
		inflation:     decimal.NewFromFloat(inflation),
	}
}
