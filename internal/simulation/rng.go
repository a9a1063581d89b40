package simulation

import "math"

// The engine never keeps RNG state: every draw is a pure function of
// (run seed, candidate age, scenario index, year index, stream index). That
// makes results byte-identical no matter how scenarios are scheduled across
// workers, and lets a single scenario be replayed exactly for tracing.

const seedGamma = 0x9E3779B97F4A7C15

func splitmix64(x uint64) uint64 {
	x += seedGamma
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// streamKey folds the draw coordinates into a 64-bit key.
func streamKey(seed uint64, age, scenario, year, stream int) uint64 {
	k := splitmix64(seed ^ (uint64(age) << 48))
	k = splitmix64(k ^ (uint64(scenario) << 20) ^ uint64(year))
	return splitmix64(k ^ (uint64(stream) * seedGamma))
}

// unitUniform maps a key to (0,1) using the top 53 bits of one splitmix step.
func unitUniform(key uint64) float64 {
	const denom = float64(1 << 53)
	v := splitmix64(key) >> 11
	return (float64(v) + 0.5) / denom
}

// standardNormal returns one N(0,1) variate via the Box-Muller transform.
// Only the cosine branch is used so each (stream) coordinate yields exactly
// one normal; the sibling uniform comes from a re-keyed splitmix step.
func standardNormal(seed uint64, age, scenario, year, stream int) float64 {
	key := streamKey(seed, age, scenario, year, stream)
	u1 := math.Max(unitUniform(key), 1e-12)
	u2 := unitUniform(splitmix64(key ^ 0xA5A5A5A5A5A5A5A5))
	return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
}
