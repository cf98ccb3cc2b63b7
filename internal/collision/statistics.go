package collision

import "math"

// defaultStatisticsResolution is the quantile count of the lookup table.
const defaultStatisticsResolution = 512

// maxNormalizedSpeed clips the upper tail of the speed distribution; the
// probability mass beyond it is below 1e-12.
const maxNormalizedSpeed = 8.0

// CollisionStatistics is an inverse CDF lookup table for the normalized
// Maxwell-Boltzmann speed distribution (three degrees of freedom, unit
// scale parameter). The statistical diffusion model draws its velocity
// kick magnitudes from this table instead of evaluating the distribution
// per collision.
type CollisionStatistics struct {
	quantiles []float64
}

// NewCollisionStatistics builds the lookup table at the default resolution.
func NewCollisionStatistics() *CollisionStatistics {
	return NewCollisionStatisticsWithResolution(defaultStatisticsResolution)
}

// NewCollisionStatisticsWithResolution builds the table with n quantile
// entries. The entries are computed once by bisecting the analytic CDF.
func NewCollisionStatisticsWithResolution(n int) *CollisionStatistics {
	if n < 2 {
		n = 2
	}
	s := &CollisionStatistics{quantiles: make([]float64, n)}
	for i := range s.quantiles {
		p := float64(i) / float64(n-1)
		s.quantiles[i] = maxwellSpeedQuantile(p)
	}
	return s
}

// Sample maps a uniform value in [0, 1) to a normalized speed by linear
// interpolation between the table quantiles.
func (s *CollisionStatistics) Sample(u float64) float64 {
	if u <= 0 {
		return s.quantiles[0]
	}
	if u >= 1 {
		return s.quantiles[len(s.quantiles)-1]
	}
	pos := u * float64(len(s.quantiles)-1)
	i := int(pos)
	frac := pos - float64(i)
	return s.quantiles[i]*(1-frac) + s.quantiles[i+1]*frac
}

// maxwellSpeedCDF is the CDF of the Maxwell-Boltzmann speed distribution
// with unit scale parameter.
func maxwellSpeedCDF(x float64) float64 {
	return math.Erf(x/math.Sqrt2) - math.Sqrt(2/math.Pi)*x*math.Exp(-x*x/2)
}

func maxwellSpeedQuantile(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return maxNormalizedSpeed
	}
	lo, hi := 0.0, maxNormalizedSpeed
	for i := 0; i < 64; i++ {
		mid := (lo + hi) / 2
		if maxwellSpeedCDF(mid) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
