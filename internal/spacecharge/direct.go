package spacecharge

import "github.com/san-kum/ionsim/internal/core"

// DirectSolver sums the Coulomb field over all particle pairs. It is exact
// and O(N²), useful as reference for the tree and as solver for small
// clouds.
type DirectSolver struct {
	particles []*core.Particle
}

func NewDirectSolver() *DirectSolver {
	return &DirectSolver{}
}

func (s *DirectSolver) Reset() {
	s.particles = s.particles[:0]
}

func (s *DirectSolver) InsertParticle(p *core.Particle) error {
	s.particles = append(s.particles, p)
	return nil
}

// ComputeChargeDistribution is a no-op; the direct solver evaluates
// particle positions at query time.
func (s *DirectSolver) ComputeChargeDistribution() {}

func (s *DirectSolver) NumberOfParticles() int { return len(s.particles) }

func (s *DirectSolver) EFieldFromSpaceCharge(p *core.Particle) core.Vector {
	field := core.Vector{}
	for _, q := range s.particles {
		if q == p {
			continue
		}
		field = field.Add(coulombField(q.Charge(), q.Location, p.Location))
	}
	return field
}
