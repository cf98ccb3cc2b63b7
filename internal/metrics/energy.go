package metrics

import (
	"math"

	"github.com/san-kum/ionsim/internal/core"
)

// KineticEnergy reports the total kinetic energy of the active particles
// at the last observation.
type KineticEnergy struct {
	energy float64
}

func NewKineticEnergy() *KineticEnergy { return &KineticEnergy{} }

func (m *KineticEnergy) Name() string { return "kinetic_energy" }

func (m *KineticEnergy) Observe(particles []*core.Particle, _ float64) {
	e := 0.0
	for _, p := range particles {
		if !p.Active() {
			continue
		}
		e += 0.5 * p.Mass() * p.Velocity.NormSquared()
	}
	m.energy = e
}

func (m *KineticEnergy) Value() float64 { return m.energy }

func (m *KineticEnergy) Reset() { m.energy = 0 }

// TotalEnergy reports kinetic plus pairwise Coulomb potential energy of
// the active particles. The pair sum is O(N²); observe at a coarse
// interval for large clouds.
type TotalEnergy struct {
	energy float64
}

func NewTotalEnergy() *TotalEnergy { return &TotalEnergy{} }

func (m *TotalEnergy) Name() string { return "total_energy" }

func (m *TotalEnergy) Observe(particles []*core.Particle, _ float64) {
	m.energy = cloudEnergy(particles)
}

func (m *TotalEnergy) Value() float64 { return m.energy }

func (m *TotalEnergy) Reset() { m.energy = 0 }

// EnergyDrift tracks the maximum relative deviation of the cloud's total
// energy from its first observation. For a collisionless cloud this
// measures integration quality.
type EnergyDrift struct {
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift { return &EnergyDrift{} }

func (m *EnergyDrift) Name() string { return "energy_drift" }

func (m *EnergyDrift) Observe(particles []*core.Particle, _ float64) {
	energy := cloudEnergy(particles)
	if m.samples == 0 {
		m.initial = energy
	}
	m.samples++
	if m.initial != 0 {
		drift := math.Abs((energy - m.initial) / m.initial)
		if drift > m.maxDrift {
			m.maxDrift = drift
		}
	}
}

func (m *EnergyDrift) Value() float64 { return m.maxDrift }

func (m *EnergyDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}

func cloudEnergy(particles []*core.Particle) float64 {
	e := 0.0
	for i, p := range particles {
		if !p.Active() {
			continue
		}
		e += 0.5 * p.Mass() * p.Velocity.NormSquared()
		for _, q := range particles[i+1:] {
			if !q.Active() {
				continue
			}
			r := p.Location.Sub(q.Location).Norm()
			if r > 0 {
				e += core.ElectricConstant * p.Charge() * q.Charge() / r
			}
		}
	}
	return e
}
