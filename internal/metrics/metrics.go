// Package metrics observes particle clouds during a run. Metrics hook
// into the integrator's timestep write callback and aggregate scalar
// diagnostics over the run.
package metrics

import "github.com/san-kum/ionsim/internal/core"

// Metric observes the cloud after each step and reduces it to a scalar.
type Metric interface {
	Name() string
	Observe(particles []*core.Particle, time float64)
	Value() float64
	Reset()
}

// ActiveCount reports the number of active particles at the last
// observation.
type ActiveCount struct {
	active int
}

func NewActiveCount() *ActiveCount { return &ActiveCount{} }

func (m *ActiveCount) Name() string { return "active_particles" }

func (m *ActiveCount) Observe(particles []*core.Particle, _ float64) {
	n := 0
	for _, p := range particles {
		if p.Active() {
			n++
		}
	}
	m.active = n
}

func (m *ActiveCount) Value() float64 { return float64(m.active) }

func (m *ActiveCount) Reset() { m.active = 0 }

// MeanCollisions reports the mean of a per-particle integer attribute at
// the last observation, typically the collision counter.
type MeanCollisions struct {
	attribute string
	mean      float64
}

func NewMeanCollisions(attribute string) *MeanCollisions {
	return &MeanCollisions{attribute: attribute}
}

func (m *MeanCollisions) Name() string { return "mean_" + m.attribute }

func (m *MeanCollisions) Observe(particles []*core.Particle, _ float64) {
	if len(particles) == 0 {
		m.mean = 0
		return
	}
	sum := 0
	for _, p := range particles {
		sum += p.IntAttribute(m.attribute)
	}
	m.mean = float64(sum) / float64(len(particles))
}

func (m *MeanCollisions) Value() float64 { return m.mean }

func (m *MeanCollisions) Reset() { m.mean = 0 }
