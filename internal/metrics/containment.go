package metrics

import "github.com/san-kum/ionsim/internal/core"

// Containment reports the fraction of observations in which every active
// particle stayed within a radius around the origin.
type Containment struct {
	radius     float64
	violations int
	samples    int
}

func NewContainment(radius float64) *Containment {
	return &Containment{radius: radius}
}

func (m *Containment) Name() string { return "containment" }

func (m *Containment) Observe(particles []*core.Particle, _ float64) {
	m.samples++
	r2 := m.radius * m.radius
	for _, p := range particles {
		if p.Active() && p.Location.NormSquared() > r2 {
			m.violations++
			break
		}
	}
}

func (m *Containment) Value() float64 {
	if m.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(m.violations)/float64(m.samples)
}

func (m *Containment) Reset() {
	m.violations = 0
	m.samples = 0
}
