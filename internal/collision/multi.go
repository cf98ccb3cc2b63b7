package collision

import (
	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/rng"
)

// Multi combines one sub-model per background gas component. All
// sub-models are applied in order each step, so every gas component
// contributes its own collision statistics.
type Multi struct {
	models []Model
}

func NewMulti(models ...Model) *Multi {
	return &Multi{models: models}
}

func (m *Multi) InitializeModelParticleParameters(p *core.Particle) {
	for _, sub := range m.models {
		sub.InitializeModelParticleParameters(p)
	}
}

func (m *Multi) ApplyCollision(p *core.Particle, dt float64, src *rng.Source) {
	for _, sub := range m.models {
		sub.ApplyCollision(p, dt, src)
	}
}

// SpeciesAware dispatches to a sub-model selected by the particle's
// species index. Particles of a species without a model pass through
// untouched.
type SpeciesAware struct {
	models map[int]Model
}

func NewSpeciesAware(models map[int]Model) *SpeciesAware {
	return &SpeciesAware{models: models}
}

func (m *SpeciesAware) InitializeModelParticleParameters(p *core.Particle) {
	if sub, ok := m.models[p.SpeciesIndex()]; ok {
		sub.InitializeModelParticleParameters(p)
	}
}

func (m *SpeciesAware) ApplyCollision(p *core.Particle, dt float64, src *rng.Source) {
	if sub, ok := m.models[p.SpeciesIndex()]; ok {
		sub.ApplyCollision(p, dt, src)
	}
}
