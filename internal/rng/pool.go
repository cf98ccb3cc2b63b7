// Package rng provides per-worker random number sources for the parallel
// simulation phases. Every worker of the integration thread pool owns one
// bit generator with bound uniform and normal distributions; generators are
// never shared between workers, so drawing values is free of contention.
package rng

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"runtime"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// defaultTestSeed seeds the deterministic pool variant.
const defaultTestSeed uint64 = 123456789

// Distribution produces random values from a fixed distribution. It is
// bound at construction to one generator and must only be used by the
// worker owning that generator.
type Distribution interface {
	RndValue() float64
}

// Pool hands out the per-worker random sources. Two variants exist: the
// productive pool (entropy seeded, non reproducible) and the test pool
// (fixed seeds, reproducible run to run for a fixed worker count).
// Callers select the variant at construction, not at the call sites.
type Pool interface {
	// SourceForWorker returns the source owned by the given worker index.
	SourceForWorker(worker int) *Source
	// UniformDistribution returns a uniform distribution in [min, max)
	// bound to the first pool element. Intended for serial setup code.
	UniformDistribution(min, max float64) Distribution
	// SetSeedForElements reseeds all pool elements with the same seed.
	SetSeedForElements(seed uint64)
	// Size is the number of pool elements.
	Size() int
}

// Source is one pool element: a bit generator plus bound distributions.
type Source struct {
	bits    rand.Source
	uniform distuv.Uniform
	normal  distuv.Normal
}

func newSource(seed uint64) *Source {
	bits := rand.NewSource(seed)
	return &Source{
		bits:    bits,
		uniform: distuv.Uniform{Min: 0, Max: 1, Src: bits},
		normal:  distuv.Normal{Mu: 0, Sigma: 1, Src: bits},
	}
}

// UniformRealRndValue draws a uniform value in [0, 1).
func (s *Source) UniformRealRndValue() float64 { return s.uniform.Rand() }

// NormalRealRndValue draws a standard normally distributed value.
func (s *Source) NormalRealRndValue() float64 { return s.normal.Rand() }

// Uniform returns a uniform distribution in [min, max) bound to this source.
func (s *Source) Uniform(min, max float64) Distribution {
	return uniformDistribution{distuv.Uniform{Min: min, Max: max, Src: s.bits}}
}

// Normal returns a normal distribution with the given parameters bound to
// this source.
func (s *Source) Normal(mu, sigma float64) Distribution {
	return normalDistribution{distuv.Normal{Mu: mu, Sigma: sigma, Src: s.bits}}
}

func (s *Source) seed(seed uint64) { s.bits.Seed(seed) }

type uniformDistribution struct{ dist distuv.Uniform }

func (d uniformDistribution) RndValue() float64 { return d.dist.Rand() }

type normalDistribution struct{ dist distuv.Normal }

func (d normalDistribution) RndValue() float64 { return d.dist.Rand() }

// GeneratorPool is the productive pool: one entropy-seeded generator per
// worker, assigned at construction and never reassigned.
type GeneratorPool struct {
	elements []*Source
}

// NewGeneratorPool creates a productive pool with one element per
// available worker (GOMAXPROCS).
func NewGeneratorPool() *GeneratorPool {
	return NewGeneratorPoolWithSize(runtime.GOMAXPROCS(0))
}

// NewGeneratorPoolWithSize creates a productive pool with a fixed number
// of elements.
func NewGeneratorPoolWithSize(size int) *GeneratorPool {
	if size < 1 {
		size = 1
	}
	p := &GeneratorPool{elements: make([]*Source, size)}
	for i := range p.elements {
		p.elements[i] = newSource(entropySeed())
	}
	return p
}

func (p *GeneratorPool) SourceForWorker(worker int) *Source { return p.elements[worker] }

func (p *GeneratorPool) UniformDistribution(min, max float64) Distribution {
	return p.elements[0].Uniform(min, max)
}

func (p *GeneratorPool) SetSeedForElements(seed uint64) {
	for _, e := range p.elements {
		e.seed(seed)
	}
}

func (p *GeneratorPool) Size() int { return len(p.elements) }

// TestGeneratorPool is the deterministic pool variant: element seeds are
// derived from a fixed seed with SplitMix64, so every element produces a
// known sequence and two runs with the same worker count are bit identical.
type TestGeneratorPool struct {
	elements []*Source
}

// NewTestGeneratorPool creates a deterministic pool with one element per
// available worker.
func NewTestGeneratorPool() *TestGeneratorPool {
	return NewTestGeneratorPoolWithSize(runtime.GOMAXPROCS(0))
}

// NewTestGeneratorPoolWithSize creates a deterministic pool with a fixed
// number of elements.
func NewTestGeneratorPoolWithSize(size int) *TestGeneratorPool {
	p := &TestGeneratorPool{}
	p.reseed(defaultTestSeed, size)
	return p
}

func (p *TestGeneratorPool) reseed(seed uint64, size int) {
	if size < 1 {
		size = 1
	}
	if len(p.elements) != size {
		p.elements = make([]*Source, size)
		for i := range p.elements {
			p.elements[i] = newSource(0)
		}
	}
	sm := splitMix64{state: seed}
	for _, e := range p.elements {
		e.seed(sm.next())
	}
}

func (p *TestGeneratorPool) SourceForWorker(worker int) *Source { return p.elements[worker] }

func (p *TestGeneratorPool) UniformDistribution(min, max float64) Distribution {
	return p.elements[0].Uniform(min, max)
}

// SetSeedForElements re-derives all element seeds from the given seed.
func (p *TestGeneratorPool) SetSeedForElements(seed uint64) {
	p.reseed(seed, len(p.elements))
}

func (p *TestGeneratorPool) Size() int { return len(p.elements) }

// splitMix64 spreads one seed into well distributed per-element seeds.
// Reference: https://prng.di.unimi.it/splitmix64.c
type splitMix64 struct {
	state uint64
}

func (s *splitMix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func entropySeed() uint64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(buf[:])
}
