package viz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ionsim/internal/core"
)

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)

	c.Set(0, 0)
	assert.Equal(t, rune(0x2801), c.Grid[0][0])

	c.Set(1, 0)
	assert.Equal(t, rune(0x2809), c.Grid[0][0])

	// out of range is ignored
	c.Set(-1, 0)
	c.Set(100, 100)

	c.Clear()
	for _, row := range c.Grid {
		for _, cell := range row {
			assert.Equal(t, rune(0x2800), cell)
		}
	}
}

func TestCanvasStringShape(t *testing.T) {
	c := NewCanvas(3, 2)
	lines := strings.Split(strings.TrimRight(c.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Len(t, []rune(line), 3)
	}
}

func TestPlaneProjection(t *testing.T) {
	v := core.Vector{X: 1, Y: 2, Z: 3}

	h, w := PlaneXY.project(v)
	assert.Equal(t, [2]float64{1, 2}, [2]float64{h, w})
	h, w = PlaneXZ.project(v)
	assert.Equal(t, [2]float64{1, 3}, [2]float64{h, w})
	h, w = PlaneYZ.project(v)
	assert.Equal(t, [2]float64{2, 3}, [2]float64{h, w})

	assert.Equal(t, "xy", PlaneXY.String())
	assert.Equal(t, "xz", PlaneXZ.String())
	assert.Equal(t, "yz", PlaneYZ.String())
}

func TestDrawCloudLightsPixels(t *testing.T) {
	c := NewCanvas(10, 10)
	particles := []*core.Particle{
		core.NewParticle(core.Vector{X: -1, Y: -1}, core.Vector{}, 1.0, 100.0),
		core.NewParticle(core.Vector{X: 1, Y: 1}, core.Vector{}, 1.0, 100.0),
	}

	min := core.Vector{X: -1, Y: -1, Z: -1}
	max := core.Vector{X: 1, Y: 1, Z: 1}
	c.DrawCloud(particles, PlaneXY, min, max)

	lit := 0
	for _, row := range c.Grid {
		for _, cell := range row {
			if cell != 0x2800 {
				lit++
			}
		}
	}
	assert.Equal(t, 2, lit)
}

func TestDrawCloudSkipsInactive(t *testing.T) {
	c := NewCanvas(10, 10)
	p := core.NewParticle(core.Vector{}, core.Vector{}, 1.0, 100.0)
	p.SetActive(false)

	c.DrawCloud([]*core.Particle{p}, PlaneXY, core.Vector{X: -1, Y: -1}, core.Vector{X: 1, Y: 1})
	for _, row := range c.Grid {
		for _, cell := range row {
			assert.Equal(t, rune(0x2800), cell)
		}
	}
}

func TestCloudBounds(t *testing.T) {
	particles := []*core.Particle{
		core.NewParticle(core.Vector{X: -1, Y: 2, Z: 0}, core.Vector{}, 1.0, 100.0),
		core.NewParticle(core.Vector{X: 3, Y: -2, Z: 1}, core.Vector{}, 1.0, 100.0),
	}
	min, max := CloudBounds(particles)

	assert.Less(t, min.X, -1.0)
	assert.Greater(t, max.X, 3.0)
	assert.Less(t, min.Y, -2.0)
	assert.Greater(t, max.Y, 2.0)

	// empty cloud
	min, max = CloudBounds(nil)
	assert.Equal(t, core.Vector{}, min)
	assert.Equal(t, core.Vector{}, max)

	// degenerate cloud still yields a non-empty box
	single := particles[:1]
	min, max = CloudBounds(single)
	assert.Less(t, min.X, max.X)
}
