// Package viz renders particle clouds in the terminal: a braille pixel
// canvas for cloud projections and a bubbletea live monitor that steps a
// simulation while showing it.
package viz

import (
	"strings"

	"github.com/san-kum/ionsim/internal/core"
)

// Braille patterns: 2x4 dots per cell, unicode offset 0x2800.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille pixel canvas. Cell resolution is Width x Height;
// pixel resolution is (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the pixel at (x, y) in pixel coordinates.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Clear blanks the canvas.
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Plane selects the projection plane of a cloud drawing.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

func (p Plane) String() string {
	switch p {
	case PlaneXZ:
		return "xz"
	case PlaneYZ:
		return "yz"
	default:
		return "xy"
	}
}

func (p Plane) project(v core.Vector) (float64, float64) {
	switch p {
	case PlaneXZ:
		return v.X, v.Z
	case PlaneYZ:
		return v.Y, v.Z
	default:
		return v.X, v.Y
	}
}

// DrawCloud projects the active particles onto the plane and draws them
// scaled into the box [min, max] of projected coordinates.
func (c *Canvas) DrawCloud(particles []*core.Particle, plane Plane, min, max core.Vector) {
	hMin, vMin := plane.project(min)
	hMax, vMax := plane.project(max)
	if hMax <= hMin || vMax <= vMin {
		return
	}

	pw := float64(c.Width * 2)
	ph := float64(c.Height * 4)
	for _, p := range particles {
		if !p.Active() {
			continue
		}
		h, v := plane.project(p.Location)
		x := int((h - hMin) / (hMax - hMin) * (pw - 1))
		// terminal rows grow downward
		y := int((vMax - v) / (vMax - vMin) * (ph - 1))
		c.Set(x, y)
	}
}

// CloudBounds is the axis-aligned bounding box of the active particles,
// padded a little so edge particles stay visible. The zero box is returned
// for an empty cloud.
func CloudBounds(particles []*core.Particle) (core.Vector, core.Vector) {
	first := true
	var min, max core.Vector
	for _, p := range particles {
		if !p.Active() {
			continue
		}
		if first {
			min, max = p.Location, p.Location
			first = false
			continue
		}
		min = componentMin(min, p.Location)
		max = componentMax(max, p.Location)
	}
	if first {
		return core.Vector{}, core.Vector{}
	}
	pad := max.Sub(min).Mul(0.05)
	if pad == (core.Vector{}) {
		pad = core.Vector{X: 1e-6, Y: 1e-6, Z: 1e-6}
	}
	return min.Sub(pad), max.Add(pad)
}

func componentMin(a, b core.Vector) core.Vector {
	if b.X < a.X {
		a.X = b.X
	}
	if b.Y < a.Y {
		a.Y = b.Y
	}
	if b.Z < a.Z {
		a.Z = b.Z
	}
	return a
}

func componentMax(a, b core.Vector) core.Vector {
	if b.X > a.X {
		a.X = b.X
	}
	if b.Y > a.Y {
		a.Y = b.Y
	}
	if b.Z > a.Z {
		a.Z = b.Z
	}
	return a
}
