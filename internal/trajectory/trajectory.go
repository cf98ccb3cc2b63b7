// Package trajectory persists particle trajectories and splat tables as
// CSV, optionally zstd compressed. The writer implements the integrator's
// timestep write hook, so it plugs directly into a simulation.
package trajectory

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/DataDog/zstd"
	"github.com/gocarina/gocsv"

	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/simulation"
)

// Record is one particle state row of the trajectory file.
type Record struct {
	Step             int     `csv:"step"`
	Time             float64 `csv:"time"`
	Particle         int     `csv:"particle"`
	X                float64 `csv:"x"`
	Y                float64 `csv:"y"`
	Z                float64 `csv:"z"`
	VX               float64 `csv:"vx"`
	VY               float64 `csv:"vy"`
	VZ               float64 `csv:"vz"`
	ChargeElementary float64 `csv:"charge_e"`
	MassAMU          float64 `csv:"mass_amu"`
	Active           bool    `csv:"active"`
	// Attributes holds the configured particle attributes, semicolon
	// separated in configuration order.
	Attributes string `csv:"attributes"`
}

// SplatRecord is one row of the splat table written at finalization.
type SplatRecord struct {
	Particle  int     `csv:"particle"`
	StartTime float64 `csv:"start_time"`
	SplatTime float64 `csv:"splat_time"`
	StartX    float64 `csv:"start_x"`
	StartY    float64 `csv:"start_y"`
	StartZ    float64 `csv:"start_z"`
	SplatX    float64 `csv:"splat_x"`
	SplatY    float64 `csv:"splat_y"`
	SplatZ    float64 `csv:"splat_z"`
	Restarts  int     `csv:"restarts"`
}

// Options configures a trajectory Writer.
type Options struct {
	// Interval writes every Interval-th step. Zero or one writes every
	// step; the final state is always written.
	Interval int

	// Compress wraps the output in a zstd stream.
	Compress bool

	// FloatAttributes selects particle float attributes for the
	// attributes column.
	FloatAttributes []string

	// IntAttributes selects particle integer attributes for the
	// attributes column, after the float attributes.
	IntAttributes []string
}

// Writer streams trajectory records to a file. Not safe for concurrent
// use; the integrator calls the write hook serially.
type Writer struct {
	file *os.File
	out  io.Writer

	zstdWriter io.WriteCloser

	opts          Options
	headerWritten bool
}

// NewWriter creates a trajectory writer at path.
func NewWriter(path string, opts Options) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trajectory file: %w", err)
	}

	w := &Writer{file: file, out: file, opts: opts}
	if opts.Compress {
		w.zstdWriter = zstd.NewWriter(file)
		w.out = w.zstdWriter
	}
	return w, nil
}

// TimestepWrite appends the current particle states when the step falls on
// the write interval or the run finalizes. It satisfies the integrator's
// timestep write hook.
func (w *Writer) TimestepWrite(particles []*core.Particle, time float64, step int, lastStep bool) {
	if !lastStep && w.opts.Interval > 1 && step%w.opts.Interval != 0 {
		return
	}
	// ignore write errors here; Close surfaces the flush error
	_ = w.writeRecords(particles, time, step)
}

func (w *Writer) writeRecords(particles []*core.Particle, time float64, step int) error {
	records := make([]Record, 0, len(particles))
	for i, p := range particles {
		records = append(records, Record{
			Step:             step,
			Time:             time,
			Particle:         particleIndex(p, i),
			X:                p.Location.X,
			Y:                p.Location.Y,
			Z:                p.Location.Z,
			VX:               p.Velocity.X,
			VY:               p.Velocity.Y,
			VZ:               p.Velocity.Z,
			ChargeElementary: p.Charge() / core.ElementaryCharge,
			MassAMU:          p.Mass() / core.AmuToKg,
			Active:           p.Active(),
			Attributes:       w.attributeColumn(p),
		})
	}

	if !w.headerWritten {
		w.headerWritten = true
		return gocsv.Marshal(records, w.out)
	}
	return gocsv.MarshalWithoutHeaders(records, w.out)
}

func (w *Writer) attributeColumn(p *core.Particle) string {
	if len(w.opts.FloatAttributes) == 0 && len(w.opts.IntAttributes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(w.opts.FloatAttributes)+len(w.opts.IntAttributes))
	for _, name := range w.opts.FloatAttributes {
		parts = append(parts, strconv.FormatFloat(p.FloatAttribute(name), 'g', -1, 64))
	}
	for _, name := range w.opts.IntAttributes {
		parts = append(parts, strconv.Itoa(p.IntAttribute(name)))
	}
	return strings.Join(parts, ";")
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if w.zstdWriter != nil {
		if err := w.zstdWriter.Close(); err != nil {
			w.file.Close()
			return fmt.Errorf("closing zstd stream: %w", err)
		}
	}
	return w.file.Close()
}

func particleIndex(p *core.Particle, fallback int) int {
	if p.HasIntAttribute(simulation.AttrGlobalIndex) {
		return p.IntAttribute(simulation.AttrGlobalIndex)
	}
	return fallback
}

// OpenRecords reads a trajectory file back, transparently decompressing
// zstd streams.
func OpenRecords(path string, compressed bool) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var in io.Reader = file
	if compressed {
		zr := zstd.NewReader(file)
		defer zr.Close()
		in = zr
	}

	var records []Record
	if err := gocsv.Unmarshal(in, &records); err != nil {
		return nil, fmt.Errorf("reading trajectory: %w", err)
	}
	return records, nil
}

// WriteSplatTable writes the lifecycle records of a tracker as CSV.
func WriteSplatTable(path string, records []simulation.StartSplatRecord) error {
	rows := make([]SplatRecord, 0, len(records))
	for _, rec := range records {
		rows = append(rows, SplatRecord{
			Particle:  rec.GlobalIndex,
			StartTime: rec.StartTime,
			SplatTime: rec.SplatTime,
			StartX:    rec.StartLocation.X,
			StartY:    rec.StartLocation.Y,
			StartZ:    rec.StartLocation.Z,
			SplatX:    rec.SplatLocation.X,
			SplatY:    rec.SplatLocation.Y,
			SplatZ:    rec.SplatLocation.Z,
			Restarts:  rec.Restarts,
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating splat table: %w", err)
	}
	defer file.Close()

	return gocsv.Marshal(rows, file)
}

// ReadSplatTable reads a splat table back.
func ReadSplatTable(path string) ([]SplatRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rows []SplatRecord
	if err := gocsv.Unmarshal(file, &rows); err != nil {
		return nil, fmt.Errorf("reading splat table: %w", err)
	}
	return rows, nil
}
