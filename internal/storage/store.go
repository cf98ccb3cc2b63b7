// Package storage keeps finished simulation runs on disk. Every run gets
// its own directory under the store base with a metadata JSON, the
// configuration, the trajectory artifacts and a per-step metric series.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one finished run.
type RunMetadata struct {
	ID             string             `json:"id"`
	Preset         string             `json:"preset,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
	Seed           uint64             `json:"seed"`
	Dt             float64            `json:"dt"`
	TimeSteps      int                `json:"time_steps"`
	Ions           int                `json:"ions"`
	CollisionModel string             `json:"collision_model"`
	Compressed     bool               `json:"compressed"`
	Metrics        map[string]float64 `json:"metrics"`
}

// SeriesRecord is one row of the per-step metric series of a run.
type SeriesRecord struct {
	Step          int     `csv:"step"`
	Time          float64 `csv:"time"`
	Active        int     `csv:"active"`
	KineticEnergy float64 `csv:"kinetic_energy"`
}

// CreateRun allocates a new run directory and returns its ID and path.
func (s *Store) CreateRun(name string) (string, string, error) {
	runID := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	dir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", err
	}
	return runID, dir, nil
}

// RunDir is the directory of a run.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// TrajectoryPath is the trajectory file of a run.
func (s *Store) TrajectoryPath(runID string, compressed bool) string {
	name := "trajectory.csv"
	if compressed {
		name += ".zst"
	}
	return filepath.Join(s.RunDir(runID), name)
}

// SplatPath is the splat table of a run.
func (s *Store) SplatPath(runID string) string {
	return filepath.Join(s.RunDir(runID), "splats.csv")
}

// SaveMetadata writes the metadata JSON of a run.
func (s *Store) SaveMetadata(meta RunMetadata) error {
	file, err := os.Create(filepath.Join(s.RunDir(meta.ID), "metadata.json"))
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// SaveSeries writes the per-step metric series of a run.
func (s *Store) SaveSeries(runID string, records []SeriesRecord) error {
	file, err := os.Create(filepath.Join(s.RunDir(runID), "series.csv"))
	if err != nil {
		return err
	}
	defer file.Close()
	return gocsv.Marshal(records, file)
}

// LoadSeries reads the metric series of a run back.
func (s *Store) LoadSeries(runID string) ([]SeriesRecord, error) {
	file, err := os.Open(filepath.Join(s.RunDir(runID), "series.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var records []SeriesRecord
	if err := gocsv.Unmarshal(file, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// List reads the metadata of all runs in the store. Directories without a
// readable metadata file are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

// Load reads the metadata of one run.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
