package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/ionsim/internal/analysis"
	"github.com/san-kum/ionsim/internal/collision"
	"github.com/san-kum/ionsim/internal/config"
	"github.com/san-kum/ionsim/internal/core"
	"github.com/san-kum/ionsim/internal/integrate"
	"github.com/san-kum/ionsim/internal/metrics"
	"github.com/san-kum/ionsim/internal/simulation"
	"github.com/san-kum/ionsim/internal/storage"
	"github.com/san-kum/ionsim/internal/trajectory"
	"github.com/san-kum/ionsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string

	steps   int
	dt      float64
	seed    uint64
	workers int

	stepsPerFrame int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ionsim",
		Short: "charged particle cloud simulator",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ionsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().IntVar(&steps, "steps", 0, "override time steps")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "override time step width")
	runCmd.Flags().Uint64Var(&seed, "seed", 0, "deterministic seed (0 = entropy)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 = all cores)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run metric series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with live cloud view",
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	liveCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	liveCmd.Flags().Uint64Var(&seed, "seed", 0, "deterministic seed (0 = entropy)")
	liveCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 10, "simulation steps per frame")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "compute cloud diagnostics from a recorded trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			names := config.ListPresets()
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func resolveConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (see 'ionsim presets')", preset)
		}
	default:
		cfg = config.DefaultConfig()
	}

	if steps > 0 {
		cfg.TimeSteps = steps
	}
	if dt > 0 {
		cfg.Dt = dt
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	setup, err := simulation.Build(cfg)
	if err != nil {
		return err
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	name := preset
	if name == "" {
		name = "run"
	}
	runID, runDir, err := store.CreateRun(name)
	if err != nil {
		return err
	}
	if err := config.Save(filepath.Join(runDir, "config.yaml"), cfg); err != nil {
		return err
	}

	writer, err := trajectory.NewWriter(store.TrajectoryPath(runID, cfg.CompressTrajectory), trajectory.Options{
		Interval:      cfg.TrajectoryWriteInterval,
		Compress:      cfg.CompressTrajectory,
		IntAttributes: []string{collision.AttrCollisionCount},
	})
	if err != nil {
		return err
	}

	kinetic := metrics.NewKineticEnergy()
	active := metrics.NewActiveCount()
	collisions := metrics.NewMeanCollisions(collision.AttrCollisionCount)
	var series []storage.SeriesRecord

	interval := cfg.TrajectoryWriteInterval
	if interval < 1 {
		interval = 1
	}
	write := func(particles []*core.Particle, time float64, step int, lastStep bool) {
		writer.TimestepWrite(particles, time, step, lastStep)
		if !lastStep && step%interval != 0 {
			return
		}
		kinetic.Observe(particles, time)
		active.Observe(particles, time)
		collisions.Observe(particles, time)
		series = append(series, storage.SeriesRecord{
			Step:          step,
			Time:          time,
			Active:        int(active.Value()),
			KineticEnergy: kinetic.Value(),
		})
	}

	opts := setup.IntegratorOptions()
	opts.TimestepWrite = write
	v, err := integrate.NewVerletIntegrator(setup.Particles, opts)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %d ions, %d steps, dt %.3e s\n", runID, len(setup.Particles), cfg.TimeSteps, cfg.Dt)
	start := time.Now()
	if err := v.Run(context.Background(), cfg.TimeSteps, cfg.Dt); err != nil {
		writer.Close()
		return err
	}
	elapsed := time.Since(start)

	if err := writer.Close(); err != nil {
		return err
	}
	if err := trajectory.WriteSplatTable(store.SplatPath(runID), setup.Tracker.Records()); err != nil {
		return err
	}
	if err := store.SaveSeries(runID, series); err != nil {
		return err
	}

	meta := storage.RunMetadata{
		ID:             runID,
		Preset:         preset,
		Timestamp:      time.Now(),
		Seed:           cfg.Seed,
		Dt:             cfg.Dt,
		TimeSteps:      v.Step(),
		Ions:           len(setup.Particles),
		CollisionModel: cfg.CollisionModel,
		Compressed:     cfg.CompressTrajectory,
		Metrics: map[string]float64{
			kinetic.Name():    kinetic.Value(),
			active.Name():     active.Value(),
			collisions.Name(): collisions.Value(),
		},
	}
	if err := store.SaveMetadata(meta); err != nil {
		return err
	}

	fmt.Printf("finished in %s: %d/%d ions active, %d splatted\n",
		elapsed.Round(time.Millisecond),
		int(active.Value()), len(setup.Particles),
		setup.Tracker.Splatted(),
	)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tIONS\tSTEPS\tDT\tMODEL\tSEED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2e\t%s\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ions,
			run.TimeSteps,
			run.Dt,
			run.CollisionModel,
			run.Seed,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	series, err := store.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("no series data for run %s", args[0])
	}

	fmt.Printf("run: %s\nions: %d\nsamples: %d\n\n", meta.ID, meta.Ions, len(series))

	active := make([]float64, len(series))
	kinetic := make([]float64, len(series))
	for i, rec := range series {
		active[i] = float64(rec.Active)
		kinetic[i] = rec.KineticEnergy
	}

	fmt.Println(asciigraph.Plot(active,
		asciigraph.Height(10), asciigraph.Width(80),
		asciigraph.Caption("active ions")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(kinetic,
		asciigraph.Height(10), asciigraph.Width(80),
		asciigraph.Caption("kinetic energy [J]")))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	records, err := trajectory.OpenRecords(store.TrajectoryPath(args[0], meta.Compressed), meta.Compressed)
	if err != nil {
		return err
	}
	summaries := analysis.Summarize(records)
	if len(summaries) == 0 {
		return fmt.Errorf("no trajectory data for run %s", args[0])
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tTIME\tACTIVE\tT [K]\tRMS RADIUS [m]\tMEAN SPEED [m/s]")
	for _, s := range summaries {
		fmt.Fprintf(w, "%d\t%.3e\t%d\t%.1f\t%.3e\t%.1f\n",
			s.Step, s.Time, s.Active, s.Temperature, s.RMSRadius, s.MeanSpeed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	temps := make([]float64, len(summaries))
	for i, s := range summaries {
		temps[i] = s.Temperature
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(temps,
		asciigraph.Height(10), asciigraph.Width(80),
		asciigraph.Caption("effective temperature [K]")))

	snapshots := analysis.GroupBySteps(records)
	final := snapshots[len(snapshots)-1]
	hist := analysis.NewSpeedHistogram(final, 16)

	fmt.Println("\nfinal speed distribution:")
	maxCount := 0.0
	for _, c := range hist.Counts {
		if c > maxCount {
			maxCount = c
		}
	}
	for i, c := range hist.Counts {
		bar := ""
		if maxCount > 0 {
			bar = strings.Repeat("█", int(c/maxCount*40))
		}
		fmt.Printf("%8.1f m/s %s %.0f\n", hist.Edges[i+1], bar, c)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	setup, err := simulation.Build(cfg)
	if err != nil {
		return err
	}
	v, err := integrate.NewVerletIntegrator(setup.Particles, setup.IntegratorOptions())
	if err != nil {
		return err
	}

	name := preset
	if name == "" {
		name = "ion cloud"
	}
	model := viz.NewModel(v, cfg.Dt, stepsPerFrame, name)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
