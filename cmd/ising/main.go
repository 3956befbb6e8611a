package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/ising/internal/config"
	"github.com/san-kum/ising/internal/export"
	"github.com/san-kum/ising/internal/metrics"
	"github.com/san-kum/ising/internal/sim"
	"github.com/san-kum/ising/internal/storage"
	"github.com/san-kum/ising/internal/viz"
)

var (
	dataDir string
	// Run parameters
	size     int
	sweeps   int
	tmin     float64
	tmax     float64
	ntemp    int
	temps    []float64
	seed     int64
	workers  int
	replicas int
	// Config file
	configFile string
	// Preset name
	preset string
	// Skip writing to the run store
	noSave bool
	// Live view updates per chain
	updates int
	// Export options
	exportFormat string
	exportOut    string
)

// main registers the commands and exits with status 1 if execution fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "ising",
		Short:        "2D Ising model Metropolis temperature sweeps",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ising", "data directory")

	runCmd := newRunCmd()
	liveCmd := newLiveCmd()

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy per site against temperature",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON or an energy curve image",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json, svg or png")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tL\tSWEEPS\tTEMPERATURES\tWORKERS\tREPLICAS")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\t%d\n", name, p.Size, p.Sweeps, describeSchedule(p), p.Workers, p.Replicas)
			}
			return w.Flush()
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure sweep throughput for several lattice sizes",
		Args:  cobra.NoArgs,
		RunE:  benchSweeps,
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, presetsCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run a temperature sweep",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addRunFlags(cmd)
	cmd.Flags().IntVar(&replicas, "replicas", config.DefaultReplicas, "independent seeded runs to average")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the run to the data directory")
	return cmd
}

// newLiveCmd has no --replicas flag; the live view follows a single run.
func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "run a temperature sweep with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addRunFlags(cmd)
	cmd.Flags().IntVar(&updates, "updates", 100, "view updates per chain")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the run to the data directory")
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&size, "size", config.DefaultSize, "lattice side length L")
	cmd.Flags().IntVar(&sweeps, "sweeps", config.DefaultSweeps, "sweeps per temperature")
	cmd.Flags().Float64Var(&tmin, "tmin", config.DefaultTMin, "lowest temperature")
	cmd.Flags().Float64Var(&tmax, "tmax", config.DefaultTMax, "highest temperature")
	cmd.Flags().IntVar(&ntemp, "ntemp", config.DefaultNTemp, "number of evenly spaced temperatures")
	cmd.Flags().Float64SliceVar(&temps, "temps", nil, "explicit temperatures (overrides tmin/tmax/ntemp)")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "temperatures simulated concurrently")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers preset, config file and explicitly set flags, in that
// order of increasing priority.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	layered := preset != "" || configFile != ""
	set := func(name string) bool { return !layered || flags.Changed(name) }

	if set("size") {
		cfg.Size = size
	}
	if set("sweeps") {
		cfg.Sweeps = sweeps
	}
	if set("tmin") {
		cfg.Temperatures.Min = tmin
	}
	if set("tmax") {
		cfg.Temperatures.Max = tmax
	}
	if set("ntemp") {
		cfg.Temperatures.Count = ntemp
	}
	if flags.Changed("temps") {
		cfg.Temperatures.Values = temps
	}
	if set("workers") {
		cfg.Workers = workers
	}
	switch {
	case flags.Lookup("replicas") == nil:
		cfg.Replicas = 1
	case set("replicas"):
		cfg.Replicas = replicas
	}
	// A seed from a file is kept unless --seed is given.
	if !cfg.SeedSet || flags.Changed("seed") {
		cfg.Seed = seed
		cfg.SeedSet = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func describeSchedule(c *config.Config) string {
	if len(c.Temperatures.Values) > 0 {
		return fmt.Sprint(c.Temperatures.Values)
	}
	return fmt.Sprintf("%d in [%g, %g]", c.Temperatures.Count, c.Temperatures.Min, c.Temperatures.Max)
}

func newSimulator() *sim.Simulator {
	s := sim.New()
	s.AddMetric(func() sim.Metric { return metrics.NewAcceptance() })
	return s
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	schedule := cfg.Schedule()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("%s L=%d sweeps=%d temperatures=%s seed=%d\n",
		viz.Title.Render("ising"), cfg.Size, cfg.Sweeps, describeSchedule(cfg), cfg.Seed)
	start := time.Now()

	var rows []storage.Row
	if cfg.Replicas > 1 {
		res, err := sim.NewEnsemble(newSimulator(), cfg.Replicas).Run(ctx, schedule, cfg.SimConfig())
		if err != nil {
			return err
		}
		rows = storage.RowsFromEnsemble(res)
	} else {
		res, err := newSimulator().Run(ctx, schedule, cfg.SimConfig())
		if err != nil {
			return err
		}
		rows = storage.RowsFromResult(res)
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Println(viz.Separator(60))
	if err := printRows(rows); err != nil {
		return err
	}

	return saveRun(cfg, rows, elapsed)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	schedule := cfg.Schedule()
	simCfg := cfg.SimConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(viz.NewModel(schedule, simCfg))

	s := newSimulator()
	s.AddObserver(viz.NewProgramObserver(p, simCfg.Sweeps, updates))

	go func() {
		res, err := s.Run(ctx, schedule, simCfg)
		p.Send(viz.DoneMsg{Result: res, Err: err})
	}()

	final, err := p.Run()
	cancel()
	if err != nil {
		return err
	}

	m := final.(viz.Model)
	if m.Quitting() {
		fmt.Println("interrupted")
		return nil
	}
	res, err := m.Result()
	if err != nil {
		return err
	}
	return saveRun(cfg, storage.RowsFromResult(res), res.Elapsed)
}

func saveRun(cfg *config.Config, rows []storage.Row, elapsed time.Duration) error {
	if noSave {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runID, err := st.Save(storage.RunMetadata{
		Size:      cfg.Size,
		Sweeps:    cfg.Sweeps,
		Seed:      cfg.Seed,
		Workers:   cfg.Workers,
		Replicas:  cfg.Replicas,
		ElapsedMs: elapsed.Milliseconds(),
	}, rows)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func printRows(rows []storage.Row) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T\tBETA\tE/SITE\tSTDERR\tACCEPT")
	for _, r := range rows {
		fmt.Fprintf(w, "%.4f\t%.4f\t%+.5f\t%.5f\t%.4f\n",
			r.Temperature, r.Beta, r.Energy, r.StdErr, r.Metrics["acceptance"])
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tL\tSWEEPS\tTEMPS\tREPLICAS\tSEED\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%v\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Size,
			run.Sweeps,
			run.Temperatures,
			run.Replicas,
			run.Seed,
			time.Duration(run.ElapsedMs)*time.Millisecond,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	rows, err := st.LoadCurve(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	temperatures := make([]float64, len(rows))
	energies := make([]float64, len(rows))
	for i, r := range rows {
		temperatures[i] = r.Temperature
		energies[i] = r.Energy
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("L=%d sweeps=%d replicas=%d seed=%s\n\n", meta.Size, meta.Sweeps, meta.Replicas, strconv.FormatInt(meta.Seed, 10))
	fmt.Println(viz.PlotCurve(temperatures, energies))
	fmt.Println()

	return printRows(rows)
}

type exportData struct {
	storage.RunMetadata
	Points []exportPoint `json:"points"`
}

type exportPoint struct {
	Temperature float64            `json:"temperature"`
	Beta        float64            `json:"beta"`
	Energy      float64            `json:"energy"`
	StdErr      float64            `json:"std_err,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	switch exportFormat {
	case "json", "svg":
	case "png":
		if exportOut == "" {
			return fmt.Errorf("png export needs --out")
		}
	default:
		return fmt.Errorf("unknown format: %s (available: json, svg, png)", exportFormat)
	}

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadCurve(runID)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		defer f.Close()
		out = f
	}

	if exportFormat == "json" {
		data := exportData{RunMetadata: *meta, Points: make([]exportPoint, len(rows))}
		for i, r := range rows {
			data.Points[i] = exportPoint(r)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	points := make([]export.CurvePoint, len(rows))
	for i, r := range rows {
		points[i] = export.CurvePoint{Temperature: r.Temperature, Energy: r.Energy, StdErr: r.StdErr}
	}
	if exportFormat == "png" {
		return export.CurveToPNG(out, points, 800, 480)
	}
	_, err = fmt.Fprintln(out, export.CurveToSVG(points, 800, 480, "#00ccff"))
	return err
}

func benchSweeps(cmd *cobra.Command, args []string) error {
	sizes := []int{8, 16, 32, 64}
	const benchSweepCount = 200

	fmt.Printf("benchmarking %d sweeps at T=2.269\n\n", benchSweepCount)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "L\tSWEEPS\tTIME\tSWEEPS/SEC\tFLIPS/SEC")

	s := sim.New()
	for _, l := range sizes {
		cfg := sim.DefaultConfig()
		cfg.Size = l
		cfg.Sweeps = benchSweepCount
		cfg.Seed = 42

		start := time.Now()
		if _, err := s.Run(context.Background(), []float64{2.269}, cfg); err != nil {
			return err
		}
		elapsed := time.Since(start)

		perSec := float64(benchSweepCount) / elapsed.Seconds()
		fmt.Fprintf(w, "%d\t%d\t%v\t%.0f\t%.3g\n",
			l, benchSweepCount, elapsed.Round(time.Microsecond), perSec, perSec*float64(l*l))
	}

	return w.Flush()
}
