package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/san-kum/backdrop/internal/automation"
	"github.com/san-kum/backdrop/internal/config"
	"github.com/san-kum/backdrop/internal/host/term"
	"github.com/san-kum/backdrop/internal/host/window"
	"github.com/san-kum/backdrop/internal/metrics"
	"github.com/san-kum/backdrop/internal/record"
	"github.com/san-kum/backdrop/internal/storage"
	"github.com/san-kum/backdrop/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool

	theme         string
	themeFile     string
	speed         float64
	opacity       float64
	fps           int
	seed          int64
	width         int
	height        int
	reducedMotion string

	// record / bench
	frames   int
	every    int
	gifWidth int
	outFile  string
	savePNG  bool
	script   string

	showHUD   bool
	termScale int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "backdrop",
		Short:        "ambient animated gradient background",
		SilenceUsage: true,
		RunE:         runWindow,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".backdrop", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) { setupLogging() }
	effectFlags(rootCmd)
	rootCmd.Flags().BoolVar(&showHUD, "hud", false, "show status overlay")

	windowCmd := &cobra.Command{
		Use:   "window",
		Short: "show the effect in a desktop window",
		RunE:  runWindow,
	}
	effectFlags(windowCmd)
	windowCmd.Flags().BoolVar(&showHUD, "hud", false, "show status overlay")

	termCmd := &cobra.Command{
		Use:   "term",
		Short: "preview the effect in the terminal",
		RunE:  runTerm,
	}
	effectFlags(termCmd)
	termCmd.Flags().IntVar(&termScale, "scale", term.DefaultScale, "effect pixels per terminal column")

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "render headless and save an animated gif",
		RunE:  runRecord,
	}
	effectFlags(recordCmd)
	recordCmd.Flags().IntVar(&frames, "frames", 120, "frames to render")
	recordCmd.Flags().IntVar(&every, "every", 2, "capture every n-th frame")
	recordCmd.Flags().IntVar(&gifWidth, "gif-width", 480, "gif width in pixels (0 keeps the render width)")
	recordCmd.Flags().StringVarP(&outFile, "out", "o", "", "gif path (default: inside the run directory)")
	recordCmd.Flags().BoolVar(&savePNG, "png", false, "also save the last frame as png")
	recordCmd.Flags().StringVar(&script, "script", "", "scenario file (yaml) of theme and size changes")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark frame times",
		RunE:  runBench,
	}
	effectFlags(benchCmd)
	benchCmd.Flags().IntVar(&frames, "frames", 300, "frames per size")

	themesCmd := &cobra.Command{
		Use:   "themes",
		Short: "show the available palettes",
		RunE:  showThemes,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDESCRIPTION")
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
			}
			return w.Flush()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recordings",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot frame times of a recording",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a recording's metadata and frame times as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	rootCmd.AddCommand(windowCmd, termCmd, recordCmd, benchCmd, themesCmd, presetsCmd, listCmd, plotCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func effectFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&theme, "theme", "terminal", "palette name")
	f.StringVar(&themeFile, "theme-file", "", "follow the theme named in this file")
	f.Float64Var(&speed, "speed", config.DefaultSpeed, "motion speed multiplier")
	f.Float64Var(&opacity, "opacity", config.DefaultOpacity, "effect opacity in (0, 1]")
	f.IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	f.Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	f.IntVar(&width, "width", config.DefaultWidth, "surface width")
	f.IntVar(&height, "height", config.DefaultHeight, "surface height")
	f.StringVar(&reducedMotion, "reduced-motion", "auto", "auto, on or off")
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cfg, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := window.NewApp(s.mgr, s.loop, s.vp, s.theme, window.Options{
		FPS:           cfg.FPS,
		Background:    s.bg,
		Themes:        s.themes(),
		ShowHUD:       showHUD,
		ScreenshotDir: dataDir,
	})
	return app.Run(ctx)
}

func runTerm(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cfg, 0, 0)
	if err != nil {
		return err
	}
	defer s.Close()

	return term.Run(s.mgr, s.loop, s.vp, s.theme, term.Options{
		Background: s.bg,
		Scale:      termScale,
		Themes:     s.themes(),
	})
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	var sc *automation.Scenario
	if script != "" {
		if sc, err = automation.LoadScenario(script); err != nil {
			return err
		}
	}
	s, err := newSession(cfg, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer s.Close()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta := storage.RunMetadata{
		Command: "record",
		Theme:   s.pals.Resolve(s.theme.Theme()).Name,
		Seed:    cfg.Seed,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Speed:   cfg.Speed,
		Opacity: cfg.Opacity,
	}
	runID, err := st.Create(&meta)
	if err != nil {
		return err
	}
	runDir := st.Dir(runID)

	rec := record.NewGIFRecorder(record.GIFOptions{
		Background: s.bg,
		Every:      every,
		Delay:      max(2, 100*every/cfg.FPS),
		Width:      gifWidth,
	})
	snap := record.NewSnapshot(s.bg)
	ft, set := metrics.Standard(cfg.FPS)
	s.mgr.AddObserver(rec)
	s.mgr.AddObserver(snap)
	s.mgr.AddObserver(set)

	fmt.Printf("recording %d frames (%s, %dx%d)\n", frames, meta.Theme, cfg.Width, cfg.Height)
	elapsed, err := s.runFrames(frames, sc)
	if err != nil {
		return err
	}

	gifPath := outFile
	if gifPath == "" {
		gifPath = filepath.Join(runDir, "backdrop.gif")
	}
	if err := rec.Save(gifPath); err != nil {
		return err
	}
	meta.Artifacts = append(meta.Artifacts, gifPath)
	if savePNG {
		pngPath := filepath.Join(runDir, "last.png")
		if err := snap.Save(pngPath); err != nil {
			return err
		}
		meta.Artifacts = append(meta.Artifacts, pngPath)
	}

	meta.Metrics = set.Values()
	if _, err := st.Save(meta, ft.Samples()); err != nil {
		return err
	}

	fmt.Printf("saved: %s (%d frames in %v)\n", runID, s.mgr.Frames(), elapsed.Round(time.Millisecond))
	for _, a := range meta.Artifacts {
		fmt.Printf("  %s\n", a)
	}
	fmt.Println()
	fmt.Print(viz.Stats(meta.Metrics))
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}

	sizes := []image.Point{{640, 360}, {1280, 720}, {1920, 1080}}
	if cmd.Flags().Changed("width") || cmd.Flags().Changed("height") {
		sizes = []image.Point{{cfg.Width, cfg.Height}}
	}

	fmt.Printf("benchmarking %s, %d frames per size\n\n", cfg.Theme, frames)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tBLOBS\tMEAN\tP50\tP95\tMAX\tIN BUDGET\tFPS")

	var last *metrics.FrameTime
	for _, size := range sizes {
		s, err := newSession(cfg, size.X, size.Y)
		if err != nil {
			return err
		}
		ft, set := metrics.Standard(cfg.FPS)
		s.mgr.AddObserver(set)

		elapsed, err := s.runFrames(frames, nil)
		blobs := s.mgr.Blobs().Len()
		s.Close()
		if err != nil {
			return err
		}

		vals := set.Values()
		fmt.Fprintf(w, "%dx%d\t%d\t%.2fms\t%.2fms\t%.2fms\t%.2fms\t%.0f%%\t%.0f\n",
			size.X, size.Y, blobs,
			ft.Value(), ft.Percentile(50), ft.Percentile(95), ft.Max(),
			vals["within_budget"]*100,
			float64(len(ft.Samples()))/elapsed.Seconds(),
		)
		last = ft
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.FramePlot(viz.Downsample(last.Totals(), 80), 80, 12,
		fmt.Sprintf("frame time ms (%dx%d)", sizes[len(sizes)-1].X, sizes[len(sizes)-1].Y)))
	return nil
}

func showThemes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := cfg.Resolver()
	if err != nil {
		return err
	}
	fmt.Println(viz.Header(viz.ThemeFor(res.Resolve(cfg.Theme)), "palettes"))
	fmt.Print(viz.Swatches(res, cfg.Theme, lipgloss.Color(cfg.Background)))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no recordings found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTHEME\tTIME\tSIZE\tFRAMES\tMEAN")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%.2fms\n",
			run.ID,
			run.Theme,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width, run.Height,
			run.Frames,
			run.Metrics["frame_ms"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no frames in %s", meta.ID)
	}

	totals := make([]float64, len(samples))
	for i, smp := range samples {
		totals[i] = smp.TotalMs()
	}

	fmt.Println(viz.Header(viz.GetTheme(meta.Theme), meta.ID))
	fmt.Println(viz.FramePlot(viz.Downsample(totals, 80), 80, 15, "frame time (ms)"))
	fmt.Println()
	fmt.Print(viz.Stats(meta.Metrics))
	return nil
}
