package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"tiller/internal/artifact"
	"tiller/internal/block"
	"tiller/internal/config"
	"tiller/internal/host"
	"tiller/internal/storage"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "inspect":
		return runInspect(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "export-test":
		return runExportTest(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "trace":
		return runTrace(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInspect(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	artifactPath := fs.String("artifact", "", "path to the policy artifact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *artifactPath == "" {
		return usageError("inspect requires -artifact")
	}

	f, err := os.Open(*artifactPath)
	if err != nil {
		return err
	}
	defer f.Close()

	graph, err := artifact.Decode(f)
	if err != nil {
		return err
	}

	type layerInfo struct {
		OutWidth   int    `json:"out_width"`
		Activation string `json:"activation"`
	}
	summary := struct {
		Path     string             `json:"path"`
		InWidth  int                `json:"in_width"`
		OutWidth int                `json:"out_width"`
		Layers   []layerInfo        `json:"layers"`
		Metadata *artifact.Metadata `json:"metadata,omitempty"`
	}{
		Path:     *artifactPath,
		InWidth:  graph.InWidth,
		OutWidth: graph.OutWidth(),
	}
	for _, layer := range graph.Layers {
		summary.Layers = append(summary.Layers, layerInfo{OutWidth: layer.OutWidth, Activation: layer.Activation})
	}
	if meta, err := artifact.LoadMetadata(artifact.MetadataPath(*artifactPath)); err == nil {
		summary.Metadata = &meta
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runRun(ctx context.Context, args []string) error {
	settings, err := config.FromEnv()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	artifactPath := fs.String("artifact", "", "path to the policy artifact")
	obsWidth := fs.Int("obs-width", 0, "declared observation width")
	actWidth := fs.Int("act-width", 0, "declared action width")
	useMetadata := fs.Bool("metadata", false, "pre-fill widths from the artifact's JSON descriptor")
	inputPath := fs.String("input", "-", "observation CSV file, one row per tick (- for stdin)")
	maxTicks := fs.Int("max-ticks", 0, "stop after this many ticks (0 = run the whole input)")
	runID := fs.String("run-id", "", "run identifier (generated when empty)")
	record := fs.Bool("record", false, "record the run trace to the store")
	storeKind := fs.String("store", settings.StoreKind, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", settings.DBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *artifactPath == "" {
		return usageError("run requires -artifact")
	}

	if *useMetadata {
		meta, err := artifact.LoadMetadata(artifact.MetadataPath(*artifactPath))
		if err != nil {
			return fmt.Errorf("pre-fill widths: %w", err)
		}
		if *obsWidth == 0 {
			*obsWidth = meta.ObsDim
		}
		if *actWidth == 0 {
			*actWidth = meta.ActDim
		}
	}

	rows, err := readObservationRows(*inputPath)
	if err != nil {
		return err
	}

	opts := host.Options{
		RunID:    *runID,
		MaxTicks: *maxTicks,
		OnAction: newActionPrinter(os.Stdout),
	}
	if *record {
		store, err := storage.NewStore(*storeKind, *dbPath)
		if err != nil {
			return err
		}
		defer func() { _ = storage.CloseIfSupported(store) }()
		if err := store.Init(ctx); err != nil {
			return err
		}
		opts.Store = store
	}

	logger := newLogger(settings.LogLevel)
	cfg := block.Config{ArtifactPath: *artifactPath, ObsWidth: *obsWidth, ActWidth: *actWidth}
	result, err := host.NewRunner(logger).Run(ctx, block.New(), cfg, host.NewSliceFeed(rows), opts)
	if err != nil {
		return err
	}
	logger.Info().Str("run_id", result.RunID).Int("ticks", result.Ticks).Msg("done")
	return nil
}

func runExportTest(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("export-test", flag.ContinueOnError)
	kind := fs.String("kind", "identity", "test policy kind: identity|sum")
	width := fs.Int("width", 4, "observation width of the test policy")
	outPath := fs.String("out", "policy.tilr", "output artifact path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *width <= 0 {
		return usageError("export-test requires a positive -width")
	}

	graph, actDim, err := testGraph(*kind, *width)
	if err != nil {
		return err
	}
	if err := artifact.Save(*outPath, graph); err != nil {
		return err
	}

	meta := artifact.Metadata{
		Algorithm:   "TEST",
		ObsDim:      *width,
		ActDim:      actDim,
		ObsShape:    []int{*width},
		ActShape:    []int{actDim},
		OutputModel: *outPath,
	}
	metaPath := artifact.MetadataPath(*outPath)
	if err := artifact.SaveMetadata(metaPath, meta); err != nil {
		return err
	}

	fmt.Printf("wrote %s and %s (obs=%d act=%d)\n", *outPath, metaPath, *width, actDim)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	settings, err := config.FromEnv()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", settings.StoreKind, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", settings.DBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = storage.CloseIfSupported(store) }()
	if err := store.Init(ctx); err != nil {
		return err
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	for _, run := range runs {
		status := "ok"
		if run.Fault != "" {
			status = run.Fault
		}
		fmt.Printf("%s  %s  obs=%d act=%d ticks=%d  %s  %s\n",
			run.ID, run.StartedAtUTC, run.ObsWidth, run.ActWidth, run.Ticks, run.ArtifactPath, status)
	}
	return nil
}

func runTrace(ctx context.Context, args []string) error {
	settings, err := config.FromEnv()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run identifier")
	storeKind := fs.String("store", settings.StoreKind, "store backend: memory|sqlite")
	dbPath := fs.String("db-path", settings.DBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("trace requires -run-id")
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = storage.CloseIfSupported(store) }()
	if err := store.Init(ctx); err != nil {
		return err
	}

	ticks, ok, err := store.GetTicks(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no trace recorded for run %s", *runID)
	}
	return writeTraceCSV(os.Stdout, ticks)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: tillerctl <inspect|run|export-test|runs|trace> [flags]", msg)
}
