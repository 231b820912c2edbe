package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cognicore/stockmeta/internal/batch"
	"github.com/cognicore/stockmeta/internal/envutil"
	"github.com/cognicore/stockmeta/internal/logger"
	"github.com/cognicore/stockmeta/internal/vision"
	"github.com/cognicore/stockmeta/pkg/stockmeta"
	"github.com/cognicore/stockmeta/pkg/stockmeta/config"
	"github.com/cognicore/stockmeta/pkg/stockmeta/export"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store/sqlite"
)

func main() {
	var (
		dir          = flag.String("dir", "", "Directory of images (required)")
		outPath      = flag.String("out", "", "CSV output path (default: <dir>/<ext>_metadata.csv)")
		extFlag      = flag.String("ext", "original", "Target filename extension in the CSV: original, .jpg, .jpeg, .png, .eps, .ai, .svg")
		modeFlag     = flag.String("mode", "metadata", "metadata or prompt")
		model        = flag.String("model", envutil.String(vision.DefaultModel, envutil.ModelVar), "Vision model name")
		concurrency  = flag.Int("concurrency", envutil.Int(envutil.ConcurrencyVar, 1), "Images processed at once")
		dbPath       = flag.String("db", envutil.String("", envutil.DBVar), "SQLite history database (optional)")
		tablesPath   = flag.String("tables", envutil.String("", envutil.TablesVar), "YAML tables overlay (optional)")
		stoplistPath = flag.String("stoplist", "", "Stoplist YAML replacing the stopwords (optional)")
		logMode      = flag.String("log-mode", envutil.String("dev", envutil.LogModeVar), "dev or prod")
		logLevel     = flag.String("log-level", "info", "debug, info, warn, error")
		quiet        = flag.Bool("quiet", false, "Skip the summary table")
	)
	flag.Parse()

	if *dir == "" {
		log.Fatal("--dir required")
	}
	apiKey := envutil.APIKey()
	if apiKey == "" {
		log.Fatalf("%s required", envutil.APIKeyVar)
	}
	mode, err := stockmeta.ParseMode(*modeFlag)
	if err != nil {
		log.Fatal(err)
	}
	ext, err := export.ParseExtension(*extFlag)
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(*logMode, *logLevel)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := config.Loader{TablesPath: *tablesPath, StoplistPath: *stoplistPath}
	components, err := loader.Load()
	if err != nil {
		lg.Fatal("Failed to load configuration", "error", err)
	}
	lg.Info("Tables loaded", components.Summary()...)
	engine, err := stockmeta.FromComponents(components)
	if err != nil {
		lg.Fatal("Failed to build engine", "error", err)
	}

	items, err := batch.LoadDir(*dir)
	if err != nil {
		lg.Fatal("Failed to read images", "dir", *dir, "error", err)
	}
	if len(items) == 0 {
		lg.Fatal("No images found", "dir", *dir)
	}

	var st store.Store
	if *dbPath != "" {
		st, err = sqlite.OpenSQLite(ctx, *dbPath)
		if err != nil {
			lg.Fatal("Failed to open database", "path", *dbPath, "error", err)
		}
		defer st.Close()
	}

	runner := batch.New(engine, &vision.Client{APIKey: apiKey, Model: *model}, batch.Options{
		Mode:        mode,
		Concurrency: *concurrency,
		Store:       st,
		Logger:      lg,
		Progress: func(done, total int, filename string) {
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, total, filename)
		},
	})

	report, err := runner.Run(ctx, items)
	if err != nil {
		lg.Warn("Batch interrupted", "error", err)
	}

	if !*quiet {
		printSummary(os.Stdout, report, mode)
	}

	path := *outPath
	if path == "" {
		name := export.FileName(ext)
		if mode == stockmeta.ModePrompt {
			name = "prompts.csv"
		}
		path = filepath.Join(*dir, name)
	}
	if err := writeCSV(path, report, mode, ext); err != nil {
		lg.Fatal("Failed to write CSV", "path", path, "error", err)
	}
	lg.Info("CSV written", "path", path, "batch_id", report.BatchID)
}

func writeCSV(path string, report *batch.Report, mode stockmeta.Mode, ext string) error {
	records := make([]store.Record, len(report.Outcomes))
	for i, o := range report.Outcomes {
		records[i] = o.Record(o.RecordID, report.BatchID)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if mode == stockmeta.ModePrompt {
		err = export.WritePrompts(f, export.PromptRowsFromRecords(records))
	} else {
		err = export.Write(f, export.RowsFromRecords(records), ext)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
	}
	return err
}
