package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/cognicore/stockmeta/internal/envutil"
	"github.com/cognicore/stockmeta/internal/logger"
	"github.com/cognicore/stockmeta/internal/server"
	"github.com/cognicore/stockmeta/internal/vision"
	"github.com/cognicore/stockmeta/pkg/stockmeta"
	"github.com/cognicore/stockmeta/pkg/stockmeta/config"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store/sqlite"
)

func main() {
	var (
		addr         = flag.String("addr", envutil.String(":8080", envutil.AddrVar), "Listen address")
		dbPath       = flag.String("db", envutil.String("", envutil.DBVar), "SQLite history database (optional; batch routes need it)")
		model        = flag.String("model", envutil.String(vision.DefaultModel, envutil.ModelVar), "Vision model name")
		concurrency  = flag.Int("concurrency", envutil.Int(envutil.ConcurrencyVar, 1), "Images processed at once per upload")
		tablesPath   = flag.String("tables", envutil.String("", envutil.TablesVar), "YAML tables overlay (optional)")
		stoplistPath = flag.String("stoplist", "", "Stoplist YAML replacing the stopwords (optional)")
		corsOrigins  = flag.String("cors", "", "Comma-separated browser origins allowed, or *")
		logMode      = flag.String("log-mode", envutil.String("dev", envutil.LogModeVar), "dev or prod")
		logLevel     = flag.String("log-level", "", "debug, info, warn, error")
	)
	flag.Parse()

	lg, err := logger.New(*logMode, *logLevel)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer lg.Sync()
	if m := strings.ToLower(*logMode); m == "prod" || m == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

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

	cfg := server.Config{
		Engine:       engine,
		Logger:       lg,
		Concurrency:  *concurrency,
		AllowOrigins: splitList(*corsOrigins),
	}
	if key := envutil.APIKey(); key != "" {
		cfg.Describer = &vision.Client{APIKey: key, Model: *model}
	} else {
		lg.Warn("No API key set; image uploads are disabled", "env", envutil.APIKeyVar)
	}

	if *dbPath != "" {
		var st store.Store
		st, err = sqlite.OpenSQLite(ctx, *dbPath)
		if err != nil {
			lg.Fatal("Failed to open database", "path", *dbPath, "error", err)
		}
		defer st.Close()
		cfg.Store = st
	}

	if err := server.New(cfg).ListenAndServe(ctx, *addr); err != nil {
		lg.Error("Server stopped", "error", err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
