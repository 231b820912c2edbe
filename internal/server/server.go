// Package server exposes the metadata engine, the batch runner and the
// record store over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cognicore/stockmeta/internal/logger"
	"github.com/cognicore/stockmeta/internal/vision"
	"github.com/cognicore/stockmeta/pkg/stockmeta"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store"
)

// DefaultMaxUploadBytes bounds a multipart upload.
const DefaultMaxUploadBytes = 200 << 20

// Config wires the server's dependencies. Describer and Store are optional;
// routes that need a missing one answer 503.
type Config struct {
	Engine         *stockmeta.Engine
	Describer      vision.Describer
	Store          store.Store
	Logger         *logger.Logger
	Concurrency    int
	AllowOrigins   []string
	MaxUploadBytes int64
}

type Server struct {
	cfg Config
	log *logger.Logger
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{cfg: cfg, log: cfg.Logger}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(s.log))
	if len(s.cfg.AllowOrigins) > 0 {
		router.Use(CORS(s.cfg.AllowOrigins))
	}
	router.MaxMultipartMemory = 32 << 20

	router.GET("/healthcheck", HealthCheck)

	v1 := router.Group("/v1")
	{
		v1.GET("/taxonomy", s.Taxonomy)
		v1.POST("/process", s.Process)
		v1.POST("/images", s.Images)
		v1.GET("/batches", s.ListBatches)
		v1.GET("/batches/:id", s.GetBatch)
		v1.GET("/batches/:id/export.csv", s.ExportBatch)
		v1.GET("/batches/:id/stats", s.BatchStats)
	}
	return router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
