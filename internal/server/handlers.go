package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cognicore/stockmeta/internal/batch"
	"github.com/cognicore/stockmeta/pkg/stockmeta"
	"github.com/cognicore/stockmeta/pkg/stockmeta/analytics"
	"github.com/cognicore/stockmeta/pkg/stockmeta/export"
	"github.com/cognicore/stockmeta/pkg/stockmeta/internalerr"
)

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type categoryView struct {
	Code    int      `json:"code"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
}

// Taxonomy lists the loaded categories.
func (s *Server) Taxonomy(c *gin.Context) {
	cats := s.cfg.Engine.Taxonomy().Categories()
	out := make([]categoryView, len(cats))
	for i, cat := range cats {
		out[i] = categoryView{Code: cat.Code, Name: cat.Name, Aliases: cat.Aliases}
	}
	RespondOK(c, gin.H{"categories": out})
}

type processRequest struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
	Mode     string `json:"mode"`
}

// Process runs the post-processing core over model text the caller already
// has. No model call is made.
func (s *Server) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	mode, err := stockmeta.ParseMode(req.Mode)
	if err != nil {
		respondErr(c, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondErr(c, fmt.Errorf("%w: text is required", internalerr.ErrInvalidInput))
		return
	}

	if mode == stockmeta.ModePrompt {
		RespondOK(c, s.cfg.Engine.ProcessPrompt(req.Text))
		return
	}
	res := s.cfg.Engine.Process(req.Text)
	s.log.Debug("processed text", "filename", req.Filename, "category", res.CategoryCode)
	RespondOK(c, res)
}

// Images sends uploaded images through the model and the engine as one batch.
func (s *Server) Images(c *gin.Context) {
	if s.cfg.Describer == nil {
		RespondError(c, http.StatusServiceUnavailable, "vision_unavailable", errors.New("no vision model configured"))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	var modeValue string
	if v := form.Value["mode"]; len(v) > 0 {
		modeValue = v[0]
	}
	mode, err := stockmeta.ParseMode(modeValue)
	if err != nil {
		respondErr(c, err)
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		respondErr(c, fmt.Errorf("%w: no images uploaded", internalerr.ErrInvalidInput))
		return
	}

	items := make([]batch.Item, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_input", err)
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, batch.MaxImageBytes+1))
		f.Close()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_input", err)
			return
		}
		if len(data) > batch.MaxImageBytes {
			respondErr(c, fmt.Errorf("%w: %s exceeds %d bytes", internalerr.ErrInvalidInput, fh.Filename, batch.MaxImageBytes))
			return
		}
		mt := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(mt, "image/") {
			mt = batch.DetectMimeType(fh.Filename, data)
		}
		if !strings.HasPrefix(mt, "image/") {
			respondErr(c, fmt.Errorf("%w: %s is not an image", internalerr.ErrInvalidInput, fh.Filename))
			return
		}
		items = append(items, batch.Item{Filename: fh.Filename, Data: data, MimeType: mt})
	}

	runner := batch.New(s.cfg.Engine, s.cfg.Describer, batch.Options{
		Mode:        mode,
		Concurrency: s.cfg.Concurrency,
		Store:       s.cfg.Store,
		Logger:      s.log.With("request_id", c.GetString(requestIDKey)),
	})
	report, err := runner.Run(c.Request.Context(), items)
	if err != nil {
		RespondError(c, http.StatusRequestTimeout, "canceled", err)
		return
	}
	RespondOK(c, report)
}

// ListBatches returns recent batch summaries; ?limit= defaults to 20.
func (s *Server) ListBatches(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondErr(c, fmt.Errorf("%w: bad limit %q", internalerr.ErrInvalidInput, v))
			return
		}
		limit = n
	}
	batches, err := s.cfg.Store.ListBatches(c.Request.Context(), limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"batches": batches})
}

// GetBatch returns a batch's records in processing order.
func (s *Server) GetBatch(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	id := c.Param("id")
	records, err := s.cfg.Store.ListBatch(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if len(records) == 0 {
		respondErr(c, fmt.Errorf("%w: batch %s", internalerr.ErrNotFound, id))
		return
	}
	RespondOK(c, gin.H{"batch_id": id, "records": records})
}

// ExportBatch renders a stored batch as CSV. ?ext= rewrites filename
// extensions; ?kind=prompts exports prompt-mode records instead.
func (s *Server) ExportBatch(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	ext, err := export.ParseExtension(c.Query("ext"))
	if err != nil {
		respondErr(c, err)
		return
	}
	id := c.Param("id")
	records, err := s.cfg.Store.ListBatch(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if len(records) == 0 {
		respondErr(c, fmt.Errorf("%w: batch %s", internalerr.ErrNotFound, id))
		return
	}

	var (
		buf  bytes.Buffer
		name string
	)
	if c.Query("kind") == "prompts" {
		err = export.WritePrompts(&buf, export.PromptRowsFromRecords(records))
		name = "prompts.csv"
	} else {
		err = export.Write(&buf, export.RowsFromRecords(records), ext)
		name = export.FileName(ext)
	}
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// BatchStats summarizes keyword usage across a stored batch.
func (s *Server) BatchStats(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	id := c.Param("id")
	records, err := s.cfg.Store.ListBatch(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if len(records) == 0 {
		respondErr(c, fmt.Errorf("%w: batch %s", internalerr.ErrNotFound, id))
		return
	}
	a := analytics.NewAnalyzer()
	a.AddRecords(records)
	RespondOK(c, a.Snapshot().Summarize(20, analytics.DefaultThresholds()))
}

func (s *Server) requireStore(c *gin.Context) bool {
	if s.cfg.Store == nil {
		respondErr(c, fmt.Errorf("%w: no record store configured", internalerr.ErrStoreUnavailable))
		return false
	}
	return true
}
