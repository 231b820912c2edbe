// Package batch drains a queue of images through the vision model and the
// metadata engine with bounded concurrency.
package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/stockmeta/internal/logger"
	"github.com/cognicore/stockmeta/internal/vision"
	"github.com/cognicore/stockmeta/pkg/stockmeta"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store"
)

// Item is one image to process.
type Item struct {
	Filename string
	Data     []byte
	MimeType string
}

// Outcome is the per-image result. Exactly one of Result, Prompt or Error
// is set.
type Outcome struct {
	Filename string                    `json:"filename"`
	Status   store.Status              `json:"status"`
	Result   *stockmeta.MetadataResult `json:"result,omitempty"`
	Prompt   string                    `json:"prompt,omitempty"`
	Error    string                    `json:"error,omitempty"`
	RecordID string                    `json:"record_id,omitempty"`
}

// Record converts the outcome into a storable record.
func (o Outcome) Record(id, batchID string) store.Record {
	rec := store.Record{
		ID:       id,
		BatchID:  batchID,
		Filename: o.Filename,
		Status:   o.Status,
		Error:    o.Error,
		Prompt:   o.Prompt,
	}
	if o.Result != nil {
		rec.Title = o.Result.Title
		rec.Keywords = o.Result.Keywords
		rec.CategoryCode = o.Result.CategoryCode
		rec.CategoryName = o.Result.CategoryName
		rec.Description = o.Result.Description
	}
	return rec
}

// Report summarizes a run.
type Report struct {
	BatchID   string    `json:"batch_id"`
	Outcomes  []Outcome `json:"outcomes"`
	Completed int       `json:"completed"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"` // duplicate filenames
}

// Progress is called after each image finishes. Calls are serialized.
type Progress func(done, total int, filename string)

// Options configures a Runner.
type Options struct {
	Mode        stockmeta.Mode
	Concurrency int         // default 1: sequential
	Store       store.Store // optional
	Progress    Progress    // optional
	Logger      *logger.Logger
}

// Runner processes batches. It is safe to reuse across runs.
type Runner struct {
	engine    *stockmeta.Engine
	describer vision.Describer
	opts      Options
}

// New creates a runner.
func New(engine *stockmeta.Engine, describer vision.Describer, opts Options) *Runner {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Mode == "" {
		opts.Mode = stockmeta.ModeMetadata
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Runner{engine: engine, describer: describer, opts: opts}
}

// Run processes items and returns one outcome per distinct filename, in
// input order. A failing image never stops the others. The returned error
// is non-nil only when ctx ends before every image was attempted.
func (r *Runner) Run(ctx context.Context, items []Item) (*Report, error) {
	report := &Report{BatchID: store.NewID()}
	log := r.opts.Logger.With("batch_id", report.BatchID, "mode", string(r.opts.Mode))

	seen := make(map[string]bool, len(items))
	queue := make([]Item, 0, len(items))
	for _, it := range items {
		if seen[it.Filename] {
			report.Skipped++
			log.Debug("skipping duplicate filename", "filename", it.Filename)
			continue
		}
		seen[it.Filename] = true
		queue = append(queue, it)
	}
	report.Outcomes = make([]Outcome, len(queue))

	instruction := vision.PromptInstruction
	if r.opts.Mode == stockmeta.ModeMetadata {
		instruction = vision.MetadataInstruction(r.engine.Taxonomy().Names())
	}

	start := time.Now()
	log.Info("batch started", "images", len(queue), "concurrency", r.opts.Concurrency)

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for i, it := range queue {
		if gctx.Err() != nil {
			report.Outcomes[i] = Outcome{Filename: it.Filename, Status: store.StatusError, Error: "canceled before processing"}
			continue
		}
		g.Go(func() error {
			out := r.processOne(gctx, it, instruction, log)
			if r.opts.Store != nil {
				id := store.NewID()
				if err := r.opts.Store.SaveRecord(ctx, out.Record(id, report.BatchID)); err != nil {
					log.Warn("save record failed", "filename", it.Filename, "error", err)
				} else {
					out.RecordID = id
				}
			}
			report.Outcomes[i] = out

			mu.Lock()
			done++
			if r.opts.Progress != nil {
				r.opts.Progress(done, len(queue), it.Filename)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range report.Outcomes {
		if o.Status == store.StatusCompleted {
			report.Completed++
		} else {
			report.Failed++
		}
	}
	log.Info("batch finished",
		"completed", report.Completed,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"elapsed", time.Since(start).String(),
	)
	return report, ctx.Err()
}

func (r *Runner) processOne(ctx context.Context, it Item, instruction string, log *logger.Logger) Outcome {
	out := Outcome{Filename: it.Filename}

	raw, err := r.describer.Describe(ctx, vision.Image{Data: it.Data, MimeType: it.MimeType}, instruction)
	if err != nil {
		out.Status = store.StatusError
		if errors.Is(err, context.Canceled) {
			out.Error = "canceled"
		} else {
			out.Error = vision.UserMessage(err)
		}
		log.Warn("describe failed", "filename", it.Filename, "kind", vision.Classify(err).String(), "error", err)
		return out
	}

	out.Status = store.StatusCompleted
	switch r.opts.Mode {
	case stockmeta.ModePrompt:
		out.Prompt = r.engine.ProcessPrompt(raw).Prompt
	default:
		res := r.engine.Process(raw)
		out.Result = &res
		log.Debug("processed", "filename", it.Filename, "category", res.CategoryCode, "keywords", len(res.Keywords))
	}
	return out
}
