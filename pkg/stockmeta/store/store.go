package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store persists processed-image records grouped into batches.
type Store interface {
	Close() error

	// SaveRecord inserts or replaces a record by ID.
	SaveRecord(ctx context.Context, r Record) error
	GetRecord(ctx context.Context, id string) (Record, bool, error)

	// ListBatch returns a batch's records in insertion order.
	ListBatch(ctx context.Context, batchID string) ([]Record, error)
	// ListBatches returns the most recent batches first.
	ListBatches(ctx context.Context, limit int) ([]BatchSummary, error)
}

// Status of a processed image.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Record is one image's outcome.
type Record struct {
	ID           string    `json:"id"`
	BatchID      string    `json:"batch_id"`
	Filename     string    `json:"filename"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
	Title        string    `json:"title,omitempty"`
	Keywords     []string  `json:"keywords,omitempty"`
	CategoryCode int       `json:"category_code,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	Description  string    `json:"description,omitempty"`
	Prompt       string    `json:"prompt,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// BatchSummary counts a batch's records.
type BatchSummary struct {
	BatchID   string    `json:"batch_id"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Failed    int       `json:"failed"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new lexicographically sortable ID for records and batches.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Now(), idEntropy).String()
}
