package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cognicore/stockmeta/pkg/stockmeta/internalerr"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store"
)

var _ store.Store = (*Store)(nil)

func TestSaveGetCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	kw := []string{"fox", "snow"}
	if err := s.SaveRecord(ctx, store.Record{ID: "r1", BatchID: "b", Filename: "fox.jpg", Status: store.StatusCompleted, Keywords: kw}); err != nil {
		t.Fatal(err)
	}
	kw[0] = "mutated"

	got, found, err := s.GetRecord(ctx, "r1")
	if err != nil || !found {
		t.Fatalf("GetRecord: found=%v err=%v", found, err)
	}
	if got.Keywords[0] != "fox" {
		t.Error("store should keep its own copy of keywords")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should default to now")
	}

	if _, found, _ := s.GetRecord(ctx, "nope"); found {
		t.Error("unexpected record")
	}
}

func TestRequiresIDs(t *testing.T) {
	err := New().SaveRecord(context.Background(), store.Record{BatchID: "b"})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("SaveRecord err = %v", err)
	}
}

func TestListBatchAndSummaries(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Unix(1700000000, 0).UTC()

	recs := []store.Record{
		{ID: "3", BatchID: "old", Filename: "c.jpg", Status: store.StatusCompleted, CreatedAt: base},
		{ID: "1", BatchID: "old", Filename: "a.jpg", Status: store.StatusError, CreatedAt: base.Add(time.Second)},
		{ID: "2", BatchID: "new", Filename: "b.jpg", Status: store.StatusCompleted, CreatedAt: base.Add(time.Hour)},
	}
	for _, r := range recs {
		if err := s.SaveRecord(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	// Upsert keeps the original position.
	recs[0].Title = "updated"
	if err := s.SaveRecord(ctx, recs[0]); err != nil {
		t.Fatal(err)
	}

	old, _ := s.ListBatch(ctx, "old")
	if len(old) != 2 || old[0].Filename != "c.jpg" || old[0].Title != "updated" || old[1].Filename != "a.jpg" {
		t.Errorf("ListBatch(old) = %+v", old)
	}

	sums, _ := s.ListBatches(ctx, 0)
	if len(sums) != 2 || sums[0].BatchID != "new" {
		t.Fatalf("ListBatches = %+v", sums)
	}
	if sums[1].Total != 2 || sums[1].Completed != 1 || sums[1].Failed != 1 || !sums[1].CreatedAt.Equal(base) {
		t.Errorf("old summary = %+v", sums[1])
	}
}
