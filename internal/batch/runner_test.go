package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cognicore/stockmeta/internal/vision"
	"github.com/cognicore/stockmeta/pkg/stockmeta"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store"
	"github.com/cognicore/stockmeta/pkg/stockmeta/store/memstore"
)

const lakeAnswer = `TITLE: Mountain lake at sunrise
KEYWORDS: mountain, lake, sunrise, reflection, landscape, nature, water, peak
CATEGORY: Nature
DESCRIPTION: A calm alpine lake reflects snowy peaks.`

// fakeDescriber answers with the image bytes as text, or fails when the
// bytes are "fail".
type fakeDescriber struct {
	mu           sync.Mutex
	instructions []string
	delay        time.Duration
	inFlight     int32
	maxInFlight  int32
}

func (f *fakeDescriber) Describe(ctx context.Context, img vision.Image, instruction string) (string, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		m := atomic.LoadInt32(&f.maxInFlight)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxInFlight, m, n) {
			break
		}
	}

	f.mu.Lock()
	f.instructions = append(f.instructions, instruction)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if string(img.Data) == "fail" {
		return "", &vision.UpstreamError{Kind: vision.KindQuotaExceeded, Status: 429}
	}
	return string(img.Data), nil
}

func newEngine(t *testing.T) *stockmeta.Engine {
	t.Helper()
	e, err := stockmeta.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	return e
}

func TestRunMetadata(t *testing.T) {
	st := memstore.New()
	var progress []int
	r := New(newEngine(t), &fakeDescriber{}, Options{
		Concurrency: 2,
		Store:       st,
		Progress: func(done, total int, filename string) {
			if total != 3 {
				t.Errorf("total = %d", total)
			}
			progress = append(progress, done)
		},
	})

	report, err := r.Run(context.Background(), []Item{
		{Filename: "a.jpg", Data: []byte(lakeAnswer), MimeType: "image/jpeg"},
		{Filename: "b.jpg", Data: []byte("fail"), MimeType: "image/jpeg"},
		{Filename: "c.jpg", Data: []byte(lakeAnswer), MimeType: "image/jpeg"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Completed != 2 || report.Failed != 1 {
		t.Errorf("completed=%d failed=%d", report.Completed, report.Failed)
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Errorf("progress = %v", progress)
	}

	names := []string{"a.jpg", "b.jpg", "c.jpg"}
	for i, o := range report.Outcomes {
		if o.Filename != names[i] {
			t.Errorf("outcome %d filename = %q", i, o.Filename)
		}
		if o.RecordID == "" {
			t.Errorf("outcome %d not persisted", i)
		}
	}

	failed := report.Outcomes[1]
	if failed.Status != store.StatusError || failed.Result != nil {
		t.Errorf("failed outcome = %+v", failed)
	}
	if !strings.Contains(failed.Error, "quota") {
		t.Errorf("Error = %q", failed.Error)
	}

	ok := report.Outcomes[0]
	if ok.Result == nil || ok.Result.CategoryCode != 5 {
		t.Fatalf("Result = %+v", ok.Result)
	}

	records, err := st.ListBatch(context.Background(), report.BatchID)
	if err != nil {
		t.Fatalf("ListBatch: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("stored %d records", len(records))
	}
	for _, rec := range records {
		if rec.Filename == "a.jpg" && rec.Title != ok.Result.Title {
			t.Errorf("stored title = %q", rec.Title)
		}
		if rec.Filename == "b.jpg" && rec.Error != failed.Error {
			t.Errorf("stored error = %q", rec.Error)
		}
	}
}

func TestRunInstructionListsCategories(t *testing.T) {
	f := &fakeDescriber{}
	e := newEngine(t)
	r := New(e, f, Options{})

	if _, err := r.Run(context.Background(), []Item{{Filename: "a.jpg", Data: []byte(lakeAnswer)}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.instructions) != 1 {
		t.Fatalf("instructions = %d", len(f.instructions))
	}
	for _, name := range e.Taxonomy().Names() {
		if !strings.Contains(f.instructions[0], name) {
			t.Errorf("instruction missing category %q", name)
		}
	}
}

func TestRunPromptMode(t *testing.T) {
	f := &fakeDescriber{}
	r := New(newEngine(t), f, Options{Mode: stockmeta.ModePrompt})

	report, err := r.Run(context.Background(), []Item{
		{Filename: "fox.png", Data: []byte("Prompt: a red fox in fresh snow, soft morning light")},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	o := report.Outcomes[0]
	if o.Prompt != "a red fox in fresh snow, soft morning light" || o.Result != nil {
		t.Errorf("outcome = %+v", o)
	}
	if f.instructions[0] != vision.PromptInstruction {
		t.Error("prompt mode should send the prompt instruction")
	}
}

func TestRunSkipsDuplicateFilenames(t *testing.T) {
	r := New(newEngine(t), &fakeDescriber{}, Options{})

	report, err := r.Run(context.Background(), []Item{
		{Filename: "a.jpg", Data: []byte(lakeAnswer)},
		{Filename: "a.jpg", Data: []byte("fail")},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Outcomes) != 1 || report.Skipped != 1 {
		t.Fatalf("outcomes=%d skipped=%d", len(report.Outcomes), report.Skipped)
	}
	if report.Outcomes[0].Status != store.StatusCompleted {
		t.Error("first occurrence should win")
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	f := &fakeDescriber{delay: 10 * time.Millisecond}
	r := New(newEngine(t), f, Options{Concurrency: 2})

	items := make([]Item, 6)
	for i := range items {
		items[i] = Item{Filename: string(rune('a'+i)) + ".jpg", Data: []byte(lakeAnswer)}
	}
	report, err := r.Run(context.Background(), items)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Completed != 6 {
		t.Errorf("completed = %d", report.Completed)
	}
	if m := atomic.LoadInt32(&f.maxInFlight); m > 2 {
		t.Errorf("max in flight = %d", m)
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(newEngine(t), &fakeDescriber{}, Options{})
	report, err := r.Run(ctx, []Item{
		{Filename: "a.jpg", Data: []byte(lakeAnswer)},
		{Filename: "b.jpg", Data: []byte(lakeAnswer)},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if report.Failed != 2 {
		t.Errorf("failed = %d", report.Failed)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	files := map[string][]byte{
		"b.jpg":     []byte("\xff\xd8\xff\xe0jpeg"),
		"a.png":     png,
		"notes.txt": []byte("hello"),
		".hidden":   png,
		"scan":      png,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	items, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	want := []struct{ name, mime string }{
		{"a.png", "image/png"},
		{"b.jpg", "image/jpeg"},
		{"scan", "image/png"},
	}
	if len(items) != len(want) {
		t.Fatalf("items = %d, want %d", len(items), len(want))
	}
	for i, w := range want {
		if items[i].Filename != w.name || items[i].MimeType != w.mime {
			t.Errorf("item %d = %s %s, want %s %s", i, items[i].Filename, items[i].MimeType, w.name, w.mime)
		}
	}
}
