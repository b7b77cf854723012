package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/five82/bojq/internal/dispatch"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "archive.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndLatest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	first := dispatch.Result{ProblemID: "1000", Code: "v1", Origin: dispatch.OriginFresh, Outcome: dispatch.OutcomeFresh}
	if _, err := store.Save(ctx, first, "req-1"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	store.now = func() time.Time { return base.Add(time.Minute) }
	second := dispatch.Result{
		ProblemID: "1000",
		Code:      "v2",
		Sources:   []string{"https://a", "https://b"},
		Origin:    dispatch.OriginFresh,
		Outcome:   dispatch.OutcomeFresh,
		Fallback:  true,
	}
	if _, err := store.Save(ctx, second, ""); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := store.Latest(ctx, "1000")
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if got.Code != "v2" || !got.Fallback || got.RequestID != "" {
		t.Fatalf("Latest = %#v, want second entry", got)
	}
	if len(got.Sources) != 2 || got.Sources[1] != "https://b" {
		t.Fatalf("Sources = %v, want two sources in order", got.Sources)
	}
	if !got.CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("CreatedAt = %v, want %v", got.CreatedAt, base.Add(time.Minute))
	}
}

func TestLatest_NotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Latest(context.Background(), "42")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Latest error = %v, want ErrNotFound", err)
	}
}

func TestSave_RejectsFailures(t *testing.T) {
	store := openTestStore(t)
	res := dispatch.Result{ProblemID: "1000", Outcome: dispatch.OutcomeDataError, ErrorMessage: "boom"}
	if _, err := store.Save(context.Background(), res, ""); err == nil {
		t.Fatalf("Save accepted a failed result")
	}
}

func TestList_FiltersAndLimits(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"1", "2", "1", "3"} {
		res := dispatch.Result{ProblemID: id, Code: "code " + id, Origin: dispatch.OriginCached, Outcome: dispatch.OutcomeCached}
		if _, err := store.Save(ctx, res, ""); err != nil {
			t.Fatalf("Save returned error: %v", err)
		}
	}

	all, err := store.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 4 || all[0].ProblemID != "3" {
		t.Fatalf("List = %d entries starting %q, want 4 newest first", len(all), all[0].ProblemID)
	}

	ones, err := store.List(ctx, "1", 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(ones) != 2 || ones[0].Origin != dispatch.OriginCached {
		t.Fatalf("List(1) = %#v, want two cached entries", ones)
	}

	limited, err := store.List(ctx, "", 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("List limit = %d entries, want 2", len(limited))
	}
}

func TestOpen_ReopensExistingArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	res := dispatch.Result{ProblemID: "7", Code: "x", Origin: dispatch.OriginFresh, Outcome: dispatch.OutcomeFresh}
	if _, err := store.Save(context.Background(), res, "r"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Latest(context.Background(), "7"); err != nil {
		t.Fatalf("Latest after reopen returned error: %v", err)
	}

	if _, err := reopened.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update version: %v", err)
	}
	_ = reopened.Close()
	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Open error = %v, want ErrSchemaMismatch", err)
	}
}
