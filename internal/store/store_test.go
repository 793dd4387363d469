package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKey_Normalization(t *testing.T) {
	// NFC-equivalent inputs and surrounding whitespace map to one key.
	a := Key("café", "es", "deepl")
	b := Key("café", "es", "deepl")
	c := Key("  café  ", "es", "deepl")
	if a != b {
		t.Error("NFC-equivalent sources produced different keys")
	}
	if a != c {
		t.Error("whitespace changed the key")
	}
}

func TestKey_ProviderScoped(t *testing.T) {
	if Key("Hello", "es", "deepl") == Key("Hello", "es", "google") {
		t.Error("different providers share a cache key")
	}
	if Key("Hello", "es", "deepl") == Key("Hello", "fr", "deepl") {
		t.Error("different target languages share a cache key")
	}
}

func TestSaveAndGetCached(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, found, err := s.GetCached(ctx, "Hello", "es", "deepl"); err != nil || found {
		t.Fatalf("expected miss on empty store, found=%v err=%v", found, err)
	}

	if err := s.SaveTranslation(ctx, "Hello", "es", "deepl", "Hola"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, found, err := s.GetCached(ctx, "Hello", "es", "deepl")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !found || got != "Hola" {
		t.Errorf("expected hit with %q, got %q found=%v", "Hola", got, found)
	}

	// Same text for another provider stays a miss.
	if _, found, _ := s.GetCached(ctx, "Hello", "es", "google"); found {
		t.Error("cache hit leaked across providers")
	}
}

func TestSaveTranslation_Replace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveTranslation(ctx, "Hello", "es", "deepl", "Hola"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.SaveTranslation(ctx, "Hello", "es", "deepl", "¡Hola!"); err != nil {
		t.Fatalf("re-save failed: %v", err)
	}

	got, _, _ := s.GetCached(ctx, "Hello", "es", "deepl")
	if got != "¡Hola!" {
		t.Errorf("expected replaced text, got %q", got)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalEntries != 1 {
		t.Errorf("expected 1 entry after replace, got %d", stats.TotalEntries)
	}
}

func TestUsageCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveTranslation(ctx, "Hello", "es", "deepl", "Hola"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, _, err := s.GetCached(ctx, "Hello", "es", "deepl"); err != nil {
			t.Fatalf("lookup %d failed: %v", i, err)
		}
	}

	entries, err := s.ListCache(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].UsageCount != 3 {
		t.Errorf("expected usage count 3, got %d", entries[0].UsageCount)
	}
}

func TestClearCache(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		if err := s.SaveTranslation(ctx, text, "es", "deepl", text+"-es"); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	n, err := s.ClearCache(ctx)
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows cleared, got %d", n)
	}

	stats, _ := s.Stats(ctx)
	if stats.TotalEntries != 0 {
		t.Errorf("expected empty cache, got %d entries", stats.TotalEntries)
	}
}

func TestCheckpointLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	jobID := JobID("out/es.po")

	cp, err := s.LoadCheckpoint(ctx, jobID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cp != nil {
		t.Fatal("expected no checkpoint on fresh store")
	}

	want := Checkpoint{
		JobID:          jobID,
		RunID:          "run-1",
		OutputPath:     "out/es.po",
		CatalogDigest:  "abc123",
		TargetLang:     "es",
		Provider:       "deepl",
		CompletedCount: 50,
		Status:         "running",
	}
	if err := s.SaveCheckpoint(ctx, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	cp, err = s.LoadCheckpoint(ctx, jobID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cp == nil {
		t.Fatal("expected checkpoint after save")
	}
	if cp.CompletedCount != 50 || cp.CatalogDigest != "abc123" || cp.Status != "running" {
		t.Errorf("unexpected checkpoint: %+v", cp)
	}

	// Progress updates overwrite in place.
	want.CompletedCount = 100
	if err := s.SaveCheckpoint(ctx, want); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	cp, _ = s.LoadCheckpoint(ctx, jobID)
	if cp.CompletedCount != 100 {
		t.Errorf("expected updated count 100, got %d", cp.CompletedCount)
	}

	if err := s.CompleteCheckpoint(ctx, jobID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	cp, _ = s.LoadCheckpoint(ctx, jobID)
	if cp.Status != "completed" {
		t.Errorf("expected status completed, got %q", cp.Status)
	}

	if err := s.DeleteCheckpoint(ctx, jobID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	cp, _ = s.LoadCheckpoint(ctx, jobID)
	if cp != nil {
		t.Error("expected checkpoint gone after delete")
	}
}

func TestJobID_Stable(t *testing.T) {
	if JobID("out/es.po") != JobID("out/es.po") {
		t.Error("same path produced different job IDs")
	}
	if JobID("out/es.po") == JobID("out/fr.po") {
		t.Error("different paths produced the same job ID")
	}
}
