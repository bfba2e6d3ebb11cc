// Tests run against a real SQLite file in t.TempDir(), so the SQL is exercised as written.
package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fleveque/scene-finder/internal/model"
)

func setupTestRepo(t *testing.T) CallRepository {
	t.Helper()

	// Nested directory checks that NewDatabase creates parents.
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	db, err := NewDatabase(dbPath)
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewCallRepository(db)
}

func TestCallRepository_CreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	duration := int64(1200)
	call := &model.IdentificationCall{
		Provider:   "gemini",
		Model:      "gemini-2.5-flash",
		ImageCount: 2,
		Success:    true,
		IsMovie:    true,
		DurationMs: &duration,
	}

	if err := repo.Create(ctx, call); err != nil {
		t.Fatalf("creating call: %v", err)
	}
	if call.ID == 0 {
		t.Fatal("expected call ID to be set after create")
	}

	got, err := repo.GetByID(ctx, call.ID)
	if err != nil {
		t.Fatalf("getting call: %v", err)
	}
	if got.Provider != "gemini" || got.ImageCount != 2 || !got.Success || !got.IsMovie {
		t.Errorf("unexpected call: %+v", got)
	}
	if got.DurationMs == nil || *got.DurationMs != 1200 {
		t.Errorf("expected duration 1200, got %v", got.DurationMs)
	}
	if got.ErrorMessage != nil {
		t.Errorf("expected nil error message, got %q", *got.ErrorMessage)
	}
}

func TestCallRepository_GetByID_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetByID(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCallRepository_StatsAndList(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	// Empty table: sums must be zero, not NULL.
	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats on empty table: %v", err)
	}
	if stats.Total != 0 || stats.Succeeded != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}

	errMsg := "gemini API call: timeout"
	calls := []model.IdentificationCall{
		{Provider: "gemini", Model: "m", ImageCount: 1, Success: true, IsMovie: true},
		{Provider: "gemini", Model: "m", ImageCount: 1, Success: true, IsMovie: false},
		{Provider: "openai", Model: "m", ImageCount: 3, Success: false, ErrorMessage: &errMsg},
	}
	for i := range calls {
		if err := repo.Create(ctx, &calls[i]); err != nil {
			t.Fatalf("creating call %d: %v", i, err)
		}
	}

	stats, err = repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := model.CallStats{Total: 3, Succeeded: 2, Failed: 1, Identified: 1}
	if *stats != want {
		t.Errorf("expected %+v, got %+v", want, *stats)
	}

	count, err := repo.CountByProvider(ctx, "gemini")
	if err != nil {
		t.Fatalf("count by provider: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 gemini calls, got %d", count)
	}

	recent, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("listing recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent calls, got %d", len(recent))
	}
	if recent[0].Provider != "openai" {
		t.Errorf("expected newest call first, got %s", recent[0].Provider)
	}
	if recent[0].ErrorMessage == nil || *recent[0].ErrorMessage != errMsg {
		t.Errorf("expected error message to round-trip, got %v", recent[0].ErrorMessage)
	}
}
