package watchlist_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"medialist/internal/database"
	"medialist/models"
	"medialist/services/watchlist"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(database.Config{DatabasePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *database.DB) string {
	t.Helper()
	u := &models.User{
		ID:    uuid.NewString(),
		Email: uuid.NewString() + "@example.com",
		Name:  "Test User",
		Role:  models.RoleUser,
	}
	if err := db.Users.Create(context.Background(), u, "hash"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u.ID
}

func entry(mediaType string, id int) models.WatchlistEntry {
	return models.WatchlistEntry{MediaType: mediaType, ID: id}
}

func TestGetOrCreateLazyCreation(t *testing.T) {
	db := newTestDB(t)
	svc := watchlist.NewService(db.Watchlists)
	userID := createUser(t, db)
	ctx := context.Background()

	w, err := svc.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if w.ID == "" {
		t.Fatalf("expected generated watchlist id")
	}
	if w.OwnerID != userID {
		t.Fatalf("expected owner %q, got %q", userID, w.OwnerID)
	}
	if w.Items.Len() != 0 {
		t.Fatalf("expected empty item set, got %d entries", w.Items.Len())
	}

	again, err := svc.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if again.ID != w.ID {
		t.Fatalf("expected stable watchlist id, got %q then %q", w.ID, again.ID)
	}
}

func TestToggleAddsThenRemoves(t *testing.T) {
	db := newTestDB(t)
	svc := watchlist.NewService(db.Watchlists)
	userID := createUser(t, db)
	ctx := context.Background()

	if _, err := svc.GetOrCreate(ctx, userID); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	e := entry(models.MediaTypeMovie, 27205)

	w, err := svc.Toggle(ctx, userID, e)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if w.Items.Len() != 1 || !w.Items.Has(e) {
		t.Fatalf("expected item set [movie:27205], got %v", w.Items.Entries())
	}

	w, err = svc.Toggle(ctx, userID, e)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if w.Items.Len() != 0 {
		t.Fatalf("expected empty set after toggle involution, got %v", w.Items.Entries())
	}

	// The persisted state matches, not just the returned value.
	reloaded, err := svc.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Items.Len() != 0 {
		t.Fatalf("expected persisted empty set, got %v", reloaded.Items.Entries())
	}
}

func TestToggleWithoutWatchlistFails(t *testing.T) {
	db := newTestDB(t)
	svc := watchlist.NewService(db.Watchlists)
	userID := createUser(t, db)

	_, err := svc.Toggle(context.Background(), userID, entry(models.MediaTypeMovie, 1))
	if err != watchlist.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestToggleRejectsInvalidEntry(t *testing.T) {
	db := newTestDB(t)
	svc := watchlist.NewService(db.Watchlists)
	userID := createUser(t, db)
	ctx := context.Background()

	if _, err := svc.GetOrCreate(ctx, userID); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	tests := []models.WatchlistEntry{
		entry("series", 1),
		entry("", 1),
		entry(models.MediaTypeMovie, 0),
	}
	for _, e := range tests {
		if _, err := svc.Toggle(ctx, userID, e); err != watchlist.ErrInvalidEntry {
			t.Errorf("Toggle(%+v): expected ErrInvalidEntry, got %v", e, err)
		}
	}
}

func TestAddAndRemoveAreIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := watchlist.NewService(db.Watchlists)
	userID := createUser(t, db)
	ctx := context.Background()

	if _, err := svc.GetOrCreate(ctx, userID); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	e := entry(models.MediaTypeTV, 1399)

	for i := 0; i < 2; i++ {
		w, err := svc.Add(ctx, userID, e)
		if err != nil {
			t.Fatalf("add %d failed: %v", i, err)
		}
		if w.Items.Len() != 1 {
			t.Fatalf("add %d: expected 1 entry, got %d", i, w.Items.Len())
		}
	}

	for i := 0; i < 2; i++ {
		w, err := svc.Remove(ctx, userID, e)
		if err != nil {
			t.Fatalf("remove %d failed: %v", i, err)
		}
		if w.Items.Len() != 0 {
			t.Fatalf("remove %d: expected empty set, got %d", i, w.Items.Len())
		}
	}
}

func TestMergeUnionsAndLeavesSourceUntouched(t *testing.T) {
	db := newTestDB(t)
	svc := watchlist.NewService(db.Watchlists)
	ctx := context.Background()

	userA := createUser(t, db)
	userB := createUser(t, db)

	if _, err := svc.GetOrCreate(ctx, userA); err != nil {
		t.Fatalf("GetOrCreate A failed: %v", err)
	}
	wb, err := svc.GetOrCreate(ctx, userB)
	if err != nil {
		t.Fatalf("GetOrCreate B failed: %v", err)
	}

	for _, e := range []models.WatchlistEntry{entry(models.MediaTypeMovie, 1), entry(models.MediaTypeTV, 2)} {
		if _, err := svc.Add(ctx, userA, e); err != nil {
			t.Fatalf("seed A failed: %v", err)
		}
	}
	for _, e := range []models.WatchlistEntry{entry(models.MediaTypeMovie, 1), entry(models.MediaTypeMovie, 3)} {
		if _, err := svc.Add(ctx, userB, e); err != nil {
			t.Fatalf("seed B failed: %v", err)
		}
	}

	merged, err := svc.Merge(ctx, userA, wb.ID)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	want := []models.WatchlistEntry{entry(models.MediaTypeMovie, 1), entry(models.MediaTypeTV, 2), entry(models.MediaTypeMovie, 3)}
	if merged.Items.Len() != len(want) {
		t.Fatalf("expected %d entries after merge, got %v", len(want), merged.Items.Entries())
	}
	for _, e := range want {
		if !merged.Items.Has(e) {
			t.Fatalf("expected merged set to contain %s", e.Key())
		}
	}

	// Source must be unchanged.
	sourceAfter, err := svc.GetOrCreate(ctx, userB)
	if err != nil {
		t.Fatalf("reload B failed: %v", err)
	}
	if sourceAfter.Items.Len() != 2 {
		t.Fatalf("merge modified the source watchlist: %v", sourceAfter.Items.Entries())
	}

	// Merge is idempotent.
	again, err := svc.Merge(ctx, userA, wb.ID)
	if err != nil {
		t.Fatalf("second merge failed: %v", err)
	}
	if again.Items.Len() != len(want) {
		t.Fatalf("repeated merge changed the set: %v", again.Items.Entries())
	}
}

func TestMergeUnknownSourceFailsAndChangesNothing(t *testing.T) {
	db := newTestDB(t)
	svc := watchlist.NewService(db.Watchlists)
	userID := createUser(t, db)
	ctx := context.Background()

	if _, err := svc.GetOrCreate(ctx, userID); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if _, err := svc.Add(ctx, userID, entry(models.MediaTypeMovie, 5)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := svc.Merge(ctx, userID, "nonexistent-id"); err != watchlist.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	w, err := svc.GetOrCreate(ctx, userID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if w.Items.Len() != 1 {
		t.Fatalf("failed merge must not change items, got %v", w.Items.Entries())
	}
}

func TestClearIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := watchlist.NewService(db.Watchlists)
	userID := createUser(t, db)
	ctx := context.Background()

	if _, err := svc.GetOrCreate(ctx, userID); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if _, err := svc.Add(ctx, userID, entry(models.MediaTypeMovie, 5)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		w, err := svc.Clear(ctx, userID)
		if err != nil {
			t.Fatalf("clear %d failed: %v", i, err)
		}
		if w.Items.Len() != 0 {
			t.Fatalf("clear %d: expected empty set, got %v", i, w.Items.Entries())
		}
	}
}

func TestNoDuplicatesAfterOperationSequence(t *testing.T) {
	db := newTestDB(t)
	svc := watchlist.NewService(db.Watchlists)
	ctx := context.Background()

	userA := createUser(t, db)
	userB := createUser(t, db)

	if _, err := svc.GetOrCreate(ctx, userA); err != nil {
		t.Fatalf("GetOrCreate A failed: %v", err)
	}
	wb, err := svc.GetOrCreate(ctx, userB)
	if err != nil {
		t.Fatalf("GetOrCreate B failed: %v", err)
	}

	e := entry(models.MediaTypeMovie, 550)
	ops := []func() (*models.Watchlist, error){
		func() (*models.Watchlist, error) { return svc.Add(ctx, userA, e) },
		func() (*models.Watchlist, error) { return svc.Add(ctx, userA, e) },
		func() (*models.Watchlist, error) { return svc.Toggle(ctx, userA, entry(models.MediaTypeTV, 60)) },
		func() (*models.Watchlist, error) { return svc.Merge(ctx, userA, wb.ID) },
		func() (*models.Watchlist, error) { return svc.Merge(ctx, userA, wb.ID) },
	}
	if _, err := svc.Add(ctx, userB, e); err != nil {
		t.Fatalf("seed B failed: %v", err)
	}

	var last *models.Watchlist
	for i, op := range ops {
		if last, err = op(); err != nil {
			t.Fatalf("operation %d failed: %v", i, err)
		}
	}

	seen := map[string]bool{}
	for _, got := range last.Items.Entries() {
		if seen[got.Key()] {
			t.Fatalf("duplicate entry %s in item set", got.Key())
		}
		seen[got.Key()] = true
	}
}
