package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"medialist/internal/database"
	"medialist/models"
)

var (
	// ErrNotFound means the caller's watchlist or the import source is missing.
	ErrNotFound = errors.New("watchlist not found")
	// ErrInvalidEntry means the entry's media type or id is malformed.
	ErrInvalidEntry = errors.New("invalid watchlist entry")
)

// Service maintains each user's de-duplicated set of watchlist entries.
//
// Every mutation is a read-modify-write on a single row. Two simultaneous
// requests from the same user can lose an update (last write wins); callers
// get single-writer-per-request semantics and nothing stronger.
type Service struct {
	repo *database.WatchlistRepository
}

func NewService(repo *database.WatchlistRepository) *Service {
	return &Service{repo: repo}
}

// GetOrCreate returns the user's watchlist, creating an empty one with a
// fresh id on first access. Total over any valid user id; at most one insert.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (*models.Watchlist, error) {
	w, err := s.repo.GetByOwnerID(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}

	w = &models.Watchlist{
		ID:      uuid.NewString(),
		OwnerID: userID,
		Items:   models.NewEntrySet(),
	}
	if err := s.repo.Create(ctx, w); err != nil {
		if errors.Is(err, database.ErrConflict) {
			// Lost the create race against a concurrent first read; the row
			// exists now.
			return s.repo.GetByOwnerID(ctx, userID)
		}
		return nil, fmt.Errorf("create watchlist: %w", err)
	}

	slog.Debug("watchlist.created", "watchlist_id", w.ID, "user_id", userID)
	return w, nil
}

// Toggle flips membership of entry in the user's watchlist: present entries
// are removed, absent ones inserted. Applying it twice with the same entry
// restores the original set.
func (s *Service) Toggle(ctx context.Context, userID string, entry models.WatchlistEntry) (*models.Watchlist, error) {
	if !entry.Valid() {
		return nil, ErrInvalidEntry
	}

	w, err := s.ownWatchlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	if w.Items.Has(entry) {
		w.Items.Remove(entry)
		slog.Debug("watchlist.toggle.removed", "user_id", userID, "entry", entry.Key())
	} else {
		w.Items.Add(entry)
		slog.Debug("watchlist.toggle.added", "user_id", userID, "entry", entry.Key())
	}

	return s.persist(ctx, w)
}

// Add inserts the entry if absent. Safe to retry: re-adding is a no-op.
func (s *Service) Add(ctx context.Context, userID string, entry models.WatchlistEntry) (*models.Watchlist, error) {
	if !entry.Valid() {
		return nil, ErrInvalidEntry
	}

	w, err := s.ownWatchlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !w.Items.Add(entry) {
		return w, nil
	}
	return s.persist(ctx, w)
}

// Remove deletes the entry if present. Safe to retry: re-removing is a no-op.
func (s *Service) Remove(ctx context.Context, userID string, entry models.WatchlistEntry) (*models.Watchlist, error) {
	if !entry.Valid() {
		return nil, ErrInvalidEntry
	}

	w, err := s.ownWatchlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !w.Items.Remove(entry) {
		return w, nil
	}
	return s.persist(ctx, w)
}

// Merge unions another watchlist's entries into the caller's. Entries already
// present win, the source is never modified, and merging the same source
// twice equals merging it once.
func (s *Service) Merge(ctx context.Context, userID, sourceWatchlistID string) (*models.Watchlist, error) {
	w, err := s.ownWatchlist(ctx, userID)
	if err != nil {
		return nil, err
	}

	source, err := s.repo.GetByID(ctx, sourceWatchlistID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load source watchlist: %w", err)
	}

	before := w.Items.Len()
	w.Items.Union(source.Items)
	slog.Debug("watchlist.merged",
		"user_id", userID,
		"source_id", sourceWatchlistID,
		"imported", w.Items.Len()-before)

	return s.persist(ctx, w)
}

// Clear replaces the item set with empty. Idempotent.
func (s *Service) Clear(ctx context.Context, userID string) (*models.Watchlist, error) {
	w, err := s.ownWatchlist(ctx, userID)
	if err != nil {
		return nil, err
	}
	w.Items.Clear()
	return s.persist(ctx, w)
}

func (s *Service) ownWatchlist(ctx context.Context, userID string) (*models.Watchlist, error) {
	w, err := s.repo.GetByOwnerID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	return w, nil
}

func (s *Service) persist(ctx context.Context, w *models.Watchlist) (*models.Watchlist, error) {
	if err := s.repo.UpdateItems(ctx, w); err != nil {
		return nil, fmt.Errorf("persist watchlist: %w", err)
	}
	return w, nil
}
