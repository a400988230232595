package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"medialist/models"
)

// ErrConflict is returned when an insert loses a uniqueness race, e.g. two
// concurrent first reads both trying to create the same user's watchlist.
var ErrConflict = errors.New("conflicting record exists")

// WatchlistRepository persists watchlists as a row per user with the item set
// serialized into a single json_data column.
type WatchlistRepository struct {
	conn *sql.DB
}

func NewWatchlistRepository(conn *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{conn: conn}
}

const watchlistColumns = `id, user_id, json_data, created_at, updated_at`

func scanWatchlist(row *sql.Row) (*models.Watchlist, error) {
	var w models.Watchlist
	var jsonData string
	var createdAt, updatedAt int64
	err := row.Scan(&w.ID, &w.OwnerID, &jsonData, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan watchlist: %w", err)
	}

	items := models.NewEntrySet()
	if err := json.Unmarshal([]byte(jsonData), items); err != nil {
		return nil, fmt.Errorf("decode watchlist items: %w", err)
	}
	w.Items = items
	w.CreatedAt = time.Unix(createdAt, 0).UTC()
	w.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &w, nil
}

// GetByOwnerID fetches the watchlist owned by a user.
func (r *WatchlistRepository) GetByOwnerID(ctx context.Context, ownerID string) (*models.Watchlist, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+watchlistColumns+` FROM watchlists WHERE user_id = ?`, ownerID)
	return scanWatchlist(row)
}

// GetByID fetches a watchlist by its stable id, the token used for imports.
func (r *WatchlistRepository) GetByID(ctx context.Context, id string) (*models.Watchlist, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+watchlistColumns+` FROM watchlists WHERE id = ?`, id)
	return scanWatchlist(row)
}

// Create inserts a new watchlist row. The unique constraint on user_id
// enforces one watchlist per user; losing that race yields ErrConflict.
func (r *WatchlistRepository) Create(ctx context.Context, w *models.Watchlist) error {
	data, err := json.Marshal(w.Items)
	if err != nil {
		return fmt.Errorf("encode watchlist items: %w", err)
	}

	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now

	_, err = r.conn.ExecContext(ctx,
		`INSERT INTO watchlists (id, user_id, json_data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.OwnerID, string(data), now.Unix(), now.Unix())
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrConflict
		}
		return fmt.Errorf("insert watchlist: %w", err)
	}
	return nil
}

// UpdateItems persists the watchlist's current item set.
func (r *WatchlistRepository) UpdateItems(ctx context.Context, w *models.Watchlist) error {
	data, err := json.Marshal(w.Items)
	if err != nil {
		return fmt.Errorf("encode watchlist items: %w", err)
	}

	now := time.Now().UTC()
	res, err := r.conn.ExecContext(ctx,
		`UPDATE watchlists SET json_data = ?, updated_at = ? WHERE id = ?`,
		string(data), now.Unix(), w.ID)
	if err != nil {
		return fmt.Errorf("update watchlist: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	w.UpdatedAt = now
	return nil
}
