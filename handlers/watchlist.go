package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"medialist/models"
	"medialist/services/metadata"
	watchlistsvc "medialist/services/watchlist"
)

type watchlistService interface {
	GetOrCreate(ctx context.Context, userID string) (*models.Watchlist, error)
	Toggle(ctx context.Context, userID string, entry models.WatchlistEntry) (*models.Watchlist, error)
	Add(ctx context.Context, userID string, entry models.WatchlistEntry) (*models.Watchlist, error)
	Remove(ctx context.Context, userID string, entry models.WatchlistEntry) (*models.Watchlist, error)
	Merge(ctx context.Context, userID, sourceWatchlistID string) (*models.Watchlist, error)
	Clear(ctx context.Context, userID string) (*models.Watchlist, error)
}

var _ watchlistService = (*watchlistsvc.Service)(nil)

type watchlistHydrator interface {
	Details(ctx context.Context, entries []models.WatchlistEntry) []metadata.DetailedEntry
}

var _ watchlistHydrator = (*metadata.Hydrator)(nil)

// WatchlistHandler exposes the watchlist operations over HTTP.
type WatchlistHandler struct {
	Service  watchlistService
	Hydrator watchlistHydrator
}

func NewWatchlistHandler(s watchlistService, h watchlistHydrator) *WatchlistHandler {
	return &WatchlistHandler{Service: s, Hydrator: h}
}

// Register mounts the watchlist routes on an authenticated router.
func (h *WatchlistHandler) Register(r *mux.Router) {
	r.HandleFunc("/watchlist", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/watchlist", h.Toggle).Methods(http.MethodPut)
	r.HandleFunc("/watchlist", h.Clear).Methods(http.MethodDelete)
	r.HandleFunc("/watchlist/import", h.Import).Methods(http.MethodPost)
	r.HandleFunc("/watchlist/items", h.AddItem).Methods(http.MethodPost)
	r.HandleFunc("/watchlist/items", h.RemoveItem).Methods(http.MethodDelete)
	r.HandleFunc("/watchlist/details", h.Details).Methods(http.MethodGet)
}

// entryRequest is the toggle/add/remove payload. ID is a pointer so a
// missing id is distinguishable from id 0.
type entryRequest struct {
	MediaType string `json:"mediaType"`
	ID        *int   `json:"id"`
}

func (req entryRequest) entry(w http.ResponseWriter) (models.WatchlistEntry, bool) {
	if req.ID == nil {
		writeError(w, http.StatusBadRequest, "id is required")
		return models.WatchlistEntry{}, false
	}
	entry := models.WatchlistEntry{MediaType: req.MediaType, ID: *req.ID}
	if !entry.Valid() {
		writeError(w, http.StatusBadRequest, "mediaType must be \"movie\" or \"tv\" and id must be positive")
		return models.WatchlistEntry{}, false
	}
	return entry, true
}

// Get returns the caller's watchlist, creating it on first access.
func (h *WatchlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	wl, err := h.Service.GetOrCreate(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load watchlist")
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

// Toggle adds the entry if absent, removes it if present.
func (h *WatchlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	h.mutateEntry(w, r, h.Service.Toggle)
}

// AddItem inserts the entry; repeating the call changes nothing.
func (h *WatchlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.mutateEntry(w, r, h.Service.Add)
}

// RemoveItem deletes the entry; repeating the call changes nothing.
func (h *WatchlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutateEntry(w, r, h.Service.Remove)
}

func (h *WatchlistHandler) mutateEntry(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, userID string, entry models.WatchlistEntry) (*models.Watchlist, error)) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req entryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, ok := req.entry(w)
	if !ok {
		return
	}

	wl, err := op(r.Context(), userID, entry)
	if err != nil {
		writeWatchlistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

// Import merges another watchlist, referenced by its id, into the caller's.
func (h *WatchlistHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	wl, err := h.Service.Merge(r.Context(), userID, req.ID)
	if err != nil {
		writeWatchlistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

// Clear empties the caller's watchlist.
func (h *WatchlistHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	wl, err := h.Service.Clear(r.Context(), userID)
	if err != nil {
		writeWatchlistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

// Details returns the caller's entries hydrated with catalog metadata.
func (h *WatchlistHandler) Details(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	wl, err := h.Service.GetOrCreate(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load watchlist")
		return
	}

	items := h.Hydrator.Details(r.Context(), wl.Items.Entries())
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    wl.ID,
		"items": items,
	})
}

func writeWatchlistError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, watchlistsvc.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, watchlistsvc.ErrInvalidEntry):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "watchlist operation failed")
	}
}
