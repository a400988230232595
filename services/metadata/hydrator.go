package metadata

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"medialist/models"
)

type detailsClient interface {
	Details(ctx context.Context, entry models.WatchlistEntry) (*MediaResult, error)
}

var _ detailsClient = (*Client)(nil)

// DetailedEntry pairs a watchlist entry with its catalog metadata.
type DetailedEntry struct {
	models.WatchlistEntry
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"posterPath"`
	ReleaseDate string  `json:"releaseDate"`
	VoteAverage float64 `json:"voteAverage"`
}

// Hydrator resolves watchlist entries to display metadata with bounded
// concurrency. Entries whose lookup fails are skipped rather than failing
// the whole list.
type Hydrator struct {
	client  detailsClient
	workers int
}

func NewHydrator(client detailsClient, workers int) *Hydrator {
	if workers < 1 {
		workers = 1
	}
	return &Hydrator{client: client, workers: workers}
}

// Details fetches metadata for each entry. Result order is not guaranteed;
// the watchlist itself remains the source of truth for membership.
func (h *Hydrator) Details(ctx context.Context, entries []models.WatchlistEntry) []DetailedEntry {
	p := pool.NewWithResults[*DetailedEntry]().WithMaxGoroutines(h.workers)

	for _, entry := range entries {
		p.Go(func() *DetailedEntry {
			res, err := h.client.Details(ctx, entry)
			if err != nil {
				slog.Warn("metadata.hydrate.failed", "entry", entry.Key(), "error", err)
				return nil
			}
			release := res.ReleaseDate
			if release == "" {
				release = res.FirstAirDate
			}
			return &DetailedEntry{
				WatchlistEntry: entry,
				Title:          res.DisplayTitle(),
				Overview:       res.Overview,
				PosterPath:     res.PosterPath,
				ReleaseDate:    release,
				VoteAverage:    res.VoteAverage,
			}
		})
	}

	out := make([]DetailedEntry, 0, len(entries))
	for _, res := range p.Wait() {
		if res != nil {
			out = append(out, *res)
		}
	}
	return out
}
