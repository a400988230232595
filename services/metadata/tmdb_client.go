package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"medialist/models"
	"medialist/utils"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	cacheTTL       = 24 * time.Hour
)

// ErrNotFound means the catalog has no item with the given id.
var ErrNotFound = errors.New("title not found in catalog")

// errUpstream marks responses worth retrying (429 and 5xx).
type errUpstream struct {
	status int
}

func (e errUpstream) Error() string {
	return "catalog returned status " + strconv.Itoa(e.status)
}

// Client talks to the TMDB v3 API. Requests are rate limited client-side,
// retried on transient upstream failures, and served from the cache when a
// fresh copy exists.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      Cache
}

// NewClient returns a catalog client with a default HTTP client and limits
// tuned well below TMDB's documented ceiling.
func NewClient(apiKey string, cache Cache) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(20), 40),
		cache:      cache,
	}
}

// WithBaseURL overrides the API endpoint, for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// MediaResult is one row of a search or trending response. TMDB uses "title"
// for movies and "name" for TV; both are mapped so callers don't care.
type MediaResult struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	VoteAverage  float64 `json:"vote_average"`
}

// DisplayTitle returns whichever of title/name the catalog populated.
func (m MediaResult) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

// SearchResult is a paged list of media results.
type SearchResult struct {
	Page         int           `json:"page"`
	Results      []MediaResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// MovieDetails holds the display fields for a single movie.
type MovieDetails struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	VoteAverage float64 `json:"vote_average"`
}

// TVDetails holds the display fields for a single TV show.
type TVDetails struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Overview        string  `json:"overview"`
	PosterPath      string  `json:"poster_path"`
	FirstAirDate    string  `json:"first_air_date"`
	NumberOfSeasons int     `json:"number_of_seasons"`
	VoteAverage     float64 `json:"vote_average"`
}

// SearchMulti searches movies and TV shows in one call. The query is
// romanized and case-folded before hitting the catalog.
func (c *Client) SearchMulti(ctx context.Context, query string, page int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("query", utils.NormalizeQuery(query))
	params.Set("page", strconv.Itoa(page))

	var out SearchResult
	if err := c.get(ctx, "/search/multi", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Trending returns this week's trending movies and shows.
func (c *Client) Trending(ctx context.Context) (*SearchResult, error) {
	var out SearchResult
	if err := c.get(ctx, "/trending/all/week", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MovieDetails fetches display metadata for one movie.
func (c *Client) MovieDetails(ctx context.Context, id int) (*MovieDetails, error) {
	var out MovieDetails
	if err := c.get(ctx, "/movie/"+strconv.Itoa(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TVDetails fetches display metadata for one TV show.
func (c *Client) TVDetails(ctx context.Context, id int) (*TVDetails, error) {
	var out TVDetails
	if err := c.get(ctx, "/tv/"+strconv.Itoa(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Details fetches metadata for a watchlist entry, normalizing movie and TV
// responses into one shape.
func (c *Client) Details(ctx context.Context, entry models.WatchlistEntry) (*MediaResult, error) {
	switch entry.MediaType {
	case models.MediaTypeMovie:
		d, err := c.MovieDetails(ctx, entry.ID)
		if err != nil {
			return nil, err
		}
		return &MediaResult{
			ID:          d.ID,
			MediaType:   models.MediaTypeMovie,
			Title:       d.Title,
			Overview:    d.Overview,
			PosterPath:  d.PosterPath,
			ReleaseDate: d.ReleaseDate,
			VoteAverage: d.VoteAverage,
		}, nil
	case models.MediaTypeTV:
		d, err := c.TVDetails(ctx, entry.ID)
		if err != nil {
			return nil, err
		}
		return &MediaResult{
			ID:           d.ID,
			MediaType:    models.MediaTypeTV,
			Name:         d.Name,
			Overview:     d.Overview,
			PosterPath:   d.PosterPath,
			FirstAirDate: d.FirstAirDate,
			VoteAverage:  d.VoteAverage,
		}, nil
	default:
		return nil, fmt.Errorf("unknown media type %q", entry.MediaType)
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	cacheKey := path + "?" + params.Encode()

	if data, ok := c.cache.Get(ctx, cacheKey); ok {
		return json.Unmarshal(data, out)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body []byte
	err := retry.Do(
		func() error {
			data, err := c.doRequest(ctx, path, params)
			if err != nil {
				return err
			}
			body = data
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var ue errUpstream
			return errors.As(err, &ue)
		}),
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	c.cache.Set(ctx, cacheKey, body, cacheTTL)
	return nil
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, errUpstream{status: resp.StatusCode}
	default:
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}
	return body, nil
}
