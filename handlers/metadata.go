package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"medialist/models"
	metadatasvc "medialist/services/metadata"
)

type metadataService interface {
	SearchMulti(ctx context.Context, query string, page int) (*metadatasvc.SearchResult, error)
	Trending(ctx context.Context) (*metadatasvc.SearchResult, error)
	MovieDetails(ctx context.Context, id int) (*metadatasvc.MovieDetails, error)
	TVDetails(ctx context.Context, id int) (*metadatasvc.TVDetails, error)
}

var _ metadataService = (*metadatasvc.Client)(nil)

// MetadataHandler proxies the external catalog for the browser client so the
// API key stays server-side. The watchlist store never goes through here.
type MetadataHandler struct {
	Service metadataService
}

func NewMetadataHandler(s metadataService) *MetadataHandler {
	return &MetadataHandler{Service: s}
}

// Register mounts the catalog routes on an authenticated router.
func (h *MetadataHandler) Register(r *mux.Router) {
	r.HandleFunc("/metadata/search", h.Search).Methods(http.MethodGet)
	r.HandleFunc("/metadata/trending", h.Trending).Methods(http.MethodGet)
	r.HandleFunc("/metadata/{mediaType}/{id}", h.Details).Methods(http.MethodGet)
}

// Search runs a combined movie/TV title search.
func (h *MetadataHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	res, err := h.Service.SearchMulti(r.Context(), query, page)
	if err != nil {
		writeMetadataError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Trending returns this week's trending titles.
func (h *MetadataHandler) Trending(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.Trending(r.Context())
	if err != nil {
		writeMetadataError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Details returns display metadata for one title.
func (h *MetadataHandler) Details(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	switch vars["mediaType"] {
	case models.MediaTypeMovie:
		res, err := h.Service.MovieDetails(r.Context(), id)
		if err != nil {
			writeMetadataError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case models.MediaTypeTV:
		res, err := h.Service.TVDetails(r.Context(), id)
		if err != nil {
			writeMetadataError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		writeError(w, http.StatusBadRequest, "mediaType must be \"movie\" or \"tv\"")
	}
}

func writeMetadataError(w http.ResponseWriter, err error) {
	if errors.Is(err, metadatasvc.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, "catalog request failed")
}
