package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"medialist/internal/database"
	"medialist/models"
	reportssvc "medialist/services/reports"
)

type reportsService interface {
	Submit(ctx context.Context, creatorID string, in reportssvc.SubmitInput) (*models.BugReport, error)
	List(ctx context.Context, f database.ReportFilter) (*reportssvc.ListResult, error)
	SetStatus(ctx context.Context, reportID string, resolved bool, adminID string) (*models.BugReport, error)
	Delete(ctx context.Context, reportID string) error
}

var _ reportsService = (*reportssvc.Service)(nil)

// ReportsHandler exposes report submission to users and triage to admins.
type ReportsHandler struct {
	Service reportsService
}

func NewReportsHandler(s reportsService) *ReportsHandler {
	return &ReportsHandler{Service: s}
}

// Register mounts submission on the authenticated router and triage on the
// admin router.
func (h *ReportsHandler) Register(api, admin *mux.Router) {
	api.HandleFunc("/reports", h.Submit).Methods(http.MethodPost)
	admin.HandleFunc("/reports", h.List).Methods(http.MethodGet)
	admin.HandleFunc("/reports/{id}/status", h.SetStatus).Methods(http.MethodPut)
	admin.HandleFunc("/reports/{id}", h.Delete).Methods(http.MethodDelete)
}

// Submit files a bug report on behalf of the session user.
func (h *ReportsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUser(w, r)
	if !ok {
		return
	}

	var in reportssvc.SubmitInput
	if !decodeBody(w, r, &in) {
		return
	}

	rep, err := h.Service.Submit(r.Context(), userID, in)
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

// List returns a filtered, paged triage listing.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := database.ReportFilter{
		Status:    q.Get("status"),
		Flag:      q.Get("flag"),
		CreatorID: q.Get("creatorId"),
		AdminID:   q.Get("adminId"),
		IDLike:    q.Get("id"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	res, err := h.Service.List(r.Context(), f)
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetStatus resolves or reopens a report. A missing status defaults to
// resolving, matching the submission form's single action button.
func (h *ReportsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	adminID, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Status *bool `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	resolved := req.Status == nil || *req.Status

	rep, err := h.Service.SetStatus(r.Context(), mux.Vars(r)["id"], resolved, adminID)
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Delete removes a report permanently.
func (h *ReportsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeReportError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeReportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reportssvc.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, reportssvc.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "report operation failed")
	}
}
