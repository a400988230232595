package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"medialist/internal/database"
	"medialist/models"
)

const (
	minTitleLen   = 10
	maxTitleLen   = 100
	minContentLen = 10
	maxContentLen = 1500

	defaultLimit = 10
	maxLimit     = 50
)

var (
	// ErrNotFound means the referenced report does not exist.
	ErrNotFound = errors.New("report not found")
	// ErrValidation marks malformed report input.
	ErrValidation = errors.New("validation failed")
)

// SubmitInput is the user-supplied part of a new report.
type SubmitInput struct {
	Title   string `json:"title"`
	Flag    string `json:"flag"`
	Content string `json:"content"`
}

// ListResult is one page of the triage listing.
type ListResult struct {
	Reports        []models.ReportWithAdmin `json:"reports"`
	NumberOfPages  int                      `json:"numberOfPages"`
	TotalReports   int                      `json:"totalReports"`
	ShowingReports int                      `json:"showingReports"`
}

// Service manages bug reports: user submission and admin triage.
type Service struct {
	repo *database.ReportRepository
}

func NewService(repo *database.ReportRepository) *Service {
	return &Service{repo: repo}
}

// Submit files a new, unresolved report for the given creator.
func (s *Service) Submit(ctx context.Context, creatorID string, in SubmitInput) (*models.BugReport, error) {
	if l := len(in.Title); l < minTitleLen || l > maxTitleLen {
		return nil, fmt.Errorf("%w: title must be %d-%d characters", ErrValidation, minTitleLen, maxTitleLen)
	}
	if l := len(in.Content); l < minContentLen || l > maxContentLen {
		return nil, fmt.Errorf("%w: content must be %d-%d characters", ErrValidation, minContentLen, maxContentLen)
	}
	if !models.ValidBugFlag(in.Flag) {
		return nil, fmt.Errorf("%w: unknown flag %q", ErrValidation, in.Flag)
	}

	rep := &models.BugReport{
		ID:        uuid.NewString(),
		Title:     in.Title,
		CreatorID: &creatorID,
		Flag:      in.Flag,
		Content:   in.Content,
		Status:    models.ReportStatusUnresolved,
	}
	if err := s.repo.Insert(ctx, rep); err != nil {
		return nil, err
	}

	slog.Info("reports.submitted", "report_id", rep.ID, "flag", rep.Flag)
	return rep, nil
}

// List returns the filtered, paged triage listing with totals. Limits are
// clamped to 1-50 and unknown sort fields fall back to creation time.
func (s *Service) List(ctx context.Context, f database.ReportFilter) (*ListResult, error) {
	if f.Status != "" && f.Status != models.ReportStatusResolved && f.Status != models.ReportStatusUnresolved {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	if f.Flag != "" && !models.ValidBugFlag(f.Flag) {
		return nil, fmt.Errorf("%w: unknown flag %q", ErrValidation, f.Flag)
	}

	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.SortBy != "title" {
		f.SortBy = "createdAt"
	}
	if f.SortOrder != "asc" {
		f.SortOrder = "desc"
	}

	reports, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Reports:        reports,
		TotalReports:   total,
		NumberOfPages:  int(math.Ceil(float64(total) / float64(f.Limit))),
		ShowingReports: len(reports),
	}, nil
}

// SetStatus resolves or reopens a report. Resolving stamps the acting admin
// and time; reopening clears both.
func (s *Service) SetStatus(ctx context.Context, reportID string, resolved bool, adminID string) (*models.BugReport, error) {
	rep, err := s.repo.SetStatus(ctx, reportID, resolved, adminID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	slog.Info("reports.status_changed", "report_id", reportID, "status", rep.Status, "admin_id", adminID)
	return rep, nil
}

// Delete removes a report permanently.
func (s *Service) Delete(ctx context.Context, reportID string) error {
	if err := s.repo.Delete(ctx, reportID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	slog.Info("reports.deleted", "report_id", reportID)
	return nil
}
