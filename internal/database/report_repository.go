package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"medialist/models"
)

// ReportFilter narrows and pages the report listing. Zero values mean "no
// constraint"; Limit/Offset/sort normalization happens in the reports service.
type ReportFilter struct {
	Status    string
	Flag      string
	CreatorID string
	AdminID   string
	IDLike    string
	Limit     int
	Offset    int
	SortBy    string // "createdAt" or "title"
	SortOrder string // "asc" or "desc"
}

// ReportRepository persists bug reports.
type ReportRepository struct {
	conn *sql.DB
}

func NewReportRepository(conn *sql.DB) *ReportRepository {
	return &ReportRepository{conn: conn}
}

// Insert stores a new report.
func (r *ReportRepository) Insert(ctx context.Context, rep *models.BugReport) error {
	rep.CreatedAt = time.Now().UTC()
	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO bug_reports (id, title, creator_id, flag, content, created_at, resolved_at, admin_id, status)
		 VALUES (?, ?, ?, ?, ?, ?, NULL, NULL, ?)`,
		rep.ID, rep.Title, rep.CreatorID, rep.Flag, rep.Content, rep.CreatedAt.Unix(), rep.Status)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (f ReportFilter) whereClause() (string, []any) {
	clauses := []string{"1 = 1"}
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "r.status = ?")
		args = append(args, f.Status)
	}
	if f.Flag != "" {
		clauses = append(clauses, "r.flag = ?")
		args = append(args, f.Flag)
	}
	if f.CreatorID != "" {
		clauses = append(clauses, "r.creator_id = ?")
		args = append(args, f.CreatorID)
	}
	if f.AdminID != "" {
		clauses = append(clauses, "r.admin_id = ?")
		args = append(args, f.AdminID)
	}
	if f.IDLike != "" {
		clauses = append(clauses, "r.id LIKE ?")
		args = append(args, "%"+f.IDLike+"%")
	}
	return strings.Join(clauses, " AND "), args
}

func (f ReportFilter) orderClause() string {
	column := "r.created_at"
	if f.SortBy == "title" {
		column = "r.title"
	}
	direction := "DESC"
	if f.SortOrder == "asc" {
		direction = "ASC"
	}
	return column + " " + direction
}

// List returns the filtered page of reports joined with the resolving admin's
// display name.
func (r *ReportRepository) List(ctx context.Context, f ReportFilter) ([]models.ReportWithAdmin, error) {
	where, args := f.whereClause()
	query := `SELECT r.id, r.title, r.creator_id, r.flag, r.content, r.created_at, r.resolved_at, r.admin_id, r.status, u.name
		 FROM bug_reports r
		 LEFT JOIN users u ON r.admin_id = u.id
		 WHERE ` + where + `
		 ORDER BY ` + f.orderClause() + `
		 LIMIT ? OFFSET ?`
	args = append(args, f.Limit, f.Offset)

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []models.ReportWithAdmin{}
	for rows.Next() {
		rep, err := scanReportRow(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// Count returns the number of reports matching the filter, ignoring paging.
func (r *ReportRepository) Count(ctx context.Context, f ReportFilter) (int, error) {
	where, args := f.whereClause()
	var n int
	err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM bug_reports r WHERE `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

// GetByID fetches one report.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.BugReport, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT id, title, creator_id, flag, content, created_at, resolved_at, admin_id, status
		 FROM bug_reports WHERE id = ?`, id)

	var rep models.BugReport
	var creatorID, adminID sql.NullString
	var createdAt int64
	var resolvedAt sql.NullInt64
	err := row.Scan(&rep.ID, &rep.Title, &creatorID, &rep.Flag, &rep.Content, &createdAt, &resolvedAt, &adminID, &rep.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	applyNullables(&rep, creatorID, adminID, createdAt, resolvedAt)
	return &rep, nil
}

// SetStatus transitions a report between resolved and unresolved. Resolving
// records the admin and timestamp; unresolving clears both.
func (r *ReportRepository) SetStatus(ctx context.Context, id string, resolved bool, adminID string) (*models.BugReport, error) {
	var res sql.Result
	var err error
	if resolved {
		res, err = r.conn.ExecContext(ctx,
			`UPDATE bug_reports SET status = ?, resolved_at = ?, admin_id = ? WHERE id = ?`,
			models.ReportStatusResolved, time.Now().UTC().Unix(), adminID, id)
	} else {
		res, err = r.conn.ExecContext(ctx,
			`UPDATE bug_reports SET status = ?, resolved_at = NULL, admin_id = NULL WHERE id = ?`,
			models.ReportStatusUnresolved, id)
	}
	if err != nil {
		return nil, fmt.Errorf("update report status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a report.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM bug_reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReportRow(rows *sql.Rows) (*models.ReportWithAdmin, error) {
	var rep models.ReportWithAdmin
	var creatorID, adminID, adminName sql.NullString
	var createdAt int64
	var resolvedAt sql.NullInt64
	err := rows.Scan(&rep.ID, &rep.Title, &creatorID, &rep.Flag, &rep.Content, &createdAt, &resolvedAt, &adminID, &rep.Status, &adminName)
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	applyNullables(&rep.BugReport, creatorID, adminID, createdAt, resolvedAt)
	if adminName.Valid {
		rep.AdminName = &adminName.String
	}
	return &rep, nil
}

func applyNullables(rep *models.BugReport, creatorID, adminID sql.NullString, createdAt int64, resolvedAt sql.NullInt64) {
	if creatorID.Valid {
		rep.CreatorID = &creatorID.String
	}
	if adminID.Valid {
		rep.AdminID = &adminID.String
	}
	rep.CreatedAt = time.Unix(createdAt, 0).UTC()
	if resolvedAt.Valid {
		t := time.Unix(resolvedAt.Int64, 0).UTC()
		rep.ResolvedAt = &t
	}
}
