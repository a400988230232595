package models

import "time"

// Bug report flags describing the area a report concerns.
const (
	BugFlagUI          = "UI"
	BugFlagBackend     = "Backend"
	BugFlagPerformance = "Performance"
	BugFlagSecurity    = "Security"
	BugFlagOther       = "Other"
)

// BugFlags lists every accepted report flag.
var BugFlags = []string{BugFlagUI, BugFlagBackend, BugFlagPerformance, BugFlagSecurity, BugFlagOther}

// ValidBugFlag reports whether flag is one of the accepted report flags.
func ValidBugFlag(flag string) bool {
	for _, f := range BugFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// Report status values. Reports only move between these via admin action.
const (
	ReportStatusResolved   = "resolved"
	ReportStatusUnresolved = "unresolved"
)

// BugReport is a user-filed issue. CreatorID and AdminID go nil when the
// referenced account is deleted; AdminID is set only while resolved.
type BugReport struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	CreatorID  *string    `json:"creatorId"`
	Flag       string     `json:"flag"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"createdAt"`
	ResolvedAt *time.Time `json:"resolvedAt"`
	AdminID    *string    `json:"adminId"`
	Status     string     `json:"status"`
}

// ReportWithAdmin joins a report with the display name of the admin who
// resolved it, for the triage listing.
type ReportWithAdmin struct {
	BugReport
	AdminName *string `json:"adminName"`
}
