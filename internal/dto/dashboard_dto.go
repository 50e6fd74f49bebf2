package dto

import "time"

// GroupDashboardSummary aggregates submission states across a group's assignments.
type GroupDashboardSummary struct {
	TotalAssignments int     `json:"total_assignments"`
	NotSubmitted     int     `json:"not_submitted"`
	AwaitingReview   int     `json:"awaiting_review"`
	NeedsRevision    int     `json:"needs_revision"`
	Final            int     `json:"final"`
	Overdue          int     `json:"overdue"`
	CompletionRate   float64 `json:"completion_rate"`
}

// AssignmentProgress describes where a group stands on one assignment.
type AssignmentProgress struct {
	AssignmentID    uint       `json:"assignment_id"`
	Title           string     `json:"title"`
	DueDate         time.Time  `json:"due_date"`
	Status          string     `json:"status"`
	LatestVersion   int        `json:"latest_version"`
	VersionCount    int        `json:"version_count"`
	SubmissionID    *uint      `json:"submission_id"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	AwaitingReview  bool       `json:"awaiting_review"`
	Final           bool       `json:"final"`
	Overdue         bool       `json:"overdue"`
	FeedbackComment string     `json:"feedback_comment"`
}

// GroupDashboardResponse is returned by the group dashboard endpoint.
type GroupDashboardResponse struct {
	GroupID     uint                  `json:"group_id"`
	GroupNumber string                `json:"group_number"`
	GroupName   string                `json:"group_name"`
	Summary     GroupDashboardSummary `json:"summary"`
	Assignments []AssignmentProgress  `json:"assignments"`
	CacheHit    bool                  `json:"cache_hit"`
}
