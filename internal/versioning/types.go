// Package versioning resolves submission versions, feedback visibility and
// deliverable file naming for the capstone portal. Every function here is pure:
// callers pass already loaded collections and may call them on every render.
package versioning

import (
	"fmt"
	"strings"
	"time"
)

// Status captures the lifecycle state of a submission.
type Status string

const (
	StatusNotSubmitted         Status = "NOT_SUBMITTED"
	StatusSubmitted            Status = "SUBMITTED"
	StatusRejected             Status = "REJECTED"
	StatusApprovedWithFeedback Status = "APPROVED_WITH_FEEDBACK"
	StatusFinal                Status = "FINAL"
)

// statusApproved is accepted on input as an alias of StatusFinal.
const statusApproved = "APPROVED"

// ParseStatus normalises a status string, mapping APPROVED onto FINAL.
func ParseStatus(value string) (Status, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	switch normalized {
	case statusApproved:
		return StatusFinal, nil
	case string(StatusNotSubmitted), string(StatusSubmitted), string(StatusRejected),
		string(StatusApprovedWithFeedback), string(StatusFinal):
		return Status(normalized), nil
	default:
		return "", fmt.Errorf("unknown submission status %q", value)
	}
}

// IsFeedbackOutcome reports whether the status can be applied by a reviewer.
func (s Status) IsFeedbackOutcome() bool {
	switch s {
	case StatusRejected, StatusApprovedWithFeedback, StatusFinal:
		return true
	default:
		return false
	}
}

// Attachment is a file attached to a submission or feedback for one deliverable.
type Attachment struct {
	DeliverableID string
	Name          string
	URLs          []string
}

// Feedback is a reviewer response to one submission version.
type Feedback struct {
	Comment    string
	Status     Status
	NewDueDate *time.Time
	Files      []Attachment
}

// Submission is one versioned attempt by a group at an assignment.
type Submission struct {
	ID          string
	Version     int
	SubmittedAt time.Time
	Status      Status
	Comment     string
	Files       []Attachment
	Feedbacks   []Feedback
}

// HasFeedback reports whether a reviewer already responded to this version.
func (s Submission) HasFeedback() bool {
	return len(s.Feedbacks) > 0
}

// FeedbackComment joins every feedback comment on the submission, one per line.
func (s Submission) FeedbackComment() string {
	lines := make([]string, 0, len(s.Feedbacks))
	for _, feedback := range s.Feedbacks {
		if comment := strings.TrimSpace(feedback.Comment); comment != "" {
			lines = append(lines, comment)
		}
	}
	return strings.Join(lines, "\n")
}

// AllowedFileType labels a file type accepted for a deliverable.
type AllowedFileType struct {
	Type string `json:"type"`
	MIME string `json:"mime,omitempty"`
}

// Deliverable is a named artifact required by an assignment.
type Deliverable struct {
	ID               string
	Name             string
	AllowedFileTypes []AllowedFileType
}
