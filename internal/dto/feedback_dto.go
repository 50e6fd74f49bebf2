package dto

import "time"

// FeedbackCreateRequest describes the multipart payload a reviewer sends for a version.
type FeedbackCreateRequest struct {
	Status     string `form:"status" validate:"required,max=32"`
	Comment    string `form:"comment" validate:"omitempty,max=5000"`
	NewDueDate string `form:"new_due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	AuthorID   uint   `form:"-"`
	AuthorName string `form:"-"`
}

// FeedbackCreatedResponse is returned once feedback is stored.
type FeedbackCreatedResponse struct {
	ID           uint                       `json:"id"`
	SubmissionID uint                       `json:"submission_id"`
	Version      int                        `json:"version"`
	Status       string                     `json:"status"`
	Comment      string                     `json:"comment"`
	NewDueDate   *time.Time                 `json:"new_due_date,omitempty"`
	Files        []AttachmentResponse       `json:"files"`
	Timeline     SubmissionTimelineResponse `json:"timeline"`
}
