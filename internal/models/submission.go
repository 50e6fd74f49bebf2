package models

import (
	"encoding/json"
	"strconv"
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

// Submission is one versioned turn-in by a group for an assignment.
type Submission struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	AssignmentID uint             `gorm:"uniqueIndex:idx_submission_version;not null" json:"assignment_id"`
	GroupID      uint             `gorm:"uniqueIndex:idx_submission_version;not null" json:"group_id"`
	Version      int              `gorm:"uniqueIndex:idx_submission_version;not null" json:"version"`
	Status       string           `gorm:"size:32;not null" json:"status"`
	Comment      string           `gorm:"type:text" json:"comment"`
	SubmittedAt  time.Time        `gorm:"index" json:"submitted_at"`
	SubmittedBy  uint             `json:"submitted_by"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Files        []SubmissionFile `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"files"`
	Feedbacks    []Feedback       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"feedbacks"`
	Assignment   Assignment       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Group        Group            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// SubmissionFile holds the stored files of one deliverable within a submission.
type SubmissionFile struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SubmissionID  uint           `gorm:"index;not null" json:"submission_id"`
	DeliverableID *uint          `gorm:"index" json:"deliverable_id"`
	Name          string         `gorm:"size:255" json:"name"`
	FileURLs      datatypes.JSON `gorm:"type:json" json:"-"`
}

// Feedback is a reviewer response to one submission version.
type Feedback struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SubmissionID uint           `gorm:"index;not null" json:"submission_id"`
	AuthorID     uint           `gorm:"index" json:"author_id"`
	AuthorName   string         `gorm:"size:128" json:"author_name"`
	Comment      string         `gorm:"type:text" json:"comment"`
	Status       string         `gorm:"size:32;not null" json:"status"`
	NewDueDate   *time.Time     `json:"new_due_date"`
	CreatedAt    time.Time      `json:"created_at"`
	Files        []FeedbackFile `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"files"`
}

// FeedbackFile holds reviewer files for one deliverable.
type FeedbackFile struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	FeedbackID    uint           `gorm:"index;not null" json:"feedback_id"`
	DeliverableID *uint          `gorm:"index" json:"deliverable_id"`
	Name          string         `gorm:"size:255" json:"name"`
	FileURLs      datatypes.JSON `gorm:"type:json" json:"-"`
}

// SetURLs serializes the file URLs into the JSON column.
func (f *SubmissionFile) SetURLs(urls []string) {
	f.FileURLs = encodeURLs(urls)
}

// URLs returns the stored file URLs.
func (f SubmissionFile) URLs() []string {
	return decodeURLs(f.FileURLs)
}

// SetURLs serializes the file URLs into the JSON column.
func (f *FeedbackFile) SetURLs(urls []string) {
	f.FileURLs = encodeURLs(urls)
}

// URLs returns the stored file URLs.
func (f FeedbackFile) URLs() []string {
	return decodeURLs(f.FileURLs)
}

// ToVersioning converts the submission, its files and feedbacks for the resolution core.
func (s Submission) ToVersioning() versioning.Submission {
	files := make([]versioning.Attachment, 0, len(s.Files))
	for _, file := range s.Files {
		files = append(files, versioning.Attachment{
			DeliverableID: idString(file.DeliverableID),
			Name:          file.Name,
			URLs:          file.URLs(),
		})
	}

	feedbacks := make([]versioning.Feedback, 0, len(s.Feedbacks))
	for _, feedback := range s.Feedbacks {
		feedbacks = append(feedbacks, feedback.ToVersioning())
	}

	return versioning.Submission{
		ID:          strconv.FormatUint(uint64(s.ID), 10),
		Version:     s.Version,
		SubmittedAt: s.SubmittedAt,
		Status:      versioning.Status(s.Status),
		Comment:     s.Comment,
		Files:       files,
		Feedbacks:   feedbacks,
	}
}

// ToVersioning converts the feedback for the resolution core.
func (f Feedback) ToVersioning() versioning.Feedback {
	files := make([]versioning.Attachment, 0, len(f.Files))
	for _, file := range f.Files {
		files = append(files, versioning.Attachment{
			DeliverableID: idString(file.DeliverableID),
			Name:          file.Name,
			URLs:          file.URLs(),
		})
	}
	return versioning.Feedback{
		Comment:    f.Comment,
		Status:     versioning.Status(f.Status),
		NewDueDate: f.NewDueDate,
		Files:      files,
	}
}

// SubmissionsToVersioning converts a slice of submissions.
func SubmissionsToVersioning(submissions []Submission) []versioning.Submission {
	out := make([]versioning.Submission, 0, len(submissions))
	for _, submission := range submissions {
		out = append(out, submission.ToVersioning())
	}
	return out
}

func encodeURLs(urls []string) datatypes.JSON {
	if len(urls) == 0 {
		return datatypes.JSON([]byte("[]"))
	}
	data, err := json.Marshal(urls)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(data)
}

func decodeURLs(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return nil
	}
	return urls
}

func idString(id *uint) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*id), 10)
}
