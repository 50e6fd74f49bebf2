package dto

import (
	"time"

	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

// SubmissionTurnInRequest describes the multipart payload for a new submission version.
type SubmissionTurnInRequest struct {
	AssignmentID uint   `form:"assignment_id" validate:"required,gt=0"`
	GroupID      uint   `form:"group_id" validate:"required,gt=0"`
	Comment      string `form:"comment" validate:"omitempty,max=2000"`
	SubmittedBy  uint   `form:"-"`
}

// SubmissionQuery selects the version history of one group for one assignment.
type SubmissionQuery struct {
	AssignmentID uint   `query:"assignment_id" validate:"required,gt=0"`
	GroupID      uint   `query:"group_id" validate:"required,gt=0"`
	ShowAll      bool   `query:"show_all"`
	Role         string `query:"-"`
}

// AttachmentResponse is one deliverable's files within a submission or feedback.
type AttachmentResponse struct {
	DeliverableID string   `json:"deliverable_id"`
	Name          string   `json:"name"`
	URLs          []string `json:"urls"`
}

// FeedbackResponse serializes a reviewer response.
type FeedbackResponse struct {
	Comment    string               `json:"comment"`
	Status     string               `json:"status"`
	NewDueDate *time.Time           `json:"new_due_date,omitempty"`
	Files      []AttachmentResponse `json:"files"`
}

// SubmissionVersionResponse serializes one submission version.
type SubmissionVersionResponse struct {
	ID              string               `json:"id"`
	Version         int                  `json:"version"`
	Status          string               `json:"status"`
	Comment         string               `json:"comment"`
	SubmittedAt     time.Time            `json:"submitted_at"`
	Files           []AttachmentResponse `json:"files"`
	Feedbacks       []FeedbackResponse   `json:"feedbacks"`
	FeedbackComment string               `json:"feedback_comment"`
}

// SubmissionTimelineResponse is the role-specific view over a version history.
type SubmissionTimelineResponse struct {
	Role            string                      `json:"role"`
	Latest          *SubmissionVersionResponse  `json:"latest"`
	Visible         []SubmissionVersionResponse `json:"visible"`
	HasMore         bool                        `json:"has_more"`
	AwaitingReview  bool                        `json:"awaiting_review"`
	NextVersion     int                         `json:"next_version"`
	CanGiveFeedback *bool                       `json:"can_give_feedback,omitempty"`
	ReviewGate      string                      `json:"review_gate,omitempty"`
	ReviewMessage   string                      `json:"review_message,omitempty"`
}

// FileLinkResponse is a single downloadable file.
type FileLinkResponse struct {
	URL       string `json:"url"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
}

// TypedFilesResponse lists the files accepted by one allowed type.
type TypedFilesResponse struct {
	Type  string             `json:"type"`
	MIME  string             `json:"mime"`
	Files []FileLinkResponse `json:"files"`
}

// DeliverableFilesResponse groups the files of one deliverable.
type DeliverableFilesResponse struct {
	DeliverableID string               `json:"deliverable_id"`
	Name          string               `json:"name"`
	Files         []FileLinkResponse   `json:"files"`
	Types         []TypedFilesResponse `json:"types"`
}

// FeedbackFilesResponse groups the files of one feedback entry.
type FeedbackFilesResponse struct {
	Status       string                     `json:"status"`
	Deliverables []DeliverableFilesResponse `json:"deliverables"`
}

// SubmissionFilesResponse lists submission and feedback files per deliverable.
type SubmissionFilesResponse struct {
	SubmissionID uint                       `json:"submission_id"`
	Version      int                        `json:"version"`
	Deliverables []DeliverableFilesResponse `json:"deliverables"`
	Feedbacks    []FeedbackFilesResponse    `json:"feedbacks"`
}

// FileNamePreviewRequest holds the components of a generated file name.
type FileNamePreviewRequest struct {
	Group       string `query:"group" validate:"required,max=64"`
	Deliverable string `query:"deliverable" validate:"required,max=255"`
	Version     string `query:"version" validate:"required,max=16"`
	MIME        string `query:"mime" validate:"omitempty,max=128"`
	Username    string `query:"username" validate:"omitempty,max=128"`
}

// FileNamePreviewResponse returns the canonical name a file will be stored under.
type FileNamePreviewResponse struct {
	FileName  string `json:"file_name"`
	Extension string `json:"extension"`
	MIME      string `json:"mime"`
}

// ResolveQuery controls how a raw version payload is resolved.
type ResolveQuery struct {
	Role    string `query:"role" validate:"omitempty,oneof=student advisor staff admin"`
	ShowAll bool   `query:"show_all"`
}

// NewSubmissionVersionResponse converts a resolution-core submission into a DTO.
func NewSubmissionVersionResponse(submission versioning.Submission) SubmissionVersionResponse {
	feedbacks := make([]FeedbackResponse, 0, len(submission.Feedbacks))
	for _, feedback := range submission.Feedbacks {
		feedbacks = append(feedbacks, FeedbackResponse{
			Comment:    feedback.Comment,
			Status:     string(feedback.Status),
			NewDueDate: feedback.NewDueDate,
			Files:      NewAttachmentResponses(feedback.Files),
		})
	}

	return SubmissionVersionResponse{
		ID:              submission.ID,
		Version:         submission.Version,
		Status:          string(submission.Status),
		Comment:         submission.Comment,
		SubmittedAt:     submission.SubmittedAt,
		Files:           NewAttachmentResponses(submission.Files),
		Feedbacks:       feedbacks,
		FeedbackComment: submission.FeedbackComment(),
	}
}

// NewSubmissionVersionResponseSlice converts submissions into DTOs.
func NewSubmissionVersionResponseSlice(submissions []versioning.Submission) []SubmissionVersionResponse {
	responses := make([]SubmissionVersionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionVersionResponse(submission))
	}
	return responses
}

// NewSubmissionTimelineResponse builds the timeline DTO for a role over a version history.
func NewSubmissionTimelineResponse(role versioning.ViewerRole, submissions []versioning.Submission, showAll bool) SubmissionTimelineResponse {
	view := versioning.ResolveVersions(role, submissions, showAll)

	response := SubmissionTimelineResponse{
		Role:        string(role),
		Visible:     NewSubmissionVersionResponseSlice(view.Visible),
		HasMore:     view.HasMore,
		NextVersion: versioning.NextVersion(submissions),
	}

	if latest := versioning.LatestOf(submissions); latest != nil {
		converted := NewSubmissionVersionResponse(*latest)
		response.Latest = &converted
		response.AwaitingReview = versioning.AwaitingReview(latest)
	}

	if role.IsReviewer() {
		canGive := view.Gate.CanGiveFeedback()
		response.CanGiveFeedback = &canGive
		response.ReviewGate = string(view.Gate)
		response.ReviewMessage = view.Gate.Message()
	}

	return response
}

// NewDeliverableFilesResponses converts matcher groups into DTOs.
func NewDeliverableFilesResponses(groups []versioning.DeliverableFiles) []DeliverableFilesResponse {
	responses := make([]DeliverableFilesResponse, 0, len(groups))
	for _, group := range groups {
		types := make([]TypedFilesResponse, 0, len(group.Types))
		for _, typed := range group.Types {
			types = append(types, TypedFilesResponse{
				Type:  typed.Type.Type,
				MIME:  typed.Type.MIME,
				Files: newFileLinkResponses(typed.Links),
			})
		}
		responses = append(responses, DeliverableFilesResponse{
			DeliverableID: group.DeliverableID,
			Name:          group.Name,
			Files:         newFileLinkResponses(group.Links),
			Types:         types,
		})
	}
	return responses
}

func newFileLinkResponses(links []versioning.FileLink) []FileLinkResponse {
	responses := make([]FileLinkResponse, 0, len(links))
	for _, link := range links {
		responses = append(responses, FileLinkResponse{URL: link.URL, Name: link.Name, Extension: link.Extension})
	}
	return responses
}

// NewAttachmentResponses converts attachments into DTOs.
func NewAttachmentResponses(files []versioning.Attachment) []AttachmentResponse {
	responses := make([]AttachmentResponse, 0, len(files))
	for _, file := range files {
		urls := file.URLs
		if urls == nil {
			urls = []string{}
		}
		responses = append(responses, AttachmentResponse{
			DeliverableID: file.DeliverableID,
			Name:          file.Name,
			URLs:          urls,
		})
	}
	return responses
}
