package dto

import (
	"time"

	"github.com/noah-isme/capstone-portal-api/internal/models"
	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

// AllowedFileTypePayload is one accepted file type of a deliverable.
type AllowedFileTypePayload struct {
	Type string `json:"type" validate:"required,max=64"`
	MIME string `json:"mime" validate:"omitempty,max=128"`
}

// DeliverablePayload describes a deliverable inside an assignment create request.
type DeliverablePayload struct {
	Name             string                   `json:"name" validate:"required,min=2,max=255"`
	AllowedFileTypes []AllowedFileTypePayload `json:"allowed_file_types" validate:"omitempty,dive"`
}

// AssignmentCreateRequest describes the payload for creating a new assignment.
type AssignmentCreateRequest struct {
	CourseID     uint                 `json:"course_id" validate:"required,gt=0"`
	Title        string               `json:"title" validate:"required,min=3,max=255"`
	Description  string               `json:"description" validate:"omitempty,max=5000"`
	DueDate      string               `json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Deliverables []DeliverablePayload `json:"deliverables" validate:"required,min=1,dive"`
}

// DeliverableResponse is the serialized representation of a deliverable.
type DeliverableResponse struct {
	ID               uint                         `json:"id"`
	Name             string                       `json:"name"`
	Position         int                          `json:"position"`
	AllowedFileTypes []versioning.AllowedFileType `json:"allowed_file_types"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID           uint                  `json:"id"`
	CourseID     uint                  `json:"course_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	DueDate      time.Time             `json:"due_date"`
	Deliverables []DeliverableResponse `json:"deliverables"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	deliverables := make([]DeliverableResponse, 0, len(model.Deliverables))
	for _, deliverable := range model.Deliverables {
		types := deliverable.AllowedTypes()
		if types == nil {
			types = []versioning.AllowedFileType{}
		}
		deliverables = append(deliverables, DeliverableResponse{
			ID:               deliverable.ID,
			Name:             deliverable.Name,
			Position:         deliverable.Position,
			AllowedFileTypes: types,
		})
	}

	return AssignmentResponse{
		ID:           model.ID,
		CourseID:     model.CourseID,
		Title:        model.Title,
		Description:  model.Description,
		DueDate:      model.DueDate,
		Deliverables: deliverables,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
