package models

import (
	"encoding/json"
	"strconv"
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/capstone-portal-api/internal/versioning"
)

// Assignment represents a capstone milestone made of one or more deliverables.
type Assignment struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	CourseID     uint          `gorm:"index;not null" json:"course_id"`
	Title        string        `gorm:"size:255;not null" json:"title"`
	Description  string        `gorm:"type:text" json:"description"`
	DueDate      time.Time     `gorm:"not null" json:"due_date"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Deliverables []Deliverable `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"deliverables"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// Deliverable returns the deliverable with the given ID, if it belongs to the assignment.
func (a Assignment) Deliverable(id uint) (Deliverable, bool) {
	for _, deliverable := range a.Deliverables {
		if deliverable.ID == id {
			return deliverable, true
		}
	}
	return Deliverable{}, false
}

// VersioningDeliverables converts the deliverables for the resolution core.
func (a Assignment) VersioningDeliverables() []versioning.Deliverable {
	out := make([]versioning.Deliverable, 0, len(a.Deliverables))
	for _, deliverable := range a.Deliverables {
		out = append(out, deliverable.ToVersioning())
	}
	return out
}

// Deliverable is a named artifact (e.g. "Chapter 4") an assignment requires.
type Deliverable struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	AssignmentID     uint           `gorm:"index;not null" json:"assignment_id"`
	Name             string         `gorm:"size:255;not null" json:"name"`
	Position         int            `gorm:"not null;default:0" json:"position"`
	AllowedFileTypes datatypes.JSON `gorm:"type:json" json:"-"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// SetAllowedTypes serializes the allowed file types into the JSON column.
func (d *Deliverable) SetAllowedTypes(types []versioning.AllowedFileType) {
	data, err := json.Marshal(types)
	if err != nil || types == nil {
		d.AllowedFileTypes = datatypes.JSON([]byte("[]"))
		return
	}
	d.AllowedFileTypes = datatypes.JSON(data)
}

// AllowedTypes deserializes the stored allowed file types.
func (d Deliverable) AllowedTypes() []versioning.AllowedFileType {
	if len(d.AllowedFileTypes) == 0 {
		return nil
	}

	var types []versioning.AllowedFileType
	if err := json.Unmarshal(d.AllowedFileTypes, &types); err != nil {
		return nil
	}

	return types
}

// ToVersioning converts the deliverable for the resolution core.
func (d Deliverable) ToVersioning() versioning.Deliverable {
	return versioning.Deliverable{
		ID:               strconv.FormatUint(uint64(d.ID), 10),
		Name:             d.Name,
		AllowedFileTypes: d.AllowedTypes(),
	}
}
