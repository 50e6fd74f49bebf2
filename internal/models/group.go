package models

import "time"

// Course groups assignments and project groups for one capstone cohort.
type Course struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Group is a project team inside a course. Number is the label used in file names.
type Group struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	CourseID  uint          `gorm:"index;not null" json:"course_id"`
	Number    string        `gorm:"size:32;not null" json:"number"`
	Name      string        `gorm:"size:255" json:"name"`
	AdvisorID *uint         `gorm:"index" json:"advisor_id"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Members   []GroupMember `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"members"`
}

// GroupMember links a student account to a group.
type GroupMember struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	GroupID  uint   `gorm:"uniqueIndex:idx_group_member;not null" json:"group_id"`
	UserID   uint   `gorm:"uniqueIndex:idx_group_member;not null" json:"user_id"`
	Username string `gorm:"size:128;not null" json:"username"`
}

// HasMember reports whether the user belongs to the group.
func (g Group) HasMember(userID uint) bool {
	for _, member := range g.Members {
		if member.UserID == userID {
			return true
		}
	}
	return false
}
