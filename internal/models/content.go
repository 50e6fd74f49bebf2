package models

import "time"

// Announcement is a course-wide message shown to students and advisors.
type Announcement struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CourseID  uint       `gorm:"index;not null" json:"course_id"`
	AuthorID  uint       `gorm:"index" json:"author_id"`
	Slug      string     `gorm:"size:128;uniqueIndex" json:"slug"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Body      string     `gorm:"type:text;not null" json:"body"`
	StartsAt  time.Time  `gorm:"index" json:"starts_at"`
	EndsAt    *time.Time `gorm:"index" json:"ends_at"`
	IsPinned  bool       `gorm:"index" json:"is_pinned"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UploadRecord stores metadata about uploaded files.
type UploadRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	FileName  string    `gorm:"size:255;not null" json:"file_name"`
	URL       string    `gorm:"size:512;not null" json:"url"`
	MimeType  string    `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes int64     `gorm:"not null" json:"size_bytes"`
	Checksum  string    `gorm:"size:128;index" json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every model managed by automatic migrations.
func All() []interface{} {
	return []interface{}{
		&Course{}, &Group{}, &GroupMember{},
		&Assignment{}, &Deliverable{},
		&Submission{}, &SubmissionFile{}, &Feedback{}, &FeedbackFile{},
		&Announcement{}, &UploadRecord{},
	}
}
