package dto

import "time"

// AnnouncementCreateRequest describes the payload for posting a course announcement.
type AnnouncementCreateRequest struct {
	Title    string `json:"title" validate:"required,min=3,max=255"`
	Body     string `json:"body" validate:"required,min=3"`
	StartsAt string `json:"starts_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	EndsAt   string `json:"ends_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	IsPinned bool   `json:"is_pinned"`
	AuthorID uint   `json:"-"`
}

// AnnouncementResponse represents an announcement payload returned to the frontend.
type AnnouncementResponse struct {
	ID        uint       `json:"id"`
	CourseID  uint       `json:"course_id"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	IsPinned  bool       `json:"is_pinned"`
	CreatedAt time.Time  `json:"created_at"`
}

// AnnouncementListResponse contains paginated announcements.
type AnnouncementListResponse struct {
	Items      []AnnouncementResponse `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
	CacheHit   bool                   `json:"cache_hit"`
}
