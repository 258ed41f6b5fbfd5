package dto

import "time"

// AnnouncementButtonDTO is one inline button attached to an announcement
type AnnouncementButtonDTO struct {
	Text string `json:"text" validate:"required,min=1,max=64"`
	URL  string `json:"url" validate:"required,url"`
}

// CreateAnnouncementRequest carries data to create a new announcement.
// When ScheduledAt is set the announcement is queued for automatic dispatch;
// otherwise it stays a draft until sent explicitly.
type CreateAnnouncementRequest struct {
	Title       string                  `json:"title" validate:"required,min=1,max=255"`
	Content     string                  `json:"content" validate:"required,min=1"`
	PhotoURL    *string                 `json:"photo_url,omitempty" validate:"omitempty,url"`
	Buttons     []AnnouncementButtonDTO `json:"buttons,omitempty" validate:"omitempty,max=10,dive"`
	ChannelIDs  []uint                  `json:"channel_ids" validate:"required,min=1,dive,gt=0"`
	ScheduledAt *time.Time              `json:"scheduled_at,omitempty"`
}

// AnnouncementTargetItem is the per-channel delivery state of an announcement
type AnnouncementTargetItem struct {
	ChannelID    uint    `json:"channel_id"`
	ChannelTitle string  `json:"channel_title"`
	MessageID    *int64  `json:"message_id,omitempty"`
	Views        int64   `json:"views"`
	SentAt       *string `json:"sent_at,omitempty"`
	LastError    *string `json:"last_error,omitempty"`
}

// AnnouncementItem represents an announcement row in listings and detail views
type AnnouncementItem struct {
	ID          uint                     `json:"id"`
	UUID        string                   `json:"uuid"`
	Title       string                   `json:"title"`
	Content     string                   `json:"content"`
	PhotoURL    *string                  `json:"photo_url,omitempty"`
	Buttons     []AnnouncementButtonDTO  `json:"buttons,omitempty"`
	Status      string                   `json:"status"`
	ScheduledAt *string                  `json:"scheduled_at,omitempty"`
	SentAt      *string                  `json:"sent_at,omitempty"`
	CreatedAt   string                   `json:"created_at"`
	Targets     []AnnouncementTargetItem `json:"targets,omitempty"`
}

// CreateAnnouncementResponse returns the created announcement
type CreateAnnouncementResponse struct {
	Message      string           `json:"message"`
	Announcement AnnouncementItem `json:"announcement"`
}

// ListAnnouncementsRequest filters for listing announcements
type ListAnnouncementsRequest struct {
	Status    *string    `json:"status,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Page      uint       `json:"page,omitempty"`
	PageSize  uint       `json:"page_size,omitempty"`
}

// ListAnnouncementsResponse returns announcement rows with the total for paging
type ListAnnouncementsResponse struct {
	Message       string             `json:"message"`
	Announcements []AnnouncementItem `json:"announcements"`
	Total         int64              `json:"total"`
}

// GetAnnouncementResponse returns one announcement with its targets
type GetAnnouncementResponse struct {
	Message      string           `json:"message"`
	Announcement AnnouncementItem `json:"announcement"`
}

// SendAnnouncementResponse summarizes a dispatch run across all targets
type SendAnnouncementResponse struct {
	Message   string             `json:"message"`
	UUID      string             `json:"uuid"`
	Status    string             `json:"status"`
	Delivered int                `json:"delivered"`
	Failed    int                `json:"failed"`
	SentAt    string             `json:"sent_at"`
	Results   []TargetSendResult `json:"results"`
}

// TargetSendResult is the outcome of one channel delivery within a dispatch run
type TargetSendResult struct {
	ChannelID    uint    `json:"channel_id"`
	ChannelTitle string  `json:"channel_title,omitempty"`
	Success      bool    `json:"success"`
	MessageID    *int64  `json:"message_id,omitempty"`
	Error        *string `json:"error,omitempty"`
}
