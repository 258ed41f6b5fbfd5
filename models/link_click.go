package models

import "time"

// LinkClick is a single click event on a tracked link. Append-only; every click
// is recorded, unlike views which are deduplicated per viewer.
type LinkClick struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	TrackedLinkID uint    `gorm:"not null;index:idx_link_clicks_tracked_link_id" json:"tracked_link_id"`
	IP            *string `gorm:"size:64" json:"ip,omitempty"`
	UserAgent     *string `gorm:"type:text" json:"user_agent,omitempty"`
	Referer       *string `gorm:"type:text" json:"referer,omitempty"`
	Country       *string `gorm:"size:64;index:idx_link_clicks_country" json:"country,omitempty"`
	City          *string `gorm:"size:128" json:"city,omitempty"`
	DeviceType    *string `gorm:"size:20;index:idx_link_clicks_device_type" json:"device_type,omitempty"`
	Browser       *string `gorm:"size:32" json:"browser,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_link_clicks_created_at" json:"created_at"`

	// Relations
	TrackedLink *TrackedLink `gorm:"foreignKey:TrackedLinkID;references:ID;constraint:OnDelete:CASCADE" json:"tracked_link,omitempty"`
}

func (LinkClick) TableName() string { return "link_clicks" }

// LinkClickFilter provides filter fields for repository queries
type LinkClickFilter struct {
	ID             *uint
	TrackedLinkID  *uint
	AnnouncementID *uint
	Kind           *TrackedLinkKind
	Country        *string
	DeviceType     *string
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}
