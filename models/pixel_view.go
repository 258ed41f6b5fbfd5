package models

import "time"

// PixelView records that one viewer, on one channel, has seen one announcement.
// It is a deduplicated presence record, not a raw event log: the composite unique
// index on (announcement_id, channel_id, fingerprint) is what makes the
// insert-if-absent view recording race-safe across processes.
type PixelView struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	AnnouncementID uint    `gorm:"not null;uniqueIndex:uk_pixel_views_dedup;index:idx_pixel_views_announcement_id" json:"announcement_id"`
	ChannelID      uint    `gorm:"not null;uniqueIndex:uk_pixel_views_dedup;index:idx_pixel_views_channel_id" json:"channel_id"`
	Fingerprint    string  `gorm:"size:64;not null;uniqueIndex:uk_pixel_views_dedup" json:"fingerprint"`
	IP             *string `gorm:"size:64" json:"ip,omitempty"`
	UserAgent      *string `gorm:"type:text" json:"user_agent,omitempty"`
	Country        *string `gorm:"size:64;index:idx_pixel_views_country" json:"country,omitempty"`
	City           *string `gorm:"size:128" json:"city,omitempty"`
	DeviceType     *string `gorm:"size:20;index:idx_pixel_views_device_type" json:"device_type,omitempty"`
	Browser        *string `gorm:"size:32" json:"browser,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_pixel_views_created_at" json:"created_at"`
}

func (PixelView) TableName() string { return "pixel_views" }

// PixelViewFilter provides filter fields for repository queries
type PixelViewFilter struct {
	ID             *uint
	AnnouncementID *uint
	ChannelID      *uint
	Fingerprint    *string
	Country        *string
	DeviceType     *string
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}
