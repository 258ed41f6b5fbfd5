package models

import "time"

// AnnouncementTarget is one (announcement, channel) delivery unit with its own
// success/failure outcome. Views is the only denormalized counter in the system;
// it must always equal the number of distinct pixel_views rows for the pair and
// is therefore only ever incremented together with a unique pixel_views insert.
type AnnouncementTarget struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	AnnouncementID uint       `gorm:"not null;uniqueIndex:uk_targets_announcement_channel;index:idx_targets_announcement_id" json:"announcement_id"`
	ChannelID      uint       `gorm:"not null;uniqueIndex:uk_targets_announcement_channel;index:idx_targets_channel_id" json:"channel_id"`
	MessageID      *int64     `json:"message_id,omitempty"`
	Views          int64      `gorm:"not null;default:0" json:"views"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	LastError      *string    `gorm:"type:text" json:"last_error,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Channel *Channel `gorm:"foreignKey:ChannelID;references:ID" json:"channel,omitempty"`
}

func (AnnouncementTarget) TableName() string { return "announcement_targets" }

// AnnouncementTargetFilter provides filter fields for repository queries
type AnnouncementTargetFilter struct {
	ID             *uint
	AnnouncementID *uint
	ChannelID      *uint
	Delivered      *bool
}
