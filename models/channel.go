package models

import "time"

// Channel represents a Telegram channel or group registered by the bot
// ChatID is the Telegram chat identifier (negative for channels/supergroups)
// MemberCount is refreshed opportunistically from the gateway and may lag
type Channel struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ChatID      int64     `gorm:"not null;uniqueIndex:uk_channels_chat_id" json:"chat_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Username    *string   `gorm:"size:255" json:"username,omitempty"`
	MemberCount int       `gorm:"not null;default:0" json:"member_count"`
	IsActive    *bool     `gorm:"default:true;index" json:"is_active,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Channel) TableName() string { return "channels" }

// ChannelFilter provides filter fields for repository queries
type ChannelFilter struct {
	ID       *uint
	ChatID   *int64
	IsActive *bool
}
