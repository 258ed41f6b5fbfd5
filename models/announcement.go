package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/arazmand/jarchi/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnnouncementStatus represents the lifecycle state of an announcement
type AnnouncementStatus string

const (
	AnnouncementStatusDraft     AnnouncementStatus = "draft"
	AnnouncementStatusScheduled AnnouncementStatus = "scheduled"
	AnnouncementStatusSending   AnnouncementStatus = "sending"
	AnnouncementStatusSent      AnnouncementStatus = "sent"
	AnnouncementStatusFailed    AnnouncementStatus = "failed"
)

// String returns the string representation of the status
func (s AnnouncementStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s AnnouncementStatus) Valid() bool {
	switch s {
	case AnnouncementStatusDraft, AnnouncementStatusScheduled,
		AnnouncementStatusSending, AnnouncementStatusSent,
		AnnouncementStatusFailed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for AnnouncementStatus
func (s *AnnouncementStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = AnnouncementStatus(v)
	case []byte:
		*s = AnnouncementStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into AnnouncementStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for AnnouncementStatus
func (s AnnouncementStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid AnnouncementStatus: %s", s)
	}
	return string(s), nil
}

// AnnouncementButton is one inline keyboard button attached to an announcement
type AnnouncementButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// AnnouncementButtons is the JSONB-backed button list
type AnnouncementButtons []AnnouncementButton

// Value implements the driver.Valuer interface for AnnouncementButtons
func (b AnnouncementButtons) Value() (driver.Value, error) {
	if b == nil {
		return json.Marshal([]AnnouncementButton{})
	}
	return json.Marshal(b)
}

// Scan implements the sql.Scanner interface for AnnouncementButtons.
// A malformed payload must not fail the whole announcement read; the
// announcement loads without buttons and the corruption is logged.
func (b *AnnouncementButtons) Scan(value any) error {
	if value == nil {
		*b = AnnouncementButtons{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AnnouncementButtons", value)
	}

	if err := json.Unmarshal(bytes, b); err != nil {
		log.Printf("announcement: malformed buttons payload, continuing without buttons: %v", err)
		*b = AnnouncementButtons{}
	}
	return nil
}

// Announcement represents a staff-composed broadcast message
// ScheduledAt present implies status scheduled; absent implies draft
// The transition to sent/failed happens once at send time and is irreversible
type Announcement struct {
	ID          uint                `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uk_announcements_uuid" json:"uuid"`
	Title       string              `gorm:"size:255;not null" json:"title"`
	Content     string              `gorm:"type:text;not null" json:"content"`
	PhotoURL    *string             `gorm:"type:text" json:"photo_url,omitempty"`
	Buttons     AnnouncementButtons `gorm:"type:jsonb;not null;default:'[]'" json:"buttons"`
	Status      AnnouncementStatus  `gorm:"size:20;not null;default:'draft';index:idx_announcements_status" json:"status"`
	ScheduledAt *time.Time          `gorm:"index:idx_announcements_scheduled_at" json:"scheduled_at,omitempty"`
	SentAt      *time.Time          `json:"sent_at,omitempty"`
	CreatedBy   *uint               `gorm:"index" json:"created_by,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_announcements_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Targets []AnnouncementTarget `gorm:"foreignKey:AnnouncementID;references:ID;constraint:OnDelete:CASCADE" json:"targets,omitempty"`
	Links   []TrackedLink        `gorm:"foreignKey:AnnouncementID;references:ID;constraint:OnDelete:CASCADE" json:"links,omitempty"`
}

func (Announcement) TableName() string { return "announcements" }

// BeforeCreate ensures UUID and timestamps are set
func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// IsSent reports whether the announcement already went out
func (a *Announcement) IsSent() bool {
	return a.Status == AnnouncementStatusSent || a.Status == AnnouncementStatusFailed
}

// AnnouncementFilter represents filter criteria for announcement queries
type AnnouncementFilter struct {
	ID             *uint
	UUID           *uuid.UUID
	Status         *AnnouncementStatus
	ScheduledUntil *time.Time
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}
