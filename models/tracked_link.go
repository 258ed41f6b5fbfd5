package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TrackedLinkKind distinguishes links minted from the announcement body from
// links minted for inline buttons
type TrackedLinkKind string

const (
	TrackedLinkKindContent TrackedLinkKind = "content"
	TrackedLinkKindButton  TrackedLinkKind = "button"
)

// Valid checks if the kind is valid
func (k TrackedLinkKind) Valid() bool {
	switch k {
	case TrackedLinkKindContent, TrackedLinkKindButton:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for TrackedLinkKind
func (k *TrackedLinkKind) Scan(value any) error {
	if value == nil {
		*k = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*k = TrackedLinkKind(v)
	case []byte:
		*k = TrackedLinkKind(string(v))
	default:
		return fmt.Errorf("cannot scan %T into TrackedLinkKind", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for TrackedLinkKind
func (k TrackedLinkKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid TrackedLinkKind: %s", k)
	}
	return string(k), nil
}

// TrackedLink maps a short code to an original destination URL for one announcement.
// Code is the unique fixed-length token used in redirect URLs. Rows are immutable
// after minting and cascade-deleted with their announcement.
type TrackedLink struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Code           string          `gorm:"size:16;not null;uniqueIndex:uk_tracked_links_code" json:"code"`
	AnnouncementID uint            `gorm:"not null;index:idx_tracked_links_announcement_id" json:"announcement_id"`
	OriginalURL    string          `gorm:"type:text;not null" json:"original_url"`
	Kind           TrackedLinkKind `gorm:"size:10;not null;default:'content';index:idx_tracked_links_kind" json:"kind"`
	UTMSource      string          `gorm:"size:64;not null" json:"utm_source"`
	UTMMedium      string          `gorm:"size:64;not null" json:"utm_medium"`
	UTMCampaign    string          `gorm:"size:255;not null" json:"utm_campaign"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_tracked_links_created_at" json:"created_at"`
}

func (TrackedLink) TableName() string { return "tracked_links" }

// TrackedLinkFilter provides filter fields for repository queries
type TrackedLinkFilter struct {
	ID             *uint
	Code           *string
	AnnouncementID *uint
	Kind           *TrackedLinkKind
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}
