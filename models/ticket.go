package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/arazmand/jarchi/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// TicketStatus represents the lifecycle state of a support ticket
type TicketStatus string

const (
	TicketStatusNew             TicketStatus = "new"
	TicketStatusInProgress      TicketStatus = "in_progress"
	TicketStatusWaitingCustomer TicketStatus = "waiting_customer"
	TicketStatusResolved        TicketStatus = "resolved"
	TicketStatusClosed          TicketStatus = "closed"
)

// String returns the string representation of the status
func (s TicketStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusWaitingCustomer,
		TicketStatusResolved, TicketStatusClosed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for TicketStatus
func (s *TicketStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = TicketStatus(v)
	case []byte:
		*s = TicketStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into TicketStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for TicketStatus
func (s TicketStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid TicketStatus: %s", s)
	}
	return string(s), nil
}

// TicketPriority determines the SLA windows applied at creation
type TicketPriority string

const (
	TicketPriorityUrgent TicketPriority = "urgent"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityLow    TicketPriority = "low"
)

// Valid checks if the priority is valid
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityUrgent, TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for TicketPriority
func (p *TicketPriority) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*p = TicketPriority(v)
	case []byte:
		*p = TicketPriority(string(v))
	default:
		return fmt.Errorf("cannot scan %T into TicketPriority", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for TicketPriority
func (p TicketPriority) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid TicketPriority: %s", p)
	}
	return string(p), nil
}

// Ticket represents an inbound customer conversation triaged as a support ticket
// FirstResponseDue and ResolutionDue are computed from priority at creation time;
// a priority change recomputes ResolutionDue from the original CreatedAt.
// ResolvedAt and ClosedAt are set once; the first transition wins.
type Ticket struct {
	ID               uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID             uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	TelegramUserID   int64          `gorm:"not null;index" json:"telegram_user_id"`
	ConversationID   *int64         `gorm:"index" json:"conversation_id,omitempty"`
	Subject          string         `gorm:"type:varchar(255);not null" json:"subject"`
	Content          string         `gorm:"type:text;not null" json:"content"`
	Attachments      pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"attachments"`
	Priority         TicketPriority `gorm:"size:10;not null;default:'medium';index" json:"priority"`
	Status           TicketStatus   `gorm:"size:20;not null;default:'new';index" json:"status"`
	AssigneeID       *uint          `gorm:"index" json:"assignee_id,omitempty"`
	FirstResponseDue time.Time      `gorm:"not null" json:"first_response_due"`
	ResolutionDue    time.Time      `gorm:"not null" json:"resolution_due"`
	FirstResponseAt  *time.Time     `json:"first_response_at,omitempty"`
	ResolvedAt       *time.Time     `json:"resolved_at,omitempty"`
	ClosedAt         *time.Time     `json:"closed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Ticket) TableName() string { return "tickets" }

// BeforeCreate ensures UUID and timestamps are set
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == uuid.Nil {
		t.UUID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = utils.UTCNow()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// TicketFilter represents filter criteria for ticket queries
type TicketFilter struct {
	ID             *uint
	UUID           *uuid.UUID
	TelegramUserID *int64
	Status         *TicketStatus
	Priority       *TicketPriority
	AssigneeID     *uint
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
}
