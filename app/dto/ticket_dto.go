package dto

import "time"

// CreateTicketRequest carries data to create a new support ticket coming from
// a Telegram user. Attachments are URLs to already-uploaded files.
type CreateTicketRequest struct {
	TelegramUserID int64    `json:"telegram_user_id" validate:"required"`
	ConversationID *int64   `json:"conversation_id,omitempty"`
	Subject        string   `json:"subject" validate:"required,min=1,max=255"`
	Content        string   `json:"content" validate:"required,min=1"`
	Attachments    []string `json:"attachments,omitempty" validate:"omitempty,max=10,dive,url"`
	Priority       *string  `json:"priority,omitempty" validate:"omitempty,oneof=urgent high medium low"`
}

// TicketItem represents a ticket row in listings and detail views
type TicketItem struct {
	ID               uint     `json:"id"`
	UUID             string   `json:"uuid"`
	TelegramUserID   int64    `json:"telegram_user_id"`
	ConversationID   *int64   `json:"conversation_id,omitempty"`
	Subject          string   `json:"subject"`
	Content          string   `json:"content"`
	Attachments      []string `json:"attachments,omitempty"`
	Priority         string   `json:"priority"`
	Status           string   `json:"status"`
	AssigneeID       *uint    `json:"assignee_id,omitempty"`
	FirstResponseDue string   `json:"first_response_due"`
	ResolutionDue    string   `json:"resolution_due"`
	FirstResponseAt  *string  `json:"first_response_at,omitempty"`
	ResolvedAt       *string  `json:"resolved_at,omitempty"`
	ClosedAt         *string  `json:"closed_at,omitempty"`
	CreatedAt        string   `json:"created_at"`
	SLA              SLAInfo  `json:"sla"`
}

// SLAInfo is the live SLA standing of a ticket
type SLAInfo struct {
	FirstResponseStatus string `json:"first_response_status"` // met, pending, at_risk, breached
	ResolutionStatus    string `json:"resolution_status"`
}

// CreateTicketResponse returns the created ticket with computed SLA deadlines
type CreateTicketResponse struct {
	Message string     `json:"message"`
	Ticket  TicketItem `json:"ticket"`
}

// ListTicketsRequest filters for listing tickets
type ListTicketsRequest struct {
	Status     *string    `json:"status,omitempty"`
	Priority   *string    `json:"priority,omitempty"`
	AssigneeID *uint      `json:"assignee_id,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Page       uint       `json:"page,omitempty"`
	PageSize   uint       `json:"page_size,omitempty"`
}

// ListTicketsResponse returns ticket rows with the total for paging
type ListTicketsResponse struct {
	Message string       `json:"message"`
	Tickets []TicketItem `json:"tickets"`
	Total   int64        `json:"total"`
}

// GetTicketResponse returns one ticket
type GetTicketResponse struct {
	Message string     `json:"message"`
	Ticket  TicketItem `json:"ticket"`
}

// UpdateTicketRequest carries a partial ticket update. Nil fields are left
// untouched. Changing priority recomputes the resolution deadline from the
// ticket's original creation time.
type UpdateTicketRequest struct {
	Status     *string `json:"status,omitempty" validate:"omitempty,oneof=new in_progress waiting_customer resolved closed"`
	Priority   *string `json:"priority,omitempty" validate:"omitempty,oneof=urgent high medium low"`
	AssigneeID *uint   `json:"assignee_id,omitempty"`
}

// UpdateTicketResponse returns the updated ticket
type UpdateTicketResponse struct {
	Message string     `json:"message"`
	Ticket  TicketItem `json:"ticket"`
}
