package businessflow

import (
	"context"
	"time"

	"github.com/arazmand/jarchi/app/dto"
	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/repository"
	"github.com/arazmand/jarchi/utils"
)

// SLA deadline standings
const (
	SLAMet      = "met"
	SLAOnTrack  = "on_track"
	SLAAtRisk   = "at_risk"
	SLABreached = "breached"
)

// firstResponseWindow is the same for every priority: a human should look at
// every ticket within the hour regardless of how it was triaged.
const firstResponseWindow = time.Hour

// resolutionWindows maps priority to the resolution SLA window
var resolutionWindows = map[models.TicketPriority]time.Duration{
	models.TicketPriorityUrgent: 2 * time.Hour,
	models.TicketPriorityHigh:   8 * time.Hour,
	models.TicketPriorityMedium: 24 * time.Hour,
	models.TicketPriorityLow:    48 * time.Hour,
}

// atRiskFraction of a window remaining flips a pending deadline to at_risk
const atRiskFraction = 0.25

// TicketFlow handles support ticket triage and SLA bookkeeping
type TicketFlow interface {
	CreateTicket(ctx context.Context, req *dto.CreateTicketRequest, metadata *ClientMetadata) (*dto.CreateTicketResponse, error)
	ListTickets(ctx context.Context, req *dto.ListTicketsRequest, metadata *ClientMetadata) (*dto.ListTicketsResponse, error)
	GetTicket(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.GetTicketResponse, error)
	UpdateTicket(ctx context.Context, uuidStr string, req *dto.UpdateTicketRequest, metadata *ClientMetadata) (*dto.UpdateTicketResponse, error)
	MarkFirstResponse(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.UpdateTicketResponse, error)
}

// TicketFlowImpl implements the ticket business flow
type TicketFlowImpl struct {
	ticketRepo repository.TicketRepository
}

// NewTicketFlow creates a new ticket flow instance
func NewTicketFlow(ticketRepo repository.TicketRepository) TicketFlow {
	return &TicketFlowImpl{ticketRepo: ticketRepo}
}

// CreateTicket creates a ticket with SLA deadlines computed from its priority
func (f *TicketFlowImpl) CreateTicket(ctx context.Context, req *dto.CreateTicketRequest, metadata *ClientMetadata) (*dto.CreateTicketResponse, error) {
	priority := models.TicketPriorityMedium
	if req.Priority != nil {
		priority = models.TicketPriority(*req.Priority)
		if !priority.Valid() {
			return nil, NewBusinessError("TICKET_VALIDATION_FAILED", "Unknown ticket priority", ErrInvalidPriority)
		}
	}

	now := utils.UTCNow()
	ticket := &models.Ticket{
		TelegramUserID:   req.TelegramUserID,
		ConversationID:   req.ConversationID,
		Subject:          req.Subject,
		Content:          req.Content,
		Attachments:      req.Attachments,
		Priority:         priority,
		Status:           models.TicketStatusNew,
		FirstResponseDue: now.Add(firstResponseWindow),
		ResolutionDue:    now.Add(resolutionWindows[priority]),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if ticket.Attachments == nil {
		ticket.Attachments = []string{}
	}

	if err := f.ticketRepo.Save(ctx, ticket); err != nil {
		return nil, NewBusinessError("TICKET_CREATION_FAILED", "Ticket creation failed", err)
	}

	return &dto.CreateTicketResponse{
		Message: "Ticket created successfully",
		Ticket:  ToTicketItem(ticket, utils.UTCNow()),
	}, nil
}

// ListTickets returns ticket rows matching the filters with the total for paging
func (f *TicketFlowImpl) ListTickets(ctx context.Context, req *dto.ListTicketsRequest, metadata *ClientMetadata) (*dto.ListTicketsResponse, error) {
	if err := validateDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, NewBusinessError("TICKET_VALIDATION_FAILED", "Ticket listing validation failed", err)
	}
	limit, offset, err := normalizePaging(req.Page, req.PageSize)
	if err != nil {
		return nil, NewBusinessError("TICKET_VALIDATION_FAILED", "Ticket listing validation failed", err)
	}

	filter := models.TicketFilter{
		AssigneeID:    req.AssigneeID,
		CreatedAfter:  req.StartDate,
		CreatedBefore: req.EndDate,
	}
	if req.Status != nil {
		status := models.TicketStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("TICKET_VALIDATION_FAILED", "Unknown ticket status", ErrInvalidTicketStatus)
		}
		filter.Status = &status
	}
	if req.Priority != nil {
		priority := models.TicketPriority(*req.Priority)
		if !priority.Valid() {
			return nil, NewBusinessError("TICKET_VALIDATION_FAILED", "Unknown ticket priority", ErrInvalidPriority)
		}
		filter.Priority = &priority
	}

	rows, err := f.ticketRepo.ByFilter(ctx, filter, "created_at DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("TICKET_LIST_FAILED", "Failed to list tickets", err)
	}
	total, err := f.ticketRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("TICKET_COUNT_FAILED", "Failed to count tickets", err)
	}

	now := utils.UTCNow()
	items := make([]dto.TicketItem, 0, len(rows))
	for _, t := range rows {
		items = append(items, ToTicketItem(t, now))
	}
	return &dto.ListTicketsResponse{
		Message: "Tickets retrieved successfully",
		Tickets: items,
		Total:   total,
	}, nil
}

// GetTicket returns one ticket
func (f *TicketFlowImpl) GetTicket(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.GetTicketResponse, error) {
	ticket, err := f.lookup(ctx, uuidStr)
	if err != nil {
		return nil, err
	}
	return &dto.GetTicketResponse{
		Message: "Ticket retrieved successfully",
		Ticket:  ToTicketItem(ticket, utils.UTCNow()),
	}, nil
}

// UpdateTicket applies a partial update. Transitioning into any status other
// than new records the first response once; resolved and closed timestamps are
// set on the first transition and never overwritten. A priority change
// recomputes the resolution deadline from the original creation time, so a
// ticket upgraded to urgent after a day is immediately breached rather than
// granted a fresh window.
func (f *TicketFlowImpl) UpdateTicket(ctx context.Context, uuidStr string, req *dto.UpdateTicketRequest, metadata *ClientMetadata) (*dto.UpdateTicketResponse, error) {
	if req.Status == nil && req.Priority == nil && req.AssigneeID == nil {
		return nil, NewBusinessError("TICKET_VALIDATION_FAILED", "Ticket update validation failed", ErrTicketUpdateRequired)
	}

	ticket, err := f.lookup(ctx, uuidStr)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	if req.Status != nil {
		status := models.TicketStatus(*req.Status)
		if !status.Valid() {
			return nil, NewBusinessError("TICKET_VALIDATION_FAILED", "Unknown ticket status", ErrInvalidTicketStatus)
		}
		if status != models.TicketStatusNew && ticket.FirstResponseAt == nil {
			ticket.FirstResponseAt = &now
		}
		if status == models.TicketStatusResolved && ticket.ResolvedAt == nil {
			ticket.ResolvedAt = &now
		}
		if status == models.TicketStatusClosed && ticket.ClosedAt == nil {
			ticket.ClosedAt = &now
		}
		ticket.Status = status
	}
	if req.Priority != nil {
		priority := models.TicketPriority(*req.Priority)
		if !priority.Valid() {
			return nil, NewBusinessError("TICKET_VALIDATION_FAILED", "Unknown ticket priority", ErrInvalidPriority)
		}
		if priority != ticket.Priority {
			ticket.Priority = priority
			ticket.ResolutionDue = ticket.CreatedAt.Add(resolutionWindows[priority])
		}
	}
	if req.AssigneeID != nil {
		ticket.AssigneeID = req.AssigneeID
	}
	ticket.UpdatedAt = now

	if err := f.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, NewBusinessError("TICKET_UPDATE_FAILED", "Ticket update failed", err)
	}

	return &dto.UpdateTicketResponse{
		Message: "Ticket updated successfully",
		Ticket:  ToTicketItem(ticket, utils.UTCNow()),
	}, nil
}

// MarkFirstResponse stamps first_response_at, once. Repeat calls are a no-op;
// the first human reply is the one the SLA measures.
func (f *TicketFlowImpl) MarkFirstResponse(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.UpdateTicketResponse, error) {
	ticket, err := f.lookup(ctx, uuidStr)
	if err != nil {
		return nil, err
	}

	if ticket.FirstResponseAt == nil {
		now := utils.UTCNow()
		ticket.FirstResponseAt = &now
		ticket.UpdatedAt = now
		if err := f.ticketRepo.Update(ctx, ticket); err != nil {
			return nil, NewBusinessError("TICKET_UPDATE_FAILED", "Ticket update failed", err)
		}
	}

	return &dto.UpdateTicketResponse{
		Message: "First response recorded successfully",
		Ticket:  ToTicketItem(ticket, utils.UTCNow()),
	}, nil
}

func (f *TicketFlowImpl) lookup(ctx context.Context, uuidStr string) (*models.Ticket, error) {
	ticket, err := f.ticketRepo.ByUUID(ctx, uuidStr)
	if err != nil {
		return nil, NewBusinessError("TICKET_LOOKUP_FAILED", "Failed to lookup ticket", err)
	}
	if ticket == nil {
		return nil, NewBusinessError("TICKET_NOT_FOUND", "Ticket not found", ErrTicketNotFound)
	}
	return ticket, nil
}

// DeadlineStatus derives the SLA standing of one deadline. It is a pure
// function of the clock so listings always show live values. The at_risk
// threshold is a fraction of the deadline's own window.
func DeadlineStatus(now time.Time, createdAt, due time.Time, completedAt *time.Time) string {
	if completedAt != nil {
		if !completedAt.After(due) {
			return SLAMet
		}
		return SLABreached
	}
	if now.After(due) {
		return SLABreached
	}
	window := due.Sub(createdAt)
	remaining := due.Sub(now)
	if window > 0 && float64(remaining) < atRiskFraction*float64(window) {
		return SLAAtRisk
	}
	return SLAOnTrack
}

// ToTicketItem converts a ticket model to its DTO with SLA standings computed
// against the given clock
func ToTicketItem(ticket *models.Ticket, now time.Time) dto.TicketItem {
	return dto.TicketItem{
		ID:               ticket.ID,
		UUID:             ticket.UUID.String(),
		TelegramUserID:   ticket.TelegramUserID,
		ConversationID:   ticket.ConversationID,
		Subject:          ticket.Subject,
		Content:          ticket.Content,
		Attachments:      ticket.Attachments,
		Priority:         string(ticket.Priority),
		Status:           ticket.Status.String(),
		AssigneeID:       ticket.AssigneeID,
		FirstResponseDue: formatTime(ticket.FirstResponseDue),
		ResolutionDue:    formatTime(ticket.ResolutionDue),
		FirstResponseAt:  formatTimePtr(ticket.FirstResponseAt),
		ResolvedAt:       formatTimePtr(ticket.ResolvedAt),
		ClosedAt:         formatTimePtr(ticket.ClosedAt),
		CreatedAt:        formatTime(ticket.CreatedAt),
		SLA: dto.SLAInfo{
			FirstResponseStatus: DeadlineStatus(now, ticket.CreatedAt, ticket.FirstResponseDue, ticket.FirstResponseAt),
			ResolutionStatus:    DeadlineStatus(now, ticket.CreatedAt, ticket.ResolutionDue, resolutionCompletedAt(ticket)),
		},
	}
}

// resolutionCompletedAt picks the timestamp that stops the resolution clock;
// closing without resolving counts too
func resolutionCompletedAt(ticket *models.Ticket) *time.Time {
	if ticket.ResolvedAt != nil {
		return ticket.ResolvedAt
	}
	return ticket.ClosedAt
}
