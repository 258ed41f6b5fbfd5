package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/arazmand/jarchi/app/dto"
	businessflow "github.com/arazmand/jarchi/business_flow"
	"github.com/arazmand/jarchi/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// TicketHandlerInterface defines the contract for ticket handlers
type TicketHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	FirstResponse(c fiber.Ctx) error
}

// TicketHandler handles ticket-related HTTP requests
type TicketHandler struct {
	flow      businessflow.TicketFlow
	validator *validator.Validate
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(flow businessflow.TicketFlow) *TicketHandler {
	return &TicketHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *TicketHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TicketHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create Ticket
// @Description Create a support ticket from an inbound Telegram conversation. SLA deadlines are computed from priority.
// @Tags Tickets
// @Accept json
// @Produce json
// @Param request body dto.CreateTicketRequest true "Ticket payload"
// @Success 201 {object} dto.APIResponse{data=dto.CreateTicketResponse} "Ticket created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/tickets [post]
func (h *TicketHandler) Create(c fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.CreateTicket(h.createRequestContext(c, "/api/v1/tickets"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidPriority(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown ticket priority", "INVALID_PRIORITY", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Ticket creation failed", "TICKET_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// List Tickets
// @Description List tickets with optional status, priority, assignee, and date filters. SLA standings are computed live.
// @Tags Tickets
// @Produce json
// @Param status query string false "Filter by status"
// @Param priority query string false "Filter by priority"
// @Param assignee_id query int false "Filter by assignee"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListTicketsResponse} "Tickets retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/tickets [get]
func (h *TicketHandler) List(c fiber.Ctx) error {
	var req dto.ListTicketsRequest
	req.Page, req.PageSize = parsePaging(c)
	req.StartDate, req.EndDate = parseDateRange(c)
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}
	if priority := c.Query("priority"); priority != "" {
		req.Priority = &priority
	}
	if assigneeStr := c.Query("assignee_id"); assigneeStr != "" {
		if v, err := strconv.ParseUint(assigneeStr, 10, 32); err == nil {
			assigneeID := uint(v)
			req.AssigneeID = &assigneeID
		}
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.ListTickets(h.createRequestContext(c, "/api/v1/tickets"), &req, metadata)
	if err != nil {
		if be, ok := err.(*businessflow.BusinessError); ok && be.Code == "TICKET_VALIDATION_FAILED" {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid listing parameters", be.Code, be.Error())
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list tickets", "TICKET_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Get Ticket
// @Description Get one ticket with live SLA standings.
// @Tags Tickets
// @Produce json
// @Param uuid path string true "Ticket UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetTicketResponse} "Ticket retrieved successfully"
// @Failure 404 {object} dto.APIResponse "Ticket not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/tickets/{uuid} [get]
func (h *TicketHandler) Get(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.GetTicket(h.createRequestContext(c, "/api/v1/tickets/:uuid"), c.Params("uuid"), metadata)
	if err != nil {
		if businessflow.IsTicketNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Ticket not found", "TICKET_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get ticket", "TICKET_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Update Ticket
// @Description Partially update a ticket's status, priority, or assignee. A priority change recomputes the resolution deadline from creation time.
// @Tags Tickets
// @Accept json
// @Produce json
// @Param uuid path string true "Ticket UUID"
// @Param request body dto.UpdateTicketRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateTicketResponse} "Ticket updated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Ticket not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/tickets/{uuid} [patch]
func (h *TicketHandler) Update(c fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.UpdateTicket(h.createRequestContext(c, "/api/v1/tickets/:uuid"), c.Params("uuid"), &req, metadata)
	if err != nil {
		if businessflow.IsTicketNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Ticket not found", "TICKET_NOT_FOUND", nil)
		}
		if businessflow.IsTicketUpdateRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one field must be provided", "TICKET_UPDATE_REQUIRED", nil)
		}
		if businessflow.IsInvalidTicketStatus(err) || businessflow.IsInvalidPriority(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status or priority", "TICKET_VALIDATION_FAILED", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Ticket update failed", "TICKET_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Mark First Response
// @Description Record the first staff response on a ticket. Idempotent; only the first call stamps the timestamp.
// @Tags Tickets
// @Produce json
// @Param uuid path string true "Ticket UUID"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateTicketResponse} "First response recorded successfully"
// @Failure 404 {object} dto.APIResponse "Ticket not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/tickets/{uuid}/first-response [post]
func (h *TicketHandler) FirstResponse(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.MarkFirstResponse(h.createRequestContext(c, "/api/v1/tickets/:uuid/first-response"), c.Params("uuid"), metadata)
	if err != nil {
		if businessflow.IsTicketNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Ticket not found", "TICKET_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Ticket update failed", "TICKET_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *TicketHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, 30*time.Second)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
