// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"time"

	"github.com/arazmand/jarchi/app/dto"
	businessflow "github.com/arazmand/jarchi/business_flow"
	"github.com/arazmand/jarchi/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AnnouncementHandlerInterface defines the contract for announcement handlers
type AnnouncementHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Send(c fiber.Ctx) error
}

// AnnouncementHandler handles announcement-related HTTP requests
type AnnouncementHandler struct {
	flow         businessflow.AnnouncementFlow
	dispatchFlow businessflow.DispatchFlow
	validator    *validator.Validate
}

// NewAnnouncementHandler creates a new announcement handler
func NewAnnouncementHandler(flow businessflow.AnnouncementFlow, dispatchFlow businessflow.DispatchFlow) *AnnouncementHandler {
	return &AnnouncementHandler{
		flow:         flow,
		dispatchFlow: dispatchFlow,
		validator:    validator.New(),
	}
}

func (h *AnnouncementHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AnnouncementHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create Announcement
// @Description Create a new announcement targeting registered channels. A scheduled_at in the future queues it for automatic dispatch.
// @Tags Announcements
// @Accept json
// @Produce json
// @Param request body dto.CreateAnnouncementRequest true "Announcement payload"
// @Success 201 {object} dto.APIResponse{data=dto.CreateAnnouncementResponse} "Announcement created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 404 {object} dto.APIResponse "Target channel not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/announcements [post]
func (h *AnnouncementHandler) Create(c fiber.Ctx) error {
	var req dto.CreateAnnouncementRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	var createdBy *uint
	if staffID, ok := c.Locals("staff_id").(uint); ok {
		createdBy = &staffID
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.CreateAnnouncement(h.createRequestContext(c, "/api/v1/announcements"), &req, createdBy, metadata)
	if err != nil {
		if businessflow.IsChannelNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Channel not found", "CHANNEL_NOT_FOUND", nil)
		}
		if businessflow.IsScheduleTimeInPast(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Schedule time is in the past", "SCHEDULE_TIME_IN_PAST", nil)
		}
		if be, ok := err.(*businessflow.BusinessError); ok && be.Code == "ANNOUNCEMENT_VALIDATION_FAILED" {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Announcement validation failed", be.Code, be.Error())
		}
		if be, ok := err.(*businessflow.BusinessError); ok && be.Code == "CHANNEL_INACTIVE" {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Channel is inactive", be.Code, nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Announcement creation failed", "ANNOUNCEMENT_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// List Announcements
// @Description List announcements with optional status and date filters.
// @Tags Announcements
// @Produce json
// @Param status query string false "Filter by status (draft, scheduled, sending, sent, failed)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListAnnouncementsResponse} "Announcements retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/announcements [get]
func (h *AnnouncementHandler) List(c fiber.Ctx) error {
	var req dto.ListAnnouncementsRequest
	req.Page, req.PageSize = parsePaging(c)
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}
	req.StartDate, req.EndDate = parseDateRange(c)

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.ListAnnouncements(h.createRequestContext(c, "/api/v1/announcements"), &req, metadata)
	if err != nil {
		if be, ok := err.(*businessflow.BusinessError); ok && be.Code == "ANNOUNCEMENT_VALIDATION_FAILED" {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid listing parameters", be.Code, be.Error())
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list announcements", "ANNOUNCEMENT_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Get Announcement
// @Description Get one announcement with its per-channel delivery state.
// @Tags Announcements
// @Produce json
// @Param uuid path string true "Announcement UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetAnnouncementResponse} "Announcement retrieved successfully"
// @Failure 404 {object} dto.APIResponse "Announcement not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/announcements/{uuid} [get]
func (h *AnnouncementHandler) Get(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.GetAnnouncement(h.createRequestContext(c, "/api/v1/announcements/:uuid"), c.Params("uuid"), metadata)
	if err != nil {
		if businessflow.IsAnnouncementNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Announcement not found", "ANNOUNCEMENT_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get announcement", "ANNOUNCEMENT_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Send Announcement
// @Description Dispatch an announcement to all of its target channels immediately.
// @Tags Announcements
// @Produce json
// @Param uuid path string true "Announcement UUID"
// @Success 200 {object} dto.APIResponse{data=dto.SendAnnouncementResponse} "Announcement dispatched"
// @Failure 404 {object} dto.APIResponse "Announcement not found"
// @Failure 409 {object} dto.APIResponse "Announcement already sent"
// @Failure 422 {object} dto.APIResponse "No active target channels"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/announcements/{uuid}/send [post]
func (h *AnnouncementHandler) Send(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.dispatchFlow.SendAnnouncement(h.createRequestContext(c, "/api/v1/announcements/:uuid/send"), c.Params("uuid"), metadata)
	if err != nil {
		if businessflow.IsAnnouncementNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Announcement not found", "ANNOUNCEMENT_NOT_FOUND", nil)
		}
		if businessflow.IsAnnouncementAlreadySent(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Announcement already sent", "ANNOUNCEMENT_ALREADY_SENT", nil)
		}
		if businessflow.IsNoActiveTargets(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Announcement has no active target channels", "NO_ACTIVE_TARGETS", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Announcement dispatch failed", "DISPATCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *AnnouncementHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *AnnouncementHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
