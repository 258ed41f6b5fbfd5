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

// ChannelHandlerInterface defines the contract for channel handlers
type ChannelHandlerInterface interface {
	Register(c fiber.Ctx) error
	List(c fiber.Ctx) error
}

// ChannelHandler handles channel-related HTTP requests
type ChannelHandler struct {
	flow      businessflow.ChannelFlow
	validator *validator.Validate
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(flow businessflow.ChannelFlow) *ChannelHandler {
	return &ChannelHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *ChannelHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ChannelHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Register Channel
// @Description Register a Telegram channel as a broadcast target.
// @Tags Channels
// @Accept json
// @Produce json
// @Param request body dto.RegisterChannelRequest true "Channel payload"
// @Success 201 {object} dto.APIResponse{data=dto.RegisterChannelResponse} "Channel registered successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Channel already registered"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/channels [post]
func (h *ChannelHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterChannelRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.RegisterChannel(h.createRequestContext(c, "/api/v1/channels"), &req, metadata)
	if err != nil {
		if businessflow.IsChannelAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Channel already registered", "CHANNEL_ALREADY_EXISTS", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Channel registration failed", "CHANNEL_REGISTRATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, result.Message, result)
}

// List Channels
// @Description List all registered broadcast channels.
// @Tags Channels
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListChannelsResponse} "Channels retrieved successfully"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/channels [get]
func (h *ChannelHandler) List(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.ListChannels(h.createRequestContext(c, "/api/v1/channels"), metadata)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list channels", "CHANNEL_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *ChannelHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *ChannelHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
