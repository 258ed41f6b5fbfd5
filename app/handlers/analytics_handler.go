package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/arazmand/jarchi/app/dto"
	businessflow "github.com/arazmand/jarchi/business_flow"
	"github.com/arazmand/jarchi/utils"
	"github.com/gofiber/fiber/v3"
)

// AnalyticsHandlerInterface defines the contract for analytics handlers
type AnalyticsHandlerInterface interface {
	Overview(c fiber.Ctx) error
	Detail(c fiber.Ctx) error
	Views(c fiber.Ctx) error
	Clicks(c fiber.Ctx) error
	Dashboard(c fiber.Ctx) error
	ExportCSV(c fiber.Ctx) error
	ExportExcel(c fiber.Ctx) error
}

// AnalyticsHandler handles analytics HTTP requests
type AnalyticsHandler struct {
	flow businessflow.AnalyticsFlow
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(flow businessflow.AnalyticsFlow) *AnalyticsHandler {
	return &AnalyticsHandler{flow: flow}
}

func (h *AnalyticsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AnalyticsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Announcement Overview
// @Description Headline engagement numbers of one announcement: views, clicks, button clicks, CTR.
// @Tags Analytics
// @Produce json
// @Param uuid path string true "Announcement UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetOverviewResponse} "Overview retrieved successfully"
// @Failure 404 {object} dto.APIResponse "Announcement not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/analytics/announcements/{uuid}/overview [get]
func (h *AnalyticsHandler) Overview(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.GetOverview(h.createRequestContext(c, "/api/v1/analytics/announcements/:uuid/overview"), c.Params("uuid"), metadata)
	if err != nil {
		return h.analyticsError(c, err, "Failed to get overview")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Announcement Detail
// @Description Per-channel, per-link, timeline, and breakdown analytics of one announcement.
// @Tags Analytics
// @Produce json
// @Param uuid path string true "Announcement UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetDetailResponse} "Detailed analytics retrieved successfully"
// @Failure 404 {object} dto.APIResponse "Announcement not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/analytics/announcements/{uuid}/detail [get]
func (h *AnalyticsHandler) Detail(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.GetDetail(h.createRequestContext(c, "/api/v1/analytics/announcements/:uuid/detail"), c.Params("uuid"), metadata)
	if err != nil {
		return h.analyticsError(c, err, "Failed to get detailed analytics")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Announcement Views
// @Description Unique-view rollups of one announcement: timeline, country, and device breakdowns.
// @Tags Analytics
// @Produce json
// @Param uuid path string true "Announcement UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetViewsResponse} "Views retrieved successfully"
// @Failure 404 {object} dto.APIResponse "Announcement not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/analytics/announcements/{uuid}/views [get]
func (h *AnalyticsHandler) Views(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.GetViews(h.createRequestContext(c, "/api/v1/analytics/announcements/:uuid/views"), c.Params("uuid"), metadata)
	if err != nil {
		return h.analyticsError(c, err, "Failed to get views")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Announcement Clicks
// @Description Raw click events of one announcement, optionally narrowed to body or button links with kind=content|button.
// @Tags Analytics
// @Produce json
// @Param uuid path string true "Announcement UUID"
// @Param kind query string false "Link kind filter (content or button)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListClicksResponse} "Clicks retrieved successfully"
// @Failure 404 {object} dto.APIResponse "Announcement not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/analytics/announcements/{uuid}/clicks [get]
func (h *AnalyticsHandler) Clicks(c fiber.Ctx) error {
	req := dto.ListClicksRequest{AnnouncementUUID: c.Params("uuid")}
	req.Page, req.PageSize = parsePaging(c)
	req.StartDate, req.EndDate = parseDateRange(c)
	if kind := c.Query("kind"); kind != "" {
		req.Kind = &kind
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.ListClicks(h.createRequestContext(c, "/api/v1/analytics/announcements/:uuid/clicks"), &req, metadata)
	if err != nil {
		return h.analyticsError(c, err, "Failed to list clicks")
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Dashboard Summary
// @Description Cross-announcement engagement summary for the dashboard landing page.
// @Tags Analytics
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.GetDashboardResponse} "Dashboard retrieved successfully"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.GetDashboard(h.createRequestContext(c, "/api/v1/analytics/dashboard"), metadata)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get dashboard", "DASHBOARD_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Export Clicks CSV
// @Description Download every click of one announcement as a CSV file.
// @Tags Analytics
// @Produce text/csv
// @Param uuid path string true "Announcement UUID"
// @Success 200 {string} string "CSV file"
// @Failure 404 {object} dto.APIResponse "Announcement not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/analytics/announcements/{uuid}/export [get]
func (h *AnalyticsHandler) ExportCSV(c fiber.Ctx) error {
	filename, data, err := h.flow.ExportClicksCSV(h.createRequestContext(c, "/api/v1/analytics/announcements/:uuid/export"), c.Params("uuid"))
	if err != nil {
		return h.analyticsError(c, err, "Failed to export clicks")
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(fiber.StatusOK).Send(data)
}

// Export Clicks Excel
// @Description Download every click of one announcement as an xlsx workbook.
// @Tags Analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param uuid path string true "Announcement UUID"
// @Success 200 {string} string "Excel file"
// @Failure 404 {object} dto.APIResponse "Announcement not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Security BearerAuth
// @Router /api/v1/analytics/announcements/{uuid}/export/xlsx [get]
func (h *AnalyticsHandler) ExportExcel(c fiber.Ctx) error {
	filename, data, err := h.flow.ExportClicksExcel(h.createRequestContext(c, "/api/v1/analytics/announcements/:uuid/export/xlsx"), c.Params("uuid"))
	if err != nil {
		return h.analyticsError(c, err, "Failed to export clicks")
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Status(fiber.StatusOK).Send(data)
}

func (h *AnalyticsHandler) analyticsError(c fiber.Ctx, err error, fallback string) error {
	if businessflow.IsAnnouncementNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Announcement not found", "ANNOUNCEMENT_NOT_FOUND", nil)
	}
	if be, ok := err.(*businessflow.BusinessError); ok && be.Code == "ANALYTICS_VALIDATION_FAILED" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid analytics parameters", be.Code, be.Error())
	}
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallback, "ANALYTICS_FAILED", nil)
}

func (h *AnalyticsHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, 60*time.Second)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
