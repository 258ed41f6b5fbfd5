package handlers

import (
	"context"
	"strconv"
	"time"

	businessflow "github.com/arazmand/jarchi/business_flow"
	"github.com/arazmand/jarchi/utils"
	"github.com/gofiber/fiber/v3"
)

// pixelGIF is a 1x1 transparent GIF. Telegram clients render it invisibly at
// the end of a message; the request it triggers is the view signal.
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// TrackingHandlerInterface defines the contract for the public tracking endpoints
type TrackingHandlerInterface interface {
	Redirect(c fiber.Ctx) error
	Pixel(c fiber.Ctx) error
}

// TrackingHandler handles the public redirect and pixel endpoints. These two
// routes carry all real-world traffic; everything in them is best effort
// except the redirect itself.
type TrackingHandler struct {
	flow businessflow.EngagementFlow
}

// NewTrackingHandler creates a new tracking handler
func NewTrackingHandler(flow businessflow.EngagementFlow) *TrackingHandler {
	return &TrackingHandler{flow: flow}
}

// Redirect
// @Description Resolve a short code, record the click, and redirect to the destination URL with UTM parameters.
// @Tags Tracking
// @Param code path string true "Short code"
// @Success 302 "Redirect to destination"
// @Failure 404 {string} string "Unknown code"
// @Router /t/{code} [get]
func (h *TrackingHandler) Redirect(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetReferer(c.Get("Referer"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	redirectURL, err := h.flow.RecordClick(h.createRequestContext(c, "/t/:code"), c.Params("code"), metadata)
	if err != nil {
		// No APIResponse envelope here; the visitor is a human following a
		// link, not an API client.
		return c.Status(fiber.StatusNotFound).SendString("link not found")
	}
	return c.Redirect().Status(fiber.StatusFound).To(redirectURL)
}

// Pixel
// @Description Record a deduplicated view from a 1x1 pixel load. Always returns the image, even on internal failure.
// @Tags Tracking
// @Param announcementID path int true "Announcement ID"
// @Param channelID path int true "Channel ID"
// @Success 200 {string} string "GIF image"
// @Router /pixel/{announcementID}/{channelID} [get]
func (h *TrackingHandler) Pixel(c fiber.Ctx) error {
	announcementID, errA := strconv.ParseUint(c.Params("announcementID"), 10, 32)
	channelID, errC := strconv.ParseUint(c.Params("channelID"), 10, 32)
	if errA == nil && errC == nil {
		metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
		h.flow.RecordPixelView(h.createRequestContext(c, "/pixel/:announcementID/:channelID"), uint(announcementID), uint(channelID), metadata)
	}

	// Pixel responses must never be cached or the dedup fingerprinting only
	// ever sees the first load per client.
	c.Set("Content-Type", "image/gif")
	c.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	c.Set("Pragma", "no-cache")
	c.Set("Expires", "0")
	return c.Status(fiber.StatusOK).Send(pixelGIF)
}

func (h *TrackingHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, 10*time.Second)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
