package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
)

// parsePaging reads page and page_size query parameters with defaults
func parsePaging(c fiber.Ctx) (page, pageSize uint) {
	page = 1
	pageSize = 20
	if pageStr := c.Query("page"); pageStr != "" {
		if v, err := strconv.ParseUint(pageStr, 10, 32); err == nil && v > 0 {
			page = uint(v)
		}
	}
	if sizeStr := c.Query("page_size"); sizeStr != "" {
		if v, err := strconv.ParseUint(sizeStr, 10, 32); err == nil && v > 0 {
			pageSize = uint(v)
		}
	}
	return page, pageSize
}

// parseDateRange reads optional RFC3339 start_date and end_date query parameters
func parseDateRange(c fiber.Ctx) (start, end *time.Time) {
	if startStr := c.Query("start_date"); startStr != "" {
		if v, err := time.Parse(time.RFC3339, startStr); err == nil {
			start = &v
		}
	}
	if endStr := c.Query("end_date"); endStr != "" {
		if v, err := time.Parse(time.RFC3339, endStr); err == nil {
			end = &v
		}
	}
	return start, end
}
