package dto

import "time"

// BucketCountDTO is one labeled count in a breakdown or timeline
type BucketCountDTO struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// AnnouncementOverview is the headline engagement numbers for one announcement
type AnnouncementOverview struct {
	UUID         string  `json:"uuid"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	SentAt       *string `json:"sent_at,omitempty"`
	TotalViews   int64   `json:"total_views"`
	TotalClicks  int64   `json:"total_clicks"`
	ButtonClicks int64   `json:"button_clicks"`
	CTR          float64 `json:"ctr"` // clicks / views, 0 when no views
}

// GetOverviewResponse returns the overview for one announcement
type GetOverviewResponse struct {
	Message  string               `json:"message"`
	Overview AnnouncementOverview `json:"overview"`
}

// AnnouncementDetail extends the overview with per-channel and per-link rows
type AnnouncementDetail struct {
	Overview  AnnouncementOverview     `json:"overview"`
	Channels  []AnnouncementTargetItem `json:"channels"`
	Links     []TrackedLinkStats       `json:"links"`
	Timeline  []BucketCountDTO         `json:"timeline"`
	Countries []BucketCountDTO         `json:"countries"`
	Devices   []BucketCountDTO         `json:"devices"`
	Browsers  []BucketCountDTO         `json:"browsers"`
}

// TrackedLinkStats is the click count of one tracked link
type TrackedLinkStats struct {
	Code        string `json:"code"`
	OriginalURL string `json:"original_url"`
	Kind        string `json:"kind"`
	Clicks      int64  `json:"clicks"`
}

// GetDetailResponse returns the detailed analytics of one announcement
type GetDetailResponse struct {
	Message string             `json:"message"`
	Detail  AnnouncementDetail `json:"detail"`
}

// ViewsBreakdown rolls unique views of one announcement up by day, country,
// and device. Per-channel view counts live on the detail endpoint's targets.
type ViewsBreakdown struct {
	TotalViews int64            `json:"total_views"`
	Timeline   []BucketCountDTO `json:"timeline"`
	Countries  []BucketCountDTO `json:"countries"`
	Devices    []BucketCountDTO `json:"devices"`
}

// GetViewsResponse returns the view breakdown of one announcement
type GetViewsResponse struct {
	Message string         `json:"message"`
	Views   ViewsBreakdown `json:"views"`
}

// ListClicksRequest filters for listing raw click events
type ListClicksRequest struct {
	AnnouncementUUID string     `json:"announcement_uuid"`
	Kind             *string    `json:"kind,omitempty"` // content or button
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	Page             uint       `json:"page,omitempty"`
	PageSize         uint       `json:"page_size,omitempty"`
}

// ClickItem is one raw click event row
type ClickItem struct {
	ID          uint    `json:"id"`
	Code        string  `json:"code"`
	OriginalURL string  `json:"original_url"`
	Kind        string  `json:"kind"`
	Country     *string `json:"country,omitempty"`
	City        *string `json:"city,omitempty"`
	DeviceType  *string `json:"device_type,omitempty"`
	Browser     *string `json:"browser,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// ListClicksResponse returns raw click rows with the total for paging
type ListClicksResponse struct {
	Message string      `json:"message"`
	Clicks  []ClickItem `json:"clicks"`
	Total   int64       `json:"total"`
}

// DashboardSummary aggregates engagement across all announcements
type DashboardSummary struct {
	TotalAnnouncements int64            `json:"total_announcements"`
	SentAnnouncements  int64            `json:"sent_announcements"`
	TotalViews         int64            `json:"total_views"`
	TotalClicks        int64            `json:"total_clicks"`
	ClicksTimeline     []BucketCountDTO `json:"clicks_timeline"`
	ViewsTimeline      []BucketCountDTO `json:"views_timeline"`
}

// GetDashboardResponse returns the cross-announcement dashboard summary
type GetDashboardResponse struct {
	Message string           `json:"message"`
	Summary DashboardSummary `json:"summary"`
}
