package businessflow

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/arazmand/jarchi/app/dto"
	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/repository"
	"github.com/arazmand/jarchi/utils"
	"github.com/xuri/excelize/v2"
)

// exportRowLimit caps one export file; the dashboard paginates, exports don't
const exportRowLimit = 100000

// AnalyticsFlow rolls clicks and views up into the dashboard's numbers
type AnalyticsFlow interface {
	GetOverview(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.GetOverviewResponse, error)
	GetDetail(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.GetDetailResponse, error)
	GetViews(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.GetViewsResponse, error)
	ListClicks(ctx context.Context, req *dto.ListClicksRequest, metadata *ClientMetadata) (*dto.ListClicksResponse, error)
	GetDashboard(ctx context.Context, metadata *ClientMetadata) (*dto.GetDashboardResponse, error)
	ExportClicksCSV(ctx context.Context, uuidStr string) (filename string, data []byte, err error)
	ExportClicksExcel(ctx context.Context, uuidStr string) (filename string, data []byte, err error)
}

// AnalyticsFlowImpl implements the analytics business flow
type AnalyticsFlowImpl struct {
	announcementRepo repository.AnnouncementRepository
	targetRepo       repository.AnnouncementTargetRepository
	linkRepo         repository.TrackedLinkRepository
	clickRepo        repository.LinkClickRepository
	pixelRepo        repository.PixelViewRepository
}

// NewAnalyticsFlow creates a new analytics flow instance
func NewAnalyticsFlow(
	announcementRepo repository.AnnouncementRepository,
	targetRepo repository.AnnouncementTargetRepository,
	linkRepo repository.TrackedLinkRepository,
	clickRepo repository.LinkClickRepository,
	pixelRepo repository.PixelViewRepository,
) AnalyticsFlow {
	return &AnalyticsFlowImpl{
		announcementRepo: announcementRepo,
		targetRepo:       targetRepo,
		linkRepo:         linkRepo,
		clickRepo:        clickRepo,
		pixelRepo:        pixelRepo,
	}
}

// GetOverview returns the headline engagement numbers of one announcement
func (f *AnalyticsFlowImpl) GetOverview(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.GetOverviewResponse, error) {
	announcement, err := f.lookupAnnouncement(ctx, uuidStr)
	if err != nil {
		return nil, err
	}
	overview, err := f.buildOverview(ctx, announcement)
	if err != nil {
		return nil, err
	}
	return &dto.GetOverviewResponse{
		Message:  "Overview retrieved successfully",
		Overview: overview,
	}, nil
}

// GetDetail returns per-channel, per-link, timeline, and breakdown analytics
// of one announcement
func (f *AnalyticsFlowImpl) GetDetail(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.GetDetailResponse, error) {
	announcement, err := f.lookupAnnouncement(ctx, uuidStr)
	if err != nil {
		return nil, err
	}
	overview, err := f.buildOverview(ctx, announcement)
	if err != nil {
		return nil, err
	}

	targets, err := f.targetRepo.ListByAnnouncement(ctx, announcement.ID)
	if err != nil {
		return nil, NewBusinessError("TARGET_LIST_FAILED", "Failed to list announcement targets", err)
	}

	links, err := f.linkRepo.ByFilter(ctx, models.TrackedLinkFilter{AnnouncementID: &announcement.ID}, "id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("LINK_LIST_FAILED", "Failed to list tracked links", err)
	}
	linkStats := make([]dto.TrackedLinkStats, 0, len(links))
	for _, link := range links {
		clicks, err := f.clickRepo.Count(ctx, models.LinkClickFilter{TrackedLinkID: &link.ID})
		if err != nil {
			return nil, NewBusinessError("CLICK_COUNT_FAILED", "Failed to count clicks", err)
		}
		linkStats = append(linkStats, dto.TrackedLinkStats{
			Code:        link.Code,
			OriginalURL: link.OriginalURL,
			Kind:        string(link.Kind),
			Clicks:      clicks,
		})
	}

	clickFilter := models.LinkClickFilter{AnnouncementID: &announcement.ID}
	timeline, err := f.clickRepo.CountByDay(ctx, clickFilter)
	if err != nil {
		return nil, NewBusinessError("CLICK_ROLLUP_FAILED", "Failed to build click timeline", err)
	}
	countries, err := f.clickRepo.CountByColumn(ctx, clickFilter, "country")
	if err != nil {
		return nil, NewBusinessError("CLICK_ROLLUP_FAILED", "Failed to build country breakdown", err)
	}
	devices, err := f.clickRepo.CountByColumn(ctx, clickFilter, "device_type")
	if err != nil {
		return nil, NewBusinessError("CLICK_ROLLUP_FAILED", "Failed to build device breakdown", err)
	}
	browsers, err := f.clickRepo.CountByColumn(ctx, clickFilter, "browser")
	if err != nil {
		return nil, NewBusinessError("CLICK_ROLLUP_FAILED", "Failed to build browser breakdown", err)
	}

	detail := dto.AnnouncementDetail{
		Overview:  overview,
		Timeline:  toBucketDTOs(timeline),
		Countries: toBucketDTOs(countries),
		Devices:   toBucketDTOs(devices),
		Browsers:  toBucketDTOs(browsers),
		Links:     linkStats,
	}
	for _, t := range targets {
		detail.Channels = append(detail.Channels, ToAnnouncementTargetItem(t))
	}

	return &dto.GetDetailResponse{
		Message: "Detailed analytics retrieved successfully",
		Detail:  detail,
	}, nil
}

// GetViews returns the unique-view rollups of one announcement. Views come
// from the deduplicated pixel rows, so every bucket counts distinct viewers.
func (f *AnalyticsFlowImpl) GetViews(ctx context.Context, uuidStr string, metadata *ClientMetadata) (*dto.GetViewsResponse, error) {
	announcement, err := f.lookupAnnouncement(ctx, uuidStr)
	if err != nil {
		return nil, err
	}

	totalViews, err := f.targetRepo.SumViews(ctx, models.AnnouncementTargetFilter{AnnouncementID: &announcement.ID})
	if err != nil {
		return nil, NewBusinessError("VIEW_SUM_FAILED", "Failed to sum views", err)
	}

	viewFilter := models.PixelViewFilter{AnnouncementID: &announcement.ID}
	timeline, err := f.pixelRepo.CountByDay(ctx, viewFilter)
	if err != nil {
		return nil, NewBusinessError("VIEW_ROLLUP_FAILED", "Failed to build view timeline", err)
	}
	countries, err := f.pixelRepo.CountByColumn(ctx, viewFilter, "country")
	if err != nil {
		return nil, NewBusinessError("VIEW_ROLLUP_FAILED", "Failed to build country breakdown", err)
	}
	devices, err := f.pixelRepo.CountByColumn(ctx, viewFilter, "device_type")
	if err != nil {
		return nil, NewBusinessError("VIEW_ROLLUP_FAILED", "Failed to build device breakdown", err)
	}

	return &dto.GetViewsResponse{
		Message: "Views retrieved successfully",
		Views: dto.ViewsBreakdown{
			TotalViews: totalViews,
			Timeline:   toBucketDTOs(timeline),
			Countries:  toBucketDTOs(countries),
			Devices:    toBucketDTOs(devices),
		},
	}, nil
}

// ListClicks returns raw click rows of one announcement, optionally narrowed
// to body or button links
func (f *AnalyticsFlowImpl) ListClicks(ctx context.Context, req *dto.ListClicksRequest, metadata *ClientMetadata) (*dto.ListClicksResponse, error) {
	announcement, err := f.lookupAnnouncement(ctx, req.AnnouncementUUID)
	if err != nil {
		return nil, err
	}
	if err := validateDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, NewBusinessError("ANALYTICS_VALIDATION_FAILED", "Click listing validation failed", err)
	}
	limit, offset, err := normalizePaging(req.Page, req.PageSize)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_VALIDATION_FAILED", "Click listing validation failed", err)
	}

	filter := models.LinkClickFilter{
		AnnouncementID: &announcement.ID,
		CreatedAfter:   req.StartDate,
		CreatedBefore:  req.EndDate,
	}
	if req.Kind != nil {
		kind := models.TrackedLinkKind(*req.Kind)
		if !kind.Valid() {
			return nil, NewBusinessError("ANALYTICS_VALIDATION_FAILED", "Unknown link kind", nil)
		}
		filter.Kind = &kind
	}

	rows, err := f.clickRepo.ListWithLinks(ctx, filter, limit, offset)
	if err != nil {
		return nil, NewBusinessError("CLICK_LIST_FAILED", "Failed to list clicks", err)
	}
	total, err := f.clickRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("CLICK_COUNT_FAILED", "Failed to count clicks", err)
	}

	items := make([]dto.ClickItem, 0, len(rows))
	for _, c := range rows {
		items = append(items, toClickItem(c))
	}
	return &dto.ListClicksResponse{
		Message: "Clicks retrieved successfully",
		Clicks:  items,
		Total:   total,
	}, nil
}

// GetDashboard returns the cross-announcement summary shown on the landing page
func (f *AnalyticsFlowImpl) GetDashboard(ctx context.Context, metadata *ClientMetadata) (*dto.GetDashboardResponse, error) {
	totalAnnouncements, err := f.announcementRepo.Count(ctx, models.AnnouncementFilter{})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count announcements", err)
	}
	sentStatus := models.AnnouncementStatusSent
	sentAnnouncements, err := f.announcementRepo.Count(ctx, models.AnnouncementFilter{Status: &sentStatus})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count sent announcements", err)
	}
	totalViews, err := f.targetRepo.SumViews(ctx, models.AnnouncementTargetFilter{})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to sum views", err)
	}
	totalClicks, err := f.clickRepo.Count(ctx, models.LinkClickFilter{})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to count clicks", err)
	}
	clicksTimeline, err := f.clickRepo.CountByDay(ctx, models.LinkClickFilter{})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to build click timeline", err)
	}
	viewsTimeline, err := f.pixelRepo.CountByDay(ctx, models.PixelViewFilter{})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_FAILED", "Failed to build view timeline", err)
	}

	return &dto.GetDashboardResponse{
		Message: "Dashboard retrieved successfully",
		Summary: dto.DashboardSummary{
			TotalAnnouncements: totalAnnouncements,
			SentAnnouncements:  sentAnnouncements,
			TotalViews:         totalViews,
			TotalClicks:        totalClicks,
			ClicksTimeline:     toBucketDTOs(clicksTimeline),
			ViewsTimeline:      toBucketDTOs(viewsTimeline),
		},
	}, nil
}

var exportHeader = []string{"id", "code", "original_url", "kind", "ip", "country", "city", "device_type", "browser", "created_at"}

// ExportClicksCSV builds a CSV file of every click on one announcement
func (f *AnalyticsFlowImpl) ExportClicksCSV(ctx context.Context, uuidStr string) (string, []byte, error) {
	announcement, rows, err := f.exportRows(ctx, uuidStr)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(exportHeader); err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to write CSV header", err)
	}
	for _, c := range rows {
		if err := writer.Write(exportRecord(c)); err != nil {
			return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to write CSV row", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to flush CSV", err)
	}

	filename := fmt.Sprintf("clicks_%s.csv", announcement.UUID.String())
	return filename, buf.Bytes(), nil
}

// ExportClicksExcel builds an xlsx workbook of every click on one announcement
func (f *AnalyticsFlowImpl) ExportClicksExcel(ctx context.Context, uuidStr string) (string, []byte, error) {
	announcement, rows, err := f.exportRows(ctx, uuidStr)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := xl.GetSheetName(0)
	if err := xl.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to write Excel header", err)
	}
	for i, c := range rows {
		record := exportRecord(c)
		cell := fmt.Sprintf("A%d", i+2)
		if err := xl.SetSheetRow(sheet, cell, &record); err != nil {
			return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to write Excel row", err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to build Excel file", err)
	}
	filename := fmt.Sprintf("clicks_%s.xlsx", announcement.UUID.String())
	return filename, buf.Bytes(), nil
}

func (f *AnalyticsFlowImpl) exportRows(ctx context.Context, uuidStr string) (*models.Announcement, []*models.LinkClick, error) {
	announcement, err := f.lookupAnnouncement(ctx, uuidStr)
	if err != nil {
		return nil, nil, err
	}
	rows, err := f.clickRepo.ListWithLinks(ctx, models.LinkClickFilter{AnnouncementID: &announcement.ID}, exportRowLimit, 0)
	if err != nil {
		return nil, nil, NewBusinessError("CLICK_LIST_FAILED", "Failed to list clicks for export", err)
	}
	return announcement, rows, nil
}

func (f *AnalyticsFlowImpl) lookupAnnouncement(ctx context.Context, uuidStr string) (*models.Announcement, error) {
	announcement, err := f.announcementRepo.ByUUID(ctx, uuidStr)
	if err != nil {
		return nil, NewBusinessError("ANNOUNCEMENT_LOOKUP_FAILED", "Failed to lookup announcement", err)
	}
	if announcement == nil {
		return nil, NewBusinessError("ANNOUNCEMENT_NOT_FOUND", "Announcement not found", ErrAnnouncementNotFound)
	}
	return announcement, nil
}

func (f *AnalyticsFlowImpl) buildOverview(ctx context.Context, announcement *models.Announcement) (dto.AnnouncementOverview, error) {
	totalViews, err := f.targetRepo.SumViews(ctx, models.AnnouncementTargetFilter{AnnouncementID: &announcement.ID})
	if err != nil {
		return dto.AnnouncementOverview{}, NewBusinessError("VIEW_SUM_FAILED", "Failed to sum views", err)
	}
	totalClicks, err := f.clickRepo.Count(ctx, models.LinkClickFilter{AnnouncementID: &announcement.ID})
	if err != nil {
		return dto.AnnouncementOverview{}, NewBusinessError("CLICK_COUNT_FAILED", "Failed to count clicks", err)
	}
	buttonKind := models.TrackedLinkKindButton
	buttonClicks, err := f.clickRepo.Count(ctx, models.LinkClickFilter{AnnouncementID: &announcement.ID, Kind: &buttonKind})
	if err != nil {
		return dto.AnnouncementOverview{}, NewBusinessError("CLICK_COUNT_FAILED", "Failed to count button clicks", err)
	}

	ctr := 0.0
	if totalViews > 0 {
		ctr = float64(totalClicks) / float64(totalViews)
	}
	return dto.AnnouncementOverview{
		UUID:         announcement.UUID.String(),
		Title:        announcement.Title,
		Status:       announcement.Status.String(),
		SentAt:       formatTimePtr(announcement.SentAt),
		TotalViews:   totalViews,
		TotalClicks:  totalClicks,
		ButtonClicks: buttonClicks,
		CTR:          ctr,
	}, nil
}

func toBucketDTOs(rows []repository.BucketCount) []dto.BucketCountDTO {
	out := make([]dto.BucketCountDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.BucketCountDTO{Bucket: r.Bucket, Count: r.Count})
	}
	return out
}

func toClickItem(c *models.LinkClick) dto.ClickItem {
	item := dto.ClickItem{
		ID:         c.ID,
		Country:    c.Country,
		City:       c.City,
		DeviceType: c.DeviceType,
		Browser:    c.Browser,
		CreatedAt:  formatTime(c.CreatedAt),
	}
	if c.TrackedLink != nil {
		item.Code = c.TrackedLink.Code
		item.OriginalURL = c.TrackedLink.OriginalURL
		item.Kind = string(c.TrackedLink.Kind)
	}
	return item
}

func exportRecord(c *models.LinkClick) []string {
	code, original, kind := "", "", ""
	if c.TrackedLink != nil {
		code = c.TrackedLink.Code
		original = c.TrackedLink.OriginalURL
		kind = string(c.TrackedLink.Kind)
	}
	return []string{
		strconv.FormatUint(uint64(c.ID), 10),
		code,
		original,
		kind,
		utils.Deref(c.IP),
		utils.Deref(c.Country),
		utils.Deref(c.City),
		utils.Deref(c.DeviceType),
		utils.Deref(c.Browser),
		formatTime(c.CreatedAt),
	}
}
