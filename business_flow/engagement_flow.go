package businessflow

import (
	"context"
	"log"

	"github.com/arazmand/jarchi/app/services"
	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/repository"
	"github.com/arazmand/jarchi/utils"
	"gorm.io/gorm"
)

// EngagementFlow records clicks and pixel views. Recording is best effort on
// the hot path: a click must always resolve to a redirect and a pixel must
// always render, whatever happens to the bookkeeping underneath.
type EngagementFlow interface {
	RecordClick(ctx context.Context, code string, metadata *ClientMetadata) (redirectURL string, err error)
	RecordPixelView(ctx context.Context, announcementID, channelID uint, metadata *ClientMetadata)
}

// EngagementFlowImpl implements the engagement business flow
type EngagementFlowImpl struct {
	shortLinkFlow ShortLinkFlow
	clickRepo     repository.LinkClickRepository
	pixelRepo     repository.PixelViewRepository
	targetRepo    repository.AnnouncementTargetRepository
	geoService    services.GeolocationService
	db            *gorm.DB
}

// NewEngagementFlow creates a new engagement flow instance
func NewEngagementFlow(
	shortLinkFlow ShortLinkFlow,
	clickRepo repository.LinkClickRepository,
	pixelRepo repository.PixelViewRepository,
	targetRepo repository.AnnouncementTargetRepository,
	geoService services.GeolocationService,
	db *gorm.DB,
) EngagementFlow {
	return &EngagementFlowImpl{
		shortLinkFlow: shortLinkFlow,
		clickRepo:     clickRepo,
		pixelRepo:     pixelRepo,
		targetRepo:    targetRepo,
		geoService:    geoService,
		db:            db,
	}
}

// RecordClick resolves a short code, appends a click event, counts the click
// as an implicit view, and returns the destination URL. Only an unknown code
// is an error; enrichment and bookkeeping failures still redirect the visitor.
func (f *EngagementFlowImpl) RecordClick(ctx context.Context, code string, metadata *ClientMetadata) (string, error) {
	link, err := f.shortLinkFlow.Resolve(ctx, code)
	if err != nil {
		return "", err
	}

	enriched := f.enrich(ctx, metadata)

	click := &models.LinkClick{
		TrackedLinkID: link.ID,
		IP:            enriched.ip,
		UserAgent:     enriched.userAgent,
		Referer:       enriched.referer,
		Country:       enriched.country,
		City:          enriched.city,
		DeviceType:    enriched.deviceType,
		Browser:       enriched.browser,
		CreatedAt:     utils.UTCNow(),
	}
	if err := f.clickRepo.Save(ctx, click); err != nil {
		log.Printf("engagement: failed to record click for code %s: %v", code, err)
	}

	// A click proves the message was seen, so it doubles as a view on one of
	// the announcement's targets.
	f.recordView(ctx, link.AnnouncementID, 0, enriched)

	return f.shortLinkFlow.RedirectURL(link), nil
}

// RecordPixelView records a deduplicated view from a 1x1 pixel load. It never
// returns an error; the pixel response must render no matter what.
func (f *EngagementFlowImpl) RecordPixelView(ctx context.Context, announcementID, channelID uint, metadata *ClientMetadata) {
	enriched := f.enrich(ctx, metadata)
	f.recordView(ctx, announcementID, channelID, enriched)
}

type enrichedRequest struct {
	fingerprint string
	ip          *string
	userAgent   *string
	referer     *string
	country     *string
	city        *string
	deviceType  *string
	browser     *string
}

func (f *EngagementFlowImpl) enrich(ctx context.Context, metadata *ClientMetadata) enrichedRequest {
	e := enrichedRequest{
		fingerprint: utils.ViewerFingerprint(metadata.IPAddress, metadata.UserAgent),
	}
	if metadata.IPAddress != "" {
		e.ip = utils.ToPtr(metadata.IPAddress)
	}
	if metadata.UserAgent != "" {
		e.userAgent = utils.ToPtr(metadata.UserAgent)
	}
	if metadata.Referer != "" {
		e.referer = utils.ToPtr(metadata.Referer)
	}

	loc := f.geoService.Geolocate(ctx, metadata.IPAddress)
	e.country = utils.ToPtr(loc.Country)
	e.city = utils.ToPtr(loc.City)

	info := services.ClassifyUserAgent(metadata.UserAgent)
	e.deviceType = utils.ToPtr(info.DeviceType)
	e.browser = utils.ToPtr(info.Browser)
	return e
}

// recordView inserts a deduplicated view row and bumps the target counter in
// one transaction. The unique index decides the race; losing it means this
// viewer was already counted and the whole unit becomes a no-op. channelID 0
// means "any target": the view is attributed to the announcement's first
// target, which happens on the click path where no channel is known.
func (f *EngagementFlowImpl) recordView(ctx context.Context, announcementID, channelID uint, enriched enrichedRequest) {
	if channelID == 0 {
		targets, err := f.targetRepo.ListByAnnouncement(ctx, announcementID)
		if err != nil || len(targets) == 0 {
			return
		}
		channelID = targets[0].ChannelID
	} else {
		exists, err := f.targetRepo.Exists(ctx, models.AnnouncementTargetFilter{
			AnnouncementID: &announcementID,
			ChannelID:      &channelID,
		})
		if err != nil || !exists {
			return
		}
	}

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		view := &models.PixelView{
			AnnouncementID: announcementID,
			ChannelID:      channelID,
			Fingerprint:    enriched.fingerprint,
			IP:             enriched.ip,
			UserAgent:      enriched.userAgent,
			Country:        enriched.country,
			City:           enriched.city,
			DeviceType:     enriched.deviceType,
			Browser:        enriched.browser,
			CreatedAt:      utils.UTCNow(),
		}
		inserted, err := f.pixelRepo.InsertIfAbsent(txCtx, view)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		return f.targetRepo.IncrementViews(txCtx, announcementID, channelID)
	})
	if err != nil {
		log.Printf("engagement: failed to record view for announcement %d channel %d: %v", announcementID, channelID, err)
	}
}
