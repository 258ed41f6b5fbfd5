package businessflow

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/repository"
	"github.com/arazmand/jarchi/utils"
)

// mintRetries bounds collision retries when generating a short code. With an
// 8-char base-62 code the collision odds are negligible; hitting the bound
// means something is wrong with the random source, not the keyspace.
const mintRetries = 3

// ShortLinkFlow mints and resolves tracked short links
type ShortLinkFlow interface {
	Mint(ctx context.Context, announcement *models.Announcement, originalURL string, kind models.TrackedLinkKind) (*models.TrackedLink, error)
	Resolve(ctx context.Context, code string) (*models.TrackedLink, error)
	RedirectURL(link *models.TrackedLink) string
}

// ShortLinkFlowImpl implements the short link business flow
type ShortLinkFlowImpl struct {
	linkRepo repository.TrackedLinkRepository
}

// NewShortLinkFlow creates a new short link flow instance
func NewShortLinkFlow(linkRepo repository.TrackedLinkRepository) ShortLinkFlow {
	return &ShortLinkFlowImpl{linkRepo: linkRepo}
}

// Mint creates a tracked link for a destination URL within an announcement.
// Codes are random, so the insert can collide with an existing row; the
// unique index rejects the loser and we retry with a fresh code.
func (f *ShortLinkFlowImpl) Mint(ctx context.Context, announcement *models.Announcement, originalURL string, kind models.TrackedLinkKind) (*models.TrackedLink, error) {
	originalURL = strings.TrimSpace(originalURL)
	parsed, err := url.Parse(originalURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, NewBusinessError("INVALID_TRACKED_TARGET", "Tracked target URL is invalid", ErrInvalidTrackedTarget)
	}

	// The announcement title is the campaign name analytics tools see in
	// utm_campaign. Untitled announcements fall back to the UUID so links
	// are still attributable.
	campaign := strings.TrimSpace(announcement.Title)
	if campaign == "" {
		campaign = announcement.UUID.String()
	}

	var lastErr error
	for attempt := 0; attempt < mintRetries; attempt++ {
		code, err := utils.GenerateShortCode()
		if err != nil {
			return nil, NewBusinessError("CODE_GENERATION_FAILED", "Failed to generate short code", err)
		}

		link := &models.TrackedLink{
			Code:           code,
			AnnouncementID: announcement.ID,
			OriginalURL:    originalURL,
			Kind:           kind,
			UTMSource:      utils.DefaultUTMSource,
			UTMMedium:      utils.DefaultUTMMedium,
			UTMCampaign:    campaign,
			CreatedAt:      utils.UTCNow(),
		}
		if err := f.linkRepo.Save(ctx, link); err != nil {
			if isUniqueViolation(err) {
				lastErr = err
				continue
			}
			return nil, NewBusinessError("LINK_SAVE_FAILED", "Failed to save tracked link", err)
		}
		return link, nil
	}
	return nil, NewBusinessError("SHORT_CODE_EXHAUSTED", "Could not mint a unique short code", errors.Join(ErrShortCodeExhausted, lastErr))
}

// Resolve looks up a tracked link by its short code
func (f *ShortLinkFlowImpl) Resolve(ctx context.Context, code string) (*models.TrackedLink, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, NewBusinessError("LINK_NOT_FOUND", "Tracked link not found", ErrTrackedLinkNotFound)
	}
	link, err := f.linkRepo.ByCode(ctx, code)
	if err != nil {
		return nil, NewBusinessError("LINK_LOOKUP_FAILED", "Failed to lookup tracked link", err)
	}
	if link == nil {
		return nil, NewBusinessError("LINK_NOT_FOUND", "Tracked link not found", ErrTrackedLinkNotFound)
	}
	return link, nil
}

// RedirectURL builds the destination URL with the link's UTM parameters merged
// into the query string. Parameters already present on the destination win;
// marketers sometimes pre-tag their URLs and we must not double-tag them.
func (f *ShortLinkFlowImpl) RedirectURL(link *models.TrackedLink) string {
	parsed, err := url.Parse(link.OriginalURL)
	if err != nil {
		return link.OriginalURL
	}

	query := parsed.Query()
	setIfAbsent(query, "utm_source", link.UTMSource)
	setIfAbsent(query, "utm_medium", link.UTMMedium)
	setIfAbsent(query, "utm_campaign", link.UTMCampaign)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func setIfAbsent(query url.Values, key, value string) {
	if value == "" {
		return
	}
	if query.Get(key) == "" {
		query.Set(key, value)
	}
}

// isUniqueViolation detects a Postgres unique index rejection without pulling
// in driver-specific error types
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "SQLSTATE 23505")
}
