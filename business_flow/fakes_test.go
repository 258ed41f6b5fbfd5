package businessflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arazmand/jarchi/app/services"
	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/repository"
)

// Fake repositories for flow tests. Embedding the interface satisfies the
// methods a test never calls; calling one of those panics, which is the
// failure we want.

type fakeAnnouncementRepo struct {
	repository.AnnouncementRepository
	announcements map[string]*models.Announcement // keyed by UUID string
	claimResult   bool
	claimErr      error
	claimCalls    int
	outcomeStatus *models.AnnouncementStatus
	outcomeSentAt *time.Time
}

func newFakeAnnouncementRepo() *fakeAnnouncementRepo {
	return &fakeAnnouncementRepo{
		announcements: make(map[string]*models.Announcement),
		claimResult:   true,
	}
}

func (r *fakeAnnouncementRepo) ByUUID(ctx context.Context, uuidStr string) (*models.Announcement, error) {
	return r.announcements[uuidStr], nil
}

func (r *fakeAnnouncementRepo) ClaimForSending(ctx context.Context, announcementID uint) (bool, error) {
	r.claimCalls++
	return r.claimResult, r.claimErr
}

func (r *fakeAnnouncementRepo) UpdateSendOutcome(ctx context.Context, announcementID uint, status models.AnnouncementStatus, sentAt time.Time) error {
	r.outcomeStatus = &status
	r.outcomeSentAt = &sentAt
	return nil
}

type fakeTargetRepo struct {
	repository.AnnouncementTargetRepository
	targets   []*models.AnnouncementTarget
	delivered map[uint]int64  // target ID -> message ID
	failed    map[uint]string // target ID -> reason
}

func newFakeTargetRepo(targets ...*models.AnnouncementTarget) *fakeTargetRepo {
	return &fakeTargetRepo{
		targets:   targets,
		delivered: make(map[uint]int64),
		failed:    make(map[uint]string),
	}
}

func (r *fakeTargetRepo) ListByAnnouncement(ctx context.Context, announcementID uint) ([]*models.AnnouncementTarget, error) {
	return r.targets, nil
}

func (r *fakeTargetRepo) MarkDelivered(ctx context.Context, targetID uint, messageID int64, sentAt time.Time) error {
	r.delivered[targetID] = messageID
	return nil
}

func (r *fakeTargetRepo) MarkFailed(ctx context.Context, targetID uint, reason string) error {
	r.failed[targetID] = reason
	return nil
}

type fakeLinkRepo struct {
	repository.TrackedLinkRepository
	saved       []*models.TrackedLink
	saveErrs    []error // consumed one per Save call, nil slice means all succeed
	linksByCode map[string]*models.TrackedLink
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{linksByCode: make(map[string]*models.TrackedLink)}
}

func (r *fakeLinkRepo) Save(ctx context.Context, link *models.TrackedLink) error {
	if len(r.saveErrs) > 0 {
		err := r.saveErrs[0]
		r.saveErrs = r.saveErrs[1:]
		if err != nil {
			return err
		}
	}
	link.ID = uint(len(r.saved) + 1)
	r.saved = append(r.saved, link)
	r.linksByCode[link.Code] = link
	return nil
}

func (r *fakeLinkRepo) ByCode(ctx context.Context, code string) (*models.TrackedLink, error) {
	return r.linksByCode[code], nil
}

type fakeTicketRepo struct {
	repository.TicketRepository
	tickets map[string]*models.Ticket // keyed by UUID string
	saved   []*models.Ticket
	updated []*models.Ticket
	saveErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*models.Ticket)}
}

func (r *fakeTicketRepo) Save(ctx context.Context, ticket *models.Ticket) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	ticket.ID = uint(len(r.saved) + 1)
	r.saved = append(r.saved, ticket)
	return nil
}

func (r *fakeTicketRepo) ByUUID(ctx context.Context, uuidStr string) (*models.Ticket, error) {
	return r.tickets[uuidStr], nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *models.Ticket) error {
	r.updated = append(r.updated, ticket)
	return nil
}

// fakeShortLinkFlow mints deterministic codes so rewritten content is assertable
type fakeShortLinkFlow struct {
	nextCode int
	minted   []mintedLink
	mintErr  error
}

type mintedLink struct {
	originalURL string
	kind        models.TrackedLinkKind
}

func (f *fakeShortLinkFlow) Mint(ctx context.Context, announcement *models.Announcement, originalURL string, kind models.TrackedLinkKind) (*models.TrackedLink, error) {
	if f.mintErr != nil {
		return nil, f.mintErr
	}
	f.nextCode++
	f.minted = append(f.minted, mintedLink{originalURL: originalURL, kind: kind})
	return &models.TrackedLink{
		Code:        fmt.Sprintf("code%d", f.nextCode),
		OriginalURL: originalURL,
		Kind:        kind,
	}, nil
}

func (f *fakeShortLinkFlow) Resolve(ctx context.Context, code string) (*models.TrackedLink, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeShortLinkFlow) RedirectURL(link *models.TrackedLink) string {
	return link.OriginalURL
}

// fakeRewriter returns fixed content and buttons for dispatch tests
type fakeRewriter struct {
	content string
	buttons []services.InlineButton
	err     error
}

func (f *fakeRewriter) Rewrite(ctx context.Context, announcement *models.Announcement) (string, []services.InlineButton, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return f.content, f.buttons, nil
}
