// Package testing provides test utilities and database setup for testing the announcement dashboard
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestStaff creates a staff account with password "TestPass123!"
func (tf *TestFixtures) CreateTestStaff(role string) (*models.Staff, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	staff := &models.Staff{
		Username:     fmt.Sprintf("staff_%d", rand.Intn(10000000)),
		PasswordHash: string(hashedPassword),
		Role:         role,
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(staff).Error; err != nil {
		return nil, fmt.Errorf("failed to create test staff: %w", err)
	}

	return staff, nil
}

// CreateTestChannel creates an active channel with a random chat ID
func (tf *TestFixtures) CreateTestChannel(title string) (*models.Channel, error) {
	username := fmt.Sprintf("channel_%d", rand.Intn(10000000))
	channel := &models.Channel{
		ChatID:      -int64(1000000000000 + rand.Intn(1000000000)),
		Title:       title,
		Username:    &username,
		MemberCount: 100 + rand.Intn(10000),
		IsActive:    utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(channel).Error; err != nil {
		return nil, fmt.Errorf("failed to create test channel: %w", err)
	}

	return channel, nil
}

// CreateTestAnnouncement creates a draft announcement with one target per channel
func (tf *TestFixtures) CreateTestAnnouncement(channels []*models.Channel) (*models.Announcement, error) {
	announcement := &models.Announcement{
		UUID:    uuid.New(),
		Title:   "Test announcement",
		Content: "Check out https://example.com/landing for details",
		Buttons: models.AnnouncementButtons{
			{Text: "Open", URL: "https://example.com/button"},
		},
		Status: models.AnnouncementStatusDraft,
	}

	if err := tf.DB.DB.Create(announcement).Error; err != nil {
		return nil, fmt.Errorf("failed to create test announcement: %w", err)
	}

	for _, ch := range channels {
		target := &models.AnnouncementTarget{
			AnnouncementID: announcement.ID,
			ChannelID:      ch.ID,
		}
		if err := tf.DB.DB.Create(target).Error; err != nil {
			return nil, fmt.Errorf("failed to create test target: %w", err)
		}
	}

	return announcement, nil
}

// CreateTestTrackedLink mints a tracked link for an announcement
func (tf *TestFixtures) CreateTestTrackedLink(announcementID uint, kind models.TrackedLinkKind) (*models.TrackedLink, error) {
	code, err := utils.GenerateShortCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate short code: %w", err)
	}

	link := &models.TrackedLink{
		Code:           code,
		AnnouncementID: announcementID,
		OriginalURL:    fmt.Sprintf("https://example.com/page-%d", rand.Intn(10000)),
		Kind:           kind,
		UTMSource:      "telegram",
		UTMMedium:      "announcement",
		UTMCampaign:    "Test announcement",
	}

	if err := tf.DB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create test tracked link: %w", err)
	}

	return link, nil
}

// CreateTestClick records a click on a tracked link
func (tf *TestFixtures) CreateTestClick(link *models.TrackedLink) (*models.LinkClick, error) {
	click := &models.LinkClick{
		TrackedLinkID: link.ID,
		IP:            utils.ToPtr("203.0.113.7"),
		UserAgent:     utils.ToPtr("Mozilla/5.0 (test)"),
		Country:       utils.ToPtr("Iran"),
		City:          utils.ToPtr("Tehran"),
		DeviceType:    utils.ToPtr("mobile"),
		Browser:       utils.ToPtr("Telegram"),
	}

	if err := tf.DB.DB.Create(click).Error; err != nil {
		return nil, fmt.Errorf("failed to create test click: %w", err)
	}

	return click, nil
}

// CreateTestTicket creates a ticket with SLA deadlines relative to now
func (tf *TestFixtures) CreateTestTicket(priority models.TicketPriority) (*models.Ticket, error) {
	now := utils.UTCNow()
	ticket := &models.Ticket{
		UUID:             uuid.New(),
		TelegramUserID:   int64(100000 + rand.Intn(1000000)),
		Subject:          "Test ticket",
		Content:          "Something went wrong",
		Attachments:      []string{},
		Priority:         priority,
		Status:           models.TicketStatusNew,
		FirstResponseDue: now.Add(1 * time.Hour),
		ResolutionDue:    now.Add(24 * time.Hour),
	}

	if err := tf.DB.DB.Create(ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create test ticket: %w", err)
	}

	return ticket, nil
}
