// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/arazmand/jarchi/app/dto"
	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/utils"
)

const RequestIDKey = "X-Request-ID"

// Listing page size bounds shared by all flows
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ClientMetadata holds all client-related information for audit logging and enrichment
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Referer   string `json:"referer,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetReferer sets the Referer header value
func (cm *ClientMetadata) SetReferer(referer string) {
	cm.Referer = referer
}

// normalizePaging clamps page and page size to their allowed ranges and returns
// limit and offset for repository queries
func normalizePaging(page, pageSize uint) (limit, offset int, err error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		return 0, 0, ErrInvalidPageSize
	}
	return int(pageSize), int((page - 1) * pageSize), nil
}

// validateDateRange rejects inverted start/end bounds
func validateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return ErrStartDateAfterEndDate
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return utils.ToPtr(formatTime(*t))
}

// ToChannelItem converts a channel model to its listing DTO
func ToChannelItem(channel *models.Channel) dto.ChannelItem {
	return dto.ChannelItem{
		ID:          channel.ID,
		ChatID:      channel.ChatID,
		Title:       channel.Title,
		Username:    channel.Username,
		MemberCount: channel.MemberCount,
		IsActive:    utils.IsTrue(channel.IsActive),
		CreatedAt:   formatTime(channel.CreatedAt),
	}
}

// ToAnnouncementItem converts an announcement model to its listing DTO.
// Targets are included only when preloaded.
func ToAnnouncementItem(announcement *models.Announcement) dto.AnnouncementItem {
	item := dto.AnnouncementItem{
		ID:          announcement.ID,
		UUID:        announcement.UUID.String(),
		Title:       announcement.Title,
		Content:     announcement.Content,
		PhotoURL:    announcement.PhotoURL,
		Status:      announcement.Status.String(),
		ScheduledAt: formatTimePtr(announcement.ScheduledAt),
		SentAt:      formatTimePtr(announcement.SentAt),
		CreatedAt:   formatTime(announcement.CreatedAt),
	}
	for _, b := range announcement.Buttons {
		item.Buttons = append(item.Buttons, dto.AnnouncementButtonDTO{Text: b.Text, URL: b.URL})
	}
	for i := range announcement.Targets {
		item.Targets = append(item.Targets, ToAnnouncementTargetItem(&announcement.Targets[i]))
	}
	return item
}

// ToAnnouncementTargetItem converts a target model to its DTO
func ToAnnouncementTargetItem(target *models.AnnouncementTarget) dto.AnnouncementTargetItem {
	item := dto.AnnouncementTargetItem{
		ChannelID: target.ChannelID,
		MessageID: target.MessageID,
		Views:     target.Views,
		SentAt:    formatTimePtr(target.SentAt),
		LastError: target.LastError,
	}
	if target.Channel != nil {
		item.ChannelTitle = target.Channel.Title
	}
	return item
}

// ToStaffDTO converts a staff model to its response DTO
func ToStaffDTO(staff *models.Staff) dto.StaffDTO {
	return dto.StaffDTO{
		ID:       staff.ID,
		Username: staff.Username,
		Role:     staff.Role,
	}
}
