// Package businessflow contains the core business logic and use cases for the announcement pipeline
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Announcement errors
	ErrAnnouncementNotFound        = errors.New("announcement not found")
	ErrAnnouncementAlreadySent     = errors.New("announcement already sent")
	ErrAnnouncementTitleRequired   = errors.New("announcement title is required")
	ErrAnnouncementContentRequired = errors.New("announcement content is required")
	ErrAnnouncementUUIDRequired    = errors.New("announcement UUID is required")
	ErrScheduleTimeInPast          = errors.New("schedule time is in the past")
	ErrNoActiveTargets             = errors.New("announcement has no active target channels")

	// Channel errors
	ErrChannelNotFound      = errors.New("channel not found")
	ErrChannelAlreadyExists = errors.New("channel already registered")
	ErrChannelInactive      = errors.New("channel is inactive")

	// Tracking errors
	ErrTrackedLinkNotFound  = errors.New("tracked link not found")
	ErrShortCodeExhausted   = errors.New("could not mint a unique short code")
	ErrInvalidTrackedTarget = errors.New("tracked target URL is invalid")

	// Ticket errors
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrTicketUpdateRequired = errors.New("at least one field must be provided for update")
	ErrInvalidTicketStatus  = errors.New("invalid ticket status")
	ErrInvalidPriority      = errors.New("invalid ticket priority")

	// Auth errors
	ErrStaffNotFound     = errors.New("staff account not found")
	ErrStaffInactive     = errors.New("staff account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func IsAnnouncementNotFound(err error) bool {
	return errors.Is(err, ErrAnnouncementNotFound)
}

func IsAnnouncementAlreadySent(err error) bool {
	return errors.Is(err, ErrAnnouncementAlreadySent)
}

func IsScheduleTimeInPast(err error) bool {
	return errors.Is(err, ErrScheduleTimeInPast)
}

func IsNoActiveTargets(err error) bool {
	return errors.Is(err, ErrNoActiveTargets)
}

func IsChannelNotFound(err error) bool {
	return errors.Is(err, ErrChannelNotFound)
}

func IsChannelAlreadyExists(err error) bool {
	return errors.Is(err, ErrChannelAlreadyExists)
}

func IsTrackedLinkNotFound(err error) bool {
	return errors.Is(err, ErrTrackedLinkNotFound)
}

func IsShortCodeExhausted(err error) bool {
	return errors.Is(err, ErrShortCodeExhausted)
}

func IsTicketNotFound(err error) bool {
	return errors.Is(err, ErrTicketNotFound)
}

func IsTicketUpdateRequired(err error) bool {
	return errors.Is(err, ErrTicketUpdateRequired)
}

func IsInvalidTicketStatus(err error) bool {
	return errors.Is(err, ErrInvalidTicketStatus)
}

func IsInvalidPriority(err error) bool {
	return errors.Is(err, ErrInvalidPriority)
}

func IsStaffNotFound(err error) bool {
	return errors.Is(err, ErrStaffNotFound)
}

func IsStaffInactive(err error) bool {
	return errors.Is(err, ErrStaffInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}
