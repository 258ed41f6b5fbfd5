package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/arazmand/jarchi/app/dto"
	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadlineStatus(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	due := base.Add(8 * time.Hour)

	tests := []struct {
		name        string
		now         time.Time
		completedAt *time.Time
		expected    string
	}{
		{
			name:     "fresh deadline is on track",
			now:      base.Add(1 * time.Hour),
			expected: SLAOnTrack,
		},
		{
			name:     "exactly at the at-risk boundary is still on track",
			now:      base.Add(6 * time.Hour), // 2h of 8h left, exactly 25%
			expected: SLAOnTrack,
		},
		{
			name:     "under a quarter of the window left is at risk",
			now:      base.Add(7 * time.Hour),
			expected: SLAAtRisk,
		},
		{
			name:     "past due without completion is breached",
			now:      due.Add(1 * time.Minute),
			expected: SLABreached,
		},
		{
			name:        "completed before due is met",
			now:         due.Add(10 * time.Hour),
			completedAt: utils.ToPtr(base.Add(2 * time.Hour)),
			expected:    SLAMet,
		},
		{
			name:        "completed exactly at due is met",
			now:         due.Add(10 * time.Hour),
			completedAt: utils.ToPtr(due),
			expected:    SLAMet,
		},
		{
			name:        "completed after due stays breached",
			now:         due.Add(10 * time.Hour),
			completedAt: utils.ToPtr(due.Add(1 * time.Minute)),
			expected:    SLABreached,
		},
		{
			name:        "late completion is breached even before due has passed for the clock",
			now:         base.Add(1 * time.Hour),
			completedAt: utils.ToPtr(due.Add(time.Hour)),
			expected:    SLABreached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := DeadlineStatus(tt.now, base, due, tt.completedAt)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestCreateTicket(t *testing.T) {
	tests := []struct {
		name               string
		priority           *string
		expectError        bool
		expectedPriority   models.TicketPriority
		expectedResolution time.Duration
	}{
		{
			name:               "default priority is medium",
			priority:           nil,
			expectedPriority:   models.TicketPriorityMedium,
			expectedResolution: 24 * time.Hour,
		},
		{
			name:               "urgent gets a two hour resolution window",
			priority:           utils.ToPtr("urgent"),
			expectedPriority:   models.TicketPriorityUrgent,
			expectedResolution: 2 * time.Hour,
		},
		{
			name:               "low gets a two day resolution window",
			priority:           utils.ToPtr("low"),
			expectedPriority:   models.TicketPriorityLow,
			expectedResolution: 48 * time.Hour,
		},
		{
			name:        "unknown priority is rejected",
			priority:    utils.ToPtr("critical"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeTicketRepo()
			flow := NewTicketFlow(repo)

			resp, err := flow.CreateTicket(context.Background(), &dto.CreateTicketRequest{
				TelegramUserID: 12345,
				Subject:        "Payment failed",
				Content:        "My card was declined twice",
				Priority:       tt.priority,
			}, NewClientMetadata("127.0.0.1", "test"))

			if tt.expectError {
				require.Error(t, err)
				assert.True(t, IsInvalidPriority(err))
				assert.Empty(t, repo.saved)
				return
			}

			require.NoError(t, err)
			require.Len(t, repo.saved, 1)

			ticket := repo.saved[0]
			assert.Equal(t, tt.expectedPriority, ticket.Priority)
			assert.Equal(t, models.TicketStatusNew, ticket.Status)
			assert.Equal(t, time.Hour, ticket.FirstResponseDue.Sub(ticket.CreatedAt))
			assert.Equal(t, tt.expectedResolution, ticket.ResolutionDue.Sub(ticket.CreatedAt))

			assert.Equal(t, string(tt.expectedPriority), resp.Ticket.Priority)
			assert.Equal(t, SLAOnTrack, resp.Ticket.SLA.FirstResponseStatus)
			assert.Equal(t, SLAOnTrack, resp.Ticket.SLA.ResolutionStatus)
		})
	}
}

func TestUpdateTicket(t *testing.T) {
	newTicket := func() (*fakeTicketRepo, *models.Ticket) {
		repo := newFakeTicketRepo()
		now := utils.UTCNow()
		ticket := &models.Ticket{
			ID:               1,
			UUID:             uuid.New(),
			TelegramUserID:   12345,
			Subject:          "Payment failed",
			Content:          "My card was declined twice",
			Priority:         models.TicketPriorityMedium,
			Status:           models.TicketStatusNew,
			FirstResponseDue: now.Add(time.Hour),
			ResolutionDue:    now.Add(24 * time.Hour),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		repo.tickets[ticket.UUID.String()] = ticket
		return repo, ticket
	}

	t.Run("empty update is rejected", func(t *testing.T) {
		repo, ticket := newTicket()
		flow := NewTicketFlow(repo)

		_, err := flow.UpdateTicket(context.Background(), ticket.UUID.String(), &dto.UpdateTicketRequest{}, nil)
		require.Error(t, err)
		assert.True(t, IsTicketUpdateRequired(err))
	})

	t.Run("unknown ticket", func(t *testing.T) {
		repo, _ := newTicket()
		flow := NewTicketFlow(repo)

		_, err := flow.UpdateTicket(context.Background(), uuid.NewString(), &dto.UpdateTicketRequest{
			Status: utils.ToPtr("in_progress"),
		}, nil)
		require.Error(t, err)
		assert.True(t, IsTicketNotFound(err))
	})

	t.Run("first status transition records first response", func(t *testing.T) {
		repo, ticket := newTicket()
		flow := NewTicketFlow(repo)

		resp, err := flow.UpdateTicket(context.Background(), ticket.UUID.String(), &dto.UpdateTicketRequest{
			Status: utils.ToPtr("in_progress"),
		}, nil)
		require.NoError(t, err)

		assert.Equal(t, models.TicketStatusInProgress, ticket.Status)
		require.NotNil(t, ticket.FirstResponseAt)
		assert.Equal(t, SLAMet, resp.Ticket.SLA.FirstResponseStatus)

		// A later transition must not overwrite the first response time
		firstResponse := *ticket.FirstResponseAt
		_, err = flow.UpdateTicket(context.Background(), ticket.UUID.String(), &dto.UpdateTicketRequest{
			Status: utils.ToPtr("waiting_customer"),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, firstResponse, *ticket.FirstResponseAt)
	})

	t.Run("resolving stamps resolved_at once", func(t *testing.T) {
		repo, ticket := newTicket()
		flow := NewTicketFlow(repo)

		_, err := flow.UpdateTicket(context.Background(), ticket.UUID.String(), &dto.UpdateTicketRequest{
			Status: utils.ToPtr("resolved"),
		}, nil)
		require.NoError(t, err)
		require.NotNil(t, ticket.ResolvedAt)
		resolvedAt := *ticket.ResolvedAt

		_, err = flow.UpdateTicket(context.Background(), ticket.UUID.String(), &dto.UpdateTicketRequest{
			Status: utils.ToPtr("closed"),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, resolvedAt, *ticket.ResolvedAt)
		require.NotNil(t, ticket.ClosedAt)
	})

	t.Run("priority upgrade recomputes resolution deadline from creation", func(t *testing.T) {
		repo, ticket := newTicket()
		flow := NewTicketFlow(repo)

		_, err := flow.UpdateTicket(context.Background(), ticket.UUID.String(), &dto.UpdateTicketRequest{
			Priority: utils.ToPtr("urgent"),
		}, nil)
		require.NoError(t, err)

		assert.Equal(t, models.TicketPriorityUrgent, ticket.Priority)
		assert.Equal(t, ticket.CreatedAt.Add(2*time.Hour), ticket.ResolutionDue)
	})

	t.Run("assignee change alone is a valid update", func(t *testing.T) {
		repo, ticket := newTicket()
		flow := NewTicketFlow(repo)

		_, err := flow.UpdateTicket(context.Background(), ticket.UUID.String(), &dto.UpdateTicketRequest{
			AssigneeID: utils.ToPtr(uint(7)),
		}, nil)
		require.NoError(t, err)
		require.NotNil(t, ticket.AssigneeID)
		assert.Equal(t, uint(7), *ticket.AssigneeID)
		// Assignment alone is not a response to the customer
		assert.Nil(t, ticket.FirstResponseAt)
	})

	t.Run("first response endpoint stamps once", func(t *testing.T) {
		repo, ticket := newTicket()
		flow := NewTicketFlow(repo)

		resp, err := flow.MarkFirstResponse(context.Background(), ticket.UUID.String(), nil)
		require.NoError(t, err)
		require.NotNil(t, ticket.FirstResponseAt)
		assert.Equal(t, SLAMet, resp.Ticket.SLA.FirstResponseStatus)
		// Status is unchanged; responding is not the same as triaging
		assert.Equal(t, models.TicketStatusNew, ticket.Status)

		stamped := *ticket.FirstResponseAt
		_, err = flow.MarkFirstResponse(context.Background(), ticket.UUID.String(), nil)
		require.NoError(t, err)
		assert.Equal(t, stamped, *ticket.FirstResponseAt)
		assert.Len(t, repo.updated, 1)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		repo, ticket := newTicket()
		flow := NewTicketFlow(repo)

		_, err := flow.UpdateTicket(context.Background(), ticket.UUID.String(), &dto.UpdateTicketRequest{
			Status: utils.ToPtr("archived"),
		}, nil)
		require.Error(t, err)
		assert.True(t, IsInvalidTicketStatus(err))
		assert.Empty(t, repo.updated)
	})
}
