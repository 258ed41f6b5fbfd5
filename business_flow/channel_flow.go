package businessflow

import (
	"context"

	"github.com/arazmand/jarchi/app/dto"
	"github.com/arazmand/jarchi/app/services"
	"github.com/arazmand/jarchi/models"
	"github.com/arazmand/jarchi/repository"
	"github.com/arazmand/jarchi/utils"
)

// ChannelFlow manages the registered Telegram channels announcements broadcast to
type ChannelFlow interface {
	RegisterChannel(ctx context.Context, req *dto.RegisterChannelRequest, metadata *ClientMetadata) (*dto.RegisterChannelResponse, error)
	ListChannels(ctx context.Context, metadata *ClientMetadata) (*dto.ListChannelsResponse, error)
	RefreshMemberCounts(ctx context.Context) error
}

// ChannelFlowImpl implements the channel business flow
type ChannelFlowImpl struct {
	channelRepo    repository.ChannelRepository
	telegramClient services.TelegramClient
}

// NewChannelFlow creates a new channel flow instance
func NewChannelFlow(channelRepo repository.ChannelRepository, telegramClient services.TelegramClient) ChannelFlow {
	return &ChannelFlowImpl{
		channelRepo:    channelRepo,
		telegramClient: telegramClient,
	}
}

// RegisterChannel registers a Telegram channel as a broadcast target. The
// member count is fetched from Telegram on registration; a failed fetch is not
// fatal since the periodic refresh will fill it in.
func (f *ChannelFlowImpl) RegisterChannel(ctx context.Context, req *dto.RegisterChannelRequest, metadata *ClientMetadata) (*dto.RegisterChannelResponse, error) {
	existing, err := f.channelRepo.ByChatID(ctx, req.ChatID)
	if err != nil {
		return nil, NewBusinessError("CHANNEL_LOOKUP_FAILED", "Failed to lookup channel", err)
	}
	if existing != nil {
		return nil, NewBusinessError("CHANNEL_ALREADY_EXISTS", "Channel already registered", ErrChannelAlreadyExists)
	}

	channel := &models.Channel{
		ChatID:    req.ChatID,
		Title:     req.Title,
		Username:  req.Username,
		IsActive:  utils.ToPtr(true),
		CreatedAt: utils.UTCNow(),
		UpdatedAt: utils.UTCNow(),
	}
	if count, err := f.telegramClient.GetChatMemberCount(ctx, req.ChatID); err == nil {
		channel.MemberCount = count
	}

	if err := f.channelRepo.Save(ctx, channel); err != nil {
		return nil, NewBusinessError("CHANNEL_SAVE_FAILED", "Failed to save channel", err)
	}

	return &dto.RegisterChannelResponse{
		Message: "Channel registered successfully",
		Channel: ToChannelItem(channel),
	}, nil
}

// ListChannels returns all registered channels
func (f *ChannelFlowImpl) ListChannels(ctx context.Context, metadata *ClientMetadata) (*dto.ListChannelsResponse, error) {
	channels, err := f.channelRepo.ByFilter(ctx, models.ChannelFilter{}, "id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("CHANNEL_LIST_FAILED", "Failed to list channels", err)
	}

	items := make([]dto.ChannelItem, 0, len(channels))
	for _, c := range channels {
		items = append(items, ToChannelItem(c))
	}
	return &dto.ListChannelsResponse{
		Message:  "Channels retrieved successfully",
		Channels: items,
	}, nil
}

// RefreshMemberCounts updates the stored member count of every active channel
// from Telegram. Per-channel failures are skipped; the next refresh retries.
func (f *ChannelFlowImpl) RefreshMemberCounts(ctx context.Context) error {
	channels, err := f.channelRepo.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, channel := range channels {
		count, err := f.telegramClient.GetChatMemberCount(ctx, channel.ChatID)
		if err != nil {
			continue
		}
		if err := f.channelRepo.UpdateMemberCount(ctx, channel.ID, count); err != nil {
			return err
		}
	}
	return nil
}
