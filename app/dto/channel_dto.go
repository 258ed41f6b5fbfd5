package dto

// RegisterChannelRequest carries data to register a Telegram channel as a broadcast target
type RegisterChannelRequest struct {
	ChatID   int64   `json:"chat_id" validate:"required"`
	Title    string  `json:"title" validate:"required,min=1,max=255"`
	Username *string `json:"username,omitempty" validate:"omitempty,max=255"`
}

// ChannelItem represents a channel row in listings
type ChannelItem struct {
	ID          uint    `json:"id"`
	ChatID      int64   `json:"chat_id"`
	Title       string  `json:"title"`
	Username    *string `json:"username,omitempty"`
	MemberCount int     `json:"member_count"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at"`
}

// RegisterChannelResponse returns the registered channel
type RegisterChannelResponse struct {
	Message string      `json:"message"`
	Channel ChannelItem `json:"channel"`
}

// ListChannelsResponse returns all registered channels
type ListChannelsResponse struct {
	Message  string        `json:"message"`
	Channels []ChannelItem `json:"channels"`
}
