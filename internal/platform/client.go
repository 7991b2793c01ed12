package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/guildbot/internal/messaging"
)

// ErrPlatform wraps every failure reported by a platform client.
var ErrPlatform = errors.New("platform error")

// Outbound action topics consumed by the gateway bridge.
const (
	TopicEvents     = "platform.events"
	TopicRoleAssign = "platform.role.assign"
	TopicReplySend  = "platform.reply.send"
)

// Client is the capability the bot uses to act on the platform.
type Client interface {
	AssignRole(ctx context.Context, member MemberRef, role RoleID) error
	SendReply(ctx context.Context, channel ChannelID, text string) error
}

// RoleAssignment asks the gateway bridge to grant a role.
type RoleAssignment struct {
	Guild       GuildID   `json:"guildId"`
	User        UserID    `json:"userId"`
	Role        RoleID    `json:"roleId"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Reply asks the gateway bridge to post a message.
type Reply struct {
	Channel     ChannelID `json:"channelId"`
	Text        string    `json:"text"`
	RequestedAt time.Time `json:"requestedAt"`
}

// BusClient implements Client by publishing actions to the message bus.
// Delivery to the platform is the bridge's job.
type BusClient struct {
	assignRole messaging.Publish[RoleAssignment]
	sendReply  messaging.Publish[Reply]
}

// NewBusClient creates a new bus-backed platform client.
func NewBusClient(assignRole messaging.Publish[RoleAssignment], sendReply messaging.Publish[Reply]) *BusClient {
	return &BusClient{
		assignRole: assignRole,
		sendReply:  sendReply,
	}
}

func (c *BusClient) AssignRole(ctx context.Context, member MemberRef, role RoleID) error {
	err := c.assignRole(ctx, &RoleAssignment{
		Guild:       member.Guild,
		User:        member.User,
		Role:        role,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: assign role %s to %s: %w", ErrPlatform, role, member.User, err)
	}

	return nil
}

func (c *BusClient) SendReply(ctx context.Context, channel ChannelID, text string) error {
	err := c.sendReply(ctx, &Reply{
		Channel:     channel,
		Text:        text,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: reply to %s: %w", ErrPlatform, channel, err)
	}

	return nil
}

// Compile-time check.
var _ Client = (*BusClient)(nil)
