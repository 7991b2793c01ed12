package platform

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEventType is returned when an envelope carries a type this bot
// does not understand.
var ErrUnknownEventType = errors.New("unknown event type")

// Event types as they appear on the wire.
const (
	TypeMessageReceived = "message_received"
	TypeMemberJoined    = "member_joined"
	TypeCommandInvoked  = "command_invoked"
)

// UserID identifies a platform user.
type UserID string

// GuildID identifies a guild (community server).
type GuildID string

// ChannelID identifies a channel replies can be sent to.
type ChannelID string

// RoleID identifies a guild role.
type RoleID string

// MemberRef identifies a member of a guild.
type MemberRef struct {
	Guild GuildID `json:"guildId"`
	User  UserID  `json:"userId"`
	Name  string  `json:"name,omitempty"`
}

// Event is an inbound platform event. The set of variants is closed.
type Event interface {
	Type() string
	isEvent()
}

// MessageReceived is emitted for every message posted in a guild channel.
type MessageReceived struct {
	Author  UserID    `json:"authorId"`
	Channel ChannelID `json:"channelId,omitempty"`
}

// MemberJoined is emitted when a user joins a guild.
type MemberJoined struct {
	Member MemberRef `json:"member"`
}

// CommandInvoked is emitted when a user runs a command.
type CommandInvoked struct {
	Name    string    `json:"name"`
	Args    []string  `json:"args,omitempty"`
	Author  UserID    `json:"authorId"`
	Channel ChannelID `json:"channelId"`
}

func (MessageReceived) Type() string { return TypeMessageReceived }
func (MemberJoined) Type() string    { return TypeMemberJoined }
func (CommandInvoked) Type() string  { return TypeCommandInvoked }

func (MessageReceived) isEvent() {}
func (MemberJoined) isEvent()    {}
func (CommandInvoked) isEvent()  {}

// Envelope is the wire form of an Event.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Wrap encodes an event into an envelope.
func Wrap(event Event) (*Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Envelope{Type: event.Type(), Payload: payload}, nil
}

// Decode returns the event carried by the envelope.
func (e *Envelope) Decode() (Event, error) {
	switch e.Type {
	case TypeMessageReceived:
		return decodePayload[MessageReceived](e.Payload)
	case TypeMemberJoined:
		return decodePayload[MemberJoined](e.Payload)
	case TypeCommandInvoked:
		return decodePayload[CommandInvoked](e.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
}

func decodePayload[T Event](payload json.RawMessage) (Event, error) {
	var event T
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", event.Type(), err)
	}

	return event, nil
}
