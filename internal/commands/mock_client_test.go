package commands_test

import (
	"context"
	"sync"

	"github.com/serroba/guildbot/internal/platform"
)

type reply struct {
	channel platform.ChannelID
	text    string
}

type mockClient struct {
	mu       sync.Mutex
	replies  []reply
	replyErr error
}

func (m *mockClient) AssignRole(_ context.Context, _ platform.MemberRef, _ platform.RoleID) error {
	return nil
}

func (m *mockClient) SendReply(_ context.Context, channel platform.ChannelID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.replies = append(m.replies, reply{channel: channel, text: text})

	return m.replyErr
}

type mockStopper struct {
	mu        sync.Mutex
	requested int
}

func (m *mockStopper) RequestShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requested++
}
