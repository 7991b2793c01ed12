package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/serroba/guildbot/internal/commands"
	"github.com/serroba/guildbot/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuit(t *testing.T) {
	owners := []platform.UserID{"owner"}

	t.Run("owner stops the bot", func(t *testing.T) {
		client := &mockClient{}
		stopper := &mockStopper{}
		quit := commands.Quit(client, stopper, owners)

		err := quit(context.Background(), platform.CommandInvoked{Name: "quit", Author: "owner", Channel: "c1"})

		require.NoError(t, err)
		assert.Equal(t, 1, stopper.requested)
		require.Len(t, client.replies, 1)
		assert.Equal(t, commands.QuitReply, client.replies[0].text)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		client := &mockClient{}
		stopper := &mockStopper{}
		quit := commands.Quit(client, stopper, owners)

		err := quit(context.Background(), platform.CommandInvoked{Name: "quit", Author: "someone"})

		assert.ErrorIs(t, err, commands.ErrNotOwner)
		assert.Zero(t, stopper.requested)
		assert.Empty(t, client.replies)
	})

	t.Run("reply failure still stops", func(t *testing.T) {
		client := &mockClient{replyErr: errors.New("bus down")}
		stopper := &mockStopper{}
		quit := commands.Quit(client, stopper, owners)

		err := quit(context.Background(), platform.CommandInvoked{Name: "quit", Author: "owner"})

		assert.Error(t, err)
		assert.Equal(t, 1, stopper.requested)
	})
}

func TestStopperFunc(t *testing.T) {
	calls := 0
	quit := commands.Quit(&mockClient{}, commands.StopperFunc(func() { calls++ }), []platform.UserID{"owner"})

	require.NoError(t, quit(context.Background(), platform.CommandInvoked{Name: "quit", Author: "owner"}))

	assert.Equal(t, 1, calls)
}
