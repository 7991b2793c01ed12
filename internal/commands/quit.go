package commands

import (
	"context"
	"fmt"

	"github.com/serroba/guildbot/internal/platform"
)

// QuitReply is sent before the bot stops.
const QuitReply = "Shutting down!"

// Stopper requests a graceful shutdown without waiting for it.
type Stopper interface {
	RequestShutdown()
}

// StopperFunc adapts a function to Stopper.
type StopperFunc func()

func (f StopperFunc) RequestShutdown() {
	f()
}

// Quit returns an owner-only handler that replies and then requests shutdown.
// Shutdown drains in-flight handlers, this one included, so it must only be
// requested, never awaited, from here.
func Quit(client platform.Client, stopper Stopper, owners []platform.UserID) Handler {
	allowed := make(map[platform.UserID]struct{}, len(owners))
	for _, o := range owners {
		allowed[o] = struct{}{}
	}

	return func(ctx context.Context, cmd platform.CommandInvoked) error {
		if _, ok := allowed[cmd.Author]; !ok {
			return fmt.Errorf("%w: %s", ErrNotOwner, cmd.Author)
		}

		// A failed reply must not keep an owner from stopping the bot.
		err := client.SendReply(ctx, cmd.Channel, QuitReply)

		stopper.RequestShutdown()

		return err
	}
}
