package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Handler processes a single event. Handlers are synchronous and easy to test.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer subscribes to a topic and processes messages with a typed handler.
//
// A message is acked as soon as its payload decodes, before the handler
// runs, and the handler then runs on its own goroutine. Subscribers such as
// Redis Streams hold the next message until the current one is acked.
// Delivery is at-most-once: handler failures and panics are logged, never
// redelivered. Payloads that do not decode are acked and dropped so they
// cannot block the stream.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	onDrop     func(err error)
	cancel     context.CancelFunc
	done       chan struct{}
	inflight   sync.WaitGroup
}

// NewConsumer creates a new generic consumer for a specific event type.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Topic returns the topic this consumer subscribes to.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// OnDrop registers a callback for payloads that fail to decode. Set it
// before Start.
func (c *Consumer[T]) OnDrop(fn func(err error)) {
	c.onDrop = fn
}

// Start begins consuming messages from the topic.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.cancel()
		close(c.done)

		return err
	}

	go c.consumeLoop(ctx, msgs)

	return nil
}

func (c *Consumer[T]) consumeLoop(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	// In-flight handlers outlive intake: stopping the loop must not abort
	// work that was already accepted.
	handlerCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			event, ok := c.accept(msg)
			if !ok {
				continue
			}

			c.inflight.Add(1)

			go func() {
				defer c.inflight.Done()

				c.handle(handlerCtx, msg.UUID, event)
			}()
		}
	}
}

// accept decodes and acks msg. Undecodable payloads are acked too.
func (c *Consumer[T]) accept(msg *message.Message) (*T, bool) {
	defer msg.Ack()

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("dropping undecodable event",
			zap.String("topic", c.topic),
			zap.String("uuid", msg.UUID),
			zap.Error(err),
		)

		if c.onDrop != nil {
			c.onDrop(err)
		}

		return nil, false
	}

	return &event, true
}

func (c *Consumer[T]) handle(ctx context.Context, uuid string, event *T) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event handler panicked",
				zap.String("topic", c.topic),
				zap.String("uuid", uuid),
				zap.Error(fmt.Errorf("%v", r)),
			)
		}
	}()

	if err := c.handler(ctx, event); err != nil {
		c.logger.Error("failed to handle event",
			zap.String("topic", c.topic),
			zap.String("uuid", uuid),
			zap.Error(err),
		)

		return
	}

	c.logger.Debug("processed event",
		zap.String("topic", c.topic),
	)
}

// Shutdown stops intake and waits for in-flight messages to complete.
// It is safe to call more than once.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()

	<-c.done

	c.inflight.Wait()

	return nil
}
