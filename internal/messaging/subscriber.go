package messaging

import "github.com/ThreeDotsLabs/watermill/message"

// SubscriberGroup manages the underlying subscriber lifecycle.
type SubscriberGroup struct {
	subscriber message.Subscriber
}

// NewSubscriberGroup creates a new subscriber group.
func NewSubscriberGroup(subscriber message.Subscriber) *SubscriberGroup {
	return &SubscriberGroup{subscriber: subscriber}
}

// Subscriber returns the underlying subscriber for creating consumers.
func (g *SubscriberGroup) Subscriber() message.Subscriber {
	return g.subscriber
}

// Shutdown closes the underlying subscriber.
func (g *SubscriberGroup) Shutdown() error {
	return g.subscriber.Close()
}
