package domain

import "context"

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

// MessageHandler processes one message. A returned error leaves the message
// uncommitted so it is delivered again.
type MessageHandler func(ctx context.Context, msg Message) error

type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string, handler MessageHandler) error
}
