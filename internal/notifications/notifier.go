package notifications

import "context"

const (
	KindWelcome      = "welcome"
	KindSubscription = "subscription"
)

type Message struct {
	Kind  string
	Email string
	Name  string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
