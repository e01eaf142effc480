package notifications

import (
	"context"
	"errors"
)

// Message is a single outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

var ErrSendFailed = errors.New("notification send failed")
