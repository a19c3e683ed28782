// Package mail delivers transactional email through a pluggable transport.
package mail

import (
	"context"
	"errors"
	"net/mail"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To          []mail.Address
	Subject     string
	TextContent string
	HTMLContent string
}

// HasRecipients reports whether the message has at least one recipient.
func (m Message) HasRecipients() bool {
	return len(m.To) > 0
}

// HasContent reports whether the message has a body.
func (m Message) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != ""
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ErrEmptyMessage is returned when a message has no recipient or no body.
var ErrEmptyMessage = errors.New("message has no recipients or content")

func validate(msg Message) error {
	if !msg.HasRecipients() || !msg.HasContent() {
		return ErrEmptyMessage
	}
	return nil
}
