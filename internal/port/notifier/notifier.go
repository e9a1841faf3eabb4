// Package notifier defines the notification port (interface) and capabilities.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a notifier is missing required settings.
var ErrNotConfigured = errors.New("notifier: not configured")

// Level of a notification.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notification is the payload sent through a Notifier.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Level   string `json:"level"`
	// Source is the event that produced the notification, e.g. "ticket.created".
	Source string `json:"source"`
	// Fields are short key/value facts rendered next to the message.
	Fields []Field `json:"fields,omitempty"`
}

// Field is one labelled value of a notification.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Capabilities declares which features a notifier supports.
type Capabilities struct {
	RichFormatting bool `json:"rich_formatting"`
}

// Notifier is the port interface for sending notifications.
type Notifier interface {
	// Name returns the unique identifier for this notifier (e.g. "slack", "email").
	Name() string
	Capabilities() Capabilities
	Send(ctx context.Context, n Notification) error
}
