package review

import (
	"strings"
	"time"
)

// ResponseDelay returns how long to wait before posting a reply. Worse
// sentiment is answered sooner.
func ResponseDelay(s Sentiment) time.Duration {
	switch s {
	case SentimentNegative:
		return 4 * time.Hour
	case SentimentNeutral:
		return 8 * time.Hour
	default:
		return 12 * time.Hour
	}
}

// ScheduledResponse is a reply queued for posting.
type ScheduledResponse struct {
	ReviewID     string    `json:"review_id"`
	Response     string    `json:"response"`
	ScheduleTime time.Time `json:"schedule_time"`
	Analysis     Analysis  `json:"analysis"`
}

// EventType is a customer lifecycle event that can trigger a review request.
type EventType string

const (
	EventPurchase    EventType = "purchase"
	EventAppointment EventType = "appointment"
	EventService     EventType = "service"
	EventDownload    EventType = "download"
)

// RequestDelay returns the wait before asking for a review after an event.
// ok is false for event types that never trigger a request.
func RequestDelay(e EventType) (delay time.Duration, ok bool) {
	const day = 24 * time.Hour
	switch e {
	case EventPurchase:
		return 7 * day, true
	case EventAppointment:
		return 3 * day, true
	case EventService:
		return 2 * day, true
	case EventDownload:
		return 1 * day, true
	default:
		return 0, false
	}
}

// Channel is the delivery medium of a review request.
type Channel string

const (
	ChannelSMS             Channel = "sms"
	ChannelEmail           Channel = "email"
	ChannelAppNotification Channel = "app_notification"
)

// Customer is the subset of customer data used for review requests.
type Customer struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	SMSConsent bool   `json:"sms_consent"`
}

// PreferredChannel picks SMS when consented, then email when known, then an
// in-app notification.
func (c *Customer) PreferredChannel() Channel {
	switch {
	case c.SMSConsent:
		return ChannelSMS
	case strings.TrimSpace(c.Email) != "":
		return ChannelEmail
	default:
		return ChannelAppNotification
	}
}

// RequestTemplate is the template key used for review requests.
const RequestTemplate = "review_request"

// Request is a scheduled ask for a review.
type Request struct {
	Customer      Customer  `json:"customer"`
	EventType     EventType `json:"event_type"`
	ScheduledTime time.Time `json:"scheduled_time"`
	Template      string    `json:"template"`
	Channel       Channel   `json:"channel"`
}

// LifecycleEvent is the inbound message that may trigger a Request.
type LifecycleEvent struct {
	EventType EventType `json:"event_type"`
	Customer  Customer  `json:"customer"`
}
