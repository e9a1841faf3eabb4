package messagequeue

import (
	"encoding/json"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects only need to be
// valid JSON.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	var target any
	switch subject {
	case SubjectReviewEvents:
		var ev ReviewEventPayload
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if ev.EventType == "" {
			return fmt.Errorf("schema validation failed for %s: event_type is required", subject)
		}
		return nil
	case SubjectRequestScheduled:
		target = &RequestScheduledPayload{}
	case SubjectResponseScheduled:
		target = &ResponseScheduledPayload{}
	case SubjectRemediation:
		target = &RemediationPayload{}
	case SubjectCycleCompleted:
		target = &CycleCompletedPayload{}
	case SubjectTicketCreated:
		target = &TicketCreatedPayload{}
	default:
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	return nil
}
