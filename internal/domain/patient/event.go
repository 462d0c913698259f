package patient

import (
	"context"
	"time"
)

type EventType string

const (
	EventRegistered     EventType = "patient.registered"
	EventLoginSucceeded EventType = "patient.login_succeeded"
	EventOTPIssued      EventType = "patient.otp_issued"
	EventPasswordReset  EventType = "patient.password_reset"
)

// Event is an audit record of a workflow outcome. It carries no PII beyond
// the health care number.
type Event struct {
	Type             EventType `json:"type"`
	HealthCareNumber string    `json:"healthCareNumber"`
	OccurredAt       time.Time `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
