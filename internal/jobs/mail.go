package jobs

import (
	"encoding/json"
	"time"
)

const (
	TypeWelcomeMail      = "mail.welcome"
	TypeSubscriptionMail = "mail.subscription"
)

// WelcomeMailPayload is enqueued after a successful registration.
type WelcomeMailPayload struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	RequestedAt time.Time `json:"requestedAt"`
}

func (p WelcomeMailPayload) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(p)

	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// SubscriptionMailPayload is enqueued when someone joins the newsletter.
type SubscriptionMailPayload struct {
	SubscriberID string    `json:"subscriberId"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	RequestedAt  time.Time `json:"requestedAt"`
}

func (p SubscriptionMailPayload) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(p)

	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
