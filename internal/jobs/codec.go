package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
)

func IsValidType(t string) bool {
	switch t {
	case TypeWelcomeMail, TypeSubscriptionMail:
		return true
	default:
		return false
	}
}

// DecodePayload unmarshals a raw payload into the typed struct for the job type
// and checks the fields the worker cannot do without.
func DecodePayload(jobType string, raw json.RawMessage) (any, error) {
	if !IsValidType(jobType) {
		return nil, ErrInvalidType
	}
	if len(raw) == 0 {
		return nil, ErrInvalidPayload
	}

	switch jobType {
	case TypeWelcomeMail:
		var p WelcomeMailPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if strings.TrimSpace(p.Email) == "" || strings.TrimSpace(p.UserID) == "" {
			return nil, ErrInvalidPayload
		}
		return p, nil

	case TypeSubscriptionMail:
		var p SubscriptionMailPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if strings.TrimSpace(p.Email) == "" {
			return nil, ErrInvalidPayload
		}
		return p, nil

	default:
		return nil, ErrInvalidType
	}
}
