package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// FollowUpType is the kind of human action scheduled against a contact.
type FollowUpType string

const (
	FollowUpEmail   FollowUpType = "email"
	FollowUpCall    FollowUpType = "call"
	FollowUpMeeting FollowUpType = "meeting"
	FollowUpNote    FollowUpType = "note"
)

// Valid reports whether t is a known follow-up type.
func (t FollowUpType) Valid() bool {
	switch t {
	case FollowUpEmail, FollowUpCall, FollowUpMeeting, FollowUpNote:
		return true
	}
	return false
}

// FollowUpStatus is the lifecycle state of a follow-up.
type FollowUpStatus string

const (
	FollowUpPending   FollowUpStatus = "pending"
	FollowUpCompleted FollowUpStatus = "completed"
	FollowUpCancelled FollowUpStatus = "cancelled"
)

// ErrInvalidTransition is returned for any status change other than
// pending→completed or pending→cancelled.
var ErrInvalidTransition = eris.New("followup: invalid status transition")

// FollowUp is a scheduled action against a contact.
type FollowUp struct {
	ID          string         `json:"id"`
	ClientID    string         `json:"clientId"`
	ContactID   string         `json:"contactId"`
	Type        FollowUpType   `json:"type"`
	Subject     string         `json:"subject"`
	Content     string         `json:"content,omitempty"`
	Status      FollowUpStatus `json:"status"`
	ScheduledAt time.Time      `json:"scheduledAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	CreatedBy   string         `json:"createdBy,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Transition moves the follow-up to status `to`, stamping CompletedAt on
// completion. The receiver is unchanged on error.
func (f *FollowUp) Transition(to FollowUpStatus, now time.Time) error {
	if f.Status != FollowUpPending {
		return eris.Wrapf(ErrInvalidTransition, "%s -> %s", f.Status, to)
	}
	switch to {
	case FollowUpCompleted:
		f.Status = to
		f.CompletedAt = &now
	case FollowUpCancelled:
		f.Status = to
	default:
		return eris.Wrapf(ErrInvalidTransition, "%s -> %s", f.Status, to)
	}
	return nil
}
