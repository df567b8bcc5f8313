// Package followup schedules and closes human follow-up actions against
// contacts.
package followup

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/internal/store"
)

// Store is the persistence the follow-up service needs.
type Store interface {
	GetContact(ctx context.Context, clientID, id string) (*model.Contact, error)
	CreateFollowUp(ctx context.Context, f model.FollowUp) (*model.FollowUp, error)
	GetFollowUp(ctx context.Context, clientID, id string) (*model.FollowUp, error)
	ListFollowUps(ctx context.Context, filter store.FollowUpFilter) ([]model.FollowUp, error)
	UpdateFollowUpStatus(ctx context.Context, f *model.FollowUp) error
}

// Request creates a follow-up.
type Request struct {
	ClientID    string             `json:"clientId"`
	ContactID   string             `json:"contactId"`
	Type        model.FollowUpType `json:"type"`
	Subject     string             `json:"subject"`
	Content     string             `json:"content,omitempty"`
	ScheduledAt time.Time          `json:"scheduledAt"`
	CreatedBy   string             `json:"createdBy,omitempty"`
}

// Service manages follow-ups.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a Service.
func NewService(st Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Create validates req and schedules a pending follow-up. The contact must
// belong to the same client.
func (s *Service) Create(ctx context.Context, req Request) (*model.FollowUp, error) {
	switch {
	case req.ClientID == "":
		return nil, apperr.Validation("clientId", "is required")
	case req.ContactID == "":
		return nil, apperr.Validation("contactId", "is required")
	case !req.Type.Valid():
		return nil, apperr.Validation("type", "must be one of email, call, meeting, note")
	case strings.TrimSpace(req.Subject) == "":
		return nil, apperr.Validation("subject", "is required")
	}

	contact, err := s.store.GetContact(ctx, req.ClientID, req.ContactID)
	if err != nil {
		return nil, apperr.Fatal(err)
	}
	if contact == nil {
		return nil, apperr.NotFound("contact", "Contact not found")
	}

	scheduled := req.ScheduledAt
	if scheduled.IsZero() {
		scheduled = s.now()
	}
	f, err := s.store.CreateFollowUp(ctx, model.FollowUp{
		ClientID:    req.ClientID,
		ContactID:   req.ContactID,
		Type:        req.Type,
		Subject:     strings.TrimSpace(req.Subject),
		Content:     req.Content,
		ScheduledAt: scheduled,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		return nil, apperr.Fatal(eris.Wrap(err, "followup: create"))
	}
	zap.L().Info("follow-up scheduled",
		zap.String("client_id", f.ClientID),
		zap.String("follow_up_id", f.ID),
		zap.String("type", string(f.Type)),
		zap.Time("scheduled_at", f.ScheduledAt),
	)
	return f, nil
}

// List returns the client's follow-ups, soonest first.
func (s *Service) List(ctx context.Context, filter store.FollowUpFilter) ([]model.FollowUp, error) {
	if filter.ClientID == "" {
		return nil, apperr.Validation("clientId", "is required")
	}
	if filter.Status != "" {
		switch filter.Status {
		case model.FollowUpPending, model.FollowUpCompleted, model.FollowUpCancelled:
		default:
			return nil, apperr.Validation("status", "must be one of pending, completed, cancelled")
		}
	}
	out, err := s.store.ListFollowUps(ctx, filter)
	if err != nil {
		return nil, apperr.Fatal(err)
	}
	return out, nil
}

// Complete marks a pending follow-up completed.
func (s *Service) Complete(ctx context.Context, clientID, id string) (*model.FollowUp, error) {
	return s.transition(ctx, clientID, id, model.FollowUpCompleted)
}

// Cancel marks a pending follow-up cancelled.
func (s *Service) Cancel(ctx context.Context, clientID, id string) (*model.FollowUp, error) {
	return s.transition(ctx, clientID, id, model.FollowUpCancelled)
}

func (s *Service) transition(ctx context.Context, clientID, id string, to model.FollowUpStatus) (*model.FollowUp, error) {
	if clientID == "" {
		return nil, apperr.Validation("clientId", "is required")
	}
	f, err := s.store.GetFollowUp(ctx, clientID, id)
	if err != nil {
		return nil, apperr.Fatal(err)
	}
	if f == nil {
		return nil, apperr.NotFound("followup", "Follow-up not found")
	}
	if err := f.Transition(to, s.now().UTC()); err != nil {
		return nil, apperr.Validation("status", "follow-up is already "+string(f.Status))
	}
	if err := s.store.UpdateFollowUpStatus(ctx, f); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Lost a race with another transition.
			return nil, apperr.Validation("status", "follow-up is no longer pending")
		}
		return nil, apperr.Fatal(err)
	}
	zap.L().Info("follow-up closed",
		zap.String("follow_up_id", f.ID),
		zap.String("status", string(f.Status)),
	)
	return f, nil
}
