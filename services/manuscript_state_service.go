package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"journal-management-api/models"
	"journal-management-api/repository"

	"gorm.io/gorm"
)

// ManuscriptStateService applies manuscript lifecycle transitions as
// optimistic conditional writes.
type ManuscriptStateService struct {
	manuscripts repository.ManuscriptRepository
	invitations repository.InvitationRepository
	users       repository.UserRepository
	gateway     NotificationGateway
	now         func() time.Time
}

// NewManuscriptStateService constructs a ManuscriptStateService over the
// database-backed stores. A nil db falls back to the global connection.
func NewManuscriptStateService(db *gorm.DB) *ManuscriptStateService {
	return NewManuscriptStateServiceWithStores(
		repository.NewGormManuscriptRepository(db),
		repository.NewGormInvitationRepository(db),
		repository.NewGormUserRepository(db),
		NewEmailNotificationGateway(),
	)
}

// NewManuscriptStateServiceWithStores constructs a ManuscriptStateService over
// explicit stores; tests pass the in-memory implementations.
func NewManuscriptStateServiceWithStores(
	manuscripts repository.ManuscriptRepository,
	invitations repository.InvitationRepository,
	users repository.UserRepository,
	gateway NotificationGateway,
) *ManuscriptStateService {
	return &ManuscriptStateService{
		manuscripts: manuscripts,
		invitations: invitations,
		users:       users,
		gateway:     gateway,
		now:         time.Now,
	}
}

// SetClock overrides the service clock; tests use it to pin "now".
func (s *ManuscriptStateService) SetClock(now func() time.Time) {
	s.now = now
}

// Transition moves the manuscript to target if the lifecycle graph allows the
// edge from its current state. The write is conditional on the stored status
// still matching the one the edge was validated against; a conflicting
// concurrent write triggers one retry of the whole operation.
func (s *ManuscriptStateService) Transition(ctx context.Context, manuscriptID uint, target models.ManuscriptStatus, actorID uint, reason string) (*models.Manuscript, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("unknown manuscript status '%s'", target)
	}

	for attempt := 0; attempt < 2; attempt++ {
		manuscript, err := s.manuscripts.GetByID(ctx, manuscriptID)
		if err != nil {
			return nil, err
		}

		if !manuscript.Status.CanTransitionTo(target) {
			return nil, &InvalidStateTransitionError{From: manuscript.Status, To: target}
		}

		now := s.now()
		err = s.manuscripts.UpdateStatus(ctx, manuscriptID, manuscript.Status, target, now)
		if errors.Is(err, repository.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		oldStatus := manuscript.Status
		entry := &models.ManuscriptStatusHistory{
			ManuscriptID: manuscriptID,
			OldStatus:    &oldStatus,
			NewStatus:    target,
			ChangedBy:    actorID,
			CreatedAt:    now,
		}
		if reason != "" {
			entry.Reason = &reason
		}
		if err := s.manuscripts.RecordStatusChange(ctx, entry); err != nil {
			// The transition itself is the source of truth; history is audit.
			log.Printf("failed to record status history for manuscript %d: %v", manuscriptID, err)
		}

		return s.manuscripts.GetByID(ctx, manuscriptID)
	}

	return nil, ErrPersistenceConflict
}

// Withdraw moves the manuscript to withdrawn and, as part of the same logical
// operation, withdraws every live reviewer invitation it still holds.
// Withdrawal notices to the affected reviewers are best-effort.
func (s *ManuscriptStateService) Withdraw(ctx context.Context, manuscriptID uint, actorID uint, reason string) (*models.Manuscript, []models.ReviewerInvitation, error) {
	manuscript, err := s.Transition(ctx, manuscriptID, models.StatusWithdrawn, actorID, reason)
	if err != nil {
		return nil, nil, err
	}

	withdrawn, err := s.invitations.WithdrawAllForManuscript(ctx, manuscriptID, s.now())
	if err != nil {
		return nil, nil, fmt.Errorf("withdraw invitations for manuscript %d: %w", manuscriptID, err)
	}

	for _, inv := range withdrawn {
		if err := s.notifyWithdrawal(ctx, manuscript, inv); err != nil {
			log.Printf("withdrawal notice for invitation %d failed: %v", inv.InvitationID, err)
		}
	}

	return manuscript, withdrawn, nil
}

func (s *ManuscriptStateService) notifyWithdrawal(ctx context.Context, manuscript *models.Manuscript, inv models.ReviewerInvitation) error {
	reviewer, err := s.users.GetByID(ctx, inv.ReviewerID)
	if err != nil {
		return fmt.Errorf("load reviewer %d: %w", inv.ReviewerID, err)
	}
	return s.gateway.Send(ctx, reviewer.Email, TemplateWithdrawal, TemplateData{
		"RecipientName":   reviewer.FullName(),
		"ManuscriptTitle": manuscript.Title,
		"Reason":          "the manuscript was withdrawn",
	})
}
