package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"journal-management-api/models"
	"journal-management-api/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitationService owns the reviewer invitation lifecycle: creation with the
// two-deadline policy, reviewer responses, and review completion.
type InvitationService struct {
	manuscripts repository.ManuscriptRepository
	invitations repository.InvitationRepository
	users       repository.UserRepository
	gateway     NotificationGateway
	now         func() time.Time
	respondBase string
}

// NewInvitationService constructs an InvitationService over the
// database-backed stores. A nil db falls back to the global connection.
func NewInvitationService(db *gorm.DB) *InvitationService {
	return NewInvitationServiceWithStores(
		repository.NewGormManuscriptRepository(db),
		repository.NewGormInvitationRepository(db),
		repository.NewGormUserRepository(db),
		NewEmailNotificationGateway(),
	)
}

// NewInvitationServiceWithStores constructs an InvitationService over explicit
// stores; tests pass the in-memory implementations.
func NewInvitationServiceWithStores(
	manuscripts repository.ManuscriptRepository,
	invitations repository.InvitationRepository,
	users repository.UserRepository,
	gateway NotificationGateway,
) *InvitationService {
	return &InvitationService{
		manuscripts: manuscripts,
		invitations: invitations,
		users:       users,
		gateway:     gateway,
		now:         time.Now,
		respondBase: os.Getenv("REVIEW_RESPOND_BASE_URL"),
	}
}

// SetClock overrides the service clock; tests use it to pin "now".
func (s *InvitationService) SetClock(now func() time.Time) {
	s.now = now
}

// Invite creates a pending invitation for the reviewer on the manuscript and
// emails the reviewer the manuscript context and both deadline dates. The
// manuscript must currently be open for review. The duplicate-live-invitation
// guard is enforced atomically by the store.
func (s *InvitationService) Invite(ctx context.Context, manuscriptID, reviewerID, editorID uint) (*models.ReviewerInvitation, error) {
	manuscript, err := s.manuscripts.GetByID(ctx, manuscriptID)
	if err != nil {
		return nil, err
	}
	if !manuscript.Status.IsReviewable() {
		return nil, fmt.Errorf("%w: manuscript %d is '%s'", ErrManuscriptNotReviewable, manuscriptID, manuscript.Status)
	}

	now := s.now()
	invitation := &models.ReviewerInvitation{
		ManuscriptID:     manuscriptID,
		ReviewerID:       reviewerID,
		InvitedBy:        editorID,
		Token:            uuid.NewString(),
		Status:           models.InvitationPending,
		InvitedAt:        now,
		ResponseDeadline: now.Add(models.ResponseWindow),
	}

	if err := s.invitations.Create(ctx, invitation); err != nil {
		if errors.Is(err, repository.ErrDuplicateInvitation) {
			return nil, ErrDuplicateInvitation
		}
		return nil, err
	}

	if err := s.sendInvitationNotice(ctx, manuscript, invitation); err != nil {
		// Delivery is best-effort; the created invitation stands.
		log.Printf("invitation notice for invitation %d failed: %v", invitation.InvitationID, err)
	}

	return invitation, nil
}

func (s *InvitationService) sendInvitationNotice(ctx context.Context, manuscript *models.Manuscript, invitation *models.ReviewerInvitation) error {
	reviewer, err := s.users.GetByID(ctx, invitation.ReviewerID)
	if err != nil {
		return fmt.Errorf("load reviewer %d: %w", invitation.ReviewerID, err)
	}

	data := TemplateData{
		"RecipientName":   reviewer.FullName(),
		"ManuscriptTitle": manuscript.Title,
		"Abstract":        manuscript.Abstract,
		"ResponseDeadline": invitation.ResponseDeadline.Format(dateLayout),
		// Latest possible review deadline: accepting on the last allowed day.
		"ReviewDeadline": invitation.ResponseDeadline.Add(models.ReviewWindow).Format(dateLayout),
	}
	if s.respondBase != "" {
		data["RespondURL"] = s.respondBase + "/" + invitation.Token
	}
	return s.gateway.Send(ctx, reviewer.Email, TemplateInvitation, data)
}

// Respond records the reviewer's accept or decline. Only pending invitations
// within their response deadline may be answered; anything else fails with
// ErrInvitationNotPending and leaves the row untouched.
func (s *InvitationService) Respond(ctx context.Context, invitationID uint, accept bool) (*models.ReviewerInvitation, error) {
	invitation, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if invitation.Status != models.InvitationPending || now.After(invitation.ResponseDeadline) {
		return nil, ErrInvitationNotPending
	}

	if accept {
		err = s.invitations.MarkAccepted(ctx, invitationID, now, now.Add(models.ReviewWindow))
	} else {
		err = s.invitations.MarkDeclined(ctx, invitationID, now)
	}
	if errors.Is(err, repository.ErrConflict) {
		// Whoever wrote first wins; this response arrived too late.
		return nil, ErrInvitationNotPending
	}
	if err != nil {
		return nil, err
	}

	if !accept {
		if err := s.notifyEditorOfDecline(ctx, invitation); err != nil {
			log.Printf("decline notice for invitation %d failed: %v", invitationID, err)
		}
	}

	return s.invitations.GetByID(ctx, invitationID)
}

// RespondByToken resolves the invitation behind an emailed respond link and
// records the response.
func (s *InvitationService) RespondByToken(ctx context.Context, token string, accept bool) (*models.ReviewerInvitation, error) {
	invitation, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.Respond(ctx, invitation.InvitationID, accept)
}

func (s *InvitationService) notifyEditorOfDecline(ctx context.Context, invitation *models.ReviewerInvitation) error {
	editor, err := s.users.GetByID(ctx, invitation.InvitedBy)
	if err != nil {
		return fmt.Errorf("load editor %d: %w", invitation.InvitedBy, err)
	}
	reviewer, err := s.users.GetByID(ctx, invitation.ReviewerID)
	if err != nil {
		return fmt.Errorf("load reviewer %d: %w", invitation.ReviewerID, err)
	}
	manuscript, err := s.manuscripts.GetByID(ctx, invitation.ManuscriptID)
	if err != nil {
		return fmt.Errorf("load manuscript %d: %w", invitation.ManuscriptID, err)
	}
	return s.gateway.Send(ctx, editor.Email, TemplateDeclined, TemplateData{
		"RecipientName":   editor.FullName(),
		"ReviewerName":    reviewer.FullName(),
		"ManuscriptTitle": manuscript.Title,
	})
}

// Complete marks an accepted invitation's review as submitted. The manuscript
// itself is not transitioned here; that is the decision recorder's call once
// the editor has enough reviews.
func (s *InvitationService) Complete(ctx context.Context, invitationID uint) (*models.ReviewerInvitation, error) {
	invitation, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if invitation.Status != models.InvitationAccepted {
		return nil, ErrInvitationNotAccepted
	}

	err = s.invitations.MarkCompleted(ctx, invitationID, s.now())
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrInvitationNotAccepted
	}
	if err != nil {
		return nil, err
	}

	return s.invitations.GetByID(ctx, invitationID)
}

// ListForManuscript returns every invitation of the manuscript, terminal ones
// included.
func (s *InvitationService) ListForManuscript(ctx context.Context, manuscriptID uint) ([]models.ReviewerInvitation, error) {
	return s.invitations.ListByManuscript(ctx, manuscriptID)
}

// ListOverdue returns accepted invitations whose review deadline has passed.
func (s *InvitationService) ListOverdue(ctx context.Context) ([]models.ReviewerInvitation, error) {
	return s.invitations.ListAcceptedOverdue(ctx, s.now())
}
