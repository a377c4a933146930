// Package repository is the persistence gateway for the editorial workflow
// engine. Services depend on these interfaces; production wiring uses the
// gorm implementations, tests use the in-memory ones.
package repository

import (
	"context"
	"errors"
	"time"

	"journal-management-api/models"
)

var (
	// ErrNotFound is returned when no row matches the given identity.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when an optimistic conditional write finds the
	// row no longer in the expected state. Callers decide whether to retry.
	ErrConflict = errors.New("row changed concurrently")

	// ErrDuplicateInvitation is returned when a live (pending or accepted)
	// invitation already exists for the same manuscript and reviewer.
	ErrDuplicateInvitation = errors.New("live invitation already exists for this reviewer and manuscript")
)

// ManuscriptRepository persists manuscripts and their status history.
type ManuscriptRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Manuscript, error)
	// List returns manuscripts filtered by status; an empty status returns all.
	List(ctx context.Context, status models.ManuscriptStatus) ([]models.Manuscript, error)
	// UpdateStatus applies the transition from -> to as a single conditional
	// write guarded on the stored status still being from. Status-derived
	// timestamp columns (submitted_at, decided_at, published_at,
	// withdrawn_at) are set from at. Returns ErrConflict when the guard fails.
	UpdateStatus(ctx context.Context, id uint, from, to models.ManuscriptStatus, at time.Time) error
	RecordStatusChange(ctx context.Context, entry *models.ManuscriptStatusHistory) error
}

// InvitationRepository persists reviewer invitations. All Mark*/Withdraw
// mutations are conditional writes guarded on the current status and return
// ErrConflict when the invitation has moved on; rows are never deleted.
type InvitationRepository interface {
	GetByID(ctx context.Context, id uint) (*models.ReviewerInvitation, error)
	GetByToken(ctx context.Context, token string) (*models.ReviewerInvitation, error)
	// Create inserts a pending invitation. The check for an existing live
	// (pending/accepted) invitation on the same (manuscript, reviewer) pair
	// and the insert are atomic; a violation returns ErrDuplicateInvitation.
	Create(ctx context.Context, inv *models.ReviewerInvitation) error
	ListByManuscript(ctx context.Context, manuscriptID uint) ([]models.ReviewerInvitation, error)
	// ListPendingForReminder returns pending invitations without a reminder
	// whose invited_at lies in (after, before], ordered by invited_at
	// ascending, at most limit rows.
	ListPendingForReminder(ctx context.Context, after, before time.Time, limit int) ([]models.ReviewerInvitation, error)
	// ListPendingInvitedBefore returns pending invitations with
	// invited_at <= cutoff, ordered by invited_at ascending, at most limit rows.
	ListPendingInvitedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReviewerInvitation, error)
	// ListAcceptedOverdue returns accepted invitations whose review_deadline
	// lies strictly before now, ordered by invited_at ascending.
	ListAcceptedOverdue(ctx context.Context, now time.Time) ([]models.ReviewerInvitation, error)

	// MarkAccepted moves pending -> accepted and sets the review deadline.
	MarkAccepted(ctx context.Context, id uint, at, reviewDeadline time.Time) error
	// MarkDeclined moves pending -> declined.
	MarkDeclined(ctx context.Context, id uint, at time.Time) error
	// MarkCompleted moves accepted -> completed.
	MarkCompleted(ctx context.Context, id uint, at time.Time) error
	// MarkReminded stamps reminder_sent_at on a pending invitation that has
	// not been reminded yet.
	MarkReminded(ctx context.Context, id uint, at time.Time) error
	// Withdraw moves pending -> withdrawn.
	Withdraw(ctx context.Context, id uint, at time.Time) error
	// WithdrawAllForManuscript withdraws every live invitation of the
	// manuscript and returns the affected rows in their new state.
	WithdrawAllForManuscript(ctx context.Context, manuscriptID uint, at time.Time) ([]models.ReviewerInvitation, error)
}

// DecisionRepository persists editorial decisions. Records are append-only.
type DecisionRepository interface {
	Create(ctx context.Context, decision *models.EditorialDecision) error
	ListByManuscript(ctx context.Context, manuscriptID uint) ([]models.EditorialDecision, error)
}

// UserRepository reads identity rows for notification addressing.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}
