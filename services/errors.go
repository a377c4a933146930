package services

import (
	"errors"
	"fmt"

	"journal-management-api/models"
)

var (
	// ErrDuplicateInvitation signals a live invitation already exists for the
	// (manuscript, reviewer) pair.
	ErrDuplicateInvitation = errors.New("reviewer already holds a live invitation for this manuscript")

	// ErrManuscriptNotReviewable signals the manuscript is not in a state
	// that accepts reviewer assignments.
	ErrManuscriptNotReviewable = errors.New("manuscript is not open for reviewer assignment")

	// ErrInvitationNotPending signals the invitation is no longer active, so
	// a response cannot be taken (declined, withdrawn, already answered, or
	// past its response deadline).
	ErrInvitationNotPending = errors.New("invitation is no longer active")

	// ErrInvitationNotAccepted signals a review completion was reported for
	// an invitation that was never accepted or has since moved on.
	ErrInvitationNotAccepted = errors.New("invitation has not been accepted")

	// ErrPersistenceConflict signals an optimistic write collided twice in a
	// row; the operation was not applied.
	ErrPersistenceConflict = errors.New("operation conflicted with a concurrent update, please retry")
)

// InvalidStateTransitionError reports a manuscript transition outside the
// lifecycle graph, carrying the attempted edge.
type InvalidStateTransitionError struct {
	From models.ManuscriptStatus
	To   models.ManuscriptStatus
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid manuscript transition from '%s' to '%s'", e.From, e.To)
}
