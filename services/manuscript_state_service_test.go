package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"journal-management-api/models"
	"journal-management-api/repository"
)

// conflictingManuscriptStore fails the first n conditional status writes, as
// if a concurrent editor won the race each time.
type conflictingManuscriptStore struct {
	*repository.MemoryManuscriptRepository
	conflicts int
}

func (s *conflictingManuscriptStore) UpdateStatus(ctx context.Context, id uint, from, to models.ManuscriptStatus, at time.Time) error {
	if s.conflicts > 0 {
		s.conflicts--
		return repository.ErrConflict
	}
	return s.MemoryManuscriptRepository.UpdateStatus(ctx, id, from, to, at)
}

func TestTransitionRetriesOnceAfterConflict(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusSubmitted)
	store := &conflictingManuscriptStore{MemoryManuscriptRepository: f.manuscripts, conflicts: 1}

	svc := NewManuscriptStateServiceWithStores(store, f.invitations, f.users, f.gateway)
	svc.SetClock(fixedClock(fixtureBase))

	manuscript, err := svc.Transition(context.Background(), manuscriptID, models.StatusTechnicalCheck, fixtureEditorID, "")
	if err != nil {
		t.Fatalf("a single conflict must be retried through: %v", err)
	}
	if manuscript.Status != models.StatusTechnicalCheck {
		t.Errorf("expected technical_check, got %s", manuscript.Status)
	}
	if got := len(f.manuscripts.History()); got != 1 {
		t.Errorf("expected 1 history entry, got %d", got)
	}
}

func TestTransitionGivesUpAfterSecondConflict(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusSubmitted)
	store := &conflictingManuscriptStore{MemoryManuscriptRepository: f.manuscripts, conflicts: 2}

	svc := NewManuscriptStateServiceWithStores(store, f.invitations, f.users, f.gateway)
	svc.SetClock(fixedClock(fixtureBase))

	_, err := svc.Transition(context.Background(), manuscriptID, models.StatusTechnicalCheck, fixtureEditorID, "")
	if !errors.Is(err, ErrPersistenceConflict) {
		t.Fatalf("expected ErrPersistenceConflict after two conflicts, got %v", err)
	}

	manuscript, err := f.manuscripts.GetByID(context.Background(), manuscriptID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if manuscript.Status != models.StatusSubmitted {
		t.Errorf("manuscript must be untouched, got %s", manuscript.Status)
	}
	if got := len(f.manuscripts.History()); got != 0 {
		t.Errorf("no history entry may exist for an abandoned transition, got %d", got)
	}
}

func TestTransitionRecordsStatusHistory(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusSubmitted)

	manuscript, err := f.stateService(fixtureBase).Transition(context.Background(), manuscriptID, models.StatusTechnicalCheck, fixtureEditorID, "assigned to desk editor")
	if err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if manuscript.Status != models.StatusTechnicalCheck {
		t.Errorf("expected technical_check, got %s", manuscript.Status)
	}
	if !manuscript.UpdatedAt.Equal(fixtureBase) {
		t.Errorf("expected UpdatedAt %v, got %v", fixtureBase, manuscript.UpdatedAt)
	}

	history := f.manuscripts.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	entry := history[0]
	if entry.OldStatus == nil || *entry.OldStatus != models.StatusSubmitted {
		t.Errorf("expected old status submitted, got %v", entry.OldStatus)
	}
	if entry.NewStatus != models.StatusTechnicalCheck {
		t.Errorf("expected new status technical_check, got %s", entry.NewStatus)
	}
	if entry.ChangedBy != fixtureEditorID {
		t.Errorf("expected actor %d, got %d", fixtureEditorID, entry.ChangedBy)
	}
	if entry.Reason == nil || *entry.Reason != "assigned to desk editor" {
		t.Errorf("expected reason to be recorded, got %v", entry.Reason)
	}
}

func TestTransitionRejectsForbiddenEdge(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusDraft)

	_, err := f.stateService(fixtureBase).Transition(context.Background(), manuscriptID, models.StatusUnderReview, fixtureEditorID, "")
	var invalid *InvalidStateTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateTransitionError, got %v", err)
	}
	if invalid.From != models.StatusDraft || invalid.To != models.StatusUnderReview {
		t.Errorf("unexpected error detail: %+v", invalid)
	}

	manuscript, err := f.manuscripts.GetByID(context.Background(), manuscriptID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if manuscript.Status != models.StatusDraft {
		t.Errorf("manuscript must be untouched, got %s", manuscript.Status)
	}
	if got := len(f.manuscripts.History()); got != 0 {
		t.Errorf("no history entry may exist for a rejected transition, got %d", got)
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusSubmitted)

	if _, err := f.stateService(fixtureBase).Transition(context.Background(), manuscriptID, models.ManuscriptStatus("archived"), fixtureEditorID, ""); err == nil {
		t.Fatal("expected an error for an unknown target status")
	}
}

func TestTransitionFromTerminalStateRejected(t *testing.T) {
	for _, status := range []models.ManuscriptStatus{models.StatusRejected, models.StatusPublished, models.StatusWithdrawn} {
		f := newEngineFixture()
		manuscriptID := f.addManuscript(status)

		_, err := f.stateService(fixtureBase).Transition(context.Background(), manuscriptID, models.StatusWithdrawn, fixtureAuthorID, "")
		var invalid *InvalidStateTransitionError
		if !errors.As(err, &invalid) {
			t.Errorf("from %s: expected InvalidStateTransitionError, got %v", status, err)
		}
	}
}

func TestWithdrawCascadesToLiveInvitations(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusUnderReview)
	svc := f.invitationService(fixtureBase)

	pending1, err := svc.Invite(context.Background(), manuscriptID, fixtureReviewerID, fixtureEditorID)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	pending2, err := svc.Invite(context.Background(), manuscriptID, fixtureReviewer2, fixtureEditorID)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	accepted, err := svc.Invite(context.Background(), manuscriptID, fixtureReviewer3, fixtureEditorID)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if _, err := f.invitationService(fixtureBase.Add(24 * time.Hour)).Respond(context.Background(), accepted.InvitationID, true); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	withdrawnAt := fixtureBase.Add(3 * 24 * time.Hour)
	manuscript, cascaded, err := f.stateService(withdrawnAt).Withdraw(context.Background(), manuscriptID, fixtureAuthorID, "author request")
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if manuscript.Status != models.StatusWithdrawn {
		t.Errorf("expected manuscript withdrawn, got %s", manuscript.Status)
	}
	if len(cascaded) != 3 {
		t.Fatalf("expected all 3 live invitations withdrawn, got %d", len(cascaded))
	}

	for _, id := range []uint{pending1.InvitationID, pending2.InvitationID, accepted.InvitationID} {
		stored, err := f.invitations.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if stored.Status != models.InvitationWithdrawn {
			t.Errorf("invitation %d: expected withdrawn, got %s", id, stored.Status)
		}
		if stored.WithdrawnAt == nil || !stored.WithdrawnAt.Equal(withdrawnAt) {
			t.Errorf("invitation %d: expected WithdrawnAt %v, got %v", id, withdrawnAt, stored.WithdrawnAt)
		}
	}

	recipients := map[string]int{}
	for _, notice := range f.gateway.byKind(TemplateWithdrawal) {
		recipients[notice.Recipient]++
	}
	for _, email := range []string{"rafael.costa@example.edu", "mei.tanaka@example.edu", "jonas.weber@example.edu"} {
		if recipients[email] == 0 {
			t.Errorf("reviewer %s received no withdrawal notice", email)
		}
	}
}

func TestWithdrawLeavesSettledInvitationsAlone(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusUnderReview)
	svc := f.invitationService(fixtureBase)

	declined, err := svc.Invite(context.Background(), manuscriptID, fixtureReviewerID, fixtureEditorID)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if _, err := f.invitationService(fixtureBase.Add(time.Hour)).Respond(context.Background(), declined.InvitationID, false); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	completed, err := svc.Invite(context.Background(), manuscriptID, fixtureReviewer2, fixtureEditorID)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	later := f.invitationService(fixtureBase.Add(2 * time.Hour))
	if _, err := later.Respond(context.Background(), completed.InvitationID, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := later.Complete(context.Background(), completed.InvitationID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	_, cascaded, err := f.stateService(fixtureBase.Add(24 * time.Hour)).Withdraw(context.Background(), manuscriptID, fixtureAuthorID, "")
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if len(cascaded) != 0 {
		t.Fatalf("no live invitations existed, yet %d were withdrawn", len(cascaded))
	}

	storedDeclined, _ := f.invitations.GetByID(context.Background(), declined.InvitationID)
	if storedDeclined.Status != models.InvitationDeclined {
		t.Errorf("declined invitation must keep its state, got %s", storedDeclined.Status)
	}
	storedCompleted, _ := f.invitations.GetByID(context.Background(), completed.InvitationID)
	if storedCompleted.Status != models.InvitationCompleted {
		t.Errorf("completed invitation must keep its state, got %s", storedCompleted.Status)
	}
}

func TestWithdrawRecordsWithdrawnAtOnManuscript(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusTechnicalCheck)

	at := fixtureBase.Add(time.Hour)
	manuscript, _, err := f.stateService(at).Withdraw(context.Background(), manuscriptID, fixtureAuthorID, "submitted to another venue")
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if manuscript.WithdrawnAt == nil || !manuscript.WithdrawnAt.Equal(at) {
		t.Errorf("expected WithdrawnAt %v, got %v", at, manuscript.WithdrawnAt)
	}
}
