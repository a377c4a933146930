package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"journal-management-api/models"
)

func TestSweepRemindsThenWithdrawsUnansweredInvitation(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusUnderReview)

	inv, err := f.invitationService(fixtureBase).Invite(context.Background(), manuscriptID, fixtureReviewerID, fixtureEditorID)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	// Day 8: past the response deadline, before the withdrawal cutoff.
	day8 := fixtureBase.Add(8 * 24 * time.Hour)
	summary, err := f.sweepService(day8).Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if summary.Reminded != 1 || summary.Withdrawn != 0 {
		t.Fatalf("day 8: expected 1 reminder and 0 withdrawals, got %d/%d", summary.Reminded, summary.Withdrawn)
	}

	stored, err := f.invitations.GetByID(context.Background(), inv.InvitationID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Status != models.InvitationPending {
		t.Errorf("a reminder must not change status, got %s", stored.Status)
	}
	if stored.ReminderSentAt == nil || !stored.ReminderSentAt.Equal(day8) {
		t.Errorf("expected ReminderSentAt %v, got %v", day8, stored.ReminderSentAt)
	}
	if got := len(f.gateway.byKind(TemplateReminder)); got != 1 {
		t.Errorf("expected 1 reminder notice, got %d", got)
	}

	// Day 15: past the withdrawal cutoff.
	day15 := fixtureBase.Add(15 * 24 * time.Hour)
	summary, err = f.sweepService(day15).Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if summary.Reminded != 0 || summary.Withdrawn != 1 {
		t.Fatalf("day 15: expected 0 reminders and 1 withdrawal, got %d/%d", summary.Reminded, summary.Withdrawn)
	}

	stored, err = f.invitations.GetByID(context.Background(), inv.InvitationID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Status != models.InvitationWithdrawn {
		t.Errorf("expected status withdrawn, got %s", stored.Status)
	}
	if stored.WithdrawnAt == nil || !stored.WithdrawnAt.Equal(day15) {
		t.Errorf("expected WithdrawnAt %v, got %v", day15, stored.WithdrawnAt)
	}

	// Both the reviewer and the inviting editor hear about the expiry.
	recipients := map[string]bool{}
	for _, notice := range f.gateway.byKind(TemplateWithdrawal) {
		recipients[notice.Recipient] = true
	}
	if !recipients["rafael.costa@example.edu"] || !recipients["elena.vargas@example.edu"] {
		t.Errorf("expected withdrawal notices to reviewer and editor, got %v", recipients)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusUnderReview)

	if _, err := f.invitationService(fixtureBase).Invite(context.Background(), manuscriptID, fixtureReviewerID, fixtureEditorID); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	day8 := fixtureBase.Add(8 * 24 * time.Hour)
	if _, err := f.sweepService(day8).Run(context.Background(), "test"); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}

	summary, err := f.sweepService(day8).Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if summary.Reminded != 0 || summary.Withdrawn != 0 || len(summary.Failures) != 0 {
		t.Fatalf("second run must be a no-op, got %+v", summary)
	}
	if got := len(f.gateway.byKind(TemplateReminder)); got != 1 {
		t.Errorf("second run must not re-send reminders, got %d", got)
	}

	day15 := fixtureBase.Add(15 * 24 * time.Hour)
	if _, err := f.sweepService(day15).Run(context.Background(), "test"); err != nil {
		t.Fatalf("third sweep failed: %v", err)
	}
	before := len(f.gateway.byKind(TemplateWithdrawal))

	summary, err = f.sweepService(day15).Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("fourth sweep failed: %v", err)
	}
	if summary.Withdrawn != 0 {
		t.Fatalf("re-run after withdrawal must be a no-op, got %d withdrawals", summary.Withdrawn)
	}
	if got := len(f.gateway.byKind(TemplateWithdrawal)); got != before {
		t.Errorf("re-run sent %d extra withdrawal notices", got-before)
	}
}

func TestSweepSkipsLateWithdrawalDirectly(t *testing.T) {
	// An invitation that was never reminded and is already past the withdrawal
	// cutoff gets withdrawn, not reminded: the reminder window is bounded above
	// by the cutoff.
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusUnderReview)

	inv, err := f.invitationService(fixtureBase).Invite(context.Background(), manuscriptID, fixtureReviewerID, fixtureEditorID)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	day15 := fixtureBase.Add(15 * 24 * time.Hour)
	summary, err := f.sweepService(day15).Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if summary.Reminded != 0 {
		t.Errorf("expected no reminders past the cutoff, got %d", summary.Reminded)
	}
	if summary.Withdrawn != 1 {
		t.Errorf("expected 1 withdrawal, got %d", summary.Withdrawn)
	}

	stored, err := f.invitations.GetByID(context.Background(), inv.InvitationID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.ReminderSentAt != nil {
		t.Errorf("no reminder should have been stamped, got %v", *stored.ReminderSentAt)
	}
	if stored.Status != models.InvitationWithdrawn {
		t.Errorf("expected status withdrawn, got %s", stored.Status)
	}
}

func TestSweepFlagsOverdueReviewsWithoutChangingThem(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusUnderReview)

	inv, err := f.invitationService(fixtureBase).Invite(context.Background(), manuscriptID, fixtureReviewerID, fixtureEditorID)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	day2 := fixtureBase.Add(2 * 24 * time.Hour)
	if _, err := f.invitationService(day2).Respond(context.Background(), inv.InvitationID, true); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	// Review deadline is day 2 + 21 = day 23; day 24 is overdue.
	day24 := fixtureBase.Add(24 * 24 * time.Hour)
	summary, err := f.sweepService(day24).Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if summary.Overdue != 1 {
		t.Fatalf("expected 1 overdue review, got %d", summary.Overdue)
	}
	if len(summary.OverdueIDs) != 1 || summary.OverdueIDs[0] != inv.InvitationID {
		t.Errorf("expected overdue ids [%d], got %v", inv.InvitationID, summary.OverdueIDs)
	}

	stored, err := f.invitations.GetByID(context.Background(), inv.InvitationID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Status != models.InvitationAccepted {
		t.Errorf("overdue flagging must not change status, got %s", stored.Status)
	}
}

func TestSweepAcceptedInvitationNeverWithdrawn(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusUnderReview)

	inv, err := f.invitationService(fixtureBase).Invite(context.Background(), manuscriptID, fixtureReviewerID, fixtureEditorID)
	if err != nil {
		t.Fatalf("Invite failed: %v", err)
	}
	if _, err := f.invitationService(fixtureBase.Add(24 * time.Hour)).Respond(context.Background(), inv.InvitationID, true); err != nil {
		t.Fatalf("Respond failed: %v", err)
	}

	day30 := fixtureBase.Add(30 * 24 * time.Hour)
	summary, err := f.sweepService(day30).Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if summary.Withdrawn != 0 {
		t.Errorf("accepted invitations are never auto-withdrawn, got %d", summary.Withdrawn)
	}
	if summary.Overdue != 1 {
		t.Errorf("expected the accepted invitation to be flagged overdue, got %d", summary.Overdue)
	}
}

func TestSweepNotificationFailureDoesNotAbortRun(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusUnderReview)

	svc := f.invitationService(fixtureBase)
	first, err := svc.Invite(context.Background(), manuscriptID, fixtureReviewerID, fixtureEditorID)
	if err != nil {
		t.Fatalf("first Invite failed: %v", err)
	}
	second, err := svc.Invite(context.Background(), manuscriptID, fixtureReviewer2, fixtureEditorID)
	if err != nil {
		t.Fatalf("second Invite failed: %v", err)
	}

	f.gateway.failFor["rafael.costa@example.edu"] = errors.New("smtp: mailbox unavailable")

	day8 := fixtureBase.Add(8 * 24 * time.Hour)
	summary, err := f.sweepService(day8).Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	// Both rows are stamped; only the delivery to the first reviewer failed.
	if summary.Reminded != 2 {
		t.Errorf("expected both invitations reminded, got %d", summary.Reminded)
	}
	if len(summary.Failures) != 1 {
		t.Fatalf("expected 1 recorded failure, got %d", len(summary.Failures))
	}
	if summary.Failures[0].InvitationID != first.InvitationID || summary.Failures[0].Stage != "reminder" {
		t.Errorf("unexpected failure record: %+v", summary.Failures[0])
	}

	for _, id := range []uint{first.InvitationID, second.InvitationID} {
		stored, err := f.invitations.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if stored.ReminderSentAt == nil {
			t.Errorf("invitation %d was not stamped", id)
		}
	}

	notices := f.gateway.byKind(TemplateReminder)
	if len(notices) != 1 || notices[0].Recipient != "mei.tanaka@example.edu" {
		t.Errorf("expected the second reviewer's reminder to go out, got %v", notices)
	}
}

func TestSweepUsesSingleTimeSnapshot(t *testing.T) {
	f := newEngineFixture()
	manuscriptID := f.addManuscript(models.StatusUnderReview)

	if _, err := f.invitationService(fixtureBase).Invite(context.Background(), manuscriptID, fixtureReviewerID, fixtureEditorID); err != nil {
		t.Fatalf("Invite failed: %v", err)
	}

	// A clock that jumps forward on every read. With a single snapshot the
	// invitation is only reminded; a re-read clock would also withdraw it.
	job := NewDeadlineSweepJobServiceWithStores(f.manuscripts, f.invitations, f.users, f.gateway)
	tick := fixtureBase.Add(8 * 24 * time.Hour)
	job.SetClock(func() time.Time {
		now := tick
		tick = tick.Add(10 * 24 * time.Hour)
		return now
	})

	summary, err := job.Run(context.Background(), "test")
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if summary.Reminded != 1 || summary.Withdrawn != 0 {
		t.Fatalf("expected 1 reminder and 0 withdrawals under one snapshot, got %d/%d", summary.Reminded, summary.Withdrawn)
	}
}
