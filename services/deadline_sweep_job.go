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

const defaultSweepBatchSize = 100

// DeadlineSweepFailure describes one non-fatal problem encountered during a
// sweep, typically a notification that could not be delivered.
type DeadlineSweepFailure struct {
	InvitationID uint   `json:"invitation_id"`
	Stage        string `json:"stage"`
	Error        string `json:"error"`
}

// DeadlineSweepSummary summarises one sweep execution.
type DeadlineSweepSummary struct {
	Reminded   int                    `json:"reminded"`
	Withdrawn  int                    `json:"withdrawn"`
	Overdue    int                    `json:"overdue"`
	OverdueIDs []uint                 `json:"overdue_invitation_ids,omitempty"`
	Failures   []DeadlineSweepFailure `json:"failures"`
}

// DeadlineSweepJobService runs the deadline automation. Each Run makes three
// idempotent passes (reminders, withdrawals, overdue flagging) against a
// single time snapshot.
type DeadlineSweepJobService struct {
	manuscripts repository.ManuscriptRepository
	invitations repository.InvitationRepository
	users       repository.UserRepository
	gateway     NotificationGateway
	runs        *DeadlineSweepRunService
	batchSize   int
	now         func() time.Time
}

// NewDeadlineSweepJobService constructs a DeadlineSweepJobService over the
// database-backed stores. A nil db falls back to the global connection.
func NewDeadlineSweepJobService(db *gorm.DB) *DeadlineSweepJobService {
	svc := NewDeadlineSweepJobServiceWithStores(
		repository.NewGormManuscriptRepository(db),
		repository.NewGormInvitationRepository(db),
		repository.NewGormUserRepository(db),
		NewEmailNotificationGateway(),
	)
	svc.runs = NewDeadlineSweepRunService(db)
	return svc
}

// NewDeadlineSweepJobServiceWithStores constructs a DeadlineSweepJobService
// over explicit stores; tests pass the in-memory implementations. Run
// bookkeeping is disabled unless a run service is attached.
func NewDeadlineSweepJobServiceWithStores(
	manuscripts repository.ManuscriptRepository,
	invitations repository.InvitationRepository,
	users repository.UserRepository,
	gateway NotificationGateway,
) *DeadlineSweepJobService {
	return &DeadlineSweepJobService{
		manuscripts: manuscripts,
		invitations: invitations,
		users:       users,
		gateway:     gateway,
		batchSize:   defaultSweepBatchSize,
		now:         time.Now,
	}
}

// SetClock overrides the job clock; tests use it to pin "now".
func (s *DeadlineSweepJobService) SetClock(now func() time.Time) {
	s.now = now
}

// SetBatchSize overrides the per-query batch size.
func (s *DeadlineSweepJobService) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// Run executes one sweep. now is captured once so an invitation can never be
// judged against two different clocks within the same sweep; the reminder
// window is bounded above by the withdrawal cutoff, so no invitation is both
// reminded and withdrawn in one run.
func (s *DeadlineSweepJobService) Run(ctx context.Context, trigger string) (*DeadlineSweepSummary, error) {
	started := time.Now()
	now := s.now()
	summary := &DeadlineSweepSummary{Failures: []DeadlineSweepFailure{}}

	var runID uint
	if s.runs != nil {
		run, err := s.runs.Start(trigger)
		if err != nil {
			log.Printf("failed to record sweep run start: %v", err)
		} else {
			runID = run.RunID
		}
	}

	err := s.sweep(ctx, now, summary)

	if s.runs != nil && runID != 0 {
		duration := time.Since(started).Seconds()
		var bookErr error
		if err != nil {
			bookErr = s.runs.MarkFailure(runID, summary, err, duration)
		} else {
			bookErr = s.runs.MarkSuccess(runID, summary, duration)
		}
		if bookErr != nil {
			log.Printf("failed to record sweep run %d result: %v", runID, bookErr)
		}
	}

	return summary, err
}

func (s *DeadlineSweepJobService) sweep(ctx context.Context, now time.Time, summary *DeadlineSweepSummary) error {
	if err := s.reminderPass(ctx, now, summary); err != nil {
		return fmt.Errorf("reminder pass: %w", err)
	}
	if err := s.withdrawalPass(ctx, now, summary); err != nil {
		return fmt.Errorf("withdrawal pass: %w", err)
	}
	if err := s.overduePass(ctx, now, summary); err != nil {
		return fmt.Errorf("overdue pass: %w", err)
	}
	return nil
}

// reminderPass stamps and notifies pending invitations inside the reminder
// window (response deadline passed, withdrawal cutoff not yet reached).
func (s *DeadlineSweepJobService) reminderPass(ctx context.Context, now time.Time, summary *DeadlineSweepSummary) error {
	after := now.Add(-models.WithdrawalWindow)
	before := now.Add(-models.ResponseWindow)

	for {
		batch, err := s.invitations.ListPendingForReminder(ctx, after, before, s.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		progressed := 0
		for _, inv := range batch {
			err := s.invitations.MarkReminded(ctx, inv.InvitationID, now)
			if errors.Is(err, repository.ErrConflict) {
				// Answered or already reminded since the batch was read.
				progressed++
				continue
			}
			if err != nil {
				summary.addFailure(inv.InvitationID, "reminder", err)
				continue
			}
			progressed++
			summary.Reminded++

			if err := s.sendReminder(ctx, inv); err != nil {
				summary.addFailure(inv.InvitationID, "reminder", err)
			}
		}
		if len(batch) < s.batchSize || progressed == 0 {
			// Window drained, or nothing in this batch could be stamped;
			// stop rather than spin on the same rows.
			return nil
		}
	}
}

// withdrawalPass withdraws pending invitations past the withdrawal cutoff and
// notifies both sides.
func (s *DeadlineSweepJobService) withdrawalPass(ctx context.Context, now time.Time, summary *DeadlineSweepSummary) error {
	cutoff := now.Add(-models.WithdrawalWindow)

	for {
		batch, err := s.invitations.ListPendingInvitedBefore(ctx, cutoff, s.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		progressed := 0
		for _, inv := range batch {
			err := s.invitations.Withdraw(ctx, inv.InvitationID, now)
			if errors.Is(err, repository.ErrConflict) {
				// A late response or a concurrent sweep got there first.
				progressed++
				continue
			}
			if err != nil {
				summary.addFailure(inv.InvitationID, "withdrawal", err)
				continue
			}
			progressed++
			summary.Withdrawn++

			if err := s.sendWithdrawalNotices(ctx, inv); err != nil {
				summary.addFailure(inv.InvitationID, "withdrawal", err)
			}
		}
		if len(batch) < s.batchSize || progressed == 0 {
			return nil
		}
	}
}

// overduePass reports accepted invitations past their review deadline. They
// stay accepted: reassignment is an editor's call, not the scheduler's.
func (s *DeadlineSweepJobService) overduePass(ctx context.Context, now time.Time, summary *DeadlineSweepSummary) error {
	overdue, err := s.invitations.ListAcceptedOverdue(ctx, now)
	if err != nil {
		return err
	}
	summary.Overdue = len(overdue)
	for _, inv := range overdue {
		summary.OverdueIDs = append(summary.OverdueIDs, inv.InvitationID)
	}
	return nil
}

func (s *DeadlineSweepJobService) sendReminder(ctx context.Context, inv models.ReviewerInvitation) error {
	reviewer, manuscript, err := s.loadParties(ctx, inv)
	if err != nil {
		return err
	}
	return s.gateway.Send(ctx, reviewer.Email, TemplateReminder, TemplateData{
		"RecipientName":   reviewer.FullName(),
		"ManuscriptTitle": manuscript.Title,
		"WithdrawalDate":  inv.InvitedAt.Add(models.WithdrawalWindow).Format(dateLayout),
	})
}

func (s *DeadlineSweepJobService) sendWithdrawalNotices(ctx context.Context, inv models.ReviewerInvitation) error {
	reviewer, manuscript, err := s.loadParties(ctx, inv)
	if err != nil {
		return err
	}
	if err := s.gateway.Send(ctx, reviewer.Email, TemplateWithdrawal, TemplateData{
		"RecipientName":   reviewer.FullName(),
		"ManuscriptTitle": manuscript.Title,
		"Reason":          "no response was received before the deadline",
	}); err != nil {
		return err
	}

	editor, err := s.users.GetByID(ctx, inv.InvitedBy)
	if err != nil {
		return fmt.Errorf("load editor %d: %w", inv.InvitedBy, err)
	}
	return s.gateway.Send(ctx, editor.Email, TemplateWithdrawal, TemplateData{
		"RecipientName":   editor.FullName(),
		"ManuscriptTitle": manuscript.Title,
		"Reason":          "the invitation expired unanswered; the review slot is open again",
	})
}

func (s *DeadlineSweepJobService) loadParties(ctx context.Context, inv models.ReviewerInvitation) (*models.User, *models.Manuscript, error) {
	reviewer, err := s.users.GetByID(ctx, inv.ReviewerID)
	if err != nil {
		return nil, nil, fmt.Errorf("load reviewer %d: %w", inv.ReviewerID, err)
	}
	manuscript, err := s.manuscripts.GetByID(ctx, inv.ManuscriptID)
	if err != nil {
		return nil, nil, fmt.Errorf("load manuscript %d: %w", inv.ManuscriptID, err)
	}
	return reviewer, manuscript, nil
}

func (s *DeadlineSweepSummary) addFailure(invitationID uint, stage string, err error) {
	s.Failures = append(s.Failures, DeadlineSweepFailure{
		InvitationID: invitationID,
		Stage:        stage,
		Error:        err.Error(),
	})
	log.Printf("deadline sweep: %s failed for invitation %d: %v", stage, invitationID, err)
}
