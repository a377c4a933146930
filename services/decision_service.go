package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"journal-management-api/models"
	"journal-management-api/repository"

	"gorm.io/gorm"
)

// DecisionService records editorial decisions. The manuscript transition is
// applied first; the immutable decision row is appended only when the
// transition succeeded, so no decision record can exist for a transition that
// never happened.
type DecisionService struct {
	state     *ManuscriptStateService
	decisions repository.DecisionRepository
	users     repository.UserRepository
	gateway   NotificationGateway
	now       func() time.Time
}

// NewDecisionService constructs a DecisionService over the database-backed
// stores. A nil db falls back to the global connection.
func NewDecisionService(db *gorm.DB) *DecisionService {
	return NewDecisionServiceWithStores(
		NewManuscriptStateService(db),
		repository.NewGormDecisionRepository(db),
		repository.NewGormUserRepository(db),
		NewEmailNotificationGateway(),
	)
}

// NewDecisionServiceWithStores constructs a DecisionService over explicit
// collaborators; tests pass the in-memory implementations.
func NewDecisionServiceWithStores(
	state *ManuscriptStateService,
	decisions repository.DecisionRepository,
	users repository.UserRepository,
	gateway NotificationGateway,
) *DecisionService {
	return &DecisionService{
		state:     state,
		decisions: decisions,
		users:     users,
		gateway:   gateway,
		now:       time.Now,
	}
}

// SetClock overrides the service clock; tests use it to pin "now".
func (s *DecisionService) SetClock(now func() time.Time) {
	s.now = now
	s.state.SetClock(now)
}

// Decide applies the editor's verdict: the manuscript transitions to the
// status the decision implies, the decision is appended to the immutable
// history, and the author is notified best-effort. A failed transition (for
// example a concurrent withdrawal) leaves no decision record behind.
func (s *DecisionService) Decide(ctx context.Context, manuscriptID, editorID uint, decision models.DecisionValue, comments *string) (*models.EditorialDecision, error) {
	target, ok := decision.TargetStatus()
	if !ok {
		return nil, fmt.Errorf("unknown decision value '%s'", decision)
	}

	manuscript, err := s.state.Transition(ctx, manuscriptID, target, editorID,
		fmt.Sprintf("editorial_decision:%s", decision))
	if err != nil {
		return nil, err
	}

	record := &models.EditorialDecision{
		ManuscriptID: manuscriptID,
		EditorID:     editorID,
		Decision:     decision,
		Comments:     comments,
		DecidedAt:    s.now(),
	}
	if err := s.decisions.Create(ctx, record); err != nil {
		// The transition already landed; surface the append failure loudly
		// instead of inventing a compensating edge that the graph forbids.
		log.Printf("ALERT: manuscript %d transitioned to '%s' but decision record failed: %v",
			manuscriptID, target, err)
		return nil, err
	}

	if err := s.notifyAuthor(ctx, manuscript, record); err != nil {
		log.Printf("decision notice for manuscript %d failed: %v", manuscriptID, err)
	}

	return record, nil
}

func (s *DecisionService) notifyAuthor(ctx context.Context, manuscript *models.Manuscript, record *models.EditorialDecision) error {
	author, err := s.users.GetByID(ctx, manuscript.AuthorID)
	if err != nil {
		return fmt.Errorf("load author %d: %w", manuscript.AuthorID, err)
	}
	data := TemplateData{
		"RecipientName":   author.FullName(),
		"ManuscriptTitle": manuscript.Title,
		"Decision":        string(record.Decision),
	}
	if record.Comments != nil {
		data["Comments"] = *record.Comments
	}
	return s.gateway.Send(ctx, author.Email, TemplateDecision, data)
}

// ListForManuscript returns the manuscript's decision history in order.
func (s *DecisionService) ListForManuscript(ctx context.Context, manuscriptID uint) ([]models.EditorialDecision, error) {
	return s.decisions.ListByManuscript(ctx, manuscriptID)
}
