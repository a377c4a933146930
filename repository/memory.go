package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"journal-management-api/models"
)

// In-memory implementations of the store interfaces. They mirror the
// conditional-write semantics of the gorm stores and back the engine tests.

// MemoryManuscriptRepository keeps manuscripts and their status history in
// process memory.
type MemoryManuscriptRepository struct {
	mu      sync.Mutex
	byID    map[uint]models.Manuscript
	history []models.ManuscriptStatusHistory
	nextID  uint
}

// NewMemoryManuscriptRepository constructs an empty MemoryManuscriptRepository.
func NewMemoryManuscriptRepository() *MemoryManuscriptRepository {
	return &MemoryManuscriptRepository{byID: make(map[uint]models.Manuscript), nextID: 1}
}

// Add seeds a manuscript and returns its assigned id.
func (r *MemoryManuscriptRepository) Add(m models.Manuscript) uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ManuscriptID == 0 {
		m.ManuscriptID = r.nextID
	}
	if m.ManuscriptID >= r.nextID {
		r.nextID = m.ManuscriptID + 1
	}
	r.byID[m.ManuscriptID] = m
	return m.ManuscriptID
}

func (r *MemoryManuscriptRepository) GetByID(ctx context.Context, id uint) (*models.Manuscript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := m
	return &copy, nil
}

func (r *MemoryManuscriptRepository) List(ctx context.Context, status models.ManuscriptStatus) ([]models.Manuscript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Manuscript
	for _, m := range r.byID {
		if status == "" || m.Status == status {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ManuscriptID < out[j].ManuscriptID })
	return out, nil
}

func (r *MemoryManuscriptRepository) UpdateStatus(ctx context.Context, id uint, from, to models.ManuscriptStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok || m.Status != from {
		return ErrConflict
	}
	m.Status = to
	m.UpdatedAt = at
	stamp := at
	switch to {
	case models.StatusSubmitted:
		m.SubmittedAt = &stamp
	case models.StatusAccepted, models.StatusRejected, models.StatusRevisionRequested:
		m.DecidedAt = &stamp
	case models.StatusPublished:
		m.PublishedAt = &stamp
	case models.StatusWithdrawn:
		m.WithdrawnAt = &stamp
	}
	r.byID[id] = m
	return nil
}

func (r *MemoryManuscriptRepository) RecordStatusChange(ctx context.Context, entry *models.ManuscriptStatusHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.HistoryID = uint(len(r.history) + 1)
	r.history = append(r.history, *entry)
	return nil
}

// History returns a copy of the recorded status changes.
func (r *MemoryManuscriptRepository) History() []models.ManuscriptStatusHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ManuscriptStatusHistory, len(r.history))
	copy(out, r.history)
	return out
}

// MemoryInvitationRepository keeps reviewer invitations in process memory.
type MemoryInvitationRepository struct {
	mu     sync.Mutex
	byID   map[uint]models.ReviewerInvitation
	nextID uint
}

// NewMemoryInvitationRepository constructs an empty MemoryInvitationRepository.
func NewMemoryInvitationRepository() *MemoryInvitationRepository {
	return &MemoryInvitationRepository{byID: make(map[uint]models.ReviewerInvitation), nextID: 1}
}

func (r *MemoryInvitationRepository) GetByID(ctx context.Context, id uint) (*models.ReviewerInvitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := inv
	return &copy, nil
}

func (r *MemoryInvitationRepository) GetByToken(ctx context.Context, token string) (*models.ReviewerInvitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.byID {
		if inv.Token == token {
			copy := inv
			return &copy, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryInvitationRepository) Create(ctx context.Context, inv *models.ReviewerInvitation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Check and insert under one lock so concurrent invites cannot both land.
	for _, existing := range r.byID {
		if existing.ManuscriptID == inv.ManuscriptID &&
			existing.ReviewerID == inv.ReviewerID &&
			existing.Status.IsLive() {
			return ErrDuplicateInvitation
		}
	}
	inv.InvitationID = r.nextID
	r.nextID++
	r.byID[inv.InvitationID] = *inv
	return nil
}

func (r *MemoryInvitationRepository) list(filter func(models.ReviewerInvitation) bool, limit int) []models.ReviewerInvitation {
	var out []models.ReviewerInvitation
	for _, inv := range r.byID {
		if filter(inv) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].InvitedAt.Equal(out[j].InvitedAt) {
			return out[i].InvitationID < out[j].InvitationID
		}
		return out[i].InvitedAt.Before(out[j].InvitedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *MemoryInvitationRepository) ListByManuscript(ctx context.Context, manuscriptID uint) ([]models.ReviewerInvitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(inv models.ReviewerInvitation) bool {
		return inv.ManuscriptID == manuscriptID
	}, 0), nil
}

func (r *MemoryInvitationRepository) ListPendingForReminder(ctx context.Context, after, before time.Time, limit int) ([]models.ReviewerInvitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(inv models.ReviewerInvitation) bool {
		return inv.Status == models.InvitationPending &&
			inv.ReminderSentAt == nil &&
			inv.InvitedAt.After(after) &&
			!inv.InvitedAt.After(before)
	}, limit), nil
}

func (r *MemoryInvitationRepository) ListPendingInvitedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReviewerInvitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(inv models.ReviewerInvitation) bool {
		return inv.Status == models.InvitationPending && !inv.InvitedAt.After(cutoff)
	}, limit), nil
}

func (r *MemoryInvitationRepository) ListAcceptedOverdue(ctx context.Context, now time.Time) ([]models.ReviewerInvitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(inv models.ReviewerInvitation) bool {
		return inv.Status == models.InvitationAccepted &&
			inv.ReviewDeadline != nil &&
			inv.ReviewDeadline.Before(now)
	}, 0), nil
}

func (r *MemoryInvitationRepository) mutate(id uint, guard func(models.ReviewerInvitation) bool, apply func(*models.ReviewerInvitation)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.byID[id]
	if !ok || !guard(inv) {
		return ErrConflict
	}
	apply(&inv)
	r.byID[id] = inv
	return nil
}

func (r *MemoryInvitationRepository) MarkAccepted(ctx context.Context, id uint, at, reviewDeadline time.Time) error {
	return r.mutate(id,
		func(inv models.ReviewerInvitation) bool { return inv.Status == models.InvitationPending },
		func(inv *models.ReviewerInvitation) {
			stamp := at
			deadline := reviewDeadline
			inv.Status = models.InvitationAccepted
			inv.AcceptedAt = &stamp
			inv.ReviewDeadline = &deadline
		})
}

func (r *MemoryInvitationRepository) MarkDeclined(ctx context.Context, id uint, at time.Time) error {
	return r.mutate(id,
		func(inv models.ReviewerInvitation) bool { return inv.Status == models.InvitationPending },
		func(inv *models.ReviewerInvitation) {
			stamp := at
			inv.Status = models.InvitationDeclined
			inv.DeclinedAt = &stamp
		})
}

func (r *MemoryInvitationRepository) MarkCompleted(ctx context.Context, id uint, at time.Time) error {
	return r.mutate(id,
		func(inv models.ReviewerInvitation) bool { return inv.Status == models.InvitationAccepted },
		func(inv *models.ReviewerInvitation) {
			stamp := at
			inv.Status = models.InvitationCompleted
			inv.CompletedAt = &stamp
		})
}

func (r *MemoryInvitationRepository) MarkReminded(ctx context.Context, id uint, at time.Time) error {
	return r.mutate(id,
		func(inv models.ReviewerInvitation) bool {
			return inv.Status == models.InvitationPending && inv.ReminderSentAt == nil
		},
		func(inv *models.ReviewerInvitation) {
			stamp := at
			inv.ReminderSentAt = &stamp
		})
}

func (r *MemoryInvitationRepository) Withdraw(ctx context.Context, id uint, at time.Time) error {
	return r.mutate(id,
		func(inv models.ReviewerInvitation) bool { return inv.Status == models.InvitationPending },
		func(inv *models.ReviewerInvitation) {
			stamp := at
			inv.Status = models.InvitationWithdrawn
			inv.WithdrawnAt = &stamp
		})
}

func (r *MemoryInvitationRepository) WithdrawAllForManuscript(ctx context.Context, manuscriptID uint, at time.Time) ([]models.ReviewerInvitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var withdrawn []models.ReviewerInvitation
	for id, inv := range r.byID {
		if inv.ManuscriptID != manuscriptID || !inv.Status.IsLive() {
			continue
		}
		stamp := at
		inv.Status = models.InvitationWithdrawn
		inv.WithdrawnAt = &stamp
		r.byID[id] = inv
		withdrawn = append(withdrawn, inv)
	}
	sort.Slice(withdrawn, func(i, j int) bool {
		return withdrawn[i].InvitedAt.Before(withdrawn[j].InvitedAt)
	})
	return withdrawn, nil
}

// MemoryDecisionRepository keeps editorial decisions in process memory.
type MemoryDecisionRepository struct {
	mu   sync.Mutex
	rows []models.EditorialDecision
}

// NewMemoryDecisionRepository constructs an empty MemoryDecisionRepository.
func NewMemoryDecisionRepository() *MemoryDecisionRepository {
	return &MemoryDecisionRepository{}
}

func (r *MemoryDecisionRepository) Create(ctx context.Context, decision *models.EditorialDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	decision.DecisionID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, *decision)
	return nil
}

func (r *MemoryDecisionRepository) ListByManuscript(ctx context.Context, manuscriptID uint) ([]models.EditorialDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.EditorialDecision
	for _, d := range r.rows {
		if d.ManuscriptID == manuscriptID {
			out = append(out, d)
		}
	}
	return out, nil
}

// MemoryUserRepository keeps identity rows in process memory.
type MemoryUserRepository struct {
	mu   sync.Mutex
	byID map[uint]models.User
}

// NewMemoryUserRepository constructs an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{byID: make(map[uint]models.User)}
}

// Add seeds a user row.
func (r *MemoryUserRepository) Add(user models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[user.UserID] = user
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := user
	return &copy, nil
}
