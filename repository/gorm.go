package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/gorm"
)

// GormManuscriptRepository is the MySQL-backed manuscript store.
type GormManuscriptRepository struct {
	db *gorm.DB
}

// NewGormManuscriptRepository constructs a GormManuscriptRepository.
func NewGormManuscriptRepository(db *gorm.DB) *GormManuscriptRepository {
	if db == nil {
		db = config.DB
	}
	return &GormManuscriptRepository{db: db}
}

func (r *GormManuscriptRepository) GetByID(ctx context.Context, id uint) (*models.Manuscript, error) {
	var manuscript models.Manuscript
	err := r.db.WithContext(ctx).Where("manuscript_id = ?", id).First(&manuscript).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &manuscript, nil
}

func (r *GormManuscriptRepository) List(ctx context.Context, status models.ManuscriptStatus) ([]models.Manuscript, error) {
	query := r.db.WithContext(ctx).Model(&models.Manuscript{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var manuscripts []models.Manuscript
	if err := query.Order("manuscript_id ASC").Find(&manuscripts).Error; err != nil {
		return nil, err
	}
	return manuscripts, nil
}

func (r *GormManuscriptRepository) UpdateStatus(ctx context.Context, id uint, from, to models.ManuscriptStatus, at time.Time) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case models.StatusSubmitted:
		updates["submitted_at"] = at
	case models.StatusAccepted, models.StatusRejected, models.StatusRevisionRequested:
		updates["decided_at"] = at
	case models.StatusPublished:
		updates["published_at"] = at
	case models.StatusWithdrawn:
		updates["withdrawn_at"] = at
	}

	res := r.db.WithContext(ctx).Model(&models.Manuscript{}).
		Where("manuscript_id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *GormManuscriptRepository) RecordStatusChange(ctx context.Context, entry *models.ManuscriptStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// GormInvitationRepository is the MySQL-backed invitation store. The live-pair
// uniqueness guard relies on the unique index over
// (manuscript_id, reviewer_id, live_pair), where live_pair is a generated
// column that is NULL for terminal statuses.
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewGormInvitationRepository constructs a GormInvitationRepository.
func NewGormInvitationRepository(db *gorm.DB) *GormInvitationRepository {
	if db == nil {
		db = config.DB
	}
	return &GormInvitationRepository{db: db}
}

func (r *GormInvitationRepository) getBy(ctx context.Context, cond string, value interface{}) (*models.ReviewerInvitation, error) {
	var invitation models.ReviewerInvitation
	err := r.db.WithContext(ctx).Where(cond, value).First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &invitation, nil
}

func (r *GormInvitationRepository) GetByID(ctx context.Context, id uint) (*models.ReviewerInvitation, error) {
	return r.getBy(ctx, "invitation_id = ?", id)
}

func (r *GormInvitationRepository) GetByToken(ctx context.Context, token string) (*models.ReviewerInvitation, error) {
	return r.getBy(ctx, "token = ?", token)
}

func (r *GormInvitationRepository) Create(ctx context.Context, inv *models.ReviewerInvitation) error {
	err := r.db.WithContext(ctx).Create(inv).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
		return ErrDuplicateInvitation
	}
	return err
}

func (r *GormInvitationRepository) ListByManuscript(ctx context.Context, manuscriptID uint) ([]models.ReviewerInvitation, error) {
	var invitations []models.ReviewerInvitation
	err := r.db.WithContext(ctx).
		Where("manuscript_id = ?", manuscriptID).
		Order("invited_at ASC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *GormInvitationRepository) ListPendingForReminder(ctx context.Context, after, before time.Time, limit int) ([]models.ReviewerInvitation, error) {
	var invitations []models.ReviewerInvitation
	query := r.db.WithContext(ctx).
		Where("status = ? AND reminder_sent_at IS NULL AND invited_at > ? AND invited_at <= ?",
			models.InvitationPending, after, before).
		Order("invited_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *GormInvitationRepository) ListPendingInvitedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReviewerInvitation, error) {
	var invitations []models.ReviewerInvitation
	query := r.db.WithContext(ctx).
		Where("status = ? AND invited_at <= ?", models.InvitationPending, cutoff).
		Order("invited_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *GormInvitationRepository) ListAcceptedOverdue(ctx context.Context, now time.Time) ([]models.ReviewerInvitation, error) {
	var invitations []models.ReviewerInvitation
	err := r.db.WithContext(ctx).
		Where("status = ? AND review_deadline IS NOT NULL AND review_deadline < ?",
			models.InvitationAccepted, now).
		Order("invited_at ASC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

// conditionalUpdate applies updates to the invitation only while it is still
// in the expected status.
func (r *GormInvitationRepository) conditionalUpdate(ctx context.Context, id uint, expected models.InvitationStatus, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.ReviewerInvitation{}).
		Where("invitation_id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *GormInvitationRepository) MarkAccepted(ctx context.Context, id uint, at, reviewDeadline time.Time) error {
	return r.conditionalUpdate(ctx, id, models.InvitationPending, map[string]interface{}{
		"status":          models.InvitationAccepted,
		"accepted_at":     at,
		"review_deadline": reviewDeadline,
	})
}

func (r *GormInvitationRepository) MarkDeclined(ctx context.Context, id uint, at time.Time) error {
	return r.conditionalUpdate(ctx, id, models.InvitationPending, map[string]interface{}{
		"status":      models.InvitationDeclined,
		"declined_at": at,
	})
}

func (r *GormInvitationRepository) MarkCompleted(ctx context.Context, id uint, at time.Time) error {
	return r.conditionalUpdate(ctx, id, models.InvitationAccepted, map[string]interface{}{
		"status":       models.InvitationCompleted,
		"completed_at": at,
	})
}

func (r *GormInvitationRepository) MarkReminded(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.ReviewerInvitation{}).
		Where("invitation_id = ? AND status = ? AND reminder_sent_at IS NULL", id, models.InvitationPending).
		Update("reminder_sent_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *GormInvitationRepository) Withdraw(ctx context.Context, id uint, at time.Time) error {
	return r.conditionalUpdate(ctx, id, models.InvitationPending, map[string]interface{}{
		"status":       models.InvitationWithdrawn,
		"withdrawn_at": at,
	})
}

func (r *GormInvitationRepository) WithdrawAllForManuscript(ctx context.Context, manuscriptID uint, at time.Time) ([]models.ReviewerInvitation, error) {
	res := r.db.WithContext(ctx).Model(&models.ReviewerInvitation{}).
		Where("manuscript_id = ? AND status IN ?", manuscriptID,
			[]models.InvitationStatus{models.InvitationPending, models.InvitationAccepted}).
		Updates(map[string]interface{}{
			"status":       models.InvitationWithdrawn,
			"withdrawn_at": at,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	var withdrawn []models.ReviewerInvitation
	err := r.db.WithContext(ctx).
		Where("manuscript_id = ? AND status = ? AND withdrawn_at = ?",
			manuscriptID, models.InvitationWithdrawn, at).
		Order("invited_at ASC").
		Find(&withdrawn).Error
	if err != nil {
		return nil, err
	}
	return withdrawn, nil
}

// GormDecisionRepository is the MySQL-backed decision store.
type GormDecisionRepository struct {
	db *gorm.DB
}

// NewGormDecisionRepository constructs a GormDecisionRepository.
func NewGormDecisionRepository(db *gorm.DB) *GormDecisionRepository {
	if db == nil {
		db = config.DB
	}
	return &GormDecisionRepository{db: db}
}

func (r *GormDecisionRepository) Create(ctx context.Context, decision *models.EditorialDecision) error {
	return r.db.WithContext(ctx).Create(decision).Error
}

func (r *GormDecisionRepository) ListByManuscript(ctx context.Context, manuscriptID uint) ([]models.EditorialDecision, error) {
	var decisions []models.EditorialDecision
	err := r.db.WithContext(ctx).
		Where("manuscript_id = ?", manuscriptID).
		Order("decided_at ASC").
		Find(&decisions).Error
	if err != nil {
		return nil, err
	}
	return decisions, nil
}

// GormUserRepository reads identity rows.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository constructs a GormUserRepository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	if db == nil {
		db = config.DB
	}
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("user_id = ? AND delete_at IS NULL", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
