package models

import "time"

// ManuscriptStatus is the lifecycle state of a submitted manuscript.
type ManuscriptStatus string

const (
	StatusDraft             ManuscriptStatus = "draft"
	StatusSubmitted         ManuscriptStatus = "submitted"
	StatusTechnicalCheck    ManuscriptStatus = "technical_check"
	StatusUnderReview       ManuscriptStatus = "under_review"
	StatusRevisionRequested ManuscriptStatus = "revision_requested"
	StatusRevisionSubmitted ManuscriptStatus = "revision_submitted"
	StatusAccepted          ManuscriptStatus = "accepted"
	StatusRejected          ManuscriptStatus = "rejected"
	StatusPublished         ManuscriptStatus = "published"
	StatusWithdrawn         ManuscriptStatus = "withdrawn"
)

// manuscriptTransitions holds the allowed forward edges of the lifecycle.
// Withdrawal is handled separately: every non-terminal state may withdraw.
var manuscriptTransitions = map[ManuscriptStatus][]ManuscriptStatus{
	StatusDraft:             {StatusSubmitted},
	StatusSubmitted:         {StatusTechnicalCheck},
	StatusTechnicalCheck:    {StatusUnderReview, StatusRejected},
	StatusUnderReview:       {StatusRevisionRequested, StatusAccepted, StatusRejected},
	StatusRevisionRequested: {StatusRevisionSubmitted},
	StatusRevisionSubmitted: {StatusUnderReview},
	StatusAccepted:          {StatusPublished},
}

// IsValid reports whether s is one of the known lifecycle states.
func (s ManuscriptStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusTechnicalCheck, StatusUnderReview,
		StatusRevisionRequested, StatusRevisionSubmitted, StatusAccepted,
		StatusRejected, StatusPublished, StatusWithdrawn:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s ManuscriptStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusPublished || s == StatusWithdrawn
}

// CanTransitionTo reports whether the edge s -> target is in the lifecycle graph.
func (s ManuscriptStatus) CanTransitionTo(target ManuscriptStatus) bool {
	if target == StatusWithdrawn {
		return !s.IsTerminal()
	}
	for _, allowed := range manuscriptTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsReviewable reports whether reviewer invitations may be created in state s.
func (s ManuscriptStatus) IsReviewable() bool {
	return s == StatusUnderReview || s == StatusRevisionSubmitted
}

// Manuscript represents the manuscripts table.
type Manuscript struct {
	ManuscriptID     uint             `gorm:"primaryKey;column:manuscript_id" json:"manuscript_id"`
	ManuscriptNumber string           `gorm:"column:manuscript_number" json:"manuscript_number"`
	Title            string           `gorm:"column:title" json:"title"`
	Abstract         string           `gorm:"column:abstract" json:"abstract"`
	AuthorID         uint             `gorm:"column:author_id" json:"author_id"`
	Status           ManuscriptStatus `gorm:"column:status" json:"status"`
	SubmittedAt      *time.Time       `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	DecidedAt        *time.Time       `gorm:"column:decided_at" json:"decided_at,omitempty"`
	PublishedAt      *time.Time       `gorm:"column:published_at" json:"published_at,omitempty"`
	WithdrawnAt      *time.Time       `gorm:"column:withdrawn_at" json:"withdrawn_at,omitempty"`
	CreatedAt        time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// TableName specifies the table name for Manuscript.
func (Manuscript) TableName() string {
	return "manuscripts"
}
