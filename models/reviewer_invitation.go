package models

import "time"

// InvitationStatus is the lifecycle state of a reviewer invitation.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationCompleted InvitationStatus = "completed"
	InvitationWithdrawn InvitationStatus = "withdrawn"
)

// IsLive reports whether the invitation still occupies the reviewer slot.
// Only one live invitation may exist per (manuscript, reviewer) pair.
func (s InvitationStatus) IsLive() bool {
	return s == InvitationPending || s == InvitationAccepted
}

// Deadline policy for reviewer invitations.
const (
	// ResponseWindow is how long a reviewer has to accept or decline.
	ResponseWindow = 7 * 24 * time.Hour
	// WithdrawalWindow is how long an unanswered invitation survives in total.
	WithdrawalWindow = 14 * 24 * time.Hour
	// ReviewWindow is how long an accepted review may take.
	ReviewWindow = 21 * 24 * time.Hour
)

// ReviewerInvitation represents the reviewer_invitations table. Rows are never
// deleted; terminal states are retained for audit.
type ReviewerInvitation struct {
	InvitationID     uint             `gorm:"primaryKey;column:invitation_id" json:"invitation_id"`
	ManuscriptID     uint             `gorm:"column:manuscript_id" json:"manuscript_id"`
	ReviewerID       uint             `gorm:"column:reviewer_id" json:"reviewer_id"`
	InvitedBy        uint             `gorm:"column:invited_by" json:"invited_by"`
	Token            string           `gorm:"column:token;unique" json:"-"`
	Status           InvitationStatus `gorm:"column:status" json:"status"`
	InvitedAt        time.Time        `gorm:"column:invited_at" json:"invited_at"`
	ResponseDeadline time.Time        `gorm:"column:response_deadline" json:"response_deadline"`
	AcceptedAt       *time.Time       `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	ReviewDeadline   *time.Time       `gorm:"column:review_deadline" json:"review_deadline,omitempty"`
	DeclinedAt       *time.Time       `gorm:"column:declined_at" json:"declined_at,omitempty"`
	CompletedAt      *time.Time       `gorm:"column:completed_at" json:"completed_at,omitempty"`
	ReminderSentAt   *time.Time       `gorm:"column:reminder_sent_at" json:"reminder_sent_at,omitempty"`
	WithdrawnAt      *time.Time       `gorm:"column:withdrawn_at" json:"withdrawn_at,omitempty"`

	// Relations
	Reviewer   *User       `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Manuscript *Manuscript `gorm:"foreignKey:ManuscriptID" json:"manuscript,omitempty"`
}

// TableName specifies the table name for ReviewerInvitation.
func (ReviewerInvitation) TableName() string {
	return "reviewer_invitations"
}
