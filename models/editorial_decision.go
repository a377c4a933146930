package models

import "time"

// DecisionValue is an editor's verdict on a manuscript.
type DecisionValue string

const (
	DecisionAccept   DecisionValue = "accept"
	DecisionReject   DecisionValue = "reject"
	DecisionRevision DecisionValue = "revision"
)

// TargetStatus maps a decision value to the manuscript status it implies.
func (d DecisionValue) TargetStatus() (ManuscriptStatus, bool) {
	switch d {
	case DecisionAccept:
		return StatusAccepted, true
	case DecisionReject:
		return StatusRejected, true
	case DecisionRevision:
		return StatusRevisionRequested, true
	}
	return "", false
}

// EditorialDecision represents the editorial_decisions table. Records are
// append-only; a manuscript accumulates one row per revision cycle.
type EditorialDecision struct {
	DecisionID   uint          `gorm:"primaryKey;column:decision_id" json:"decision_id"`
	ManuscriptID uint          `gorm:"column:manuscript_id" json:"manuscript_id"`
	EditorID     uint          `gorm:"column:editor_id" json:"editor_id"`
	Decision     DecisionValue `gorm:"column:decision" json:"decision"`
	Comments     *string       `gorm:"column:comments" json:"comments,omitempty"`
	DecidedAt    time.Time     `gorm:"column:decided_at" json:"decided_at"`

	Editor *User `gorm:"foreignKey:EditorID" json:"editor,omitempty"`
}

// TableName specifies the table name for EditorialDecision.
func (EditorialDecision) TableName() string {
	return "editorial_decisions"
}
