package models

import "time"

const (
	DeadlineSweepStatusRunning = "running"
	DeadlineSweepStatusSuccess = "success"
	DeadlineSweepStatusFailed  = "failed"
)

// DeadlineSweepRun records one execution of the deadline automation sweep.
type DeadlineSweepRun struct {
	RunID           uint       `gorm:"primaryKey;column:run_id" json:"run_id"`
	TriggerSource   string     `gorm:"column:trigger_source" json:"trigger_source"`
	Status          string     `gorm:"column:status" json:"status"`
	StartedAt       time.Time  `gorm:"column:started_at" json:"started_at"`
	FinishedAt      *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
	DurationSeconds float64    `gorm:"column:duration_seconds" json:"duration_seconds"`
	RemindedCount   int        `gorm:"column:reminded_count" json:"reminded_count"`
	WithdrawnCount  int        `gorm:"column:withdrawn_count" json:"withdrawn_count"`
	OverdueCount    int        `gorm:"column:overdue_count" json:"overdue_count"`
	FailureCount    int        `gorm:"column:failure_count" json:"failure_count"`
	ErrorMessage    *string    `gorm:"column:error_message" json:"error_message,omitempty"`
}

// TableName specifies the table for DeadlineSweepRun.
func (DeadlineSweepRun) TableName() string {
	return "deadline_sweep_runs"
}
