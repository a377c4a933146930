package services

import (
	"errors"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/gorm"
)

var ErrDeadlineSweepRunNotFound = errors.New("deadline sweep run not found")

// DeadlineSweepRunService records sweep executions for the admin dashboard.
type DeadlineSweepRunService struct {
	db *gorm.DB
}

// NewDeadlineSweepRunService constructs a DeadlineSweepRunService.
func NewDeadlineSweepRunService(db *gorm.DB) *DeadlineSweepRunService {
	if db == nil {
		db = config.DB
	}
	return &DeadlineSweepRunService{db: db}
}

func (s *DeadlineSweepRunService) Start(trigger string) (*models.DeadlineSweepRun, error) {
	if trigger == "" {
		trigger = "unknown"
	}
	run := &models.DeadlineSweepRun{
		TriggerSource: trigger,
		Status:        models.DeadlineSweepStatusRunning,
		StartedAt:     time.Now(),
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (s *DeadlineSweepRunService) MarkSuccess(runID uint, summary *DeadlineSweepSummary, duration float64) error {
	return s.finish(runID, models.DeadlineSweepStatusSuccess, summary, nil, duration)
}

func (s *DeadlineSweepRunService) MarkFailure(runID uint, summary *DeadlineSweepSummary, err error, duration float64) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return s.finish(runID, models.DeadlineSweepStatusFailed, summary, &msg, duration)
}

func (s *DeadlineSweepRunService) finish(runID uint, status string, summary *DeadlineSweepSummary, errMsg *string, duration float64) error {
	updates := map[string]interface{}{
		"status":           status,
		"finished_at":      time.Now(),
		"duration_seconds": duration,
	}
	if summary != nil {
		updates["reminded_count"] = summary.Reminded
		updates["withdrawn_count"] = summary.Withdrawn
		updates["overdue_count"] = summary.Overdue
		updates["failure_count"] = len(summary.Failures)
	}
	if errMsg != nil {
		msg := *errMsg
		if len(msg) > 2000 {
			msg = msg[:1997] + "..."
		}
		updates["error_message"] = msg
	}

	res := s.db.Model(&models.DeadlineSweepRun{}).Where("run_id = ?", runID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDeadlineSweepRunNotFound
	}
	return nil
}

// Recent returns the latest sweep runs, newest first.
func (s *DeadlineSweepRunService) Recent(limit int) ([]models.DeadlineSweepRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.DeadlineSweepRun
	if err := s.db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
