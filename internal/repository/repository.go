package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"aura-protocol-go/internal/model"
)

// DefaultListLimit caps ListSubmissions when no limit is given.
const DefaultListLimit = 100

type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Ping checks that the database answers.
func (r *Repository) Ping() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func (r *Repository) IsEmailVerified(sourceHash string) (bool, error) {
	var verified model.VerifiedEmail
	result := r.db.Where("source_hash = ?", sourceHash).First(&verified)
	if result.Error == nil {
		return true, nil
	}
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("database error checking verified email: %w", result.Error)
}

func (r *Repository) MarkEmailVerified(sourceHash, tier, transactionID string) error {
	verified := model.VerifiedEmail{
		SourceHash:    sourceHash,
		Tier:          tier,
		TransactionID: transactionID,
		VerifiedAt:    r.now(),
	}
	if err := r.db.Create(&verified).Error; err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}
	return nil
}

func (r *Repository) LogSubmission(entry *model.SubmissionLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to log submission: %w", err)
	}
	return nil
}

// UpdateSubmissionStatus sets the status of every log entry for transactionID.
func (r *Repository) UpdateSubmissionStatus(transactionID, status, errorMsg string) error {
	result := r.db.Model(&model.SubmissionLog{}).
		Where("transaction_id = ?", transactionID).
		Updates(map[string]interface{}{"status": status, "error_msg": errorMsg})
	if result.Error != nil {
		return fmt.Errorf("failed to update submission %s: %w", transactionID, result.Error)
	}
	return nil
}

// ListSubmissions returns the newest entries first, optionally filtered by
// action.
func (r *Repository) ListSubmissions(action string, limit int) ([]model.SubmissionLog, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := r.db.Order("created_at DESC").Limit(limit)
	if action != "" {
		query = query.Where("action = ?", action)
	}

	var logs []model.SubmissionLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to get submissions: %w", err)
	}
	return logs, nil
}
