package model

import (
	"time"

	"gorm.io/gorm"
)

// Submission statuses.
const (
	SubmissionSubmitted = "submitted"
	SubmissionConfirmed = "confirmed"
	SubmissionRejected  = "rejected"
	SubmissionPending   = "pending"
	SubmissionFailed    = "failed"
)

// SubmissionLog records one transaction handed to the wallet.
type SubmissionLog struct {
	ID            uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	TransactionID string         `json:"transaction_id" gorm:"type:varchar(255);index"`
	Action        string         `json:"action" gorm:"type:varchar(64);not null;index"`
	Address       string         `json:"address" gorm:"type:varchar(128);index"`
	Status        string         `json:"status" gorm:"type:varchar(32);not null"`
	ErrorMsg      string         `json:"error_msg" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for SubmissionLog
func (SubmissionLog) TableName() string {
	return "submission_logs"
}
