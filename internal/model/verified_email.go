package model

import (
	"time"

	"gorm.io/gorm"
)

// VerifiedEmail marks an email source that already produced a badge, so the
// same email cannot be verified twice.
type VerifiedEmail struct {
	ID            uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	SourceHash    string         `json:"source_hash" gorm:"type:char(64);not null;uniqueIndex"`
	Tier          string         `json:"tier" gorm:"type:varchar(16)"`
	TransactionID string         `json:"transaction_id" gorm:"type:varchar(255)"`
	VerifiedAt    time.Time      `json:"verified_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for VerifiedEmail
func (VerifiedEmail) TableName() string {
	return "verified_emails"
}
