package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VerificationEvent records one verification-related action for audit and
// abuse investigation. Events are append-only and pruned by retention.
type VerificationEvent struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Event     string    `gorm:"not null;index" json:"event"`
	Email     string    `gorm:"index" json:"email"`
	Phone     string    `json:"phone"`
	Result    string    `gorm:"not null" json:"result"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Metadata  string    `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (e *VerificationEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
