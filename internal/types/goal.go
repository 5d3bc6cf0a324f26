package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Goal struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	Name          string         `gorm:"column:name;not null" json:"name"`
	TargetAmount  float64        `gorm:"column:target_amount;not null" json:"target_amount"`
	CurrentAmount float64        `gorm:"column:current_amount;not null;default:0" json:"current_amount"`
	TargetDate    *time.Time     `gorm:"column:target_date" json:"target_date,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Goal) TableName() string { return "goal" }
