package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Shift struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	Employer   string         `gorm:"column:employer" json:"employer,omitempty"`
	HourlyRate float64        `gorm:"column:hourly_rate;not null" json:"hourly_rate"`
	StartsAt   time.Time      `gorm:"column:starts_at;not null;index" json:"starts_at"`
	EndsAt     time.Time      `gorm:"column:ends_at;not null" json:"ends_at"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Shift) TableName() string { return "shift" }
