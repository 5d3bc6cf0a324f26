package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Budget struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	Category  string         `gorm:"column:category;not null;index" json:"category"`
	Limit     float64        `gorm:"column:monthly_limit;not null" json:"limit"`
	Spent     float64        `gorm:"column:spent;not null;default:0" json:"spent"`
	Period    string         `gorm:"column:period;not null;default:'monthly'" json:"period"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Budget) TableName() string { return "budget" }
