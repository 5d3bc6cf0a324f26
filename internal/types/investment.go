package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Investment struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	Symbol       string         `gorm:"column:symbol;not null;index" json:"symbol"`
	Shares       float64        `gorm:"column:shares;not null" json:"shares"`
	CostBasis    float64        `gorm:"column:cost_basis;not null" json:"cost_basis"`
	CurrentValue float64        `gorm:"column:current_value;not null;default:0" json:"current_value"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Investment) TableName() string { return "investment" }
