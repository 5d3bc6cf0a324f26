package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Transaction struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	Description string         `gorm:"column:description;not null" json:"description"`
	Amount      float64        `gorm:"column:amount;not null" json:"amount"`
	Category    string         `gorm:"column:category;index" json:"category,omitempty"`
	Date        time.Time      `gorm:"column:date;not null;index" json:"date"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Transaction) TableName() string { return "transaction" }
