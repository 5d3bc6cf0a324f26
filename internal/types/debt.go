package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Debt struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	Name           string         `gorm:"column:name;not null" json:"name"`
	Balance        float64        `gorm:"column:balance;not null" json:"balance"`
	InterestRate   float64        `gorm:"column:interest_rate;not null;default:0" json:"interest_rate"`
	MinimumPayment float64        `gorm:"column:minimum_payment;not null;default:0" json:"minimum_payment"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Debt) TableName() string { return "debt" }
