package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Bill struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;column:user_id;not null;index" json:"user_id"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	Amount    float64        `gorm:"column:amount;not null" json:"amount"`
	DueDate   time.Time      `gorm:"column:due_date;not null;index" json:"due_date"`
	Recurring bool           `gorm:"column:recurring;not null;default:false" json:"recurring"`
	AutoPay   bool           `gorm:"column:auto_pay;not null;default:false" json:"auto_pay"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Bill) TableName() string { return "bill" }
