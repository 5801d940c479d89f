package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lead visibility: AssignedTo nil means unclaimed, visible to every agent
// until an agent claims it.
type Lead struct {
	ID         string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	AssignedTo *string `gorm:"type:varchar(36);index" json:"assigned_to,omitempty"`

	Name    string `gorm:"type:varchar(100);not null" json:"name"`
	Company string `gorm:"type:varchar(100)" json:"company"`
	Phone   string `gorm:"type:varchar(30)" json:"phone"`
	Email   string `gorm:"type:varchar(255)" json:"email"`
	Source  string `gorm:"type:varchar(50)" json:"source"`
	Status  string `gorm:"type:varchar(20);not null;default:'new';index" json:"status"`

	DealValue decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"deal_value"`
	Notes     string          `gorm:"type:text" json:"notes"`

	SyncStatus string `gorm:"type:varchar(10);not null;default:'synced'" json:"sync_status"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime;index" json:"updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}

func (l Lead) GetID() string           { return l.ID }
func (l Lead) GetUpdatedAt() time.Time { return l.UpdatedAt }

const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusConverted = "converted"
	LeadStatusLost      = "lost"
)
