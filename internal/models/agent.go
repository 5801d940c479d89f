package models

import "time"

type Agent struct {
	ID    string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name  string `gorm:"type:varchar(100);not null" json:"name"`
	Email string `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Phone string `gorm:"type:varchar(30)" json:"phone"`
	Role  string `gorm:"type:varchar(20);not null;default:'agent'" json:"role"`

	Status string `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`

	SaltHex     string `gorm:"type:varchar(64);not null" json:"-"`
	PassHashHex string `gorm:"type:varchar(64);not null" json:"-"`

	LastLoginAt *time.Time `gorm:"type:timestamptz" json:"last_login_at,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Agent) TableName() string {
	return "agents"
}
