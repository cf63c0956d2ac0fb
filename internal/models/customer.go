package models

import (
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID        string    `gorm:"size:36;primaryKey" json:"id"`
	CompanyID string    `gorm:"size:36;index;not null" json:"company_id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Email     string    `gorm:"size:150;index" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Address   string    `gorm:"size:500" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}
