package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DefaultPrimaryColor = "#800000"
	DefaultAccentColor  = "#D3AF37"
)

// Company is the tenant. Every other row belongs to exactly one company.
type Company struct {
	ID           string    `gorm:"size:36;primaryKey" json:"id"`
	Name         string    `gorm:"size:150;uniqueIndex;not null" json:"name"`
	Domain       string    `gorm:"size:150" json:"domain"`
	PrimaryColor string    `gorm:"size:7;not null" json:"primary_color"`
	AccentColor  string    `gorm:"size:7;not null" json:"accent_color"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	if c.PrimaryColor == "" {
		c.PrimaryColor = DefaultPrimaryColor
	}
	if c.AccentColor == "" {
		c.AccentColor = DefaultAccentColor
	}
	return nil
}
