package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

type User struct {
	ID        string `gorm:"size:36;primaryKey"`
	CompanyID string `gorm:"size:36;index;not null"`
	Company   *Company
	Name      string `gorm:"size:100;not null"`
	Email     string `gorm:"size:150;uniqueIndex;not null"`
	// empty until a pending invite is accepted
	PasswordHash    string   `gorm:"size:255"`
	Role            UserRole `gorm:"size:20;not null"`
	InviteToken     *string  `gorm:"size:64;uniqueIndex"`
	InviteExpiresAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// Pending reports whether the user was invited and has not set a password yet.
func (u *User) Pending() bool {
	return u.PasswordHash == ""
}
