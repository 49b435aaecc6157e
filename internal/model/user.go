package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

type User struct {
	ID              uint           `json:"id" gorm:"primarykey"`
	FirstName       string         `json:"first_name" gorm:"size:64"`
	LastName        string         `json:"last_name" gorm:"size:64"`
	UserName        string         `json:"user_name" gorm:"size:64;uniqueIndex"`
	Email           string         `json:"email" gorm:"size:128;uniqueIndex"`
	Password        string         `json:"-" gorm:"size:100"`
	Role            string         `json:"role" gorm:"size:20;index;default:student"`
	IsActive        bool           `json:"is_active"`
	EmailVerifiedAt *time.Time     `json:"email_verified_at"`
	LastLoginAt     *time.Time     `json:"last_login_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// CanManage reports whether the user may use the admin panel.
func (u *User) CanManage() bool {
	return u.Role == RoleAdmin || u.Role == RoleInstructor
}
