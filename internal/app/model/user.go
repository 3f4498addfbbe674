package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser      UserRole = "user"      // resident, may review businesses
	RoleOwner     UserRole = "owner"     // business owner, may respond to reviews
	RoleModerator UserRole = "moderator" // may moderate reviews
	RoleAdmin     UserRole = "admin"
)

// CanModerate reports whether the role may transition review status.
func (r UserRole) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// User serializes with its public profile only; account details go out
// through the auth endpoints.
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"-"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Name         string         `gorm:"not null" json:"-"`
	Nickname     string         `gorm:"uniqueIndex;not null" json:"nickname"` // public display name on reviews
	Role         UserRole       `gorm:"type:varchar(20);default:'user'" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
