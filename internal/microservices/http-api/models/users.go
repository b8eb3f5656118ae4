package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yamdb/internal/access"
)

type User struct {
	ID               string     `gorm:"primaryKey;type:uuid" json:"id"`
	Username         string     `gorm:"size:40;uniqueIndex;index:idx_users_email_username,unique;not null" json:"username"`
	Email            string     `gorm:"size:254;uniqueIndex;index:idx_users_email_username,unique;not null" json:"email"`
	FirstName        string     `gorm:"size:150" json:"first_name"`
	LastName         string     `gorm:"size:150" json:"last_name"`
	Bio              string     `gorm:"type:text" json:"bio"`
	Role             string     `gorm:"size:20;default:'user';not null" json:"role"` // user | moderator | admin
	ConfirmationCode string     `gorm:"size:10" json:"-"`
	CodeIssuedAt     *time.Time `json:"-"`
	IsStaff          bool       `gorm:"not null" json:"is_staff"`
	IsSuperuser      bool       `gorm:"not null" json:"is_superuser"`
	IsActive         bool       `gorm:"not null" json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = string(access.RoleUser)
	}
	return
}

// BeforeSave keeps stored emails in their normalised form so the unique
// index and lookups agree on case.
func (user *User) BeforeSave(tx *gorm.DB) (err error) {
	user.Email = NormalizeEmail(user.Email)
	return
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (User) TableName() string {
	return "users"
}

// Identity is the access-control view of the user.
func (user *User) Identity() *access.Identity {
	return &access.Identity{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        access.Role(user.Role),
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
	}
}
