package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is the global authentication identity. A user may hold one
// ForumAccount per forum; the identity itself carries no per-forum state.
// Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FirstName    string         `gorm:"size:64;not null" json:"first_name"`
	LastName     string         `gorm:"size:64;not null" json:"last_name"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	IsActive     bool           `gorm:"default:false" json:"is_active"`
	IsStaff      bool           `gorm:"default:false" json:"is_staff"`
	IsSuperuser  bool           `gorm:"default:false" json:"is_superuser"`
	Provider     string         `gorm:"size:32" json:"provider"`
	ProviderID   string         `gorm:"size:255" json:"-"`
	RegisterIP   string         `gorm:"size:45" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// ErrMissingField is returned when a required identity field is empty at creation.
var ErrMissingField = errors.New("required field must be set")

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

// CreateUser persists a new identity after checking required fields.
// Username, email, first and last name must all be non-empty; nothing is
// persisted when any of them is missing. New users start inactive and
// become active through email verification.
func CreateUser(db *gorm.DB, u *User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	if u.Username == "" || u.Email == "" || u.FirstName == "" || u.LastName == "" {
		return ErrMissingField
	}
	return db.Create(u).Error
}

// CreateSuperuser persists a staff + superuser identity, active immediately.
func CreateSuperuser(db *gorm.DB, u *User) error {
	u.IsStaff = true
	u.IsSuperuser = true
	u.IsActive = true
	return CreateUser(db, u)
}

// Activate marks the user active. Activating an already active user is a no-op.
func (u *User) Activate(db *gorm.DB) error {
	if u.IsActive {
		return nil
	}
	u.IsActive = true
	return db.Model(u).UpdateColumn("is_active", true).Error
}

// DisplayName is the name shown in generated content such as welcome messages.
func (u *User) DisplayName() string {
	return u.Username
}

// RetrieveForumAccount returns the user's membership for the given forum,
// or nil when the user never joined it.
func (u *User) RetrieveForumAccount(db *gorm.DB, forumID uint) (*ForumAccount, error) {
	var account ForumAccount
	err := db.Preload("User").Where("user_id = ? AND forum_id = ?", u.ID, forumID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
