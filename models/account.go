package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ForumAccount is the per-forum membership record, distinct from the global
// User identity. At most one account exists per (forum, user) pair; the
// composite unique index enforces this at the storage layer rather than
// relying on lookup discipline.
type ForumAccount struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	ForumID             uint      `gorm:"uniqueIndex:idx_forum_user;not null" json:"forum_id"`
	UserID              uint      `gorm:"uniqueIndex:idx_forum_user;not null" json:"user_id"`
	Active              bool      `gorm:"default:true" json:"active"`
	ForumMaster         bool      `gorm:"default:false" json:"forum_master"`
	NotificationCounter int       `gorm:"default:0" json:"notification_counter"`
	Thumbnail           string    `gorm:"size:512" json:"thumbnail"`
	Joined              time.Time `json:"joined"`

	User   User    `json:"user"`
	Forum  Forum   `json:"-"`
	Badges []Badge `gorm:"many2many:forum_account_badges" json:"badges"`
}

// BeforeCreate records the join date.
func (a *ForumAccount) BeforeCreate(tx *gorm.DB) error {
	if a.Joined.IsZero() {
		a.Joined = time.Now()
	}
	return nil
}

// Deactivate suspends the account without deleting it; the member's content
// stays attributed until the account is hard-removed by other moderation.
func (a *ForumAccount) Deactivate(db *gorm.DB) error {
	a.Active = false
	return db.Model(a).UpdateColumn("active", false).Error
}

// Activate lifts a suspension.
func (a *ForumAccount) Activate(db *gorm.DB) error {
	a.Active = true
	return db.Model(a).UpdateColumn("active", true).Error
}

// MessagesCount counts all messages authored by the account, personal included.
func (a *ForumAccount) MessagesCount(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&Message{}).Where("account_id = ?", a.ID).Count(&n).Error
	return n, err
}

// LikesReceived counts likes on the account's messages.
func (a *ForumAccount) LikesReceived(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&Like{}).
		Joins("JOIN messages ON messages.id = likes.message_id").
		Where("messages.account_id = ?", a.ID).
		Count(&n).Error
	return n, err
}

// Badge is a static catalog entry granted to memberships by rule evaluation.
type Badge struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Description string `gorm:"size:100;uniqueIndex;not null" json:"description"`
	Thumbnail   string `gorm:"size:512" json:"thumbnail"`
}

// BadgeCatalog lists every badge the evaluation rules can grant. The rows
// must exist in storage before EvaluateBadges runs.
var BadgeCatalog = []string{
	"Noo Badge",
	"10 messages",
	"50 messages",
	"100 messages",
	"10 likes",
	"50 likes",
	"100 likes",
	"Nouveau",
	"Forum Master",
}

// SeedBadges installs the badge catalog, skipping rows that already exist.
func SeedBadges(db *gorm.DB) error {
	for _, description := range BadgeCatalog {
		var badge Badge
		err := db.Where("description = ?", description).First(&badge).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = db.Create(&Badge{Description: description}).Error
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// EvaluateBadges recomputes the badge conditions against live counts and
// grants any badge that is newly earned. Badges are never revoked, so the
// evaluation is monotonic and safe to rerun. A missing catalog row is a
// fatal precondition failure, not a condition to skip.
func EvaluateBadges(db *gorm.DB, account *ForumAccount) error {
	messageCount, err := account.MessagesCount(db)
	if err != nil {
		return err
	}
	likeCount, err := account.LikesReceived(db)
	if err != nil {
		return err
	}

	var held []Badge
	if err := db.Model(account).Association("Badges").Find(&held); err != nil {
		return err
	}
	heldByDescription := make(map[string]bool, len(held))
	for _, b := range held {
		heldByDescription[b.Description] = true
	}

	conditions := map[string]bool{
		"10 messages":  messageCount >= 10,
		"50 messages":  messageCount >= 50,
		"100 messages": messageCount >= 100,
		"10 likes":     likeCount >= 10,
		"50 likes":     likeCount >= 50,
		"100 likes":    likeCount >= 100,
		"Nouveau":      time.Since(account.Joined) < 4*24*time.Hour,
		"Forum Master": account.ForumMaster,
		"Noo Badge":    len(held) == 0,
	}

	for description, earned := range conditions {
		if !earned || heldByDescription[description] {
			continue
		}
		var badge Badge
		if err := db.Where("description = ?", description).First(&badge).Error; err != nil {
			return fmt.Errorf("badge catalog entry %q: %w", description, err)
		}
		if err := db.Model(account).Association("Badges").Append(&badge); err != nil {
			return err
		}
	}
	return nil
}
