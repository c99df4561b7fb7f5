package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Like joins a message and the liking membership. Toggling is idempotent per
// pair: two calls in a row always land back on zero rows.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"uniqueIndex:idx_message_liker;not null" json:"message_id"`
	LikerID   uint      `gorm:"uniqueIndex:idx_message_liker;not null" json:"liker_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToggleLike creates the like when the pair is absent and removes it
// otherwise. Returns whether the message ends up liked. Likes never fan out
// notifications.
func ToggleLike(db *gorm.DB, messageID, likerID uint) (bool, error) {
	var like Like
	err := db.Where("message_id = ? AND liker_id = ?", messageID, likerID).First(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		like = Like{MessageID: messageID, LikerID: likerID}
		return true, db.Create(&like).Error
	}
	if err != nil {
		return false, err
	}
	return false, db.Delete(&like).Error
}

// Notification is an unread event line for a membership. The membership's
// counter moves in the same transaction as the row set, so the two never
// observably diverge.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"index;not null" json:"account_id"`
	Message   string    `gorm:"size:200;not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NotifyTopicMessage notifies a topic's author that someone else replied.
// Posting in one's own topic is a no-op. The counter increment is a single
// atomic SQL expression; concurrent posts never lose an update.
func NotifyTopicMessage(db *gorm.DB, topic *Topic, actor *ForumAccount) error {
	if topic.AccountID == nil || actor == nil || *topic.AccountID == actor.ID {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		notification := Notification{
			AccountID: *topic.AccountID,
			Message:   fmt.Sprintf("New message posted by %s in %s", actor.User.Username, topic.Title),
		}
		if err := tx.Create(&notification).Error; err != nil {
			return err
		}
		return incrementNotificationCounter(tx, *topic.AccountID)
	})
}

// NotifyConversationMessage notifies the conversation owner about a message
// posted by a contact. Contacts other than the owner are not notified.
func NotifyConversationMessage(db *gorm.DB, conv *Conversation, actor *ForumAccount) error {
	if conv.AccountID == nil || actor == nil || *conv.AccountID == actor.ID {
		return nil
	}
	return db.Transaction(func(tx *gorm.DB) error {
		notification := Notification{
			AccountID: *conv.AccountID,
			Message:   fmt.Sprintf("Private inbox: new message posted by %s in %s", actor.User.Username, conv.Subject),
		}
		if err := tx.Create(&notification).Error; err != nil {
			return err
		}
		return incrementNotificationCounter(tx, *conv.AccountID)
	})
}

// ClearNotifications deletes every notification row for the account and
// resets its counter in one transaction.
func ClearNotifications(db *gorm.DB, accountID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).Delete(&Notification{}).Error; err != nil {
			return err
		}
		return tx.Model(&ForumAccount{}).Where("id = ?", accountID).
			UpdateColumn("notification_counter", 0).Error
	})
}

func incrementNotificationCounter(tx *gorm.DB, accountID uint) error {
	return tx.Model(&ForumAccount{}).Where("id = ?", accountID).
		UpdateColumn("notification_counter", gorm.Expr("notification_counter + 1")).Error
}
