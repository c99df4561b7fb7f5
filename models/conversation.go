package models

import (
	"time"

	"gorm.io/gorm"
)

// Conversation is a private, forum-scoped message thread owned by one
// membership with a set of contact memberships. Only the owner and contacts
// may read or post.
type Conversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ForumID   uint      `gorm:"index;not null" json:"forum_id"`
	AccountID *uint     `gorm:"index" json:"account_id"`
	Subject   string    `gorm:"size:100;not null" json:"subject"`
	Slug      string    `gorm:"size:120;index" json:"slug"`
	CreatedAt time.Time `json:"created_at"`

	Account  *ForumAccount  `json:"account"`
	Contacts []ForumAccount `gorm:"many2many:conversation_contacts" json:"contacts"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.Slug == "" {
		c.Slug = Slugify(c.Subject)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return nil
}

// OwnerAccountID implements the Owned capability used by permission guards.
func (c *Conversation) OwnerAccountID() *uint { return c.AccountID }

// StartConversation creates the conversation, its contact set and the opening
// message in one transaction, so a half-created thread never becomes visible.
func StartConversation(db *gorm.DB, conv *Conversation, owner *ForumAccount, contacts []ForumAccount, firstBody string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		conv.AccountID = &owner.ID
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		if len(contacts) > 0 {
			if err := tx.Model(conv).Association("Contacts").Append(&contacts); err != nil {
				return err
			}
		}
		message := NewMessage(firstBody, owner, ConversationTarget(conv.ID))
		return tx.Create(&message).Error
	})
}
