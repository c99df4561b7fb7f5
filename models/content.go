package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Category groups subcategories inside a forum. Index controls display order.
type Category struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	ForumID uint   `gorm:"index;not null" json:"forum_id"`
	Name    string `gorm:"size:50;not null" json:"name"`
	Index   int    `gorm:"default:0" json:"index"`

	SubCategories []SubCategory `json:"sub_categories"`
}

// SubCategory holds topics. Its slug is derived from the name at first save.
type SubCategory struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CategoryID uint   `gorm:"index;not null" json:"category_id"`
	Name       string `gorm:"size:50;not null" json:"name"`
	Slug       string `gorm:"size:60;index" json:"slug"`
	Index      int    `gorm:"default:0" json:"index"`
}

func (s *SubCategory) BeforeCreate(tx *gorm.DB) error {
	if s.Slug == "" {
		s.Slug = Slugify(s.Name)
	}
	return nil
}

// Topic is a discussion thread. The author reference is nullable: when a
// member is removed their topics survive with the banned-user fallback.
type Topic struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SubCategoryID uint      `gorm:"index;not null" json:"sub_category_id"`
	AccountID     *uint     `gorm:"index" json:"account_id"`
	Title         string    `gorm:"size:100;not null" json:"title"`
	Slug          string    `gorm:"size:120;index" json:"slug"`
	Closed        bool      `gorm:"default:false" json:"closed"`
	Pin           bool      `gorm:"default:false" json:"pin"`
	CreatedAt     time.Time `json:"created_at"`
	LastActivity  time.Time `json:"last_activity"`

	Account *ForumAccount `json:"account"`
}

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	if t.Slug == "" {
		t.Slug = Slugify(t.Title)
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.LastActivity.IsZero() {
		t.LastActivity = t.CreatedAt
	}
	return nil
}

// OwnerAccountID implements the Owned capability used by permission guards.
func (t *Topic) OwnerAccountID() *uint { return t.AccountID }

// Author resolves the topic's display author.
func (t *Topic) Author() Author { return Author{account: t.Account} }

// ErrMessageTarget is returned when a message is saved without exactly one
// parent (topic or conversation).
var ErrMessageTarget = errors.New("message must target exactly one of topic or conversation")

// MessageTarget is the tagged parent of a message: either a topic or a
// conversation, never both and never neither. Constructing messages through
// this type keeps the invalid states unrepresentable at call sites.
type MessageTarget struct {
	topicID        *uint
	conversationID *uint
}

// TopicTarget addresses a public topic.
func TopicTarget(topicID uint) MessageTarget {
	return MessageTarget{topicID: &topicID}
}

// ConversationTarget addresses a private conversation.
func ConversationTarget(conversationID uint) MessageTarget {
	return MessageTarget{conversationID: &conversationID}
}

// Message belongs to a topic or to a conversation. Personal mirrors the
// variant and lets content queries exclude private messages cheaply.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TopicID        *uint     `gorm:"index" json:"topic_id"`
	ConversationID *uint     `gorm:"index" json:"conversation_id"`
	AccountID      *uint     `gorm:"index" json:"account_id"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	Personal       bool      `gorm:"default:false" json:"personal"`
	EditCounter    int       `gorm:"default:0" json:"edit_counter"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Account *ForumAccount `json:"account"`
}

// NewMessage builds a message bound to the given target.
func NewMessage(body string, account *ForumAccount, target MessageTarget) Message {
	m := Message{
		TopicID:        target.topicID,
		ConversationID: target.conversationID,
		Body:           body,
		Personal:       target.conversationID != nil,
	}
	if account != nil {
		m.AccountID = &account.ID
		m.Account = account
	}
	return m
}

// BeforeSave rejects messages whose parent references drifted out of the
// one-of-two invariant, e.g. through a raw struct write.
func (m *Message) BeforeSave(tx *gorm.DB) error {
	if (m.TopicID == nil) == (m.ConversationID == nil) {
		return ErrMessageTarget
	}
	m.Personal = m.ConversationID != nil
	return nil
}

// AfterCreate bumps the parent topic's last activity. Personal messages
// leave topic state untouched.
func (m *Message) AfterCreate(tx *gorm.DB) error {
	if m.TopicID == nil {
		return nil
	}
	return tx.Model(&Topic{}).Where("id = ?", *m.TopicID).
		UpdateColumn("last_activity", m.CreatedAt).Error
}

// Edit replaces the body and records the revision with an atomic counter
// increment, so concurrent edits never lose a count.
func (m *Message) Edit(db *gorm.DB, body string) error {
	return db.Model(m).Updates(map[string]interface{}{
		"body":         body,
		"edit_counter": gorm.Expr("edit_counter + 1"),
	}).Error
}

// OwnerAccountID implements the Owned capability used by permission guards.
func (m *Message) OwnerAccountID() *uint { return m.AccountID }

// Author resolves the message's display author.
func (m *Message) Author() Author { return Author{account: m.Account} }

// Author is the resolved authorship of a topic or message: either a known
// membership or the removed-member sentinel. Display is total over both.
type Author struct {
	account *ForumAccount
}

// BannedUserLabel is shown for content whose author membership was removed.
const BannedUserLabel = "Banned user"

// Known reports whether the author membership still exists.
func (a Author) Known() bool { return a.account != nil }

// Display returns the author's username or the banned-user fallback.
func (a Author) Display() string {
	if a.account == nil {
		return BannedUserLabel
	}
	return a.account.User.Username
}

// CreateTopicWithFirstMessage persists a topic and its opening message as one
// unit; a failure on either side leaves no partial thread behind.
func CreateTopicWithFirstMessage(db *gorm.DB, topic *Topic, body string, account *ForumAccount) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(topic).Error; err != nil {
			return err
		}
		message := NewMessage(body, account, TopicTarget(topic.ID))
		return tx.Create(&message).Error
	})
}

// WelcomeMessage renders the body of the bootstrap welcome message for a new
// forum owner. Pure function of the display name.
func WelcomeMessage(displayName string) string {
	return fmt.Sprintf("Welcome %s! Your forum is ready: this first topic was created "+
		"automatically so new members have a place to introduce themselves.", displayName)
}
