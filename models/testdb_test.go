package models

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database for one test. The shared-cache
// DSN keyed on the test name keeps the database alive across the pool's
// connections while isolating tests from each other.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&User{},
		&Theme{},
		&Forum{},
		&ForumAccount{},
		&Badge{},
		&Category{},
		&SubCategory{},
		&Topic{},
		&Message{},
		&Conversation{},
		&Like{},
		&Notification{},
	))
	require.NoError(t, SeedBadges(db))
	return db
}

func makeUser(t *testing.T, db *gorm.DB, username string) *User {
	t.Helper()
	u := &User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: "Gab",
		LastName:  "Test",
		IsActive:  true,
	}
	require.NoError(t, CreateUser(db, u))
	return u
}

func makeTheme(t *testing.T, db *gorm.DB) *Theme {
	t.Helper()
	theme := &Theme{Name: "Dark"}
	require.NoError(t, db.Create(theme).Error)
	return theme
}

// makeForum bootstraps a forum owned by a fresh user and returns the forum
// with the owner's master membership.
func makeForum(t *testing.T, db *gorm.DB, name string) (*Forum, *ForumAccount) {
	t.Helper()
	owner := makeUser(t, db, "owner-"+strings.ToLower(name))
	theme := makeTheme(t, db)
	forum := &Forum{OwnerID: owner.ID, Name: name, ThemeID: theme.ID}
	require.NoError(t, CreateForumWithDefaults(db, forum, owner))

	account, err := owner.RetrieveForumAccount(db, forum.ID)
	require.NoError(t, err)
	require.NotNil(t, account)
	return forum, account
}

// joinForum adds a plain member to the forum.
func joinForum(t *testing.T, db *gorm.DB, forum *Forum, username string) *ForumAccount {
	t.Helper()
	user := makeUser(t, db, username)
	account := &ForumAccount{ForumID: forum.ID, UserID: user.ID, Active: true}
	require.NoError(t, db.Create(account).Error)
	account.User = *user
	return account
}

// forumDefaultTopic finds the welcome topic created by the bootstrap.
func forumDefaultTopic(t *testing.T, db *gorm.DB, forum *Forum) *Topic {
	t.Helper()
	var topic Topic
	require.NoError(t, db.
		Joins("JOIN sub_categories ON sub_categories.id = topics.sub_category_id").
		Joins("JOIN categories ON categories.id = sub_categories.category_id").
		Where("categories.forum_id = ?", forum.ID).
		Preload("Account.User").
		First(&topic).Error)
	return &topic
}
