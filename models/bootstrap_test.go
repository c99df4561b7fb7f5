package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateForumWithDefaultsShape(t *testing.T) {
	db := newTestDB(t)
	forum, account := makeForum(t, db, "Gophers")

	assert.Equal(t, "gophers", forum.Slug)
	assert.True(t, account.ForumMaster)
	assert.True(t, account.Active)

	var category Category
	require.NoError(t, db.Where("forum_id = ?", forum.ID).First(&category).Error)
	assert.Equal(t, DefaultCategoryName, category.Name)

	var subCategory SubCategory
	require.NoError(t, db.Where("category_id = ?", category.ID).First(&subCategory).Error)
	assert.Equal(t, DefaultSubCategoryName, subCategory.Name)

	var topic Topic
	require.NoError(t, db.Where("sub_category_id = ?", subCategory.ID).First(&topic).Error)
	assert.Equal(t, DefaultTopicTitle, topic.Title)
	require.NotNil(t, topic.AccountID)
	assert.Equal(t, account.ID, *topic.AccountID)

	var message Message
	require.NoError(t, db.Where("topic_id = ?", topic.ID).First(&message).Error)
	assert.False(t, message.Personal)
	assert.Contains(t, message.Body, "owner-gophers")
}

func TestCreateForumWithDefaultsIsAtomic(t *testing.T) {
	db := newTestDB(t)
	owner := makeUser(t, db, "gab")
	theme := makeTheme(t, db)

	// Fail the transaction at the topic step, after forum, membership,
	// category and subcategory were already created inside it.
	boom := errors.New("boom")
	require.NoError(t, db.Callback().Create().Before("gorm:create").
		Register("test:fail_topics", func(tx *gorm.DB) {
			if tx.Statement.Table == "topics" {
				_ = tx.AddError(boom)
			}
		}))
	defer func() {
		require.NoError(t, db.Callback().Create().Remove("test:fail_topics"))
	}()

	forum := &Forum{OwnerID: owner.ID, Name: "Doomed", ThemeID: theme.ID}
	err := CreateForumWithDefaults(db, forum, owner)
	require.ErrorIs(t, err, boom)

	for _, probe := range []struct {
		name  string
		model interface{}
	}{
		{"forums", &Forum{}},
		{"forum_accounts", &ForumAccount{}},
		{"categories", &Category{}},
		{"sub_categories", &SubCategory{}},
		{"topics", &Topic{}},
		{"messages", &Message{}},
	} {
		var count int64
		require.NoError(t, db.Model(probe.model).Count(&count).Error)
		assert.Zerof(t, count, "no %s row may survive the rollback", probe.name)
	}
}

func TestWelcomeMessageIsPure(t *testing.T) {
	a := WelcomeMessage("gab")
	b := WelcomeMessage("gab")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "gab")
	assert.NotEqual(t, a, WelcomeMessage("other"))
}
