package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRequiresExactlyOneParent(t *testing.T) {
	db := newTestDB(t)
	forum, account := makeForum(t, db, "Gophers")
	topic := forumDefaultTopic(t, db, forum)

	conv := &Conversation{ForumID: forum.ID, Subject: "hello"}
	require.NoError(t, StartConversation(db, conv, account, nil, "first"))

	orphan := Message{Body: "no parent"}
	require.ErrorIs(t, db.Create(&orphan).Error, ErrMessageTarget)

	both := Message{Body: "two parents", TopicID: &topic.ID, ConversationID: &conv.ID}
	require.ErrorIs(t, db.Create(&both).Error, ErrMessageTarget)
}

func TestNewMessageMirrorsPersonalFlag(t *testing.T) {
	db := newTestDB(t)
	forum, account := makeForum(t, db, "Gophers")
	topic := forumDefaultTopic(t, db, forum)

	public := NewMessage("hi", account, TopicTarget(topic.ID))
	require.NoError(t, db.Create(&public).Error)
	assert.False(t, public.Personal)

	conv := &Conversation{ForumID: forum.ID, Subject: "private"}
	require.NoError(t, StartConversation(db, conv, account, nil, "psst"))
	var first Message
	require.NoError(t, db.Where("conversation_id = ?", conv.ID).First(&first).Error)
	assert.True(t, first.Personal)
}

func TestTopicMessageBumpsLastActivity(t *testing.T) {
	db := newTestDB(t)
	forum, account := makeForum(t, db, "Gophers")
	topic := forumDefaultTopic(t, db, forum)

	// Age the topic so the bump is observable.
	old := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(topic).UpdateColumn("last_activity", old).Error)

	message := NewMessage("reply", account, TopicTarget(topic.ID))
	require.NoError(t, db.Create(&message).Error)

	var reloaded Topic
	require.NoError(t, db.First(&reloaded, topic.ID).Error)
	assert.True(t, reloaded.LastActivity.After(old), "a new topic message must bump last activity")
}

func TestPersonalMessageLeavesTopicsAlone(t *testing.T) {
	db := newTestDB(t)
	forum, account := makeForum(t, db, "Gophers")
	topic := forumDefaultTopic(t, db, forum)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(topic).UpdateColumn("last_activity", old).Error)

	conv := &Conversation{ForumID: forum.ID, Subject: "aside"}
	require.NoError(t, StartConversation(db, conv, account, nil, "psst"))

	var reloaded Topic
	require.NoError(t, db.First(&reloaded, topic.ID).Error)
	assert.WithinDuration(t, old, reloaded.LastActivity, time.Second)
}

func TestMessageEditCountsRevisions(t *testing.T) {
	db := newTestDB(t)
	forum, account := makeForum(t, db, "Gophers")
	topic := forumDefaultTopic(t, db, forum)

	message := NewMessage("v1", account, TopicTarget(topic.ID))
	require.NoError(t, db.Create(&message).Error)
	assert.Zero(t, message.EditCounter)

	require.NoError(t, message.Edit(db, "v2"))
	require.NoError(t, message.Edit(db, "v3"))

	var reloaded Message
	require.NoError(t, db.First(&reloaded, message.ID).Error)
	assert.Equal(t, "v3", reloaded.Body)
	assert.Equal(t, 2, reloaded.EditCounter)
}

func TestAuthorFallsBackWhenMembershipRemoved(t *testing.T) {
	db := newTestDB(t)
	forum, _ := makeForum(t, db, "Gophers")
	member := joinForum(t, db, forum, "ghost")
	topic := forumDefaultTopic(t, db, forum)

	message := NewMessage("soon orphaned", member, TopicTarget(topic.ID))
	require.NoError(t, db.Create(&message).Error)

	require.NoError(t, db.Model(&Message{}).Where("id = ?", message.ID).
		UpdateColumn("account_id", nil).Error)
	require.NoError(t, db.Delete(member).Error)

	var reloaded Message
	require.NoError(t, db.Preload("Account.User").First(&reloaded, message.ID).Error)
	author := reloaded.Author()
	assert.False(t, author.Known())
	assert.Equal(t, BannedUserLabel, author.Display())

	known := topic.Author()
	assert.True(t, known.Known())
	assert.NotEqual(t, BannedUserLabel, known.Display())
}

func TestCreateTopicWithFirstMessage(t *testing.T) {
	db := newTestDB(t)
	forum, account := makeForum(t, db, "Gophers")

	var subCategory SubCategory
	require.NoError(t, db.
		Joins("JOIN categories ON categories.id = sub_categories.category_id").
		Where("categories.forum_id = ?", forum.ID).
		First(&subCategory).Error)

	topic := &Topic{SubCategoryID: subCategory.ID, AccountID: &account.ID, Title: "Go generics"}
	require.NoError(t, CreateTopicWithFirstMessage(db, topic, "what do you think?", account))

	assert.Equal(t, "go-generics", topic.Slug)

	var message Message
	require.NoError(t, db.Where("topic_id = ?", topic.ID).First(&message).Error)
	assert.Equal(t, "what do you think?", message.Body)
	assert.False(t, message.Personal)
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World":      "hello-world",
		"Café  Liégeois":   "cafe-liegeois",
		"Go (1.21) rocks!": "go-1-21-rocks",
		"---":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}
