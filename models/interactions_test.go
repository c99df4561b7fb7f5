package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestToggleLikeRoundTrip(t *testing.T) {
	db := newTestDB(t)
	forum, account := makeForum(t, db, "Gophers")
	liker := joinForum(t, db, forum, "liker")
	topic := forumDefaultTopic(t, db, forum)

	message := NewMessage("like me", account, TopicTarget(topic.ID))
	require.NoError(t, db.Create(&message).Error)

	liked, err := ToggleLike(db, message.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	var count int64
	require.NoError(t, db.Model(&Like{}).Where("message_id = ?", message.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	liked, err = ToggleLike(db, message.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, db.Model(&Like{}).Where("message_id = ?", message.ID).Count(&count).Error)
	assert.Zero(t, count, "a like toggled twice must leave no row behind")
}

func TestLikesNeverNotify(t *testing.T) {
	db := newTestDB(t)
	forum, owner := makeForum(t, db, "Gophers")
	liker := joinForum(t, db, forum, "liker")
	topic := forumDefaultTopic(t, db, forum)

	message := NewMessage("like me", owner, TopicTarget(topic.ID))
	require.NoError(t, db.Create(&message).Error)

	_, err := ToggleLike(db, message.ID, liker.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestNotifyTopicMessage(t *testing.T) {
	db := newTestDB(t)
	forum, owner := makeForum(t, db, "Gophers")
	replier := joinForum(t, db, forum, "replier")
	topic := forumDefaultTopic(t, db, forum)

	// Author replying in their own topic: no notification.
	require.NoError(t, NotifyTopicMessage(db, topic, owner))
	var count int64
	require.NoError(t, db.Model(&Notification{}).Count(&count).Error)
	assert.Zero(t, count)

	// Someone else: one row, counter bumped, targeted at the author.
	require.NoError(t, NotifyTopicMessage(db, topic, replier))

	var notification Notification
	require.NoError(t, db.First(&notification).Error)
	assert.Equal(t, owner.ID, notification.AccountID)
	assert.Contains(t, notification.Message, "replier")
	assert.Contains(t, notification.Message, topic.Title)

	var reloaded ForumAccount
	require.NoError(t, db.First(&reloaded, owner.ID).Error)
	assert.Equal(t, 1, reloaded.NotificationCounter)

	var replierReloaded ForumAccount
	require.NoError(t, db.First(&replierReloaded, replier.ID).Error)
	assert.Zero(t, replierReloaded.NotificationCounter)
}

func TestNotifyConversationMessageTargetsOwnerOnly(t *testing.T) {
	db := newTestDB(t)
	forum, owner := makeForum(t, db, "Gophers")
	contactA := joinForum(t, db, forum, "alice")
	contactB := joinForum(t, db, forum, "bob")

	conv := &Conversation{ForumID: forum.ID, Subject: "secret plans"}
	require.NoError(t, StartConversation(db, conv, owner, []ForumAccount{*contactA, *contactB}, "hello"))

	// Owner posting: nobody is notified.
	require.NoError(t, NotifyConversationMessage(db, conv, owner))
	var count int64
	require.NoError(t, db.Model(&Notification{}).Count(&count).Error)
	assert.Zero(t, count)

	// Contact posting: only the owner is notified, not the other contact.
	require.NoError(t, NotifyConversationMessage(db, conv, contactA))

	var notifications []Notification
	require.NoError(t, db.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, owner.ID, notifications[0].AccountID)
	assert.Contains(t, notifications[0].Message, "secret plans")
}

func TestClearNotifications(t *testing.T) {
	db := newTestDB(t)
	forum, owner := makeForum(t, db, "Gophers")
	replier := joinForum(t, db, forum, "replier")
	topic := forumDefaultTopic(t, db, forum)

	require.NoError(t, NotifyTopicMessage(db, topic, replier))
	require.NoError(t, NotifyTopicMessage(db, topic, replier))

	var reloaded ForumAccount
	require.NoError(t, db.First(&reloaded, owner.ID).Error)
	require.Equal(t, 2, reloaded.NotificationCounter)

	require.NoError(t, ClearNotifications(db, owner.ID))

	var count int64
	require.NoError(t, db.Model(&Notification{}).Where("account_id = ?", owner.ID).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, db.First(&reloaded, owner.ID).Error)
	assert.Zero(t, reloaded.NotificationCounter)
}

func TestStartConversationIsAtomic(t *testing.T) {
	db := newTestDB(t)
	forum, owner := makeForum(t, db, "Gophers")
	contact := joinForum(t, db, forum, "alice")

	boom := func(tx *gorm.DB) {
		if tx.Statement.Table == "messages" {
			_ = tx.AddError(ErrMessageTarget)
		}
	}
	require.NoError(t, db.Callback().Create().Before("gorm:create").
		Register("test:fail_messages", boom))
	defer func() {
		require.NoError(t, db.Callback().Create().Remove("test:fail_messages"))
	}()

	conv := &Conversation{ForumID: forum.ID, Subject: "doomed"}
	require.Error(t, StartConversation(db, conv, owner, []ForumAccount{*contact}, "hello"))

	var convCount int64
	require.NoError(t, db.Model(&Conversation{}).Count(&convCount).Error)
	assert.Zero(t, convCount, "a failed first message must roll back the conversation")
}
