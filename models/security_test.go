package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireActiveMembership(t *testing.T) {
	db := newTestDB(t)
	forum, _ := makeForum(t, db, "Gophers")
	member := joinForum(t, db, forum, "alice")

	got, err := RequireActiveMembership(db, member.UserID, forum.ID)
	require.NoError(t, err)
	assert.Equal(t, member.ID, got.ID)
	assert.Equal(t, "alice", got.User.Username)

	// Absent membership.
	stranger := makeUser(t, db, "stranger")
	_, err = RequireActiveMembership(db, stranger.ID, forum.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// Suspended membership.
	require.NoError(t, member.Deactivate(db))
	_, err = RequireActiveMembership(db, member.UserID, forum.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestSuspendedMemberCannotActThenReinstated(t *testing.T) {
	db := newTestDB(t)
	forum, _ := makeForum(t, db, "Gophers")
	member := joinForum(t, db, forum, "alice")

	require.NoError(t, member.Deactivate(db))
	_, err := RequireActiveMembership(db, member.UserID, forum.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, member.Activate(db))
	_, err = RequireActiveMembership(db, member.UserID, forum.ID)
	assert.NoError(t, err)
}

func TestRequireOwnershipOrModerator(t *testing.T) {
	db := newTestDB(t)
	forum, master := makeForum(t, db, "Gophers")
	author := joinForum(t, db, forum, "author")
	other := joinForum(t, db, forum, "other")
	topic := forumDefaultTopic(t, db, forum)

	message := NewMessage("mine", author, TopicTarget(topic.ID))
	require.NoError(t, db.Create(&message).Error)

	assert.NoError(t, RequireOwnershipOrModerator(&message, author), "owner passes")
	assert.NoError(t, RequireOwnershipOrModerator(&message, master), "forum master passes")
	assert.ErrorIs(t, RequireOwnershipOrModerator(&message, other), ErrPermissionDenied)
	assert.ErrorIs(t, RequireOwnershipOrModerator(&message, nil), ErrPermissionDenied)

	// Orphaned content: not even the original author's old peer can touch it,
	// but the master still can.
	message.AccountID = nil
	assert.ErrorIs(t, RequireOwnershipOrModerator(&message, author), ErrPermissionDenied)
	assert.NoError(t, RequireOwnershipOrModerator(&message, master))
}

func TestRequireForumMaster(t *testing.T) {
	db := newTestDB(t)
	forum, master := makeForum(t, db, "Gophers")
	member := joinForum(t, db, forum, "plain")

	assert.NoError(t, RequireForumMaster(master))
	assert.ErrorIs(t, RequireForumMaster(member), ErrPermissionDenied)
	assert.ErrorIs(t, RequireForumMaster(nil), ErrPermissionDenied)
}

func TestRequireConversationParticipant(t *testing.T) {
	db := newTestDB(t)
	forum, owner := makeForum(t, db, "Gophers")
	contact := joinForum(t, db, forum, "alice")
	outsider := joinForum(t, db, forum, "bob")

	conv := &Conversation{ForumID: forum.ID, Subject: "private"}
	require.NoError(t, StartConversation(db, conv, owner, []ForumAccount{*contact}, "hi"))

	contacts := []ForumAccount{*contact}
	assert.NoError(t, RequireConversationParticipant(owner, conv, contacts))
	assert.NoError(t, RequireConversationParticipant(contact, conv, contacts))
	assert.ErrorIs(t, RequireConversationParticipant(outsider, conv, contacts), ErrPermissionDenied)
	assert.ErrorIs(t, RequireConversationParticipant(nil, conv, contacts), ErrPermissionDenied)
}
