package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserRequiresAllFields(t *testing.T) {
	db := newTestDB(t)

	cases := []User{
		{Username: "", Email: "g@g.com", FirstName: "Gab", LastName: "T"},
		{Username: "gab", Email: "", FirstName: "Gab", LastName: "T"},
		{Username: "gab", Email: "g@g.com", FirstName: "", LastName: "T"},
		{Username: "gab", Email: "g@g.com", FirstName: "Gab", LastName: ""},
		{Username: "   ", Email: "g@g.com", FirstName: "Gab", LastName: "T"},
	}
	for _, c := range cases {
		u := c
		err := CreateUser(db, &u)
		require.ErrorIs(t, err, ErrMissingField)
	}

	var count int64
	require.NoError(t, db.Model(&User{}).Count(&count).Error)
	assert.Zero(t, count, "nothing may be persisted when a required field is missing")
}

func TestCreateUserStartsInactive(t *testing.T) {
	db := newTestDB(t)

	u := &User{Username: "gab", Email: "g@g.com", FirstName: "Gab", LastName: "T"}
	require.NoError(t, CreateUser(db, u))

	var stored User
	require.NoError(t, db.First(&stored, u.ID).Error)
	assert.False(t, stored.IsActive)
	assert.False(t, stored.IsStaff)
	assert.False(t, stored.IsSuperuser)
}

func TestCreateSuperuser(t *testing.T) {
	db := newTestDB(t)

	u := &User{Username: "root", Email: "root@g.com", FirstName: "Root", LastName: "T"}
	require.NoError(t, CreateSuperuser(db, u))

	var stored User
	require.NoError(t, db.First(&stored, u.ID).Error)
	assert.True(t, stored.IsActive)
	assert.True(t, stored.IsStaff)
	assert.True(t, stored.IsSuperuser)
}

func TestUsernameAndEmailUnique(t *testing.T) {
	db := newTestDB(t)
	makeUser(t, db, "gab")

	dup := &User{Username: "gab", Email: "other@g.com", FirstName: "A", LastName: "B"}
	require.Error(t, CreateUser(db, dup))

	dup = &User{Username: "other", Email: "gab@example.com", FirstName: "A", LastName: "B"}
	require.Error(t, CreateUser(db, dup))
}

func TestActivateIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	u := &User{Username: "gab", Email: "g@g.com", FirstName: "Gab", LastName: "T"}
	require.NoError(t, CreateUser(db, u))

	require.NoError(t, u.Activate(db))
	require.NoError(t, u.Activate(db))

	var stored User
	require.NoError(t, db.First(&stored, u.ID).Error)
	assert.True(t, stored.IsActive)
}

func TestRetrieveForumAccount(t *testing.T) {
	db := newTestDB(t)
	forum, _ := makeForum(t, db, "Gophers")

	stranger := makeUser(t, db, "stranger")
	account, err := stranger.RetrieveForumAccount(db, forum.ID)
	require.NoError(t, err)
	assert.Nil(t, account, "a user who never joined has no membership")

	member := joinForum(t, db, forum, "member")
	got, err := member.User.RetrieveForumAccount(db, forum.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, member.ID, got.ID)
	assert.Equal(t, "member", got.User.Username)
}
