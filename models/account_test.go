package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMembershipUniquePerForumAndUser(t *testing.T) {
	db := newTestDB(t)
	forum, _ := makeForum(t, db, "Gophers")
	member := joinForum(t, db, forum, "alice")

	dup := &ForumAccount{ForumID: forum.ID, UserID: member.UserID, Active: true}
	require.Error(t, db.Create(dup).Error, "second membership for the same pair must be rejected")

	// The same user can join a different forum.
	other, _ := makeForum(t, db, "Rustaceans")
	second := &ForumAccount{ForumID: other.ID, UserID: member.UserID, Active: true}
	assert.NoError(t, db.Create(second).Error)
}

func TestSeedBadgesIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	// newTestDB already seeded once.
	require.NoError(t, SeedBadges(db))

	var count int64
	require.NoError(t, db.Model(&Badge{}).Count(&count).Error)
	assert.EqualValues(t, len(BadgeCatalog), count)
}

func TestEvaluateBadgesGrantsForCounts(t *testing.T) {
	db := newTestDB(t)
	forum, _ := makeForum(t, db, "Gophers")
	member := joinForum(t, db, forum, "alice")
	topic := forumDefaultTopic(t, db, forum)

	for i := 0; i < 10; i++ {
		message := NewMessage("post", member, TopicTarget(topic.ID))
		require.NoError(t, db.Create(&message).Error)
	}

	require.NoError(t, EvaluateBadges(db, member))

	held := badgeDescriptions(t, db, member)
	assert.Contains(t, held, "10 messages")
	assert.Contains(t, held, "Nouveau", "a member who just joined is new")
	assert.NotContains(t, held, "50 messages")
	assert.NotContains(t, held, "Forum Master")
}

func TestEvaluateBadgesNeverRevokes(t *testing.T) {
	db := newTestDB(t)
	forum, _ := makeForum(t, db, "Gophers")
	member := joinForum(t, db, forum, "alice")

	require.NoError(t, EvaluateBadges(db, member))
	held := badgeDescriptions(t, db, member)
	require.Contains(t, held, "Nouveau")

	// Time passes: the Nouveau condition no longer holds, but the badge stays.
	require.NoError(t, db.Model(member).
		UpdateColumn("joined", time.Now().Add(-30*24*time.Hour)).Error)
	member.Joined = time.Now().Add(-30 * 24 * time.Hour)

	require.NoError(t, EvaluateBadges(db, member))
	after := badgeDescriptions(t, db, member)
	assert.Contains(t, after, "Nouveau")
}

func TestEvaluateBadgesIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	forum, master := makeForum(t, db, "Gophers")
	_ = forum

	require.NoError(t, EvaluateBadges(db, master))
	first := badgeDescriptions(t, db, master)
	require.Contains(t, first, "Forum Master")

	require.NoError(t, EvaluateBadges(db, master))
	second := badgeDescriptions(t, db, master)
	assert.Equal(t, len(first), len(second), "re-evaluation must not duplicate grants")
}

func TestEvaluateBadgesFailsOnMissingCatalogRow(t *testing.T) {
	db := newTestDB(t)
	forum, _ := makeForum(t, db, "Gophers")
	member := joinForum(t, db, forum, "alice")

	require.NoError(t, db.Where("description = ?", "Nouveau").Delete(&Badge{}).Error)

	err := EvaluateBadges(db, member)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nouveau")
}

func TestLikesReceivedCountsOnlyOwnMessages(t *testing.T) {
	db := newTestDB(t)
	forum, owner := makeForum(t, db, "Gophers")
	author := joinForum(t, db, forum, "author")
	liker := joinForum(t, db, forum, "liker")
	topic := forumDefaultTopic(t, db, forum)

	mine := NewMessage("mine", author, TopicTarget(topic.ID))
	require.NoError(t, db.Create(&mine).Error)
	theirs := NewMessage("theirs", owner, TopicTarget(topic.ID))
	require.NoError(t, db.Create(&theirs).Error)

	_, err := ToggleLike(db, mine.ID, liker.ID)
	require.NoError(t, err)
	_, err = ToggleLike(db, theirs.ID, liker.ID)
	require.NoError(t, err)

	n, err := author.LikesReceived(db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func badgeDescriptions(t *testing.T, db *gorm.DB, account *ForumAccount) []string {
	t.Helper()
	var badges []Badge
	require.NoError(t, db.Model(account).Association("Badges").Find(&badges))
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		out = append(out, b.Description)
	}
	return out
}
