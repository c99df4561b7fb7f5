package models

import (
	"errors"

	"gorm.io/gorm"
)

// ErrPermissionDenied is the uniform guard failure. Controllers map it to a
// 403 without detailing which check failed, so non-members learn nothing
// about roles.
var ErrPermissionDenied = errors.New("permission denied")

// Owned is anything carrying an owning membership reference: messages,
// topics, conversations. Guards work over the capability, not the concrete
// type.
type Owned interface {
	OwnerAccountID() *uint
}

// RequireOwnershipOrModerator passes for the element's owner and for any
// forum master. Everyone else is denied, including authors whose membership
// reference was cleared by a ban.
func RequireOwnershipOrModerator(element Owned, account *ForumAccount) error {
	if account == nil {
		return ErrPermissionDenied
	}
	if account.ForumMaster {
		return nil
	}
	if owner := element.OwnerAccountID(); owner != nil && *owner == account.ID {
		return nil
	}
	return ErrPermissionDenied
}

// RequireActiveMembership resolves the caller's membership for the forum and
// fails when it is absent or suspended. Callers reuse the returned account
// instead of querying again.
func RequireActiveMembership(db *gorm.DB, userID, forumID uint) (*ForumAccount, error) {
	var account ForumAccount
	err := db.Preload("User").Where("user_id = ? AND forum_id = ?", userID, forumID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPermissionDenied
	}
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, ErrPermissionDenied
	}
	return &account, nil
}

// RequireForumMaster fails when the account is missing or not the forum master.
func RequireForumMaster(account *ForumAccount) error {
	if account == nil || !account.ForumMaster {
		return ErrPermissionDenied
	}
	return nil
}

// RequireConversationParticipant restricts a conversation to its owner and
// contact set.
func RequireConversationParticipant(account *ForumAccount, conv *Conversation, contacts []ForumAccount) error {
	if account == nil {
		return ErrPermissionDenied
	}
	if conv.AccountID != nil && *conv.AccountID == account.ID {
		return nil
	}
	for _, contact := range contacts {
		if contact.ID == account.ID {
			return nil
		}
	}
	return ErrPermissionDenied
}
