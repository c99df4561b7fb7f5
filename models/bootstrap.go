package models

import "gorm.io/gorm"

// Default names for the structure every new forum starts with.
const (
	DefaultCategoryName    = "General"
	DefaultSubCategoryName = "Introductions"
	DefaultTopicTitle      = "Welcome"
)

// CreateForumWithDefaults materializes a new forum in a single transaction:
// the forum row, the owner's membership with the forum-master flag, and one
// default category, subcategory, topic and welcome message. If any step
// fails, nothing persists.
func CreateForumWithDefaults(db *gorm.DB, forum *Forum, owner *User) error {
	return db.Transaction(func(tx *gorm.DB) error {
		forum.OwnerID = owner.ID
		if err := tx.Create(forum).Error; err != nil {
			return err
		}

		account := ForumAccount{
			ForumID:     forum.ID,
			UserID:      owner.ID,
			Active:      true,
			ForumMaster: true,
		}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}

		category := Category{ForumID: forum.ID, Name: DefaultCategoryName, Index: 1}
		if err := tx.Create(&category).Error; err != nil {
			return err
		}

		subCategory := SubCategory{CategoryID: category.ID, Name: DefaultSubCategoryName, Index: 1}
		if err := tx.Create(&subCategory).Error; err != nil {
			return err
		}

		topic := Topic{
			SubCategoryID: subCategory.ID,
			AccountID:     &account.ID,
			Title:         DefaultTopicTitle,
		}
		if err := tx.Create(&topic).Error; err != nil {
			return err
		}

		message := NewMessage(WelcomeMessage(owner.DisplayName()), &account, TopicTarget(topic.ID))
		return tx.Create(&message).Error
	})
}
