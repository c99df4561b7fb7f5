package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gabigab117/platforum/models"
	"github.com/gabigab117/platforum/utils"
)

// maxSubCategoriesPerBatch caps the category builder form.
const maxSubCategoriesPerBatch = 5

// AdminController exposes forum-master moderation endpoints. Every handler
// runs behind the ForumMaster guard.
type AdminController struct {
	db *gorm.DB
}

// NewAdminController creates an AdminController.
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

// requireMaster resolves the caller's membership and checks the master flag,
// writing the envelope itself on failure.
func (a *AdminController) requireMaster(ctx *gin.Context) (*models.ForumAccount, bool) {
	account, ok := requireMembership(ctx, a.db)
	if !ok {
		return nil, false
	}
	if err := models.RequireForumMaster(account); err != nil {
		guardError(ctx, err)
		return nil, false
	}
	return account, true
}

// Dashboard returns headline counts for the forum.
func (a *AdminController) Dashboard(ctx *gin.Context) {
	account, ok := a.requireMaster(ctx)
	if !ok {
		return
	}

	var members, active, topics, messages int64
	a.db.Model(&models.ForumAccount{}).Where("forum_id = ?", account.ForumID).Count(&members)
	a.db.Model(&models.ForumAccount{}).Where("forum_id = ? AND active = ?", account.ForumID, true).Count(&active)
	a.db.Model(&models.Topic{}).
		Joins("JOIN sub_categories ON sub_categories.id = topics.sub_category_id").
		Joins("JOIN categories ON categories.id = sub_categories.category_id").
		Where("categories.forum_id = ?", account.ForumID).
		Count(&topics)
	a.db.Model(&models.Message{}).
		Joins("JOIN topics ON topics.id = messages.topic_id").
		Joins("JOIN sub_categories ON sub_categories.id = topics.sub_category_id").
		Joins("JOIN categories ON categories.id = sub_categories.category_id").
		Where("categories.forum_id = ?", account.ForumID).
		Count(&messages)

	utils.Success(ctx, gin.H{
		"members":        members,
		"active_members": active,
		"topics":         topics,
		"messages":       messages,
	})
}

// PinTopic toggles the pin flag on a topic.
func (a *AdminController) PinTopic(ctx *gin.Context) {
	account, ok := a.requireMaster(ctx)
	if !ok {
		return
	}
	topic, err := a.loadTopic(ctx, account.ForumID)
	if err != nil {
		guardError(ctx, err)
		return
	}

	if err := a.db.Model(topic).UpdateColumn("pin", !topic.Pin).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to toggle pin")
		return
	}
	utils.Success(ctx, gin.H{"pin": !topic.Pin})
}

// SetMemberActive suspends or reinstates a membership. The forum master's
// own account can never be deactivated.
func (a *AdminController) SetMemberActive(ctx *gin.Context) {
	account, ok := a.requireMaster(ctx)
	if !ok {
		return
	}
	memberID, ok := paramID(ctx, "member_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid member id")
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}

	var member models.ForumAccount
	if err := a.db.Where("id = ? AND forum_id = ?", memberID, account.ForumID).
		First(&member).Error; err != nil {
		guardError(ctx, err)
		return
	}

	if member.ForumMaster && !*req.Active {
		utils.Error(ctx, http.StatusForbidden, 40350, "the forum master cannot be deactivated")
		return
	}

	var err error
	if *req.Active {
		err = member.Activate(a.db)
	} else {
		err = member.Deactivate(a.db)
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to update member")
		return
	}
	utils.Success(ctx, gin.H{"member": member})
}

// CreateCategoryTree creates a category with up to five subcategories in one
// transaction, each with its display index.
func (a *AdminController) CreateCategoryTree(ctx *gin.Context) {
	account, ok := a.requireMaster(ctx)
	if !ok {
		return
	}

	var req struct {
		Name          string `json:"name" binding:"required,min=1,max=50"`
		Index         int    `json:"index"`
		SubCategories []struct {
			Name  string `json:"name" binding:"required,min=1,max=50"`
			Index int    `json:"index"`
		} `json:"sub_categories"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}
	if len(req.SubCategories) > maxSubCategoriesPerBatch {
		utils.Error(ctx, http.StatusBadRequest, 40052, "at most five subcategories per category")
		return
	}

	category := models.Category{
		ForumID: account.ForumID,
		Name:    strings.TrimSpace(req.Name),
		Index:   req.Index,
	}
	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&category).Error; err != nil {
			return err
		}
		for _, sc := range req.SubCategories {
			sub := models.SubCategory{
				CategoryID: category.ID,
				Name:       strings.TrimSpace(sc.Name),
				Index:      sc.Index,
			}
			if err := tx.Create(&sub).Error; err != nil {
				return err
			}
			category.SubCategories = append(category.SubCategories, sub)
		}
		return nil
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to create category")
		return
	}
	utils.Success(ctx, gin.H{"category": category})
}

// UpdateCategory renames or reorders a category.
func (a *AdminController) UpdateCategory(ctx *gin.Context) {
	account, ok := a.requireMaster(ctx)
	if !ok {
		return
	}
	categoryID, ok := paramID(ctx, "category_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40053, "invalid category id")
		return
	}

	var category models.Category
	if err := a.db.Where("id = ? AND forum_id = ?", categoryID, account.ForumID).
		First(&category).Error; err != nil {
		guardError(ctx, err)
		return
	}

	var req struct {
		Name  string `json:"name"`
		Index *int   `json:"index"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}

	updates := map[string]interface{}{}
	if v := strings.TrimSpace(req.Name); v != "" {
		updates["name"] = v
	}
	if req.Index != nil {
		updates["index"] = *req.Index
	}
	if len(updates) > 0 {
		if err := a.db.Model(&category).Updates(updates).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to update category")
			return
		}
	}
	utils.Success(ctx, gin.H{"category": category})
}

// DeleteCategory removes a category and its subtree.
func (a *AdminController) DeleteCategory(ctx *gin.Context) {
	account, ok := a.requireMaster(ctx)
	if !ok {
		return
	}
	categoryID, ok := paramID(ctx, "category_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40053, "invalid category id")
		return
	}

	var category models.Category
	if err := a.db.Where("id = ? AND forum_id = ?", categoryID, account.ForumID).
		First(&category).Error; err != nil {
		guardError(ctx, err)
		return
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", category.ID).Delete(&models.SubCategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to delete category")
		return
	}
	utils.Success(ctx, gin.H{"message": "category deleted"})
}

// UpdateSubCategory renames or reorders a subcategory. The slug set at first
// save is left alone.
func (a *AdminController) UpdateSubCategory(ctx *gin.Context) {
	account, ok := a.requireMaster(ctx)
	if !ok {
		return
	}
	subCategoryID, ok := paramID(ctx, "sub_category_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid subcategory id")
		return
	}

	subCategory, err := a.loadSubCategory(subCategoryID, account.ForumID)
	if err != nil {
		guardError(ctx, err)
		return
	}

	var req struct {
		Name  string `json:"name"`
		Index *int   `json:"index"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}

	updates := map[string]interface{}{}
	if v := strings.TrimSpace(req.Name); v != "" {
		updates["name"] = v
	}
	if req.Index != nil {
		updates["index"] = *req.Index
	}
	if len(updates) > 0 {
		if err := a.db.Model(subCategory).Updates(updates).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50055, "failed to update subcategory")
			return
		}
	}
	utils.Success(ctx, gin.H{"sub_category": subCategory})
}

// DeleteSubCategory removes a subcategory.
func (a *AdminController) DeleteSubCategory(ctx *gin.Context) {
	account, ok := a.requireMaster(ctx)
	if !ok {
		return
	}
	subCategoryID, ok := paramID(ctx, "sub_category_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid subcategory id")
		return
	}

	subCategory, err := a.loadSubCategory(subCategoryID, account.ForumID)
	if err != nil {
		guardError(ctx, err)
		return
	}

	if err := a.db.Delete(subCategory).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50056, "failed to delete subcategory")
		return
	}
	utils.Success(ctx, gin.H{"message": "subcategory deleted"})
}

// UpdateTopic lets the master retitle, close or reopen a topic.
func (a *AdminController) UpdateTopic(ctx *gin.Context) {
	account, ok := a.requireMaster(ctx)
	if !ok {
		return
	}
	topic, err := a.loadTopic(ctx, account.ForumID)
	if err != nil {
		guardError(ctx, err)
		return
	}

	var req struct {
		Title  string `json:"title"`
		Closed *bool  `json:"closed"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}

	updates := map[string]interface{}{}
	if v := strings.TrimSpace(req.Title); v != "" {
		updates["title"] = utils.Sanitize(v)
	}
	if req.Closed != nil {
		updates["closed"] = *req.Closed
	}
	if len(updates) > 0 {
		if err := a.db.Model(topic).Updates(updates).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50057, "failed to update topic")
			return
		}
	}
	utils.Success(ctx, gin.H{"topic": topic})
}

// DeleteTopic removes a topic and its messages.
func (a *AdminController) DeleteTopic(ctx *gin.Context) {
	account, ok := a.requireMaster(ctx)
	if !ok {
		return
	}
	topic, err := a.loadTopic(ctx, account.ForumID)
	if err != nil {
		guardError(ctx, err)
		return
	}

	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("topic_id = ?", topic.ID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(topic).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50058, "failed to delete topic")
		return
	}
	utils.Success(ctx, gin.H{"message": "topic deleted"})
}

func (a *AdminController) loadTopic(ctx *gin.Context, forumID uint) (*models.Topic, error) {
	topicID, ok := paramID(ctx, "topic_id")
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var topic models.Topic
	err := a.db.
		Joins("JOIN sub_categories ON sub_categories.id = topics.sub_category_id").
		Joins("JOIN categories ON categories.id = sub_categories.category_id").
		Where("topics.id = ? AND categories.forum_id = ?", topicID, forumID).
		First(&topic).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

func (a *AdminController) loadSubCategory(subCategoryID, forumID uint) (*models.SubCategory, error) {
	var subCategory models.SubCategory
	err := a.db.
		Joins("JOIN categories ON categories.id = sub_categories.category_id").
		Where("sub_categories.id = ? AND categories.forum_id = ?", subCategoryID, forumID).
		First(&subCategory).Error
	if err != nil {
		return nil, err
	}
	return &subCategory, nil
}
