package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gabigab117/platforum/models"
	"github.com/gabigab117/platforum/utils"
)

// TopicController manages threads and their messages.
type TopicController struct {
	db *gorm.DB
}

// NewTopicController creates a TopicController.
func NewTopicController(db *gorm.DB) *TopicController {
	return &TopicController{db: db}
}

// ViewSubCategory lists the topics of a subcategory, pinned threads first as
// their own block, the rest paginated by last activity.
func (t *TopicController) ViewSubCategory(ctx *gin.Context) {
	account, ok := requireMembership(ctx, t.db)
	if !ok {
		return
	}
	subCategoryID, ok := paramID(ctx, "sub_category_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid subcategory id")
		return
	}

	subCategory, err := t.loadSubCategory(subCategoryID, account.ForumID)
	if err != nil {
		guardError(ctx, err)
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var pinned []models.Topic
	if err := t.db.Where("sub_category_id = ? AND pin = ?", subCategory.ID, true).
		Preload("Account.User").
		Order("last_activity DESC").
		Find(&pinned).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to load pinned topics")
		return
	}

	query := t.db.Where("sub_category_id = ? AND pin = ?", subCategory.ID, false)
	var total int64
	if err := query.Model(&models.Topic{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to count topics")
		return
	}
	var topics []models.Topic
	if err := query.Preload("Account.User").
		Order("last_activity DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&topics).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list topics")
		return
	}

	utils.Success(ctx, gin.H{
		"sub_category": subCategory,
		"pinned":       pinned,
		"topics":       topics,
		"pagination":   paginationPayload(page, pageSize, total),
	})
}

// CreateTopic opens a thread with its first message in one transaction.
func (t *TopicController) CreateTopic(ctx *gin.Context) {
	account, ok := requireMembership(ctx, t.db)
	if !ok {
		return
	}
	subCategoryID, ok := paramID(ctx, "sub_category_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid subcategory id")
		return
	}

	if _, err := t.loadSubCategory(subCategoryID, account.ForumID); err != nil {
		guardError(ctx, err)
		return
	}

	var req struct {
		Title string `json:"title" binding:"required,min=1,max=100"`
		Body  string `json:"body" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid request payload")
		return
	}

	body := utils.Sanitize(req.Body)
	if strings.TrimSpace(body) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40042, "message body cannot be empty")
		return
	}

	topic := models.Topic{
		SubCategoryID: subCategoryID,
		AccountID:     &account.ID,
		Title:         utils.Sanitize(strings.TrimSpace(req.Title)),
	}
	if err := models.CreateTopicWithFirstMessage(t.db, &topic, body, account); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to create topic")
		return
	}

	utils.Success(ctx, gin.H{"topic": topic})
}

// ViewTopic returns a thread with its paginated messages.
func (t *TopicController) ViewTopic(ctx *gin.Context) {
	account, ok := requireMembership(ctx, t.db)
	if !ok {
		return
	}
	topic, err := t.loadTopic(ctx, account.ForumID)
	if err != nil {
		guardError(ctx, err)
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var total int64
	if err := t.db.Model(&models.Message{}).Where("topic_id = ?", topic.ID).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to count messages")
		return
	}

	var messages []models.Message
	if err := t.db.Where("topic_id = ?", topic.ID).
		Preload("Account.User").
		Order("created_at ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&messages).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to load messages")
		return
	}

	items := make([]gin.H, 0, len(messages))
	for i := range messages {
		items = append(items, gin.H{
			"message": messages[i],
			"author":  messages[i].Author().Display(),
		})
	}

	utils.Success(ctx, gin.H{
		"topic":      topic,
		"author":     topic.Author().Display(),
		"messages":   items,
		"pagination": paginationPayload(page, pageSize, total),
	})
}

// PostMessage appends a message to a topic, bumping its activity and
// notifying the topic author when someone else posts.
func (t *TopicController) PostMessage(ctx *gin.Context) {
	account, ok := requireMembership(ctx, t.db)
	if !ok {
		return
	}
	topic, err := t.loadTopic(ctx, account.ForumID)
	if err != nil {
		guardError(ctx, err)
		return
	}

	if topic.Closed {
		utils.Error(ctx, http.StatusForbidden, 40340, "topic is closed")
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, "invalid request payload")
		return
	}
	body := utils.Sanitize(req.Body)
	if strings.TrimSpace(body) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40042, "message body cannot be empty")
		return
	}

	message := models.NewMessage(body, account, models.TopicTarget(topic.ID))
	if err := t.db.Create(&message).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to post message")
		return
	}

	if err := models.NotifyTopicMessage(t.db, topic, account); err != nil {
		utils.Sugar.Errorw("topic notification failed", "topic_id", topic.ID, "err", err)
	}

	utils.Success(ctx, gin.H{"message": message})
}

// EditMessage rewrites a message body. Owner or forum master only.
func (t *TopicController) EditMessage(ctx *gin.Context) {
	account, ok := requireMembership(ctx, t.db)
	if !ok {
		return
	}
	message, err := t.loadMessage(ctx, account.ForumID)
	if err != nil {
		guardError(ctx, err)
		return
	}
	if err := models.RequireOwnershipOrModerator(message, account); err != nil {
		guardError(ctx, err)
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, "invalid request payload")
		return
	}
	body := utils.Sanitize(req.Body)
	if strings.TrimSpace(body) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40042, "message body cannot be empty")
		return
	}

	if err := message.Edit(t.db, body); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to edit message")
		return
	}
	utils.Success(ctx, gin.H{"message": message})
}

// DeleteMessage removes a message for good. Owner or forum master only.
func (t *TopicController) DeleteMessage(ctx *gin.Context) {
	account, ok := requireMembership(ctx, t.db)
	if !ok {
		return
	}
	message, err := t.loadMessage(ctx, account.ForumID)
	if err != nil {
		guardError(ctx, err)
		return
	}
	if err := models.RequireOwnershipOrModerator(message, account); err != nil {
		guardError(ctx, err)
		return
	}

	if err := t.db.Delete(message).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50048, "failed to delete message")
		return
	}
	utils.Success(ctx, gin.H{"message": "deleted"})
}

// ToggleLike likes the message, or unlikes it when the caller already liked
// it. Likes never notify anyone.
func (t *TopicController) ToggleLike(ctx *gin.Context) {
	account, ok := requireMembership(ctx, t.db)
	if !ok {
		return
	}
	message, err := t.loadMessage(ctx, account.ForumID)
	if err != nil {
		guardError(ctx, err)
		return
	}

	liked, err := models.ToggleLike(t.db, message.ID, account.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50049, "failed to toggle like")
		return
	}

	var likeCount int64
	_ = t.db.Model(&models.Like{}).Where("message_id = ?", message.ID).Count(&likeCount)

	utils.Success(ctx, gin.H{"liked": liked, "likes": likeCount})
}

func (t *TopicController) loadSubCategory(subCategoryID, forumID uint) (*models.SubCategory, error) {
	var subCategory models.SubCategory
	err := t.db.
		Joins("JOIN categories ON categories.id = sub_categories.category_id").
		Where("sub_categories.id = ? AND categories.forum_id = ?", subCategoryID, forumID).
		First(&subCategory).Error
	if err != nil {
		return nil, err
	}
	return &subCategory, nil
}

// loadTopic resolves the :topic_id route param within the caller's forum so
// cross-forum ids read as not found.
func (t *TopicController) loadTopic(ctx *gin.Context, forumID uint) (*models.Topic, error) {
	topicID, ok := paramID(ctx, "topic_id")
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var topic models.Topic
	err := t.db.
		Joins("JOIN sub_categories ON sub_categories.id = topics.sub_category_id").
		Joins("JOIN categories ON categories.id = sub_categories.category_id").
		Where("topics.id = ? AND categories.forum_id = ?", topicID, forumID).
		Preload("Account.User").
		First(&topic).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

func (t *TopicController) loadMessage(ctx *gin.Context, forumID uint) (*models.Message, error) {
	messageID, ok := paramID(ctx, "message_id")
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var message models.Message
	err := t.db.
		Joins("JOIN topics ON topics.id = messages.topic_id").
		Joins("JOIN sub_categories ON sub_categories.id = topics.sub_category_id").
		Joins("JOIN categories ON categories.id = sub_categories.category_id").
		Where("messages.id = ? AND categories.forum_id = ?", messageID, forumID).
		Preload("Account.User").
		First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}
