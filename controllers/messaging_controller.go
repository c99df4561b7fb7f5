package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gabigab117/platforum/models"
	"github.com/gabigab117/platforum/utils"
)

// MessagingController manages private conversations.
type MessagingController struct {
	db *gorm.DB
}

// NewMessagingController creates a MessagingController.
func NewMessagingController(db *gorm.DB) *MessagingController {
	return &MessagingController{db: db}
}

// ListConversations returns the conversations the caller owns or was added to.
func (m *MessagingController) ListConversations(ctx *gin.Context) {
	account, ok := requireMembership(ctx, m.db)
	if !ok {
		return
	}

	var owned []models.Conversation
	if err := m.db.Where("forum_id = ? AND account_id = ?", account.ForumID, account.ID).
		Preload("Account.User").
		Order("created_at DESC").
		Find(&owned).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to list conversations")
		return
	}

	var invited []models.Conversation
	if err := m.db.
		Joins("JOIN conversation_contacts ON conversation_contacts.conversation_id = conversations.id").
		Where("conversations.forum_id = ? AND conversation_contacts.forum_account_id = ?",
			account.ForumID, account.ID).
		Preload("Account.User").
		Order("conversations.created_at DESC").
		Find(&invited).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to list conversations")
		return
	}

	utils.Success(ctx, gin.H{"owned": owned, "invited": invited})
}

// StartConversation opens a private thread with its contact set and first
// message, atomically.
func (m *MessagingController) StartConversation(ctx *gin.Context) {
	account, ok := requireMembership(ctx, m.db)
	if !ok {
		return
	}

	var req struct {
		Subject    string `json:"subject" binding:"required,min=1,max=100"`
		Body       string `json:"body" binding:"required"`
		ContactIDs []uint `json:"contact_ids" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}

	body := utils.Sanitize(req.Body)
	if strings.TrimSpace(body) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40042, "message body cannot be empty")
		return
	}

	// Contacts must be active members of the same forum; the owner is never
	// their own contact.
	var contacts []models.ForumAccount
	if err := m.db.Where("id IN ? AND forum_id = ? AND active = ? AND id <> ?",
		req.ContactIDs, account.ForumID, true, account.ID).
		Find(&contacts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to resolve contacts")
		return
	}
	if len(contacts) == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40061, "no valid contacts")
		return
	}

	conv := models.Conversation{
		ForumID: account.ForumID,
		Subject: utils.Sanitize(strings.TrimSpace(req.Subject)),
	}
	if err := models.StartConversation(m.db, &conv, account, contacts, body); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to start conversation")
		return
	}

	utils.Success(ctx, gin.H{"conversation": conv})
}

// ViewConversation returns a conversation with its messages. Participants only.
func (m *MessagingController) ViewConversation(ctx *gin.Context) {
	account, ok := requireMembership(ctx, m.db)
	if !ok {
		return
	}
	conv, err := m.loadConversation(ctx, account)
	if err != nil {
		guardError(ctx, err)
		return
	}

	var messages []models.Message
	if err := m.db.Where("conversation_id = ?", conv.ID).
		Preload("Account.User").
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to load messages")
		return
	}

	items := make([]gin.H, 0, len(messages))
	for i := range messages {
		items = append(items, gin.H{
			"message": messages[i],
			"author":  messages[i].Author().Display(),
		})
	}

	utils.Success(ctx, gin.H{"conversation": conv, "messages": items})
}

// PostMessage appends to a conversation and notifies the owner when someone
// else posts.
func (m *MessagingController) PostMessage(ctx *gin.Context) {
	account, ok := requireMembership(ctx, m.db)
	if !ok {
		return
	}
	conv, err := m.loadConversation(ctx, account)
	if err != nil {
		guardError(ctx, err)
		return
	}

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	body := utils.Sanitize(req.Body)
	if strings.TrimSpace(body) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40042, "message body cannot be empty")
		return
	}

	message := models.NewMessage(body, account, models.ConversationTarget(conv.ID))
	if err := m.db.Create(&message).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50065, "failed to post message")
		return
	}

	if err := models.NotifyConversationMessage(m.db, conv, account); err != nil {
		utils.Sugar.Errorw("conversation notification failed", "conversation_id", conv.ID, "err", err)
	}

	utils.Success(ctx, gin.H{"message": message})
}

// EditMessage rewrites a private message. Owner or forum master only.
func (m *MessagingController) EditMessage(ctx *gin.Context) {
	account, ok := requireMembership(ctx, m.db)
	if !ok {
		return
	}
	conv, err := m.loadConversation(ctx, account)
	if err != nil {
		guardError(ctx, err)
		return
	}
	message, err := m.loadMessage(ctx, conv.ID)
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
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	body := utils.Sanitize(req.Body)
	if strings.TrimSpace(body) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40042, "message body cannot be empty")
		return
	}

	if err := message.Edit(m.db, body); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50066, "failed to edit message")
		return
	}
	utils.Success(ctx, gin.H{"message": message})
}

// DeleteMessage removes a private message. Owner or forum master only.
func (m *MessagingController) DeleteMessage(ctx *gin.Context) {
	account, ok := requireMembership(ctx, m.db)
	if !ok {
		return
	}
	conv, err := m.loadConversation(ctx, account)
	if err != nil {
		guardError(ctx, err)
		return
	}
	message, err := m.loadMessage(ctx, conv.ID)
	if err != nil {
		guardError(ctx, err)
		return
	}
	if err := models.RequireOwnershipOrModerator(message, account); err != nil {
		guardError(ctx, err)
		return
	}

	if err := m.db.Delete(message).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50067, "failed to delete message")
		return
	}
	utils.Success(ctx, gin.H{"message": "deleted"})
}

// loadConversation resolves the route conversation inside the caller's forum
// and checks participation.
func (m *MessagingController) loadConversation(ctx *gin.Context, account *models.ForumAccount) (*models.Conversation, error) {
	convID, ok := paramID(ctx, "conversation_id")
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var conv models.Conversation
	if err := m.db.Where("id = ? AND forum_id = ?", convID, account.ForumID).
		Preload("Account.User").
		First(&conv).Error; err != nil {
		return nil, err
	}

	var contacts []models.ForumAccount
	if err := m.db.Model(&conv).Association("Contacts").Find(&contacts); err != nil {
		return nil, err
	}
	conv.Contacts = contacts

	if err := models.RequireConversationParticipant(account, &conv, contacts); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (m *MessagingController) loadMessage(ctx *gin.Context, conversationID uint) (*models.Message, error) {
	messageID, ok := paramID(ctx, "message_id")
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var message models.Message
	if err := m.db.Where("id = ? AND conversation_id = ?", messageID, conversationID).
		Preload("Account.User").
		First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}
