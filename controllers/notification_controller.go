package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gabigab117/platforum/models"
	"github.com/gabigab117/platforum/utils"
)

// NotificationController lists and clears membership notifications.
type NotificationController struct {
	db *gorm.DB
}

// NewNotificationController creates a NotificationController.
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

// List returns the caller's notifications, newest first, with the counter.
func (n *NotificationController) List(ctx *gin.Context) {
	account, ok := requireMembership(ctx, n.db)
	if !ok {
		return
	}

	var notifications []models.Notification
	if err := n.db.Where("account_id = ?", account.ID).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to list notifications")
		return
	}

	utils.Success(ctx, gin.H{
		"items":   notifications,
		"counter": account.NotificationCounter,
	})
}

// Clear drops all of the caller's notifications and resets the counter.
func (n *NotificationController) Clear(ctx *gin.Context) {
	account, ok := requireMembership(ctx, n.db)
	if !ok {
		return
	}

	if err := models.ClearNotifications(n.db, account.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to clear notifications")
		return
	}
	utils.Success(ctx, gin.H{"message": "notifications cleared"})
}
