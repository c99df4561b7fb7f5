package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gabigab117/platforum/middleware"
	"github.com/gabigab117/platforum/models"
	"github.com/gabigab117/platforum/utils"
)

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func paramID(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// requireMembership resolves the caller's active membership for the forum in
// the route, writing the error envelope itself on failure.
func requireMembership(ctx *gin.Context, db *gorm.DB) (*models.ForumAccount, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return nil, false
	}
	forumID, ok := paramID(ctx, "forum_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid forum id")
		return nil, false
	}
	account, err := models.RequireActiveMembership(db, userID, forumID)
	if err != nil {
		if errors.Is(err, models.ErrPermissionDenied) {
			utils.Error(ctx, http.StatusForbidden, 40310, "active forum membership required")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load membership")
		}
		return nil, false
	}
	return account, true
}

// guardError maps guard failures and missing rows onto the response envelope.
func guardError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrPermissionDenied):
		utils.Error(ctx, http.StatusForbidden, 40311, "permission denied")
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.Error(ctx, http.StatusNotFound, 40410, "not found")
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50011, "internal error")
	}
}

func paginationPayload(page, pageSize int, total int64) gin.H {
	return gin.H{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}
