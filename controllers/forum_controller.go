package controllers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gabigab117/platforum/config"
	"github.com/gabigab117/platforum/models"
	"github.com/gabigab117/platforum/utils"
)

// ForumController manages forum creation, discovery and membership.
type ForumController struct {
	db *gorm.DB
}

// NewForumController creates a ForumController.
func NewForumController(db *gorm.DB) *ForumController {
	return &ForumController{db: db}
}

// ListForums returns paginated forums, optionally filtered by a name search.
func (f *ForumController) ListForums(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))

	// Cache the unfiltered listing only to avoid cache key explosion
	if search == "" {
		cacheKey := fmt.Sprintf("cache:forums:list:page=%d:size=%d", page, pageSize)
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	var forums []models.Forum
	var total int64

	query := f.db.Preload("Theme").Order("created_at DESC")
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if err := query.Model(&models.Forum{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to count forums")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&forums).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list forums")
		return
	}

	payload := gin.H{
		"items":      forums,
		"pagination": paginationPayload(page, pageSize, total),
	}
	if search == "" {
		cacheKey := fmt.Sprintf("cache:forums:list:page=%d:size=%d", page, pageSize)
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// CreateForum bootstraps a new forum: the forum itself, the creator's master
// membership, a default category, subcategory, topic and welcome message, all
// in one transaction.
func (f *ForumController) CreateForum(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required,min=2,max=100"`
		ThemeID     uint   `json:"theme_id" binding:"required"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	var owner models.User
	if err := f.db.First(&owner, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
		return
	}

	var theme models.Theme
	if err := f.db.First(&theme, req.ThemeID).Error; err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "unknown theme")
		return
	}

	forum := models.Forum{
		OwnerID:     owner.ID,
		Name:        strings.TrimSpace(req.Name),
		ThemeID:     theme.ID,
		Description: utils.Sanitize(req.Description),
	}
	if err := models.CreateForumWithDefaults(f.db, &forum, &owner); err != nil {
		utils.Error(ctx, http.StatusConflict, 40902, "forum name already taken")
		return
	}

	utils.InvalidateByPrefix("cache:forums:list:")
	utils.Success(ctx, gin.H{"forum": forum})
}

// JoinForum creates a membership for the caller. The composite unique index
// turns a double join into a conflict instead of a duplicate row.
func (f *ForumController) JoinForum(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	forumID, ok := paramID(ctx, "forum_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid forum id")
		return
	}

	var forum models.Forum
	if err := f.db.First(&forum, forumID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "forum not found")
		return
	}

	account := models.ForumAccount{ForumID: forum.ID, UserID: userID}
	if err := f.db.Create(&account).Error; err != nil {
		utils.Error(ctx, http.StatusConflict, 40903, "already a member of this forum")
		return
	}

	utils.Success(ctx, gin.H{"account": account})
}

// Index returns the forum front page: categories with their subcategories,
// plus the caller's membership summary. Badge rules are re-evaluated here;
// the evaluation is monotonic so repeated visits are harmless.
func (f *ForumController) Index(ctx *gin.Context) {
	account, ok := requireMembership(ctx, f.db)
	if !ok {
		return
	}

	if err := models.EvaluateBadges(f.db, account); err != nil {
		utils.Sugar.Errorw("badge evaluation failed", "account_id", account.ID, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to evaluate badges")
		return
	}

	var forum models.Forum
	if err := f.db.Preload("Theme").First(&forum, account.ForumID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "forum not found")
		return
	}

	var categories []models.Category
	if err := f.db.Where("forum_id = ?", forum.ID).
		Preload("SubCategories", func(db *gorm.DB) *gorm.DB {
			return db.Order("sub_categories.`index` ASC")
		}).
		Order("categories.`index` ASC").
		Find(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load categories")
		return
	}

	var badges []models.Badge
	_ = f.db.Model(account).Association("Badges").Find(&badges)
	account.Badges = badges

	utils.Success(ctx, gin.H{
		"forum":      forum,
		"categories": categories,
		"account":    account,
	})
}

// ListMembers returns forum memberships, optionally filtered by username.
func (f *ForumController) ListMembers(ctx *gin.Context) {
	account, ok := requireMembership(ctx, f.db)
	if !ok {
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))

	query := f.db.Model(&models.ForumAccount{}).
		Joins("JOIN users ON users.id = forum_accounts.user_id").
		Where("forum_accounts.forum_id = ?", account.ForumID)
	if search != "" {
		query = query.Where("users.username LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to count members")
		return
	}

	var members []models.ForumAccount
	if err := query.Preload("User").Preload("Badges").
		Order("forum_accounts.joined ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&members).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to list members")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      members,
		"pagination": paginationPayload(page, pageSize, total),
	})
}

// GetMember returns a member profile with their five most recent messages.
func (f *ForumController) GetMember(ctx *gin.Context) {
	caller, ok := requireMembership(ctx, f.db)
	if !ok {
		return
	}
	memberID, ok := paramID(ctx, "member_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid member id")
		return
	}

	var member models.ForumAccount
	if err := f.db.Preload("User").Preload("Badges").
		Where("id = ? AND forum_id = ?", memberID, caller.ForumID).
		First(&member).Error; err != nil {
		guardError(ctx, err)
		return
	}

	var recent []models.Message
	if err := f.db.Where("account_id = ? AND personal = ?", member.ID, false).
		Order("created_at DESC").Limit(5).
		Find(&recent).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load recent messages")
		return
	}

	messageCount, _ := member.MessagesCount(f.db)
	likeCount, _ := member.LikesReceived(f.db)

	utils.Success(ctx, gin.H{
		"member":          member,
		"recent_messages": recent,
		"messages_count":  messageCount,
		"likes_received":  likeCount,
	})
}

// Search looks up topics and public messages matching a keyword.
func (f *ForumController) Search(ctx *gin.Context) {
	account, ok := requireMembership(ctx, f.db)
	if !ok {
		return
	}
	q := strings.TrimSpace(ctx.Query("q"))
	if q == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "missing search term")
		return
	}

	var topics []models.Topic
	if err := f.db.
		Joins("JOIN sub_categories ON sub_categories.id = topics.sub_category_id").
		Joins("JOIN categories ON categories.id = sub_categories.category_id").
		Where("categories.forum_id = ? AND topics.title LIKE ?", account.ForumID, "%"+q+"%").
		Preload("Account.User").
		Limit(25).
		Find(&topics).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to search topics")
		return
	}

	var messages []models.Message
	if err := f.db.
		Joins("JOIN topics ON topics.id = messages.topic_id").
		Joins("JOIN sub_categories ON sub_categories.id = topics.sub_category_id").
		Joins("JOIN categories ON categories.id = sub_categories.category_id").
		Where("categories.forum_id = ? AND messages.personal = ? AND messages.body LIKE ?",
			account.ForumID, false, "%"+q+"%").
		Preload("Account.User").
		Limit(25).
		Find(&messages).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to search messages")
		return
	}

	utils.Success(ctx, gin.H{"topics": topics, "messages": messages})
}

// UploadThumbnail replaces the forum logo. Forum master only, 5 MB cap.
func (f *ForumController) UploadThumbnail(ctx *gin.Context) {
	account, ok := requireMembership(ctx, f.db)
	if !ok {
		return
	}
	if err := models.RequireForumMaster(account); err != nil {
		guardError(ctx, err)
		return
	}

	path, ok := f.saveImage(ctx, fmt.Sprintf("forum_%d", account.ForumID))
	if !ok {
		return
	}

	if err := f.db.Model(&models.Forum{}).Where("id = ?", account.ForumID).
		UpdateColumn("thumbnail", path).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to save thumbnail")
		return
	}
	utils.InvalidateByPrefix("cache:forums:list:")
	utils.Success(ctx, gin.H{"thumbnail": path})
}

// UploadAvatar replaces the caller's membership avatar. 5 MB cap.
func (f *ForumController) UploadAvatar(ctx *gin.Context) {
	account, ok := requireMembership(ctx, f.db)
	if !ok {
		return
	}

	path, ok := f.saveImage(ctx, fmt.Sprintf("avatar_%d", account.ID))
	if !ok {
		return
	}

	if err := f.db.Model(account).UpdateColumn("thumbnail", path).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to save avatar")
		return
	}
	utils.Success(ctx, gin.H{"thumbnail": path})
}

// saveImage stores an uploaded image under MediaRoot with a unique name and
// returns the public path. Writes the error envelope itself on failure.
func (f *ForumController) saveImage(ctx *gin.Context, prefix string) (string, bool) {
	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return "", false
	}
	defer file.Close()

	if header.Size > models.MaxThumbnailSize {
		utils.Error(ctx, http.StatusBadRequest, 40031, "file size exceeds 5MB")
		return "", false
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		utils.Error(ctx, http.StatusBadRequest, 40032, "unsupported image format")
		return "", false
	}

	mediaRoot := config.Get().MediaRoot
	if err := os.MkdirAll(mediaRoot, 0o755); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to create media directory")
		return "", false
	}

	name := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), ext)
	dstPath := filepath.Join(mediaRoot, name)
	out, err := os.Create(dstPath)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to save file")
		return "", false
	}
	defer out.Close()

	lr := &io.LimitedReader{R: file, N: models.MaxThumbnailSize + 1}
	written, err := io.Copy(out, lr)
	if err != nil {
		_ = os.Remove(dstPath)
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to write file")
		return "", false
	}
	if written > models.MaxThumbnailSize {
		_ = os.Remove(dstPath)
		utils.Error(ctx, http.StatusBadRequest, 40031, "file size exceeds 5MB")
		return "", false
	}

	return "/media/" + name, true
}

// ListThemes returns the available display themes.
func (f *ForumController) ListThemes(ctx *gin.Context) {
	var themes []models.Theme
	if err := f.db.Find(&themes).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to list themes")
		return
	}
	utils.Success(ctx, gin.H{"items": themes})
}
