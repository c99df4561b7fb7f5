package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gabigab117/platforum/config"
	"github.com/gabigab117/platforum/controllers"
	"github.com/gabigab117/platforum/middleware"
	"github.com/gabigab117/platforum/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file, separate from the app log
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Static("/media", cfg.MediaRoot)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	oauthController := controllers.NewOAuthController(db)
	forumController := controllers.NewForumController(db)
	topicController := controllers.NewTopicController(db)
	adminController := controllers.NewAdminController(db)
	messagingController := controllers.NewMessagingController(db)
	notificationController := controllers.NewNotificationController(db)
	contactController := controllers.NewContactController()

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.GET("/activate", authController.Activate)
	authGroup.POST("/activate/resend", authController.ResendActivation)
	authGroup.GET("/captcha", authController.Captcha)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", oauthController.Redirect)
	authGroup.GET("/oauth/:provider/callback", oauthController.Callback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Public discovery
	api.GET("/forums", forumController.ListForums)
	api.GET("/themes", forumController.ListThemes)
	api.POST("/contact", middleware.RateLimitMiddleware(), contactController.Submit)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.POST("/forums", forumController.CreateForum)
	protected.POST("/forums/:forum_id/join", forumController.JoinForum)

	forum := protected.Group("/forums/:forum_id")
	forum.GET("", forumController.Index)
	forum.GET("/search", forumController.Search)
	forum.POST("/thumbnail", forumController.UploadThumbnail)
	forum.GET("/members", forumController.ListMembers)
	forum.GET("/members/:member_id", forumController.GetMember)
	forum.POST("/avatar", forumController.UploadAvatar)

	forum.GET("/subcategories/:sub_category_id", topicController.ViewSubCategory)
	forum.POST("/subcategories/:sub_category_id/topics", topicController.CreateTopic)
	forum.GET("/topics/:topic_id", topicController.ViewTopic)
	forum.POST("/topics/:topic_id/messages", topicController.PostMessage)
	forum.PUT("/messages/:message_id", topicController.EditMessage)
	forum.DELETE("/messages/:message_id", topicController.DeleteMessage)
	forum.POST("/messages/:message_id/like", topicController.ToggleLike)

	forum.GET("/notifications", notificationController.List)
	forum.DELETE("/notifications", notificationController.Clear)

	forum.GET("/conversations", messagingController.ListConversations)
	forum.POST("/conversations", messagingController.StartConversation)
	forum.GET("/conversations/:conversation_id", messagingController.ViewConversation)
	forum.POST("/conversations/:conversation_id/messages", messagingController.PostMessage)
	forum.PUT("/conversations/:conversation_id/messages/:message_id", messagingController.EditMessage)
	forum.DELETE("/conversations/:conversation_id/messages/:message_id", messagingController.DeleteMessage)

	admin := forum.Group("/admin")
	admin.GET("/dashboard", adminController.Dashboard)
	admin.POST("/topics/:topic_id/pin", adminController.PinTopic)
	admin.PATCH("/topics/:topic_id", adminController.UpdateTopic)
	admin.DELETE("/topics/:topic_id", adminController.DeleteTopic)
	admin.PATCH("/members/:member_id/active", adminController.SetMemberActive)
	admin.POST("/categories", adminController.CreateCategoryTree)
	admin.PATCH("/categories/:category_id", adminController.UpdateCategory)
	admin.DELETE("/categories/:category_id", adminController.DeleteCategory)
	admin.PATCH("/subcategories/:sub_category_id", adminController.UpdateSubCategory)
	admin.DELETE("/subcategories/:sub_category_id", adminController.DeleteSubCategory)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
