package main

import (
	"github.com/gabigab117/platforum/config"
	"github.com/gabigab117/platforum/models"
	"github.com/gabigab117/platforum/routes"
	"github.com/gabigab117/platforum/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Theme{},
		&models.Forum{},
		&models.ForumAccount{},
		&models.Badge{},
		&models.Category{},
		&models.SubCategory{},
		&models.Topic{},
		&models.Message{},
		&models.Conversation{},
		&models.Like{},
		&models.Notification{},
	)

	// The badge catalog must exist before any EvaluateBadges call
	if err := models.SeedBadges(db); err != nil {
		utils.Sugar.Fatalf("badge catalog seeding failed: %v", err)
	}

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
