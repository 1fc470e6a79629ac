package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/cppla/multiplex/config"
	"github.com/cppla/multiplex/models"
	"github.com/cppla/multiplex/routes"
	"github.com/cppla/multiplex/services"
	"github.com/cppla/multiplex/utils"
)

func main() {
	configPath := pflag.StringP("config", "c", config.DefaultConfigPath, "path to a JSON or YAML config file")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		utils.Sugar.Fatalf("database: %v", err)
	}
	if err := config.Migrate(db, models.All()...); err != nil {
		utils.Sugar.Fatalf("migrate: %v", err)
	}

	tokens, err := utils.NewTokenManager(cfg.TokenConfig())
	if err != nil {
		utils.Sugar.Fatalf("token manager: %v", err)
	}

	var cache *utils.Cache
	if cfg.CacheEnabled {
		cache = utils.NewCache(utils.NewRedis(cfg), cfg.CacheTTL())
	}

	r := routes.SetupRouter(routes.Deps{
		Config:   cfg,
		DB:       db,
		Auth:     services.NewAuthService(db, tokens),
		Posts:    services.NewPostService(db, cache, cfg.PageSize, cfg.MaxPageSize),
		Comments: services.NewCommentService(db),
		Users:    services.NewUserService(db),
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
