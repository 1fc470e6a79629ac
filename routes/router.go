package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/multiplex/config"
	"github.com/cppla/multiplex/controllers"
	"github.com/cppla/multiplex/graph"
	"github.com/cppla/multiplex/middleware"
	"github.com/cppla/multiplex/services"
	"github.com/cppla/multiplex/utils"
)

// Deps are the constructed services the router wires into controllers.
type Deps struct {
	Config   config.AppConfig
	DB       *gorm.DB
	Auth     *services.AuthService
	Posts    *services.PostService
	Comments *services.CommentService
	Users    *services.UserService
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	// Access log goes to its own rolling file when configured
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err != nil {
			utils.Logger.Warn("gin access log disabled", zap.String("path", cfg.GinPath), zap.Error(err))
		} else {
			accessLog = gl
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, false))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.Use(middleware.Authenticate(d.Auth))

	health := controllers.NewHealthController(d.DB)
	r.GET("/health", health.Health)

	authController := controllers.NewAuthController(d.Auth, d.Users)
	postController := controllers.NewPostController(d.Posts)
	commentController := controllers.NewCommentController(d.Comments)
	adminController := controllers.NewAdminController(d.Posts, d.Users)
	gql := graph.NewHandler(d.Auth, d.Posts, d.Comments, d.Users)

	api := r.Group("/api")

	limited := api.Group("")
	limited.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	limited.POST("/login/", authController.Login)
	limited.POST("/token/refresh/", authController.Refresh)

	api.GET("/user/me/", middleware.AuthRequired(), authController.Me)

	posts := api.Group("/posts")
	posts.GET("/", postController.ListPosts)
	posts.POST("/", postController.CreatePost)
	posts.GET("/:id/", postController.GetPost)
	posts.PUT("/:id/", postController.UpdatePost)
	posts.PATCH("/:id/", postController.UpdatePost)
	posts.DELETE("/:id/", postController.DeletePost)
	posts.POST("/:id/publish/", postController.PublishPost)

	comments := api.Group("/comments")
	comments.GET("/", commentController.ListComments)
	comments.POST("/", commentController.CreateComment)
	comments.GET("/:id/", commentController.GetComment)
	comments.PUT("/:id/", commentController.UpdateComment)
	comments.PATCH("/:id/", commentController.UpdateComment)
	comments.DELETE("/:id/", commentController.DeleteComment)

	admin := api.Group("/admin")
	admin.Use(middleware.StaffRequired())
	admin.POST("/posts/publish/", adminController.PublishPosts)
	admin.POST("/posts/unpublish/", adminController.UnpublishPosts)
	admin.POST("/profiles/level/", adminController.SetProfileLevel)

	r.POST("/graphql/", middleware.RateLimit(cfg.RateLimitPerMinute), gql.Serve)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
