package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/auth"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/cache"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/config"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/handlers"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/repo"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/service"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, db *pgxpool.Pool, rdb *redis.Client) {
	r.GET("/", rootHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "route not found"})
	})

	api := r.Group("/api")
	api.GET("/health", healthHandler(cfg))

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL.Duration())
	readCache := cache.NewTaskCache(rdb, cfg.Redis.DefaultTTL.Duration())

	userRepo := repo.NewPGUserRepo(db)
	userSvc := service.NewUserService(userRepo, readCache)
	authHandler := handlers.NewAuthHandler(tokens, userSvc)

	authRequired := auth.RequireAuth(tokens, userRepo)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	authProtected := authGroup.Group("", authRequired)
	authProtected.GET("/profile", authHandler.Profile)
	authProtected.POST("/logout", authHandler.Logout)

	admin := authProtected.Group("", auth.RequireAdmin())
	admin.GET("/users", authHandler.ListUsers)
	admin.PUT("/users/:id/active", authHandler.SetActive)

	taskRepo := repo.NewPGTaskRepo(db)
	taskSvc := service.NewTaskService(taskRepo, userRepo, readCache)
	taskHandler := handlers.NewTaskHandler(taskSvc, userSvc)

	tasks := api.Group("/tasks", authRequired)
	tasks.GET("", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.GET("/users/active", taskHandler.ActiveUsers)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Task Manager API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/api/health",
			"api":     "/api",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"success":   true,
			"message":   "server running",
			"env":       cfg.App.Env,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}
