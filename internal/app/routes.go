package app

import (
	"Tasklist/internal/config"
	"Tasklist/internal/handlers"
	"Tasklist/internal/tasks"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"

	_ "Tasklist/docs"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, mgr *tasks.Manager) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg, mgr))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
	))

	api := r.Group("/api/v1")
	registerTaskRoutes(api, handlers.NewTaskHandler(mgr))
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Task List API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
		})
	}
}

// healthHandler reports unsaved changes so a failing store is visible.
func healthHandler(cfg config.Config, mgr *tasks.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env, "store": cfg.Store.Driver, "dirty": mgr.Dirty()})
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

func registerTaskRoutes(api *gin.RouterGroup, h *handlers.TaskHandler) {
	api.POST("/tasks", h.Create)
	api.GET("/tasks", h.List)
	api.GET("/tasks/all", h.All)
	api.GET("/tasks/pending", h.Pending)
	api.GET("/tasks/stats", h.Stats)
	api.POST("/tasks/undo", h.Undo)
	api.GET("/tasks/:id", h.GetByID)
	api.PATCH("/tasks/:id", h.Update)
	api.DELETE("/tasks/:id", h.Delete)
	api.POST("/tasks/:id/toggle", h.Toggle)

	api.GET("/filters", h.GetFilters)
	api.PUT("/filters", h.SetFilters)
	api.DELETE("/filters", h.ResetFilters)

	api.GET("/categories", h.Categories)
	api.GET("/events", h.Events)
}
