package handler

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CageChen/codehub/internal/assistant"
	"github.com/CageChen/codehub/internal/logging"
	"github.com/CageChen/codehub/internal/metrics"
	"github.com/CageChen/codehub/internal/store"
	"github.com/CageChen/codehub/internal/workspace"
)

// Deps are the services the API is served from
type Deps struct {
	Workspace *workspace.Controller
	Store     store.ContentStore
	Assistant *assistant.Client
	Hub       *Hub
	Logger    *zap.Logger
	// Web holds the static frontend. May be nil.
	Web fs.FS
}

// NewRouter builds the gin engine with every API route
func NewRouter(d Deps) *gin.Engine {
	logger := logging.OrNop(d.Logger)
	hub := d.Hub
	if hub == nil {
		hub = NewHub(d.Workspace, logger)
	}
	treeHandler := NewTreeHandler(d.Workspace)
	tabsHandler := NewTabsHandler(d.Workspace)
	fileHandler := NewFileHandler(d.Store)
	chatHandler := NewChatHandler(d.Assistant)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(logging.Middleware(logger))
	r.Use(metrics.Middleware())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// Tree
		api.GET("/tree", treeHandler.GetTree)
		api.GET("/tree/target", treeHandler.TargetDirectory)
		api.POST("/tree/refresh", treeHandler.Refresh)
		api.POST("/tree/toggle", treeHandler.ToggleNode)
		api.POST("/nodes", treeHandler.CreateNode)
		api.PATCH("/nodes", treeHandler.RenameNode)
		api.DELETE("/nodes", treeHandler.DeleteNode)

		// Tabs
		api.GET("/tabs", tabsHandler.ListTabs)
		api.POST("/tabs", tabsHandler.OpenTab)
		api.POST("/tabs/untitled", tabsHandler.NewUntitled)
		api.POST("/tabs/move", tabsHandler.MoveTab)
		api.PUT("/tabs/:id", tabsHandler.EditTab)
		api.DELETE("/tabs/:id", tabsHandler.CloseTab)
		api.POST("/tabs/:id/select", tabsHandler.SelectTab)
		api.POST("/tabs/:id/save", tabsHandler.SaveTab)
		api.GET("/tabs/:id/preview", tabsHandler.PreviewTab)
		api.GET("/preview.css", tabsHandler.PreviewCSS)

		// Content, chat and live updates
		api.GET("/raw/*path", fileHandler.GetRaw)
		api.GET("/chat/status", chatHandler.Status)
		api.POST("/chat", chatHandler.Chat)
		api.GET("/ws", hub.HandleWS)
	}

	if d.Web != nil {
		r.NoRoute(gin.WrapH(http.FileServer(http.FS(d.Web))))
	}
	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, If-None-Match")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
