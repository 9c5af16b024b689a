package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"docproc/internal/handler"
	"docproc/internal/middleware"
)

// Options carries the settings the engine needs besides handlers.
type Options struct {
	AllowedOrigins []string
	LogFormat      string
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	opts Options,
	docH *handler.DocumentHandler,
	pipelineH *handler.PipelineHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(opts.LogFormat))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// API documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/swagger/index.html")
	})

	v1 := r.Group("/api/v1")

	// Documents and their saved line items
	docs := v1.Group("/documents")
	docs.POST("", docH.Upload)
	docs.GET("", docH.List)
	docs.GET("/:id", docH.GetByID)
	docs.GET("/:id/items", docH.ListItems)
	docs.POST("/:id/items", docH.SaveItems)
	docs.GET("/:id/items/export", docH.ExportItems)

	// Stateless pipeline steps
	v1.POST("/extract", pipelineH.Extract)
	v1.POST("/match", pipelineH.Match)

	return r
}
