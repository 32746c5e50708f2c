// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/wine-cellar/internal/config"
	"github.com/fleveque/wine-cellar/internal/handler"
	"github.com/fleveque/wine-cellar/internal/middleware"
	"github.com/fleveque/wine-cellar/internal/service"
)

// Deps bundles what the handlers need. Dependencies are passed
// explicitly — no DI container, no magic.
type Deps struct {
	Cellar *service.CellarService
}

// RegisterRoutes sets up all HTTP routes on the Gin engine. The route
// shape mirrors the htmx UI: GET renders a fragment, POST/DELETE
// mutates and responds with the refreshed table.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	wineHandler := handler.NewWineHandler(deps.Cellar, logger)
	imageHandler := handler.NewImageHandler(deps.Cellar, cfg.Upload.MaxBytes, logger)

	r.GET("/healthz", healthHandler.Healthz)

	r.GET("/", wineHandler.Index)
	r.GET("/wines", wineHandler.Table)
	r.GET("/wine-table-body", wineHandler.TableBody)

	r.GET("/add-wine", wineHandler.AddWineForm)
	r.POST("/add-wine", wineHandler.AddWine)

	r.GET("/wines/:id", wineHandler.Detail)
	r.DELETE("/wines/:id", wineHandler.Delete)

	r.GET("/wines/:id/buy", wineHandler.BuyForm)
	r.POST("/wines/:id/buy", wineHandler.Buy)
	r.GET("/wines/:id/drink", wineHandler.DrinkForm)
	r.POST("/wines/:id/drink", wineHandler.Drink)

	r.GET("/wines/:id/comment", wineHandler.CommentForm)
	r.POST("/wines/:id/comment", wineHandler.AddComment)

	r.GET("/wines/:id/grapes", wineHandler.GrapesForm)
	r.POST("/wines/:id/grapes", wineHandler.SetGrapes)

	r.GET("/wines/:id/upload-image", imageHandler.UploadForm)
	r.GET("/wines/:id/image", imageHandler.Image)
	// The declared-length guard runs before the body is read; the
	// handler enforces the bound again on the bytes actually received.
	r.POST("/wines/:id/image",
		middleware.BodyLimit(cfg.Upload.MaxBytes),
		imageHandler.Upload)

	r.GET("/wines/:id/edit-image", imageHandler.EditImageForm)
	r.POST("/wines/:id/edit-image", imageHandler.Crop)
}
