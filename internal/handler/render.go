// Package handler contains the HTTP request handlers. Every response
// is a server-rendered HTML fragment the htmx client swaps into the
// page — there is no JSON API surface besides health.
package handler

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/wine-cellar/internal/service"
	"github.com/fleveque/wine-cellar/internal/storage"
)

// renderError maps domain errors onto the error fragment. Client
// errors keep their message (and a warning style); everything else is
// logged in full server-side and shown as a generic internal error so
// no internal detail leaks.
func renderError(c *gin.Context, logger *zap.Logger, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrPayloadTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	}

	if status != 0 {
		logger.Warn("client error", zap.Error(err))
		c.HTML(status, "error.html", gin.H{
			"Class":   "text-bg-warning",
			"Message": err.Error(),
		})
		return
	}

	logger.Error("internal error", zap.Error(err))
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Class":   "text-bg-danger",
		"Message": "Internal Error",
	})
}

// wineRow is the view shape of one table row.
type wineRow struct {
	ID            int64
	Name          string
	Year          int64
	Bottles       int64
	Grapes        []string
	ThumbnailB64  string
	LatestComment string
}

// wineTableData builds the view model for the wine table fragment.
func wineTableData(c *gin.Context, cellar *service.CellarService, logger *zap.Logger, grapeFilter string) (gin.H, error) {
	ctx := c.Request.Context()

	overview, err := cellar.Overview(ctx, grapeFilter)
	if err != nil {
		return nil, err
	}

	rows := make([]wineRow, 0, len(overview))
	for _, w := range overview {
		row := wineRow{
			ID:      w.ID,
			Name:    w.Name,
			Year:    w.Year,
			Bottles: w.Bottles,
			Grapes:  w.Grapes,
		}
		if len(w.Thumbnail) > 0 {
			row.ThumbnailB64 = base64.StdEncoding.EncodeToString(w.Thumbnail)
		}
		// A failed lookup degrades to "no comment" in the row, but the
		// failure itself still gets a log line.
		latest, err := cellar.LatestComment(ctx, w.ID)
		if err != nil {
			logger.Warn("getting latest comment",
				zap.Int64("wine_id", w.ID), zap.Error(err))
		} else if latest != nil {
			row.LatestComment = latest.Text
		}
		rows = append(rows, row)
	}

	return gin.H{"Wines": rows, "GrapeFilter": grapeFilter}, nil
}

// renderWineTable is the shared "mutation done, show the table again"
// response used by most POST handlers.
func renderWineTable(c *gin.Context, cellar *service.CellarService, logger *zap.Logger) {
	data, err := wineTableData(c, cellar, logger, "")
	if err != nil {
		renderError(c, logger, err)
		return
	}
	c.HTML(http.StatusOK, "wine_table.html", data)
}
