package handler

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/wine-cellar/internal/service"
)

// WineHandler serves the wine pages and fragments: the table, the
// detail view, and the add/buy/drink/comment/grape flows.
type WineHandler struct {
	cellar *service.CellarService
	logger *zap.Logger
}

// NewWineHandler creates a new WineHandler.
func NewWineHandler(cellar *service.CellarService, logger *zap.Logger) *WineHandler {
	return &WineHandler{cellar: cellar, logger: logger}
}

// wineID parses the :id path parameter.
func wineID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad wine id %q: %w", c.Param("id"), service.ErrInvalidInput)
	}
	return id, nil
}

// Index serves the page shell; htmx loads /wines into it immediately.
// Route: GET /
func (h *WineHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

// Table renders the wine table fragment. An optional ?grape= query
// filters to wines with a grape matching the prefix, case-insensitive.
// Route: GET /wines
func (h *WineHandler) Table(c *gin.Context) {
	data, err := wineTableData(c, h.cellar, h.logger, c.Query("grape"))
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.HTML(http.StatusOK, "wine_table.html", data)
}

// TableBody renders only the tbody rows, for swaps that keep the table
// chrome in place.
// Route: GET /wine-table-body
func (h *WineHandler) TableBody(c *gin.Context) {
	data, err := wineTableData(c, h.cellar, h.logger, c.Query("grape"))
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.HTML(http.StatusOK, "wine_rows.html", data)
}

// AddWineForm renders the add-wine form fragment.
// Route: GET /add-wine
func (h *WineHandler) AddWineForm(c *gin.Context) {
	c.HTML(http.StatusOK, "add_wine_form.html", nil)
}

// AddWine creates a wine from the posted name and year.
// Route: POST /add-wine
func (h *WineHandler) AddWine(c *gin.Context) {
	year, err := strconv.ParseInt(c.PostForm("year"), 10, 64)
	if err != nil {
		renderError(c, h.logger, fmt.Errorf("bad year %q: %w", c.PostForm("year"), service.ErrInvalidInput))
		return
	}
	if _, err := h.cellar.AddWine(c.Request.Context(), c.PostForm("name"), year); err != nil {
		renderError(c, h.logger, err)
		return
	}
	renderWineTable(c, h.cellar, h.logger)
}

// Detail renders the single-wine view: stock, event history, comments
// and the full-size image.
// Route: GET /wines/:id
func (h *WineHandler) Detail(c *gin.Context) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	detail, err := h.cellar.Detail(c.Request.Context(), id)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}

	type eventView struct {
		When    string
		Bottles int64
	}
	type commentView struct {
		Date string
		Text string
	}

	events := make([]eventView, 0, len(detail.Events))
	for _, evt := range detail.Events {
		events = append(events, eventView{
			When:    evt.At.Format("2006-01-02 15:04"),
			Bottles: evt.Bottles,
		})
	}
	comments := make([]commentView, 0, len(detail.Comments))
	for _, cm := range detail.Comments {
		comments = append(comments, commentView{
			Date: cm.At.Format(service.DateFormat),
			Text: cm.Text,
		})
	}

	data := gin.H{
		"Name":     detail.Wine.Name,
		"Year":     detail.Wine.Year,
		"Stock":    detail.Stock,
		"Grapes":   detail.Grapes,
		"Events":   events,
		"Comments": comments,
	}
	if len(detail.Wine.Image) > 0 {
		data["ImageB64"] = base64.StdEncoding.EncodeToString(detail.Wine.Image)
	}
	c.HTML(http.StatusOK, "wine_detail.html", data)
}

// Delete removes a wine and everything attached to it.
// Route: DELETE /wines/:id
func (h *WineHandler) Delete(c *gin.Context) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	if err := h.cellar.DeleteWine(c.Request.Context(), id); err != nil {
		renderError(c, h.logger, err)
		return
	}
	renderWineTable(c, h.cellar, h.logger)
}

// BuyForm renders the purchase form.
// Route: GET /wines/:id/buy
func (h *WineHandler) BuyForm(c *gin.Context) {
	h.eventForm(c, "buy", "Buy")
}

// DrinkForm renders the consumption form.
// Route: GET /wines/:id/drink
func (h *WineHandler) DrinkForm(c *gin.Context) {
	h.eventForm(c, "drink", "Drink")
}

func (h *WineHandler) eventForm(c *gin.Context, action, label string) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.HTML(http.StatusOK, "event_form.html", gin.H{
		"WineID": id,
		"Action": action,
		"Label":  label,
	})
}

// Buy records a purchase: positive bottle delta on the given date.
// Route: POST /wines/:id/buy
func (h *WineHandler) Buy(c *gin.Context) {
	h.recordEvent(c, h.cellar.Ledger().RecordPurchase)
}

// Drink records a consumption. The form supplies the positive number
// of bottles drunk; the ledger encodes the direction.
// Route: POST /wines/:id/drink
func (h *WineHandler) Drink(c *gin.Context) {
	h.recordEvent(c, h.cellar.Ledger().RecordConsumption)
}

func (h *WineHandler) recordEvent(c *gin.Context, record func(ctx context.Context, wineID, bottles int64, date string) error) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	bottles, err := strconv.ParseInt(c.PostForm("bottles"), 10, 64)
	if err != nil {
		renderError(c, h.logger, fmt.Errorf("bad bottle count %q: %w", c.PostForm("bottles"), service.ErrInvalidInput))
		return
	}
	if err := record(c.Request.Context(), id, bottles, c.PostForm("dt")); err != nil {
		renderError(c, h.logger, err)
		return
	}
	renderWineTable(c, h.cellar, h.logger)
}

// CommentForm renders the comment form.
// Route: GET /wines/:id/comment
func (h *WineHandler) CommentForm(c *gin.Context) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.HTML(http.StatusOK, "comment_form.html", gin.H{"WineID": id})
}

// AddComment appends a comment to the wine.
// Route: POST /wines/:id/comment
func (h *WineHandler) AddComment(c *gin.Context) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	if err := h.cellar.AddComment(c.Request.Context(), id, c.PostForm("comment")); err != nil {
		renderError(c, h.logger, err)
		return
	}
	renderWineTable(c, h.cellar, h.logger)
}

// GrapesForm renders the catalog as checkboxes, pre-checking the
// wine's current associations.
// Route: GET /wines/:id/grapes
func (h *WineHandler) GrapesForm(c *gin.Context) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	ctx := c.Request.Context()

	catalog, err := h.cellar.GrapeCatalog(ctx)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	current, err := h.cellar.GrapesForWine(ctx, id)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	currentSet := make(map[string]struct{}, len(current))
	for _, g := range current {
		currentSet[g] = struct{}{}
	}

	type grapeCheck struct {
		Name    string
		Checked bool
	}
	grapes := make([]grapeCheck, 0, len(catalog))
	for _, g := range catalog {
		_, checked := currentSet[g.Name]
		grapes = append(grapes, grapeCheck{Name: g.Name, Checked: checked})
	}

	c.HTML(http.StatusOK, "grapes_form.html", gin.H{"WineID": id, "Grapes": grapes})
}

// SetGrapes replaces the wine's grape set with the checked boxes. The
// browser posts one `grapes` value per checked box; PostFormArray
// collects all of them (zero boxes means clear the set).
// Route: POST /wines/:id/grapes
func (h *WineHandler) SetGrapes(c *gin.Context) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	if err := h.cellar.SetGrapes(c.Request.Context(), id, c.PostFormArray("grapes")); err != nil {
		renderError(c, h.logger, err)
		return
	}
	renderWineTable(c, h.cellar, h.logger)
}
