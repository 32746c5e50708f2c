package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/wine-cellar/internal/service"
	"github.com/fleveque/wine-cellar/internal/web"
)

// ImageHandler serves the photo flows: upload, raw retrieval, and the
// region-select crop view.
type ImageHandler struct {
	cellar         *service.CellarService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(cellar *service.CellarService, maxUploadBytes int64, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		cellar:         cellar,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// UploadForm renders the multipart upload form.
// Route: GET /wines/:id/upload-image
func (h *ImageHandler) UploadForm(c *gin.Context) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.HTML(http.StatusOK, "upload_form.html", gin.H{"WineID": id})
}

// Upload accepts a multipart form with an `image` field, runs the
// derivation pipeline, and stores the result.
//
// The declared Content-Length was already checked by the BodyLimit
// middleware. MaxBytesReader plus an explicit length check here cover
// clients that lie about or omit the declared length — the second,
// independent half of the size guard.
// Route: POST /wines/:id/image
func (h *ImageHandler) Upload(c *gin.Context) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, err := c.FormFile("image")
	if err != nil {
		renderError(c, h.logger, uploadError(err))
		return
	}

	f, err := file.Open()
	if err != nil {
		renderError(c, h.logger, fmt.Errorf("opening upload: %w", err))
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		renderError(c, h.logger, uploadError(err))
		return
	}
	if int64(len(raw)) > h.maxUploadBytes {
		renderError(c, h.logger, fmt.Errorf("upload of %d bytes exceeds limit: %w",
			len(raw), service.ErrPayloadTooLarge))
		return
	}

	if err := h.cellar.UploadImage(c.Request.Context(), id, raw, c.GetHeader("User-Agent")); err != nil {
		renderError(c, h.logger, err)
		return
	}
	renderWineTable(c, h.cellar, h.logger)
}

// uploadError reclassifies MaxBytesReader truncation as a payload-size
// rejection; anything else stays as-is.
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("upload exceeds %d bytes: %w", maxErr.Limit, service.ErrPayloadTooLarge)
	}
	return fmt.Errorf("reading upload: %w", err)
}

// Image serves the stored full-size PNG. A wine without an image gets
// an empty body, matching how the detail view treats the absence.
// Route: GET /wines/:id/image
func (h *ImageHandler) Image(c *gin.Context) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	data, err := h.cellar.Image(c.Request.Context(), id)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// EditImageForm renders the drag-select crop view with the script
// inlined.
// Route: GET /wines/:id/edit-image
func (h *ImageHandler) EditImageForm(c *gin.Context) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.HTML(http.StatusOK, "edit_image.html", gin.H{
		"WineID": id,
		"Script": web.EditImageJS(),
	})
}

// Crop applies the selected region to the stored image. Oversized
// selections are clamped by the pipeline, not rejected.
// Route: POST /wines/:id/edit-image
func (h *ImageHandler) Crop(c *gin.Context) {
	id, err := wineID(c)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}

	var region [4]int
	for i, name := range []string{"x", "y", "w", "h"} {
		v, err := strconv.Atoi(c.PostForm(name))
		if err != nil {
			renderError(c, h.logger, fmt.Errorf("bad crop field %s=%q: %w",
				name, c.PostForm(name), service.ErrInvalidInput))
			return
		}
		region[i] = v
	}

	if err := h.cellar.CropImage(c.Request.Context(), id, region[0], region[1], region[2], region[3]); err != nil {
		renderError(c, h.logger, err)
		return
	}
	renderWineTable(c, h.cellar, h.logger)
}
