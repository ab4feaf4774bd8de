// Package handlers exposes the dithering pipeline and the preset store over HTTP.
package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/rmitchellscott/ditherstudio/internal/config"
	"github.com/rmitchellscott/ditherstudio/internal/database"
	"github.com/rmitchellscott/ditherstudio/internal/fetch"
	"github.com/rmitchellscott/ditherstudio/internal/middleware"
	"github.com/rmitchellscott/ditherstudio/internal/storage"
)

// Handler holds the services the routes depend on.
type Handler struct {
	db      *gorm.DB
	presets *database.PresetService
	renders *database.RenderService
	fetcher *fetch.Fetcher
	limiter *middleware.RateLimiter
	storage *storage.RenderStorage

	maxUploadBytes    int64
	maxImageDimension int
	maxPixels         int
}

// NewHandler wires the services for db and cfg. store may be nil, in which
// case outputs are not kept.
func NewHandler(db *gorm.DB, cfg *config.Server, fetcher *fetch.Fetcher, limiter *middleware.RateLimiter, store *storage.RenderStorage) *Handler {
	return &Handler{
		db:                db,
		presets:           database.NewPresetService(db),
		renders:           database.NewRenderService(db),
		fetcher:           fetcher,
		limiter:           limiter,
		storage:           store,
		maxUploadBytes:    cfg.MaxUploadBytes,
		maxImageDimension: cfg.MaxImageDimension,
		maxPixels:         cfg.MaxPixels(),
	}
}

// Register mounts every route under /api.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")

	api.GET("/health", h.HealthHandler)
	api.GET("/version", VersionHandler)
	api.GET("/options", h.OptionsHandler)

	api.POST("/dither",
		h.limiter.RateLimit(),
		middleware.RequestSizeLimit(h.maxUploadBytes),
		h.DitherHandler)

	presets := api.Group("/presets")
	presets.GET("", h.ListPresetsHandler)
	presets.POST("", middleware.RequestSizeLimit(1<<20), h.CreatePresetHandler)
	presets.GET("/:id", h.GetPresetHandler)
	presets.PUT("/:id", middleware.RequestSizeLimit(1<<20), h.UpdatePresetHandler)
	presets.DELETE("/:id", h.DeletePresetHandler)

	api.GET("/renders", h.ListRendersHandler)
	api.GET("/renders/:id/image", h.RenderImageHandler)
}

// respondError writes the JSON error body used by every route.
func respondError(c *gin.Context, status int, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(status, body)
}

// validationErrorMessage returns a user-friendly validation error message.
func validationErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ve := range verrs {
			switch ve.Field() {
			case "PatternSize":
				return "Pattern size must be a whole number of at least 1"
			case "Intensity":
				return "Intensity must be 0 or greater"
			case "Contrast":
				return "Contrast must be between 0 and 2"
			case "Lightness":
				return "Lightness must be between 0 and 2"
			case "Blur":
				return "Blur must be between 0 and 10"
			case "SourceURL":
				return "source_url must be an absolute http(s) URL"
			case "Name":
				switch ve.Tag() {
				case "required":
					return "Preset name is required"
				case "max":
					return "Preset name must be at most 100 characters"
				}
			case "Description":
				return "Description must be at most 500 characters"
			}
		}
	}
	return "Invalid request"
}

// urlFromRequest returns the externally visible base URL of r, honouring
// X-Forwarded-Proto and X-Forwarded-Host from reverse proxies.
func urlFromRequest(r *http.Request) *url.URL {
	u := &url.URL{
		Scheme: "http",
		Host:   r.Host,
	}
	if v := r.Header.Get("X-Forwarded-Host"); v != "" {
		u.Host = v
	}
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	return u
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
