package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rmitchellscott/ditherstudio/internal/database"
	"github.com/rmitchellscott/ditherstudio/internal/dither"
	"github.com/rmitchellscott/ditherstudio/internal/imageprocessing"
	"github.com/rmitchellscott/ditherstudio/internal/logging"
	"github.com/rmitchellscott/ditherstudio/internal/version"
)

var algorithmLabels = map[dither.Algorithm]string{
	dither.ErrorDiffusion:   "Floyd-Steinberg",
	dither.Ordered:          "Bayer Matrix",
	dither.ReducedDiffusion: "Atkinson",
}

var colorModeLabels = map[dither.ColorMode]string{
	dither.Color:      "Color (RGB)",
	dither.Monochrome: "Black & White",
}

type optionRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// HealthHandler reports liveness and database reachability.
func (h *Handler) HealthHandler(c *gin.Context) {
	status := gin.H{"status": "ok", "database": "ok"}
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// VersionHandler returns build metadata.
func VersionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}

// OptionsHandler describes the accepted settings, their ranges, the reset
// values and the server limits.
func (h *Handler) OptionsHandler(c *gin.Context) {
	algorithms := make([]gin.H, 0, len(dither.Algorithms()))
	for _, a := range dither.Algorithms() {
		algorithms = append(algorithms, gin.H{"id": a.String(), "label": algorithmLabels[a]})
	}
	modes := make([]gin.H, 0, len(dither.ColorModes()))
	for _, m := range dither.ColorModes() {
		modes = append(modes, gin.H{"id": m.String(), "label": colorModeLabels[m]})
	}

	defaults := imageprocessing.DefaultProcessingOptions()
	c.JSON(http.StatusOK, gin.H{
		"algorithms":  algorithms,
		"color_modes": modes,
		"ranges": gin.H{
			"pattern_size": optionRange{Min: 1, Max: 20, Step: 1},
			"intensity":    optionRange{Min: 0, Max: 2, Step: 0.1},
			"contrast":     optionRange{Min: 0, Max: imageprocessing.MaxContrast, Step: 0.1},
			"lightness":    optionRange{Min: 0, Max: imageprocessing.MaxLightness, Step: 0.1},
			"blur":         optionRange{Min: 0, Max: imageprocessing.MaxBlur, Step: 0.5},
		},
		"defaults": gin.H{
			"algorithm":    defaults.Dither.Algorithm.String(),
			"color_mode":   defaults.Dither.ColorMode.String(),
			"intensity":    defaults.Dither.Intensity,
			"pattern_size": defaults.Dither.PatternSize,
			"contrast":     defaults.Adjust.Contrast,
			"lightness":    defaults.Adjust.Lightness,
			"blur":         defaults.Adjust.Blur,
		},
		"threshold_matrix": dither.ThresholdMatrix(),
		"limits": gin.H{
			"max_upload_bytes":    h.maxUploadBytes,
			"max_image_dimension": h.maxImageDimension,
		},
	})
}

// ListRendersHandler returns recent render history and per-algorithm totals.
func (h *Handler) ListRendersHandler(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(c, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	renders, err := h.renders.Recent(limit)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentAPIRenders, "Failed to list renders", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to fetch renders", nil)
		return
	}
	totals, err := h.renders.CountByAlgorithm()
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentAPIRenders, "Failed to count renders", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to fetch renders", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"renders": renders, "totals": totals})
}

// RenderImageHandler downloads the stored output of a render.
func (h *Handler) RenderImageHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid render ID", nil)
		return
	}

	render, err := h.renders.Get(id)
	if errors.Is(err, database.ErrRenderNotFound) {
		respondError(c, http.StatusNotFound, "Render not found", nil)
		return
	}
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentAPIRenders, "Failed to fetch render", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to fetch render", nil)
		return
	}
	if !render.Stored || h.storage == nil {
		respondError(c, http.StatusNotFound, "Render output not stored", nil)
		return
	}
	if _, err := h.storage.Stat(id); err != nil {
		respondError(c, http.StatusNotFound, "Render output not stored", nil)
		return
	}

	if render.Checksum != "" {
		etag := `"` + render.Checksum + `"`
		c.Header("ETag", etag)
		if c.GetHeader("If-None-Match") == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}
	c.Header("X-Dither-Algorithm", render.Algorithm)
	c.FileAttachment(h.storage.Path(id), downloadFilename)
}
