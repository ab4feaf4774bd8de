package handlers

import (
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rmitchellscott/ditherstudio/internal/database"
	"github.com/rmitchellscott/ditherstudio/internal/dither"
	"github.com/rmitchellscott/ditherstudio/internal/fetch"
	"github.com/rmitchellscott/ditherstudio/internal/imageprocessing"
	"github.com/rmitchellscott/ditherstudio/internal/logging"
)

const downloadFilename = "dithered-image.png"

type ditherRequest struct {
	SourceURL string `form:"source_url" json:"source_url" binding:"omitempty,url"`
	Preset    string `form:"preset" json:"preset"`
	Settings
}

// DitherHandler dithers an uploaded file or a remote image and returns the
// result as a PNG download.
func (h *Handler) DitherHandler(c *gin.Context) {
	var req ditherRequest
	if err := c.ShouldBind(&req); err != nil {
		if isBodyTooLarge(err) {
			respondError(c, http.StatusRequestEntityTooLarge, "Upload too large", err)
			return
		}
		respondError(c, http.StatusBadRequest, validationErrorMessage(err), err)
		return
	}

	opts := imageprocessing.DefaultProcessingOptions()
	var presetID *uuid.UUID
	if req.Preset != "" {
		preset, err := h.presets.Resolve(req.Preset)
		if errors.Is(err, database.ErrPresetNotFound) {
			respondError(c, http.StatusNotFound, "Preset not found", nil)
			return
		}
		if err != nil {
			logging.ErrorWithComponent(logging.ComponentAPIDither, "Failed to load preset", "preset", req.Preset, "error", err)
			respondError(c, http.StatusInternalServerError, "Failed to load preset", nil)
			return
		}
		if opts, err = preset.Options(0); err != nil {
			respondError(c, http.StatusInternalServerError, "Stored preset is invalid", err)
			return
		}
		presetID = &preset.ID
	}
	opts.MaxDimension = h.maxImageDimension

	if err := req.Settings.Apply(&opts); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid dither settings", err)
		return
	}
	if err := opts.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid dither settings", err)
		return
	}

	img, format, sourceKind, ok := h.loadSource(c, req.SourceURL)
	if !ok {
		return
	}

	result, err := imageprocessing.Process(img, opts)
	if err != nil {
		if dither.IsConfigError(err) {
			respondError(c, http.StatusBadRequest, "Invalid dither settings", err)
			return
		}
		logging.ErrorWithComponent(logging.ComponentAPIDither, "Failed to process image", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to process image", nil)
		return
	}

	data, err := imageprocessing.EncodePNG(result.Image)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentAPIDither, "Failed to encode image", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to encode image", nil)
		return
	}

	bounds := result.Image.Bounds()
	render := &database.Render{
		ID:           uuid.New(),
		PresetID:     presetID,
		Algorithm:    opts.Dither.Algorithm.String(),
		ColorMode:    opts.Dither.ColorMode.String(),
		Intensity:    opts.Dither.Intensity,
		PatternSize:  opts.Dither.PatternSize,
		Width:        bounds.Dx(),
		Height:       bounds.Dy(),
		DurationMs:   result.Duration.Milliseconds(),
		SourceKind:   sourceKind,
		SourceFormat: format,
		OutputBytes:  len(data),
	}
	if h.storage != nil {
		checksum, err := h.storage.Save(render.ID, data)
		if err != nil {
			logging.WarnWithComponent(logging.ComponentAPIDither, "Failed to store render output", "error", err)
		} else {
			render.Stored = true
			render.Checksum = checksum
		}
	}
	if err := h.renders.Record(render); err != nil {
		// History is best effort.
		logging.WarnWithComponent(logging.ComponentAPIDither, "Failed to record render", "error", err)
	} else {
		c.Header("X-Render-ID", render.ID.String())
	}

	logging.InfoWithComponent(logging.ComponentAPIDither, "Dithered image",
		"algorithm", render.Algorithm, "color_mode", render.ColorMode,
		"pattern_size", render.PatternSize, "width", render.Width, "height", render.Height,
		"source", sourceKind, "duration_ms", render.DurationMs)

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, downloadFilename))
	c.Header("X-Dither-Algorithm", render.Algorithm)
	c.Header("X-Dither-Duration-Ms", strconv.FormatInt(render.DurationMs, 10))
	c.Data(http.StatusOK, "image/png", data)
}

// loadSource decodes the uploaded "image" file or downloads sourceURL. It
// writes the error response itself and reports false on failure.
func (h *Handler) loadSource(c *gin.Context, sourceURL string) (image.Image, string, string, bool) {
	var upload bool
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if _, err := c.FormFile("image"); err == nil {
			upload = true
		} else if isBodyTooLarge(err) {
			respondError(c, http.StatusRequestEntityTooLarge, "Upload too large", err)
			return nil, "", "", false
		}
	}

	switch {
	case upload && sourceURL != "":
		respondError(c, http.StatusBadRequest, "Provide either an image file or source_url, not both", nil)
		return nil, "", "", false
	case upload:
		header, _ := c.FormFile("image")
		file, err := header.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
			return nil, "", "", false
		}
		defer file.Close()

		img, format, err := imageprocessing.Decode(file, h.maxPixels)
		if err != nil {
			respondDecodeError(c, err)
			return nil, "", "", false
		}
		return img, format, "upload", true
	case sourceURL != "":
		img, format, err := h.fetcher.Image(c.Request.Context(), sourceURL)
		if err != nil {
			respondFetchError(c, sourceURL, err)
			return nil, "", "", false
		}
		return img, format, "url", true
	default:
		respondError(c, http.StatusBadRequest, "An image file or source_url is required", nil)
		return nil, "", "", false
	}
}

func respondDecodeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, imageprocessing.ErrImageTooLarge), errors.Is(err, fetch.ErrTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, "Image too large", err)
	case errors.Is(err, image.ErrFormat):
		respondError(c, http.StatusBadRequest, "Unsupported image format", err)
	default:
		respondError(c, http.StatusBadRequest, "Failed to decode image", err)
	}
}

func respondFetchError(c *gin.Context, sourceURL string, err error) {
	switch {
	case errors.Is(err, fetch.ErrRejected):
		logging.WarnWithComponent(logging.ComponentFetch, "Source URL rejected", "url", sourceURL, "error", err)
		respondError(c, http.StatusBadRequest, "Source URL not allowed", err)
	case errors.Is(err, fetch.ErrDownload):
		logging.WarnWithComponent(logging.ComponentFetch, "Source download failed", "url", sourceURL, "error", err)
		respondError(c, http.StatusBadGateway, "Failed to download source image", err)
	default:
		respondDecodeError(c, err)
	}
}
