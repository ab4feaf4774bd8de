package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rmitchellscott/ditherstudio/internal/database"
	"github.com/rmitchellscott/ditherstudio/internal/dither"
	"github.com/rmitchellscott/ditherstudio/internal/imageprocessing"
	"github.com/rmitchellscott/ditherstudio/internal/logging"
)

type createPresetRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	Settings
}

type updatePresetRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Settings
}

// presetResponse adds the decoded adjustments so clients need not parse the
// stored JSON.
type presetResponse struct {
	database.Preset
	Adjust imageprocessing.Adjustments `json:"adjust"`
}

func newPresetResponse(p *database.Preset) presetResponse {
	adj, err := p.Adjust()
	if err != nil {
		adj = imageprocessing.DefaultAdjustments()
	}
	return presetResponse{Preset: *p, Adjust: adj}
}

// ListPresetsHandler returns all presets, built-in ones first.
func (h *Handler) ListPresetsHandler(c *gin.Context) {
	presets, err := h.presets.List()
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentAPIPresets, "Failed to list presets", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to fetch presets", nil)
		return
	}

	resp := make([]presetResponse, 0, len(presets))
	for i := range presets {
		resp = append(resp, newPresetResponse(&presets[i]))
	}
	c.JSON(http.StatusOK, gin.H{"presets": resp})
}

// GetPresetHandler returns one preset by ID or name.
func (h *Handler) GetPresetHandler(c *gin.Context) {
	preset, err := h.presets.Resolve(c.Param("id"))
	if err != nil {
		h.respondPresetError(c, err, "Failed to fetch preset")
		return
	}
	c.JSON(http.StatusOK, gin.H{"preset": newPresetResponse(preset)})
}

// CreatePresetHandler stores a new user preset. Omitted settings take the
// reset values.
func (h *Handler) CreatePresetHandler(c *gin.Context) {
	var req createPresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, validationErrorMessage(err), err)
		return
	}

	opts := imageprocessing.DefaultProcessingOptions()
	if err := req.Settings.Apply(&opts); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid dither settings", err)
		return
	}

	preset := &database.Preset{Name: req.Name, Description: req.Description}
	preset.SetParams(opts.Dither)
	if err := preset.SetAdjust(opts.Adjust); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid adjustments", err)
		return
	}

	if err := h.presets.Create(preset); err != nil {
		h.respondPresetError(c, err, "Failed to create preset")
		return
	}

	logging.InfoWithComponent(logging.ComponentAPIPresets, "Created preset", "id", preset.ID, "name", preset.Name)
	location := urlFromRequest(c.Request).JoinPath("api", "presets", preset.ID.String())
	c.Header("Location", location.String())
	c.JSON(http.StatusCreated, gin.H{"preset": newPresetResponse(preset)})
}

// UpdatePresetHandler changes the fields present in the request.
func (h *Handler) UpdatePresetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid preset ID", nil)
		return
	}

	var req updatePresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, validationErrorMessage(err), err)
		return
	}

	current, err := h.presets.Get(id)
	if err != nil {
		h.respondPresetError(c, err, "Failed to fetch preset")
		return
	}
	opts, err := current.Options(0)
	if err != nil {
		opts = imageprocessing.DefaultProcessingOptions()
	}
	if err := req.Settings.Apply(&opts); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid dither settings", err)
		return
	}

	var adjustErr error
	preset, err := h.presets.Update(id, func(p *database.Preset) {
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		p.SetParams(opts.Dither)
		adjustErr = p.SetAdjust(opts.Adjust)
	})
	if adjustErr != nil {
		respondError(c, http.StatusBadRequest, "Invalid adjustments", adjustErr)
		return
	}
	if err != nil {
		h.respondPresetError(c, err, "Failed to update preset")
		return
	}

	logging.InfoWithComponent(logging.ComponentAPIPresets, "Updated preset", "id", preset.ID, "name", preset.Name)
	c.JSON(http.StatusOK, gin.H{"preset": newPresetResponse(preset)})
}

// DeletePresetHandler removes a user preset.
func (h *Handler) DeletePresetHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid preset ID", nil)
		return
	}

	if err := h.presets.Delete(id); err != nil {
		h.respondPresetError(c, err, "Failed to delete preset")
		return
	}

	logging.InfoWithComponent(logging.ComponentAPIPresets, "Deleted preset", "id", id)
	c.JSON(http.StatusOK, gin.H{"message": "Preset deleted"})
}

func (h *Handler) respondPresetError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, database.ErrPresetNotFound):
		respondError(c, http.StatusNotFound, "Preset not found", nil)
	case errors.Is(err, database.ErrBuiltInPreset):
		respondError(c, http.StatusForbidden, "Built-in presets cannot be modified", nil)
	case errors.Is(err, database.ErrDuplicatePresetName):
		respondError(c, http.StatusConflict, "A preset with this name already exists", nil)
	case errors.Is(err, database.ErrInvalidPreset), dither.IsConfigError(err):
		respondError(c, http.StatusBadRequest, "Invalid preset", err)
	default:
		logging.ErrorWithComponent(logging.ComponentAPIPresets, fallback, "error", err)
		respondError(c, http.StatusInternalServerError, fallback, nil)
	}
}
