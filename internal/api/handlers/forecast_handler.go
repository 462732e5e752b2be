package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/forecast"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const maxHorizonDays = 31

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

type forecastRequest struct {
	Days int `json:"days"`
}

// parseDays reads the optional {"days": n} body and clamps it to a sane
// horizon. An empty body means the default 7-day horizon.
func (h *ForecastHandler) parseDays(c *gin.Context) int {
	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Days <= 0 {
		return forecast.DefaultHorizonDays
	}

	if req.Days > maxHorizonDays {
		return maxHorizonDays
	}

	return req.Days
}

func (h *ForecastHandler) parseDrugID(c *gin.Context) (int64, bool) {
	drugID, err := strconv.ParseInt(c.Param("drug_id"), 10, 64)
	if err != nil || drugID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid drug_id"})
		return 0, false
	}

	return drugID, true
}

// Forecast handles POST /forecast/:drug_id.
func (h *ForecastHandler) Forecast(c *gin.Context) {
	drugID, ok := h.parseDrugID(c)
	if !ok {
		return
	}
	days := h.parseDays(c)

	result, err := h.service.Forecast(c.Request.Context(), drugID, days)
	if err != nil {
		h.renderError(c, drugID, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ForecastDetailed handles POST /forecast/:drug_id/detailed and returns the
// per-day trend/seasonal breakdown.
func (h *ForecastHandler) ForecastDetailed(c *gin.Context) {
	drugID, ok := h.parseDrugID(c)
	if !ok {
		return
	}
	days := h.parseDays(c)

	points, err := h.service.ForecastDetailed(c.Request.Context(), drugID, days)
	if err != nil {
		h.renderError(c, drugID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drug_id":      drugID,
		"predictions":  points,
		"generated_at": time.Now().Format(time.RFC3339),
	})
}

// ForecastAll handles POST /forecast/all.
func (h *ForecastHandler) ForecastAll(c *gin.Context) {
	days := h.parseDays(c)

	forecasts, err := h.service.ForecastAll(c.Request.Context(), days)
	if err != nil {
		log.Error().Err(err).Msg("batch forecast failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch forecast failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"forecasts":    forecasts,
		"generated_at": time.Now().Format(time.RFC3339),
	})
}

// ListModels handles GET /models.
func (h *ForecastHandler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListModels())
}

// ReloadModels handles POST /models/reload, called after an external
// training run finishes.
func (h *ForecastHandler) ReloadModels(c *gin.Context) {
	count, err := h.service.ReloadModels(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("model reload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "model reload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"models_loaded": count})
}

func (h *ForecastHandler) renderError(c *gin.Context, drugID int64, err error) {
	if errors.Is(err, forecast.ErrModelNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no model found for drug_id " + strconv.FormatInt(drugID, 10)})
		return
	}

	log.Error().Err(err).Int64("drug_id", drugID).Msg("forecast failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "forecast failed"})
}
