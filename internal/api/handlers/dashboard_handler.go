package handlers

import (
	"errors"
	"net/http"

	"github.com/andresuchdata/ecsync/internal/domain"
	"github.com/andresuchdata/ecsync/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type DashboardHandler struct {
	service *service.DashboardService
}

func NewDashboardHandler(service *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) GetLatest(c *gin.Context) {
	r, err := h.service.Latest(c.Request.Context())
	if err != nil {
		h.fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *DashboardHandler) GetByDate(c *gin.Context) {
	date := c.Param("date")
	if _, err := domain.ParseDate(date, nil); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	r, err := h.service.ByDate(c.Request.Context(), date)
	if err != nil {
		h.fail(c, err, date)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *DashboardHandler) GetAvailableDates(c *gin.Context) {
	dates, err := h.service.AvailableDates(c.Request.Context())
	if err != nil {
		h.fail(c, err, "")
		return
	}
	if dates == nil {
		dates = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

func (h *DashboardHandler) fail(c *gin.Context, err error, date string) {
	if errors.Is(err, service.ErrReportNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	log.Error().Err(err).Str("date", date).Msg("dashboard: failed to load report")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
}
