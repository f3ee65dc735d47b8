package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dkeye/FamilyShare/internal/adapters/rtc"
	"github.com/dkeye/FamilyShare/internal/app/orch"
	"github.com/dkeye/FamilyShare/internal/config"
	"github.com/dkeye/FamilyShare/internal/core"
	"github.com/dkeye/FamilyShare/internal/domain"
	"github.com/dkeye/FamilyShare/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const defaultHistoryLimit = 100

type Handlers struct {
	Orch   *orch.Orchestrator
	WebRTC config.WebRTCConfig
}

func (h *Handlers) Health(c *gin.Context) {
	attached, joined := h.Orch.Registry.Count()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": attached,
		"joined":      joined,
		"timestamp":   time.Now().UTC(),
	})
}

func (h *Handlers) WebRTCConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": rtc.Configuration(h.WebRTC).ICEServers})
}

func (h *Handlers) FamilyMembers(c *gin.Context) {
	members, err := h.Orch.FamilyMembers(c.Request.Context(), domain.FamilyID(c.Param("familyId")))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *Handlers) FamilyLocations(c *gin.Context) {
	locs, err := h.Orch.GetLatestPerMember(c.Request.Context(), domain.FamilyID(c.Param("familyId")))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locs})
}

func (h *Handlers) FamilyOnline(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"online": h.Orch.Online(domain.FamilyID(c.Param("familyId")))})
}

func (h *Handlers) LocationHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload", "message": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	samples, err := h.Orch.History(c.Request.Context(), domain.UserID(c.Param("userId")), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": samples})
}

func (h *Handlers) LatestLocation(c *gin.Context) {
	sample, err := h.Orch.Latest(c.Request.Context(), domain.UserID(c.Param("userId")))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sample)
}

type syncRequest struct {
	UserID    string    `json:"userId" binding:"required,max=64"`
	Latitude  *float64  `json:"latitude" binding:"required"`
	Longitude *float64  `json:"longitude" binding:"required"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Handlers) SyncLocation(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload", "message": err.Error()})
		return
	}
	sample, err := h.Orch.SyncLocation(c.Request.Context(), domain.UserID(req.UserID), orch.Position{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Accuracy:  req.Accuracy,
	}, req.Timestamp)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "location": sample})
}

func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := core.Code(err)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrInvalidPayload):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrRateLimited):
		status = http.StatusTooManyRequests
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}
