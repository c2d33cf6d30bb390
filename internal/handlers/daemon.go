package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/logging"
)

// DaemonHandler exposes direct persona operations outside the webhook flow.
type DaemonHandler struct {
	engine  ReplyEngine
	metrics *PipelineMetrics
	logger  logging.Logger
}

// NewDaemonHandler wires the daemon endpoints.
func NewDaemonHandler(engine ReplyEngine, metrics *PipelineMetrics, logger logging.Logger) *DaemonHandler {
	return &DaemonHandler{engine: engine, metrics: metrics, logger: logger}
}

type castRequest struct {
	FID      int64  `json:"fid" binding:"required"`
	CastHash string `json:"cast_hash"`
}

// Cast publishes a persona cast aimed at a user's cast. Without an explicit
// cast_hash the user's latest cast is targeted.
func (h *DaemonHandler) Cast(c *gin.Context) {
	var req castRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "fid is required"})
		return
	}

	result, err := h.engine.Engage(c.Request.Context(), req.FID, req.CastHash)
	if err != nil {
		if strings.Contains(err.Error(), "no casts found") || strings.Contains(err.Error(), "no context available") {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
			return
		}
		h.logger.WithFields(logging.Fields{"fid": req.FID, "error": err.Error()}).Error("Daemon cast failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "cast failed"})
		return
	}

	h.metrics.Published("daemon")
	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

type analyzeRequest struct {
	FID      int64  `json:"fid" binding:"required"`
	Username string `json:"username"`
}

// Analyze returns the persona's generated read on a user without
// publishing anything.
func (h *DaemonHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "fid is required"})
		return
	}

	analysis, err := h.engine.Analyze(c.Request.Context(), req.FID, req.Username)
	if err != nil {
		if strings.Contains(err.Error(), "no context available") {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
			return
		}
		h.logger.WithFields(logging.Fields{"fid": req.FID, "error": err.Error()}).Error("Daemon analyze failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "analyze failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": analysis})
}
