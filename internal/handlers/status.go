package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jhinnbay/DaemonAgent-Farcaster/internal/persona"
	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/version"
)

// StatusHandler reports the persona's identity and capabilities.
type StatusHandler struct {
	identity  persona.Identity
	character persona.Character
	maxDepth  int
}

func NewStatusHandler(identity persona.Identity, character persona.Character, maxDepth int) *StatusHandler {
	return &StatusHandler{identity: identity, character: character, maxDepth: maxDepth}
}

func (h *StatusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "operational",
		"character": h.character.Name,
		"fid":       h.identity.FID,
		"handle":    h.identity.Handle,
		"version":   version.GetInfo(),
		"capabilities": []string{
			"webhook_replies",
			"thread_continuation",
			"daemon_cast",
			"daemon_analyze",
		},
		"limits": gin.H{
			"max_thread_depth": h.maxDepth,
		},
	})
}
