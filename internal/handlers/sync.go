package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/finboard-backend/internal/datasync"
	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/registry"
)

// SyncHandler exposes the sync layer's state, refresh controls and
// the persisted chaos toggle.
type SyncHandler struct {
	log  *logger.Logger
	sync *datasync.Orchestrator
}

func NewSyncHandler(baseLog *logger.Logger, orch *datasync.Orchestrator) *SyncHandler {
	return &SyncHandler{
		log:  baseLog.With("handler", "SyncHandler"),
		sync: orch,
	}
}

// GET /api/sync/state
func (h *SyncHandler) GetState(c *gin.Context) {
	RespondOK(c, h.sync.State())
}

type refreshRequest struct {
	Entities []string `json:"entities"`
}

// POST /api/sync/refresh
func (h *SyncHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	// an empty body means refresh everything
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	var types []registry.EntityType
	for _, raw := range req.Entities {
		t := registry.EntityType(raw)
		if !t.Valid() {
			RespondError(c, http.StatusBadRequest, "unknown_entity", nil)
			return
		}
		types = append(types, t)
	}

	// nil means refresh everything
	h.sync.RefreshData(c.Request.Context(), types)
	RespondOK(c, h.sync.State())
}

type clearErrorRequest struct {
	Entity string `json:"entity"`
}

// POST /api/sync/errors/clear
func (h *SyncHandler) ClearError(c *gin.Context) {
	var req clearErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	t := registry.EntityType(req.Entity)
	if !t.Valid() {
		RespondError(c, http.StatusBadRequest, "unknown_entity", nil)
		return
	}
	h.sync.ClearError(t)
	RespondOK(c, h.sync.State())
}

// GET /api/sync/chaos
func (h *SyncHandler) GetChaos(c *gin.Context) {
	RespondOK(c, gin.H{"enabled": h.sync.Chaos().Enabled(c.Request.Context())})
}

type chaosRequest struct {
	Enabled bool `json:"enabled"`
}

// POST /api/sync/chaos
func (h *SyncHandler) SetChaos(c *gin.Context) {
	var req chaosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.sync.Chaos().SetEnabled(c.Request.Context(), req.Enabled); err != nil {
		h.log.Error("Failed to persist chaos flag", "error", err)
		RespondError(c, http.StatusInternalServerError, "chaos_toggle_failed", err)
		return
	}
	RespondOK(c, gin.H{"enabled": req.Enabled})
}
