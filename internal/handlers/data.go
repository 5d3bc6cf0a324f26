package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/finboard-backend/internal/datasync"
	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/registry"
)

// DataHandler serves the dashboard's entity collections out of the
// sync layer's cache.
type DataHandler struct {
	log  *logger.Logger
	sync *datasync.Orchestrator
}

func NewDataHandler(baseLog *logger.Logger, orch *datasync.Orchestrator) *DataHandler {
	return &DataHandler{
		log:  baseLog.With("handler", "DataHandler"),
		sync: orch,
	}
}

// GET /api/data
func (h *DataHandler) GetAllData(c *gin.Context) {
	h.sync.LoadAllData(c.Request.Context(), false)
	RespondOK(c, gin.H{
		"data":  h.sync.AllData(),
		"state": h.sync.State(),
	})
}

// GET /api/data/:entity
func (h *DataHandler) GetEntityData(c *gin.Context) {
	t := registry.EntityType(c.Param("entity"))
	if !t.Valid() {
		RespondError(c, http.StatusBadRequest, "unknown_entity", nil)
		return
	}
	force := c.Query("force") == "true"
	records := h.sync.LoadEntityData(c.Request.Context(), t, force)
	state := h.sync.State()
	RespondOK(c, gin.H{
		"data":  records,
		"error": state.Errors[t],
	})
}
