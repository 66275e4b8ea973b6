package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medflow-backend/internal/model"
	"medflow-backend/internal/shell"
	"medflow-backend/internal/view"
)

type stateResponse struct {
	shell.Snapshot
	Desk view.DeskState `json:"desk"`
}

// GetState returns the record, alert, role and desk state.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, stateResponse{Snapshot: h.shell.Snapshot(), Desk: h.desk.Snapshot()})
}

type setRoleRequest struct {
	Role model.Role `form:"role" json:"role" binding:"required"`
}

// SetRole switches the active role.
func (h *Handler) SetRole(c *gin.Context) {
	var req setRoleRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !h.shell.SetRole(c.Request.Context(), req.Role) {
		fail(c, http.StatusBadRequest, "unknown role "+string(req.Role))
		return
	}
	respond(c, http.StatusOK, gin.H{"role": req.Role})
}

// DismissAlert clears the alert slot.
func (h *Handler) DismissAlert(c *gin.Context) {
	cleared := h.shell.DismissAlert(c.Request.Context())
	respond(c, http.StatusOK, gin.H{"cleared": cleared})
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
