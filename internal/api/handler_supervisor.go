package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"medflow-backend/internal/supervisor"
	"medflow-backend/internal/view"
)

// GetSupervisor returns the decision page data.
func (h *Handler) GetSupervisor(c *gin.Context) {
	c.JSON(http.StatusOK, view.Supervisor(h.shell.Record(), h.desk.Snapshot()))
}

// GetInterventions returns the fixed shortcut palette.
func (h *Handler) GetInterventions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"interventions": view.Palette()})
}

// IssueIntervention creates the palette action for :key.
func (h *Handler) IssueIntervention(c *gin.Context) {
	a, err := h.desk.IssueIntervention(c.Request.Context(), c.Param("key"))
	if errors.Is(err, view.ErrUnknownIntervention) {
		fail(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, http.StatusCreated, gin.H{"action": a})
}

// PostSupervisorRemark appends a senior-authored remark.
func (h *Handler) PostSupervisorRemark(c *gin.Context) {
	var req remarkRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	rm, ok := h.desk.AddRemark(c.Request.Context(), remarkText(c, req))
	remarkResponse(c, rm, ok)
}

// RequestLegalReport starts legal report generation.
func (h *Handler) RequestLegalReport(c *gin.Context) {
	if err := h.desk.RequestLegalReport(c.Request.Context()); err != nil {
		if errors.Is(err, supervisor.ErrReportInFlight) {
			fail(c, http.StatusConflict, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	respond(c, http.StatusAccepted, gin.H{"generating": true})
}
