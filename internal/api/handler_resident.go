package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medflow-backend/internal/model"
	"medflow-backend/internal/parse"
	"medflow-backend/internal/view"
)

// GetResident returns the bedside page data.
func (h *Handler) GetResident(c *gin.Context) {
	c.JSON(http.StatusOK, view.Resident(h.shell.Record()))
}

// json.Number accepts both 120 and "120" in JSON, and plain form values.
type vitalsRequest struct {
	HeartRate     json.Number `form:"heartRate" json:"heartRate"`
	SpO2          json.Number `form:"spO2" json:"spO2"`
	BloodPressure string      `form:"bloodPressure" json:"bloodPressure"`
}

// PostVitals appends a resident-entered reading.
func (h *Handler) PostVitals(c *gin.Context) {
	var req vitalsRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	v, err := parse.ParseVitals(string(req.HeartRate), string(req.SpO2), req.BloodPressure)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	reading := h.shell.AppendVital(c.Request.Context(), model.VitalReading{
		HeartRate:     v.HeartRate,
		SpO2:          v.SpO2,
		BloodPressure: v.BloodPressure,
		Source:        model.SourceResident,
	})
	respond(c, http.StatusCreated, gin.H{"reading": reading, "alert": h.shell.Snapshot().Alert})
}

type remarkRequest struct {
	Text string `form:"text" json:"text"`
}

// PostResidentRemark appends a junior-authored remark. Blank text is
// ignored.
func (h *Handler) PostResidentRemark(c *gin.Context) {
	var req remarkRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	rm, ok := h.shell.AddRemark(c.Request.Context(), remarkText(c, req), model.AuthorJunior)
	remarkResponse(c, rm, ok)
}

// remarkText returns the composed remark. A form may carry several text
// fields; every non-blank one is kept, in order.
func remarkText(c *gin.Context, req remarkRequest) string {
	if !fromForm(c) {
		return req.Text
	}
	var parts []string
	for _, v := range c.PostFormArray("text") {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func remarkResponse(c *gin.Context, rm model.Remark, ok bool) {
	if !ok {
		respond(c, http.StatusOK, gin.H{"added": false})
		return
	}
	respond(c, http.StatusCreated, gin.H{"added": true, "remark": rm})
}

// ToggleAction flips an action's status. Unknown ids are ignored.
func (h *Handler) ToggleAction(c *gin.Context) {
	a, ok := h.shell.ToggleAction(c.Request.Context(), c.Param("id"))
	if !ok {
		respond(c, http.StatusOK, gin.H{"toggled": false})
		return
	}
	respond(c, http.StatusOK, gin.H{"toggled": true, "action": a})
}
