package api

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"medflow-backend/internal/model"
	"medflow-backend/internal/shell"
	"medflow-backend/internal/view"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const pageTemplate = "index.html.tmpl"

// Templates parses the page templates. Times render in loc.
func Templates(loc *time.Location) *template.Template {
	funcs := template.FuncMap{
		"clock": func(t time.Time) string { return t.In(loc).Format("3:04:05 PM") },
		"hm":    func(t time.Time) string { return t.In(loc).Format("3:04 PM") },
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl"))
}

type pageData struct {
	shell.Snapshot
	Resident   *view.ResidentPage
	Supervisor *view.SupervisorPage
	Error      string
}

// GetIndex renders the active role's page.
func (h *Handler) GetIndex(c *gin.Context) {
	snap := h.shell.Snapshot()
	data := pageData{Snapshot: snap, Error: c.Query("error")}
	if snap.Role == model.RoleSenior {
		p := view.Supervisor(snap.Record, h.desk.Snapshot())
		data.Supervisor = &p
	} else {
		p := view.Resident(snap.Record)
		data.Resident = &p
	}
	c.HTML(http.StatusOK, pageTemplate, data)
}
