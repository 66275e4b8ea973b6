package view

import (
	"errors"
	"slices"

	"medflow-backend/internal/model"
	"medflow-backend/internal/record"
)

// ErrUnknownIntervention is returned for a palette key that does not exist.
var ErrUnknownIntervention = errors.New("unknown intervention")

// HypoxiaSpO2Below flags the incoming feed card.
const HypoxiaSpO2Below = 94

const (
	ReportPlaceholder  = `Generated Medico-Legal narration will appear here after clicking "Generate Log".`
	SummaryPlaceholder = "Waiting for your next clinical action to generate educational feedback for the resident..."
)

// Intervention is one of the fixed one-click shortcuts.
type Intervention struct {
	Key   string           `json:"key"`
	Label string           `json:"label"`
	Type  model.ActionType `json:"type"`
}

var palette = []Intervention{
	{Key: "start-oxygen", Label: "Start Oxygen", Type: model.ActionProcedure},
	{Key: "amlodipine-5mg", Label: "Amlodipine 5mg", Type: model.ActionPrescription},
	{Key: "ecg-order", Label: "ECG Order", Type: model.ActionDiagnostic},
	{Key: "fluid-bolus", Label: "Fluid Bolus", Type: model.ActionProcedure},
	{Key: "iv-antibiotics", Label: "IV Antibiotics", Type: model.ActionPrescription},
	{Key: "chest-x-ray", Label: "Chest X-Ray", Type: model.ActionDiagnostic},
}

// Palette returns the six shortcuts in display order.
func Palette() []Intervention {
	return slices.Clone(palette)
}

// LookupIntervention finds a shortcut by key.
func LookupIntervention(key string) (Intervention, error) {
	for _, in := range palette {
		if in.Key == key {
			return in, nil
		}
	}
	return Intervention{}, ErrUnknownIntervention
}

// DeskState is the supervisor's transient display state.
type DeskState struct {
	Report     string `json:"report"`
	Summary    string `json:"summary"`
	Generating bool   `json:"generating"`
}

// FeedPanel is the incoming bedside feed.
type FeedPanel struct {
	Latest      model.VitalReading `json:"latest"`
	HasLatest   bool               `json:"hasLatest"`
	HypoxiaRisk bool               `json:"hypoxiaRisk"`
	Remarks     []model.Remark     `json:"remarks"`
}

// SupervisorPage is the decision page.
type SupervisorPage struct {
	PatientName string         `json:"patientName"`
	Feed        FeedPanel      `json:"feed"`
	Palette     []Intervention `json:"palette"`
	Actions     []model.Action `json:"actions"`
	Report      string         `json:"report"`
	HasReport   bool           `json:"hasReport"`
	Summary     string         `json:"summary"`
	HasSummary  bool           `json:"hasSummary"`
	Generating  bool           `json:"generating"`
}

// Supervisor builds the decision page. Empty report or summary text is
// replaced by its placeholder.
func Supervisor(rec record.PatientRecord, st DeskState) SupervisorPage {
	p := SupervisorPage{
		PatientName: rec.Name,
		Feed:        feed(rec),
		Palette:     Palette(),
		Actions:     NewestFirst(rec.Actions),
		Report:      st.Report,
		HasReport:   st.Report != "",
		Summary:     st.Summary,
		HasSummary:  st.Summary != "",
		Generating:  st.Generating,
	}
	if !p.HasReport {
		p.Report = ReportPlaceholder
	}
	if !p.HasSummary {
		p.Summary = SummaryPlaceholder
	}
	return p
}

func feed(rec record.PatientRecord) FeedPanel {
	f := FeedPanel{Remarks: LastRemarks(rec.Remarks, 2)}
	if v, ok := rec.LatestVital(); ok {
		f.Latest = v
		f.HasLatest = true
		f.HypoxiaRisk = v.SpO2 < HypoxiaSpO2Below
	}
	return f
}

// LastRemarks returns a copy of the last n remarks in chronological order.
func LastRemarks(remarks []model.Remark, n int) []model.Remark {
	if len(remarks) > n {
		remarks = remarks[len(remarks)-n:]
	}
	return slices.Clone(remarks)
}
