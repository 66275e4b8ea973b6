// Package record holds the single patient record and its state transitions.
//
// A PatientRecord is a value. Every transition returns a new record whose
// sequences are freshly allocated, so a record handed out earlier never
// observes a later append or status flip.
package record

import (
	"strings"
	"time"

	"medflow-backend/config"
	"medflow-backend/internal/model"
)

// PatientRecord is the aggregate root for one patient.
type PatientRecord struct {
	ID      string               `json:"id"`
	Name    string               `json:"name"`
	Age     int                  `json:"age"`
	Room    string               `json:"room"`
	Vitals  []model.VitalReading `json:"vitals"`
	Remarks []model.Remark       `json:"remarks"`
	Actions []model.Action       `json:"actions"`
}

// Seed builds the admission record: one sensor reading an hour ago and the
// resident's admission remark.
func Seed(p config.PatientConfig, remarkID string, now time.Time) PatientRecord {
	return PatientRecord{
		ID:   p.ID,
		Name: p.Name,
		Age:  p.Age,
		Room: p.Room,
		Vitals: []model.VitalReading{{
			Timestamp:     now.Add(-time.Hour),
			HeartRate:     72,
			SpO2:          98,
			BloodPressure: "120/80",
			Source:        model.SourceSensor,
		}},
		Remarks: []model.Remark{{
			ID:        remarkID,
			Timestamp: now.Add(-3500 * time.Second),
			Text:      "Stable upon admission",
			Author:    model.AuthorJunior,
		}},
		Actions: []model.Action{},
	}
}

// AppendVital returns a record with v appended. Field ranges are not
// validated.
func (r PatientRecord) AppendVital(v model.VitalReading) PatientRecord {
	r.Vitals = appendCopy(r.Vitals, v)
	return r
}

// AppendRemark returns a record with a new remark appended. Blank text
// leaves the record unchanged and reports false.
func (r PatientRecord) AppendRemark(text string, author model.RemarkAuthor, id string, at time.Time) (PatientRecord, bool) {
	if strings.TrimSpace(text) == "" {
		return r, false
	}
	r.Remarks = appendCopy(r.Remarks, model.Remark{
		ID:        id,
		Timestamp: at,
		Text:      text,
		Author:    author,
	})
	return r, true
}

// AppendAction returns a record with a new pending action appended.
func (r PatientRecord) AppendAction(label string, typ model.ActionType, author, id string, at time.Time) (PatientRecord, model.Action) {
	a := model.Action{
		ID:        id,
		Timestamp: at,
		Type:      typ,
		Label:     label,
		Author:    author,
		Status:    model.StatusPending,
	}
	r.Actions = appendCopy(r.Actions, a)
	return r, a
}

// ToggleActionStatus flips the status of the action with the given id.
// An unknown id leaves the record unchanged and reports false.
func (r PatientRecord) ToggleActionStatus(id string) (PatientRecord, bool) {
	idx := -1
	for i, a := range r.Actions {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return r, false
	}
	actions := make([]model.Action, len(r.Actions))
	copy(actions, r.Actions)
	actions[idx].Status = actions[idx].Status.Toggled()
	r.Actions = actions
	return r, true
}

// LatestVital returns the last appended reading.
func (r PatientRecord) LatestVital() (model.VitalReading, bool) {
	if len(r.Vitals) == 0 {
		return model.VitalReading{}, false
	}
	return r.Vitals[len(r.Vitals)-1], true
}

// ActionByID looks up an action.
func (r PatientRecord) ActionByID(id string) (model.Action, bool) {
	for _, a := range r.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return model.Action{}, false
}

// PendingActions counts actions not yet done.
func (r PatientRecord) PendingActions() int {
	n := 0
	for _, a := range r.Actions {
		if a.Status == model.StatusPending {
			n++
		}
	}
	return n
}

func appendCopy[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}
