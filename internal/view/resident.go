// Package view turns a patient record into the data each role's page
// renders. Nothing here mutates the record.
package view

import (
	"fmt"
	"slices"
	"strings"

	"medflow-backend/internal/model"
	"medflow-backend/internal/record"
)

// Display emphasis thresholds. These are looser than the alert trigger
// thresholds and must stay separate from them.
const (
	DisplayHeartRateAbove = 100
	DisplaySpO2Below      = 95
)

// Trend chart geometry.
const (
	TrendWidth  = 600
	TrendHeight = 200
	TrendYMin   = 60
	TrendYMax   = 100
)

// CannedPhrases are offered as quick inserts in the remark composer.
var CannedPhrases = []string{"Pale complexion", "Stable", "Alert", "Shortness of breath"}

// VitalsPanel is the latest reading with its emphasis flags.
type VitalsPanel struct {
	Latest        model.VitalReading `json:"latest"`
	HasLatest     bool               `json:"hasLatest"`
	HeartRateHigh bool               `json:"heartRateHigh"`
	SpO2Low       bool               `json:"spO2Low"`
}

// Trend holds two SVG polylines over all readings in insertion order.
type Trend struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	YMin      int    `json:"yMin"`
	YMax      int    `json:"yMax"`
	HeartRate string `json:"heartRate"`
	SpO2      string `json:"spO2"`
}

// ResidentPage is the bedside page.
type ResidentPage struct {
	PatientName  string         `json:"patientName"`
	Room         string         `json:"room"`
	Vitals       VitalsPanel    `json:"vitals"`
	Trend        Trend          `json:"trend"`
	Actions      []model.Action `json:"actions"`
	PendingCount int            `json:"pendingCount"`
	Remarks      []model.Remark `json:"remarks"`
	Phrases      []string       `json:"phrases"`
}

// Resident builds the bedside page for rec.
func Resident(rec record.PatientRecord) ResidentPage {
	return ResidentPage{
		PatientName:  rec.Name,
		Room:         rec.Room,
		Vitals:       latestPanel(rec),
		Trend:        BuildTrend(rec.Vitals),
		Actions:      NewestFirst(rec.Actions),
		PendingCount: rec.PendingActions(),
		Remarks:      slices.Clone(rec.Remarks),
		Phrases:      slices.Clone(CannedPhrases),
	}
}

func latestPanel(rec record.PatientRecord) VitalsPanel {
	v, ok := rec.LatestVital()
	if !ok {
		return VitalsPanel{}
	}
	return VitalsPanel{
		Latest:        v,
		HasLatest:     true,
		HeartRateHigh: v.HeartRate > DisplayHeartRateAbove,
		SpO2Low:       v.SpO2 < DisplaySpO2Below,
	}
}

// NewestFirst returns a reversed copy of actions.
func NewestFirst(actions []model.Action) []model.Action {
	out := slices.Clone(actions)
	slices.Reverse(out)
	return out
}

// BuildTrend lays readings out evenly along x. The y domain is 60-100,
// widened when a reading falls outside it.
func BuildTrend(vitals []model.VitalReading) Trend {
	t := Trend{Width: TrendWidth, Height: TrendHeight, YMin: TrendYMin, YMax: TrendYMax}
	if len(vitals) == 0 {
		return t
	}
	for _, v := range vitals {
		t.YMin = min(t.YMin, v.HeartRate, v.SpO2)
		t.YMax = max(t.YMax, v.HeartRate, v.SpO2)
	}

	hr := make([]string, len(vitals))
	sat := make([]string, len(vitals))
	for i, v := range vitals {
		x := t.x(i, len(vitals))
		hr[i] = fmt.Sprintf("%.1f,%.1f", x, t.y(v.HeartRate))
		sat[i] = fmt.Sprintf("%.1f,%.1f", x, t.y(v.SpO2))
	}
	t.HeartRate = strings.Join(hr, " ")
	t.SpO2 = strings.Join(sat, " ")
	return t
}

func (t Trend) x(i, n int) float64 {
	if n == 1 {
		return float64(t.Width) / 2
	}
	return float64(i) * float64(t.Width) / float64(n-1)
}

func (t Trend) y(value int) float64 {
	span := float64(t.YMax - t.YMin)
	return float64(t.Height) * (1 - float64(value-t.YMin)/span)
}
