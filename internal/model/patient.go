package model

import "time"

// VitalSource identifies who logged a reading.
type VitalSource string

const (
	SourceResident VitalSource = "JR"
	SourceSensor   VitalSource = "Sensor"
)

// RemarkAuthor identifies which role wrote a remark.
type RemarkAuthor string

const (
	AuthorJunior RemarkAuthor = "JR"
	AuthorSenior RemarkAuthor = "SR"
)

// ActionType classifies an ordered clinical action.
type ActionType string

const (
	ActionPrescription ActionType = "RX"
	ActionDiagnostic   ActionType = "DX"
	ActionProcedure    ActionType = "PROC"
)

// Valid reports whether t is one of the known action types.
func (t ActionType) Valid() bool {
	switch t {
	case ActionPrescription, ActionDiagnostic, ActionProcedure:
		return true
	}
	return false
}

// ActionStatus is the only mutable field of an Action.
type ActionStatus string

const (
	StatusPending ActionStatus = "PENDING"
	StatusDone    ActionStatus = "DONE"
)

// Toggled flips pending and done.
func (s ActionStatus) Toggled() ActionStatus {
	if s == StatusPending {
		return StatusDone
	}
	return StatusPending
}

// Role is the active user persona. It never affects stored data.
type Role string

const (
	RoleJunior Role = "JUNIOR"
	RoleSenior Role = "SENIOR"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleJunior || r == RoleSenior
}

// VitalReading is an immutable vital-sign snapshot.
type VitalReading struct {
	Timestamp     time.Time   `json:"timestamp"`
	HeartRate     int         `json:"heartRate"`
	SpO2          int         `json:"spO2"`
	BloodPressure string      `json:"bloodPressure"`
	Source        VitalSource `json:"source"`
}

// Remark is an immutable free-text clinical note.
type Remark struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Text      string       `json:"text"`
	Author    RemarkAuthor `json:"author"`
}

// Action is a clinical order whose status may be toggled after creation.
type Action struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Type      ActionType   `json:"type"`
	Label     string       `json:"label"`
	Author    string       `json:"author"`
	Status    ActionStatus `json:"status"`
}
