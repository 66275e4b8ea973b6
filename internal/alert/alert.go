// Package alert derives the critical-vitals alert from the latest reading.
package alert

import (
	"fmt"

	"medflow-backend/internal/model"
)

// Trigger thresholds. These are stricter than the display thresholds used
// by the resident view and are kept separate on purpose.
const (
	CriticalSpO2Below      = 94
	CriticalHeartRateAbove = 110
)

// Triggers reports whether a reading is critical.
func Triggers(v model.VitalReading) bool {
	return v.SpO2 < CriticalSpO2Below || v.HeartRate > CriticalHeartRateAbove
}

// Message is the fixed alert text for a patient.
func Message(patientName string) string {
	return fmt.Sprintf("Critical Vitals Alert for %s", patientName)
}

// State is the single alert slot. The zero value is "none".
type State struct {
	active  bool
	message string
}

// Active reports whether an alert is raised.
func (s State) Active() bool { return s.active }

// Message returns the alert text, or "" when none.
func (s State) Message() string { return s.message }

// Ptr returns the message as a nullable value.
func (s State) Ptr() *string {
	if !s.active {
		return nil
	}
	m := s.message
	return &m
}

// Observe evaluates a newly appended reading. A qualifying reading raises
// the alert or replaces the current message; any other reading leaves the
// state as it was. The boolean reports whether the alert was (re)raised.
func (s State) Observe(patientName string, v model.VitalReading) (State, bool) {
	if !Triggers(v) {
		return s, false
	}
	return State{active: true, message: Message(patientName)}, true
}

// Clear drops the alert. It is used both for explicit dismissal and when an
// action is appended. The boolean reports whether an alert was active.
func (s State) Clear() (State, bool) {
	return State{}, s.active
}
