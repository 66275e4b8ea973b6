package model

import "time"

// JournalKind names the event recorded in a journal entry.
type JournalKind string

const (
	JournalVital         JournalKind = "vital"
	JournalRemark        JournalKind = "remark"
	JournalAction        JournalKind = "action"
	JournalActionStatus  JournalKind = "action_status"
	JournalAlert         JournalKind = "alert"
	JournalAlertCleared  JournalKind = "alert_cleared"
	JournalRoleSwitch    JournalKind = "role"
	JournalLegalReport   JournalKind = "legal_report"
	JournalTeachingBrief JournalKind = "educational_summary"
)

// JournalEntry is one append-only row of the event journal.
type JournalEntry struct {
	ID        string      `gorm:"primaryKey;size:36"`
	RecordID  string      `gorm:"index;size:64;not null"`
	Kind      JournalKind `gorm:"index;size:32;not null"`
	Payload   string      `gorm:"type:text;not null"`
	CreatedAt time.Time   `gorm:"index;not null"`
}
