package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// Every stored subscription receives urgent alert notifications.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	Role      Role      `gorm:"size:16;not null;default:SENIOR"`
	CreatedAt time.Time `gorm:"not null"`
}
