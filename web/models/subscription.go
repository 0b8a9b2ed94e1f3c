package models

import (
	"time"

	"gorm.io/datatypes"
)

// Subscription is a registered web push destination. Keys holds the opaque
// encryption credentials sent by the browser alongside the endpoint.
type Subscription struct {
	ID        uint   `gorm:"primaryKey"`
	Endpoint  string `gorm:"not null;uniqueIndex"`
	Keys      datatypes.JSON
	CreatedAt time.Time
}

func (Subscription) TableName() string {
	return "subscriptions"
}
