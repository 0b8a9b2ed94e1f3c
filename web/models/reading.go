package models

import "time"

type Reading struct {
	ID         uint      `gorm:"primaryKey"`
	DeviceID   string    `gorm:"not null;index"`
	GasLevel   int64     `gorm:"not null"`
	CapturedAt time.Time `gorm:"not null;index"`
}

func (Reading) TableName() string {
	return "readings"
}
