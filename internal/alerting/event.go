package alerting

import "time"

// AlertEvent drives a single fan-out pass. It is never persisted.
type AlertEvent struct {
	GasLevel    int64     `json:"gas_level"`
	GeneratedAt time.Time `json:"generated_at"`
	ReadingID   uint      `json:"reading_id,omitempty"`
	DeviceID    string    `json:"device_id,omitempty"`
}

func NewAlertEvent(readingID uint, deviceID string, gasLevel int64) AlertEvent {
	return AlertEvent{
		GasLevel:    gasLevel,
		GeneratedAt: time.Now().UTC(),
		ReadingID:   readingID,
		DeviceID:    deviceID,
	}
}
