package push

import (
	"encoding/json"
	"fmt"
)

const DefaultIcon = "/static/icon.png"

// Notification is the payload rendered by the subscriber's service worker.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
}

func NewGasAlertNotification(gasLevel int64, icon string) Notification {
	if icon == "" {
		icon = DefaultIcon
	}

	return Notification{
		Title: "¡Alerta de gas!",
		Body:  fmt.Sprintf("Nivel de gas detectado: %d", gasLevel),
		Icon:  icon,
	}
}

func (n Notification) Encode() ([]byte, error) {
	return json.Marshal(n)
}
