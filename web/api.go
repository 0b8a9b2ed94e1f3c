package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gaswatch-project/gaswatch/internal/push"
)

func ApiPingHandler(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

type JSONVapidPublicKey struct {
	PublicKey string `json:"publicKey"`
}

// ApiVapidPublicKeyHandler godoc
// @Summary Get the VAPID application server key browsers need to subscribe
// @Produce json
// @Success 200 {object} JSONVapidPublicKey
// @Failure 404 {object} map[string]string
// @Router /api/vapid-public-key [get]
func ApiVapidPublicKeyHandler(credentials push.Credentials) gin.HandlerFunc {
	return func(c *gin.Context) {
		if credentials.PublicKey == "" {
			_ = c.Error(NotFoundError("no VAPID public key configured"))
			return
		}

		c.JSON(http.StatusOK, &JSONVapidPublicKey{PublicKey: credentials.PublicKey})
	}
}
