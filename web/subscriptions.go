package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gaswatch-project/gaswatch/web/services"
)

// SaveSubscriptionHandler godoc
// @Summary Register a web push subscription
// @Accept json
// @Produce json
// @Param Body body map[string]interface{} true "The PushSubscription serialized by the browser"
// @Success 200 {object} map[string]string
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /save-subscription [post]
func SaveSubscriptionHandler(subscriptionsService *services.SubscriptionsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]interface{}

		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(services.NewValidationError("unable to parse JSON body: %s", err))
			return
		}

		descriptor, err := services.ParseSubscriptionDescriptor(body)
		if err != nil {
			_ = c.Error(err)
			return
		}

		status, err := subscriptionsService.Register(c.Request.Context(), descriptor.Endpoint, descriptor.Keys)
		if err != nil {
			_ = c.Error(err)
			return
		}

		code := http.StatusCreated
		if status == services.AlreadyRegistered {
			code = http.StatusOK
		}

		c.JSON(code, gin.H{"status": status.String()})
	}
}
