package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitsbarter/internal/rabbitmq"
)

// Healthz reports service liveness and the event publisher mode.
func Healthz(publisher rabbitmq.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := gin.H{
			"status":    "ok",
			"publisher": rabbitmq.PublisherMode(publisher),
		}
		if reason := rabbitmq.PublisherNoopReason(publisher); reason != "" {
			resp["publisher_reason"] = reason
		}
		c.JSON(http.StatusOK, resp)
	}
}
