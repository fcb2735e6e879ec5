package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitsbarter/internal/rates"
)

// RatesHandler serves the cached BTC exchange rate.
type RatesHandler struct {
	service *rates.Service
}

// NewRatesHandler builds a RatesHandler.
func NewRatesHandler(service *rates.Service) *RatesHandler {
	return &RatesHandler{service: service}
}

// BTCRate handles GET /rates/btc. The rate is display data only.
func (h *RatesHandler) BTCRate(c *gin.Context) {
	rate, err := h.service.BTCRate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "exchange rate unavailable"})
		return
	}
	c.JSON(http.StatusOK, rate)
}
