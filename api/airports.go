package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/repricing/internal/service/airports"
	"github.com/gin-gonic/gin"
)

type AirportHandler struct {
	service airports.AirportUseCase
}

type airportRequest struct {
	Codes []string `json:"airport_iata_codes"`
}

func NewAirportHandler(service airports.AirportUseCase) *AirportHandler {
	return &AirportHandler{service: service}
}

func (h *AirportHandler) Register(router *gin.RouterGroup) {
	router.POST("/airport", h.lookup)
}

func (h *AirportHandler) lookup(c *gin.Context) {
	var req airportRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Codes == nil || !validCodes(req.Codes) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid airport codes"})
		return
	}

	result, err := h.service.Lookup(c.Request.Context(), req.Codes)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to fetch airport information"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func validCodes(codes []string) bool {
	for _, code := range codes {
		if strings.TrimSpace(code) == "" {
			return false
		}
	}
	return true
}
