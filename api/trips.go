package api

import (
	"net/http"

	"github.com/Domenick1991/repricing/internal/service/trips"
	"github.com/gin-gonic/gin"
)

type TripsHandler struct {
	service trips.TripsUseCase
}

func NewTripsHandler(service trips.TripsUseCase) *TripsHandler {
	return &TripsHandler{service: service}
}

func (h *TripsHandler) Register(router *gin.RouterGroup) {
	router.GET("/rp-trips", h.list)
}

// list answers ?type=stats with the user's stats instead of the trip list.
func (h *TripsHandler) list(c *gin.Context) {
	auth := authFrom(c)

	if c.Query("type") == "stats" {
		stats, err := h.service.Stats(c.Request.Context(), auth)
		if err != nil {
			respondError(c, err, errorPolicy{fallback: "Failed to fetch user stats", mirror: true})
			return
		}
		c.JSON(http.StatusOK, stats)
		return
	}

	bookings, err := h.service.List(c.Request.Context(), auth)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to fetch trips", mirror: true})
		return
	}
	c.JSON(http.StatusOK, bookings)
}
