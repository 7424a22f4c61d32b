package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Domenick1991/repricing/internal/service/account"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	service account.AccountUseCase
}

type stateRequest struct {
	StateID string `json:"state_id"`
}

func NewAccountHandler(service account.AccountUseCase) *AccountHandler {
	return &AccountHandler{service: service}
}

func (h *AccountHandler) Register(router *gin.RouterGroup) {
	router.POST("/gmail/state", h.createState)
	router.GET("/gmail/check", h.checkGmail)

	router.GET("/user/me", h.profile)
	router.PUT("/user/me", h.replaceProfile)
	router.GET("/user/me/settings", h.settings)
	router.PUT("/user/me/settings", h.updateSettings)
	router.GET("/user/me/stats", h.stats)
	router.POST("/user/update-me", h.updateProfile)
	router.POST("/user/complete-registration", h.completeRegistration)

	router.POST("/checkout-session", h.createCheckout)
	router.GET("/checkout-session/:session_id", h.checkoutStatus)
}

func (h *AccountHandler) createState(c *gin.Context) {
	var req account.LinkingStateInput
	if !bindBody(c, &req) {
		return
	}
	req.UserAgent = c.GetHeader("User-Agent")

	out, err := h.service.CreateLinkingState(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to create state"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) checkGmail(c *gin.Context) {
	status, err := h.service.CheckEmailLinked(c.Request.Context(), c.Query("state_id"), c.Query("baseUrl"))
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to check Gmail link status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *AccountHandler) profile(c *gin.Context) {
	out, err := h.service.Profile(c.Request.Context(), authFrom(c))
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to fetch user info"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) replaceProfile(c *gin.Context) {
	var body json.RawMessage
	if !bindBody(c, &body) {
		return
	}

	out, err := h.service.ReplaceProfile(c.Request.Context(), authFrom(c), body)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to update user info"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) settings(c *gin.Context) {
	out, err := h.service.Settings(c.Request.Context(), authFrom(c))
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to fetch user settings"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) updateSettings(c *gin.Context) {
	var body json.RawMessage
	if !bindBody(c, &body) {
		return
	}

	out, err := h.service.UpdateSettings(c.Request.Context(), authFrom(c), body)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to update user settings"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) stats(c *gin.Context) {
	out, err := h.service.Stats(c.Request.Context(), authFrom(c))
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to fetch user stats"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) updateProfile(c *gin.Context) {
	var req account.ProfileUpdate
	if !bindBody(c, &req) {
		return
	}

	out, err := h.service.UpdateProfile(c.Request.Context(), authFrom(c), req)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to update user info", mirror: true, relay: true})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) completeRegistration(c *gin.Context) {
	var req stateRequest
	if !bindBody(c, &req) {
		return
	}

	out, err := h.service.CompleteRegistration(c.Request.Context(), req.StateID)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to complete registration actions", mirror: true})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) createCheckout(c *gin.Context) {
	var req account.CheckoutInput
	if !bindBody(c, &req) {
		return
	}

	out, err := h.service.CreateCheckoutSession(c.Request.Context(), req)
	if err != nil {
		h.checkoutFailure(c, err, "Failed to create checkout session")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) checkoutStatus(c *gin.Context) {
	out, err := h.service.CheckoutSessionStatus(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.checkoutFailure(c, err, "Failed to get checkout session status")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccountHandler) checkoutFailure(c *gin.Context, err error, fallback string) {
	var invalid *account.InvalidCheckoutError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": invalid.Message, "data": invalid.Data})
		return
	}
	respondError(c, err, errorPolicy{fallback: fallback, mirror: true})
}
