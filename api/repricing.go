package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/repricing/internal/gateway"
	"github.com/Domenick1991/repricing/internal/service/repricing"
	"github.com/gin-gonic/gin"
)

type RepricingHandler struct {
	service repricing.RepricingUseCase
}

type repricingSessionRequest struct {
	RepricingSessionID string `json:"repricing_session_id"`
}

type hotelOTPRequest struct {
	RepricingSessionID string `json:"repricing_session_id"`
	OTPCode            string `json:"otp_code"`
}

type askApprovalInfoRequest struct {
	SessionID string `json:"session_id"`
}

type paymentLinkRequest struct {
	RepricingSessionID string `json:"repricing_session_id"`
	RedirectURL        string `json:"redirect_url"`
}

type flightApprovalRequest struct {
	RepricingSessionID string `json:"repricing_session_id"`
	Citizenship        string `json:"citizenship"`
	ImpersonateUserID  string `json:"impersonate_user_id"`
}

func NewRepricingHandler(service repricing.RepricingUseCase) *RepricingHandler {
	return &RepricingHandler{service: service}
}

func (h *RepricingHandler) Register(router *gin.RouterGroup) {
	router.POST("/hotel-rp-otp/get-otp", h.sendOTP)
	router.PUT("/hotel-rp-otp/get-otp", h.sendOTP)
	router.POST("/hotel-rp-otp/validate-otp", h.verifyHotelOTP)
	router.POST("/otp/validate-otp", h.verifyPhoneOTP)
	router.GET("/hotel-rp/ask-approval-info", h.askApprovalInfo)
	router.POST("/hotel-rp/ask-approval-info", h.askApprovalInfo)
	router.POST("/hotel-rp/submit-approval-info", h.submitApprovalInfo)
	router.POST("/hotel-rp/approved", h.approve)
	router.POST("/hotel-rp/payment-link", h.paymentLink)
	router.POST("/flight-rp/approval_info", h.flightApproval)
}

// sendOTP also serves PUT, which the UI uses to resend the code.
func (h *RepricingHandler) sendOTP(c *gin.Context) {
	var req repricingSessionRequest
	if !bindBody(c, &req) {
		return
	}

	sent, err := h.service.SendHotelOTP(c.Request.Context(), req.RepricingSessionID)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to send OTP", relay: true})
		return
	}
	c.JSON(http.StatusOK, sent)
}

func (h *RepricingHandler) verifyHotelOTP(c *gin.Context) {
	var req hotelOTPRequest
	if !bindBody(c, &req) {
		return
	}

	v, err := h.service.VerifyHotelOTP(c.Request.Context(), req.RepricingSessionID, req.OTPCode)
	if err != nil {
		h.otpFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *RepricingHandler) verifyPhoneOTP(c *gin.Context) {
	var req repricing.PhoneVerificationInput
	if !bindBody(c, &req) {
		return
	}

	v, err := h.service.VerifyPhoneOTP(c.Request.Context(), req)
	if err != nil {
		h.otpFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *RepricingHandler) otpFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repricing.ErrInvalidCode):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid verification code", "success": false})
	case errors.Is(err, repricing.ErrNoCustomer):
		c.JSON(http.StatusNotFound, gin.H{
			"error":                 "No customer ID found",
			"success":               false,
			"shouldRedirectToGmail": true,
		})
	default:
		respondError(c, err, errorPolicy{fallback: "Failed to validate OTP"})
	}
}

func (h *RepricingHandler) askApprovalInfo(c *gin.Context) {
	req := askApprovalInfoRequest{SessionID: c.Query("session_id")}
	if c.Request.Method == http.MethodPost && !bindBody(c, &req) {
		return
	}

	info, err := h.service.AskApprovalInfo(c.Request.Context(), req.SessionID)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to fetch approval info", relay: true})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *RepricingHandler) submitApprovalInfo(c *gin.Context) {
	var req repricing.ApprovalInfoInput
	if !bindBody(c, &req) {
		return
	}

	res, err := h.service.SubmitApprovalInfo(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to submit approval info", relay: true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stripe_link_url": res.StripeLinkURL})
}

func (h *RepricingHandler) approve(c *gin.Context) {
	var req repricingSessionRequest
	if !bindBody(c, &req) {
		return
	}

	out, err := h.service.Approve(c.Request.Context(), authFrom(c), req.RepricingSessionID)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to approve hotel repricing", mirror: true, relay: true})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RepricingHandler) paymentLink(c *gin.Context) {
	var req paymentLinkRequest
	if !bindBody(c, &req) {
		return
	}

	out, err := h.service.IssuePaymentLink(c.Request.Context(), authFrom(c), req.RepricingSessionID, req.RedirectURL)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to generate payment link", mirror: true, relay: true})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RepricingHandler) flightApproval(c *gin.Context) {
	var req flightApprovalRequest
	if !bindBody(c, &req) {
		return
	}

	auth := authFrom(c)
	if req.ImpersonateUserID != "" {
		auth = gateway.Auth{Token: auth.Token, ImpersonationID: req.ImpersonateUserID}
	}

	out, err := h.service.SubmitFlightApproval(c.Request.Context(), auth, req.RepricingSessionID, req.Citizenship)
	if err != nil {
		respondError(c, err, errorPolicy{fallback: "Failed to submit approval info", mirror: true, relay: true})
		return
	}
	c.JSON(http.StatusOK, out)
}
