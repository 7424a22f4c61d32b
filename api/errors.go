package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/Domenick1991/repricing/internal/domain"
	"github.com/Domenick1991/repricing/internal/gateway"
	"github.com/gin-gonic/gin"
)

const (
	loginPath          = "/auth/phone-login"
	defaultDestination = "/user-rps"
)

// LoginRedirect is the phone-login path that returns the visitor to destination.
func LoginRedirect(destination string) string {
	if destination == "" {
		destination = defaultDestination
	}
	return loginPath + "?redirect=" + url.QueryEscape(destination)
}

// errorPolicy describes how one route reports upstream failures.
type errorPolicy struct {
	fallback string
	// mirror the upstream status instead of answering 500
	mirror bool
	// relay the upstream error message instead of the fallback
	relay bool
}

func respondError(c *gin.Context, err error, policy errorPolicy) {
	var (
		validation *domain.ValidationError
		rejected   *domain.RejectedError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "success": false})
	case errors.Is(err, gateway.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Upstream timeout", "success": false})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":    "Unauthorized",
			"redirect": LoginRedirect(c.Query("authRedirectUrl")),
			"success":  false,
		})
	case errors.As(err, &rejected):
		c.JSON(rejected.Status, gin.H{"error": messageOr(rejected.Message, policy.fallback), "success": false})
	default:
		status, message := http.StatusInternalServerError, policy.fallback
		if ue, ok := gateway.AsUpstreamError(err); ok {
			if policy.mirror && ue.Status >= 400 {
				status = ue.Status
			}
			if policy.relay {
				message = messageOr(ue.Message, policy.fallback)
			}
		}
		log.Printf("[%s] %s: %v", c.FullPath(), policy.fallback, err)
		c.JSON(status, gin.H{"error": message, "success": false})
	}
}

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}

// bindBody decodes an optional JSON body; an empty body leaves dst zeroed.
func bindBody(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "success": false})
		return false
	}
	return true
}
