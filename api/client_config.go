package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/repricing/config"
	"github.com/gin-gonic/gin"
)

// ClientConfigHandler exposes the settings a browser build reads at startup.
// Only public values belong here; the upstream API key never does.
type ClientConfigHandler struct {
	tracking config.TrackingConfig
	locale   config.LocaleConfig
}

type clientConfigResponse struct {
	FBPixelID        string   `json:"fb_pixel_id"`
	MapboxToken      string   `json:"mapbox_token,omitempty"`
	SupportedLocales []string `json:"supported_locales"`
	DefaultLocale    string   `json:"default_locale"`
	Locale           string   `json:"locale"`
}

func NewClientConfigHandler(tracking config.TrackingConfig, locale config.LocaleConfig) *ClientConfigHandler {
	return &ClientConfigHandler{tracking: tracking, locale: locale}
}

func (h *ClientConfigHandler) Register(router *gin.RouterGroup) {
	router.GET("/client-config", h.get)
}

func (h *ClientConfigHandler) get(c *gin.Context) {
	c.JSON(http.StatusOK, clientConfigResponse{
		FBPixelID:        h.tracking.FBPixelID,
		MapboxToken:      h.tracking.MapboxToken,
		SupportedLocales: h.locale.Supported,
		DefaultLocale:    h.locale.Default,
		Locale:           h.resolveLocale(c.Query("locale"), c.GetHeader("Accept-Language")),
	})
}

// resolveLocale prefers an explicit ?locale=, then the first supported
// Accept-Language tag by its primary subtag, then the default.
func (h *ClientConfigHandler) resolveLocale(explicit, acceptLanguage string) string {
	if l, ok := h.supported(explicit); ok {
		return l
	}
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		primary, _, _ := strings.Cut(tag, "-")
		if l, ok := h.supported(primary); ok {
			return l
		}
	}
	return h.locale.Default
}

func (h *ClientConfigHandler) supported(tag string) (string, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return "", false
	}
	for _, l := range h.locale.Supported {
		if strings.EqualFold(l, tag) {
			return l, true
		}
	}
	return "", false
}
