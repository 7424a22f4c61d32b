package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Registrar interface {
	Register(router *gin.RouterGroup)
}

// NewRouter mounts every handler under /api behind the shared middleware.
func NewRouter(handlers ...Registrar) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), RequestID(), Identity())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group := router.Group("/api")
	for _, h := range handlers {
		h.Register(group)
	}
	return router
}
