package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docuchat/docuchat-backend/internal/platform/ragquery"
)

type HealthHandler struct {
	query ragquery.Client
}

func NewHealthHandler(query ragquery.Client) *HealthHandler {
	return &HealthHandler{query: query}
}

// Live reports process liveness only.
func (hh *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready additionally checks the query service. A degraded query backend
// reports 503 with the dependency named.
func (hh *HealthHandler) Ready(c *gin.Context) {
	if hh.query != nil {
		if err := hh.query.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "query_service": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
