package handlers

import (
	"net/http"

	"bunie/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the latest snapshot from the health monitor.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, utils.GetHealthStatus())
}
