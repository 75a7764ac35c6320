package scheduler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RunOnce refreshes chain state immediately
func RunOnce(s Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.RunOnce(c.Request.Context()); err != nil {
			logrus.WithError(err).Warn("Manual chain refresh failed")
			c.JSON(http.StatusBadGateway, ErrorResponse{
				Error:   "scheduler_error",
				Message: "Failed to refresh chain state: " + err.Error(),
				Code:    http.StatusBadGateway,
				Remedy:  "retry",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Chain state refreshed successfully",
		})
	}
}
