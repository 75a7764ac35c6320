package scheduler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status returns the current scheduler status
func Status(s Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := s.Status()
		state := "stopped"
		if st.Running {
			state = "running"
		}

		resp := gin.H{
			"status":   state,
			"next_run": st.NextRun,
			"last_run": st.LastRun,
		}
		if st.LastError != "" {
			resp["last_error"] = st.LastError
		}
		c.JSON(http.StatusOK, resp)
	}
}
