package routes

import (
	"net/http"

	"rfid-access-console/internal/utils"

	"github.com/gin-gonic/gin"
)

func Health(r *gin.RouterGroup) {
	r.GET("/health", func(c *gin.Context) {
		msg := c.Query("ping")
		if msg == "" {
			msg = "pong"
		}

		body := gin.H{
			"message": msg,
			"version": utils.GetVersion(),
			"ready":   false,
		}

		if t, err := GetTracker(c); err == nil {
			if snap, err := t.Snapshot(); err == nil {
				body["ready"] = true
				body["snapshot_id"] = snap.ID
				body["fetched_at"] = snap.FetchedAt
			}
			body["saving"] = t.Saving()
		}

		c.JSON(http.StatusOK, body)
	})
}
