package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/focusfrenzy/capture-server/store"
	"github.com/focusfrenzy/capture-server/utils"
)

// ServiceName is the fixed identity reported by the health endpoint.
const ServiceName = "Focus Frenzy - Local Capture Edition"

// HealthController reports a read-only status snapshot.
type HealthController struct {
	store *store.CaptureStore
}

func NewHealthController(st *store.CaptureStore) *HealthController {
	return &HealthController{store: st}
}

// Health handles GET /health.
func (hc *HealthController) Health(ctx *gin.Context) {
	count, err := hc.store.Count()
	if err != nil {
		utils.Sugar.Warnf("health capture count failed: %v", err)
		count = 0
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":         "OK",
		"service":        ServiceName,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"captures_count": count,
		"endpoints": gin.H{
			"game":          "/",
			"view_captures": "/view-captures",
			"json_api":      "/captures-json",
			"health":        "/health",
		},
	})
}
