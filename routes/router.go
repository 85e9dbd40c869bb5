package routes

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/focusfrenzy/capture-server/config"
	"github.com/focusfrenzy/capture-server/controllers"
	"github.com/focusfrenzy/capture-server/middleware"
	"github.com/focusfrenzy/capture-server/store"
	"github.com/focusfrenzy/capture-server/templates"
	"github.com/focusfrenzy/capture-server/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(st *store.CaptureStore) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}
	r.Use(middleware.RequestID())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.SetHTMLTemplate(template.Must(template.New("").ParseFS(templates.FS, "*.html")))

	// Stored image bytes, served straight off the capture directory.
	r.Static("/captures", st.Dir())
	r.Static("/static", "./static")

	r.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})

	captureController := controllers.NewCaptureController(st)
	healthController := controllers.NewHealthController(st)

	r.POST("/capture", captureController.Upload)
	r.GET("/view-captures", captureController.Gallery)
	r.GET("/captures-json", captureController.ListJSON)
	r.GET("/health", healthController.Health)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Fail(ctx, http.StatusNotFound, "route not found")
	})

	return r
}
