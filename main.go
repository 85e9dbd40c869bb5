package main

import (
	"github.com/focusfrenzy/capture-server/config"
	"github.com/focusfrenzy/capture-server/routes"
	"github.com/focusfrenzy/capture-server/store"
	"github.com/focusfrenzy/capture-server/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	st := store.New(cfg.CaptureDir, cfg.MaxUploadBytes(), nil)
	r := routes.SetupRouter(st)

	utils.Sugar.Infof("FOCUS FRENZY - LOCAL CAPTURE EDITION")
	utils.Sugar.Infof("server running on port %s, captures saved to %s", cfg.AppPort, cfg.CaptureDir)
	utils.Sugar.Infof("play game:     http://localhost:%s/", cfg.AppPort)
	utils.Sugar.Infof("view captures: http://localhost:%s/view-captures", cfg.AppPort)
	utils.Sugar.Infof("json api:      http://localhost:%s/captures-json", cfg.AppPort)
	utils.Sugar.Infof("health check:  http://localhost:%s/health", cfg.AppPort)

	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
