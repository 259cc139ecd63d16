package main

import (
	"net/http"

	spacenotifiers "github.com/daniacca/metaspace/internal/space/notifiers"
)

func main() {
	cfg := loadServerConfig()

	logger := NewLogger(cfg.LogLevel)

	srv, err := NewServer(logger)
	if err != nil {
		logger.Fatalf("Failed to initialize server: error=%v", err)
	}
	defer srv.Close()

	if cfg.WebhookURL != "" {
		wh := spacenotifiers.NewWebhookNotifier("default-webhook", cfg.WebhookURL)
		if err := srv.notifierMgr.RegisterNotifier(wh); err != nil {
			logger.Fatalf("Failed to register webhook notifier: error=%v", err)
		}
		logger.Infof("Webhook notifier registered: url=%s", cfg.WebhookURL)
	}

	if cfg.ConfigFile != "" {
		spaceCfg, err := loadInitialSpaceConfig(cfg.ConfigFile)
		if err != nil {
			logger.Fatalf("Failed to load space config: path=%s error=%v", cfg.ConfigFile, err)
		}
		if err := srv.createSpace(spaceCfg); err != nil {
			logger.Fatalf("Failed to create space: path=%s error=%v", cfg.ConfigFile, err)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/spaces", srv.handleSpacesRoutes)
	mux.HandleFunc("/space/", srv.handleSpaceRoutes)
	mux.HandleFunc("/notifiers", srv.handleNotifiersRoutes)
	mux.HandleFunc("/notifiers/", srv.handleNotifiersRoutes)
	mux.HandleFunc("/events", srv.handleEvents)
	mux.Handle("/metrics", srv.collector.Handler())

	logger.Infof("metaspace-server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		logger.Fatalf("Server failed: error=%v", err)
	}
}
