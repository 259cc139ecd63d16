package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/daniacca/metaspace/internal/space"
	"github.com/daniacca/metaspace/internal/space/notifiers"
)

// spaceLoggerAdapter adapts the server's Logger to the space.Logger interface
type spaceLoggerAdapter struct {
	logger *Logger
}

func (a *spaceLoggerAdapter) Debugf(format string, v ...any) {
	a.logger.Debugf(format, v...)
}

func (a *spaceLoggerAdapter) Infof(format string, v ...any) {
	a.logger.Infof(format, v...)
}

func (a *spaceLoggerAdapter) Warnf(format string, v ...any) {
	a.logger.Warnf(format, v...)
}

func (a *spaceLoggerAdapter) Errorf(format string, v ...any) {
	a.logger.Errorf(format, v...)
}

// Server represents the HTTP server driving metabolic spaces
type Server struct {
	manager     *space.SpaceManager
	notifierMgr *space.NotificationManager
	collector   *space.Collector
	wsNotifier  *notifiers.WebSocketNotifier
	logger      *Logger
}

// NewServer creates a new server instance
func NewServer(logger *Logger) (*Server, error) {
	spaceLogger := &spaceLoggerAdapter{logger: logger}

	collector, err := space.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}

	notifierMgr := space.NewNotificationManagerWithLogger(spaceLogger)
	wsNotifier := notifiers.NewWebSocketNotifier("websocket-events")
	if err := notifierMgr.RegisterNotifier(wsNotifier); err != nil {
		return nil, err
	}

	return &Server{
		manager:     space.NewSpaceManagerWithLogger(spaceLogger),
		notifierMgr: notifierMgr,
		collector:   collector,
		wsNotifier:  wsNotifier,
		logger:      logger,
	}, nil
}

// createSpace builds and registers a space from config and wires the
// runner's step callback into metrics and notifications.
func (s *Server) createSpace(cfg space.SpaceConfig) error {
	runner, err := s.manager.CreateSpace(cfg)
	if err != nil {
		return err
	}

	runner.OnStep(func(info space.StepInfo) {
		s.collector.ObserveStep(runner.Space(), info)
		for _, event := range space.EventsFromBag(runner.Space().ID(), info.At, info.Output) {
			s.notifierMgr.Broadcast(event)
		}
	})

	s.logger.Infof("Space created: space_id=%s interval=%s", cfg.ID, cfg.IntervalTime)
	return nil
}

// Close shuts down the notification pipeline.
func (s *Server) Close() error {
	return s.notifierMgr.Close()
}
