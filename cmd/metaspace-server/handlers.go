package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/daniacca/metaspace/internal/space"
	spacenotifiers "github.com/daniacca/metaspace/internal/space/notifiers"
)

// extractSpaceID extracts the space ID from a path like "/space/{spaceID}/..."
// Returns the space ID and the remaining path, or empty string if not found
func extractSpaceID(path string) (string, string) {
	if !strings.HasPrefix(path, "/space/") {
		return "", ""
	}

	// Remove "/space/" prefix
	rest := path[7:]

	// Find the next "/"
	idx := strings.Index(rest, "/")
	if idx == -1 {
		// No more path segments, the whole thing is the space ID
		return rest, ""
	}

	return rest[:idx], rest[idx:]
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /spaces
// Body: SpaceConfig JSON
// Creates a new space from the given configuration
func (s *Server) handleCreateSpace(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var cfg space.SpaceConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid space config json: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.createSpace(cfg); err != nil {
		http.Error(w, "cannot create space: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte("space created"))
}

// GET /spaces
// List all space IDs
func (s *Server) handleListSpaces(w http.ResponseWriter, _ *http.Request) {
	ids := s.manager.ListSpaces()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]string{"spaces": ids}); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// spaceStateResponse is the observable state of one space
type spaceStateResponse struct {
	ID           string         `json:"id"`
	Clock        string         `json:"clock"`
	Metabolites  space.Stock    `json:"metabolites"`
	Enzymes      map[string]int `json:"enzymes"`
	PendingTasks int            `json:"pending_tasks"`
	NextEventIn  string         `json:"next_event_in"`
}

// GET /space/{spaceID}
func (s *Server) handleGetSpace(w http.ResponseWriter, r *http.Request) {
	spaceID, _ := extractSpaceID(r.URL.Path)
	if spaceID == "" {
		http.Error(w, "space ID is required in path: /space/{spaceID}", http.StatusBadRequest)
		return
	}

	var state spaceStateResponse
	err := s.manager.Do(spaceID, func(runner *space.Runner) error {
		sp := runner.Space()
		ta := "never"
		if adv := sp.TimeAdvance(); adv != space.Forever {
			ta = adv.String()
		}
		state = spaceStateResponse{
			ID:           sp.ID(),
			Clock:        runner.Clock().String(),
			Metabolites:  sp.Stock(),
			Enzymes:      sp.EnzymeLevels(),
			PendingTasks: sp.PendingTasks(),
			NextEventIn:  ta,
		}
		return nil
	})
	if err != nil {
		http.Error(w, "space not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// DELETE /space/{spaceID}
func (s *Server) handleDeleteSpace(w http.ResponseWriter, r *http.Request) {
	spaceID, _ := extractSpaceID(r.URL.Path)
	if spaceID == "" {
		http.Error(w, "space ID is required in path: /space/{spaceID}", http.StatusBadRequest)
		return
	}

	if err := s.manager.DeleteSpace(spaceID); err != nil {
		s.logger.Warnf("Failed to delete space: space_id=%s error=%v", spaceID, err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	s.logger.Infof("Space deleted: space_id=%s", spaceID)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("space deleted"))
}

// POST /space/{spaceID}/stock
// Body: { "metabolites": { "A": 10 }, "after": "5ms" }
// Queues a metabolite batch for delivery on the space's input port
type injectStockRequest struct {
	Metabolites map[string]int `json:"metabolites"`
	After       string         `json:"after"`
}

func (s *Server) handleInjectStock(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	spaceID, _ := extractSpaceID(r.URL.Path)
	if spaceID == "" {
		http.Error(w, "space ID is required in path: /space/{spaceID}/stock", http.StatusBadRequest)
		return
	}

	var req injectStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Metabolites) == 0 {
		http.Error(w, "metabolites are required", http.StatusBadRequest)
		return
	}

	delay := time.Duration(0)
	if req.After != "" {
		d, err := time.ParseDuration(req.After)
		if err != nil {
			http.Error(w, "invalid after duration: "+err.Error(), http.StatusBadRequest)
			return
		}
		delay = d
	}

	stock := make(space.Stock, len(req.Metabolites))
	for name, amount := range req.Metabolites {
		if amount < 0 {
			http.Error(w, "metabolite amounts must be non-negative", http.StatusBadRequest)
			return
		}
		stock[space.SpeciesName(name)] = amount
	}

	err := s.manager.Do(spaceID, func(runner *space.Runner) error {
		return runner.InjectAfter(delay, space.NewStockMessage("api", stock))
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	s.logger.Debugf("Stock queued: space_id=%s species=%d delay=%v", spaceID, len(stock), delay)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("stock queued"))
}

// POST /space/{spaceID}/step
// Process discrete events on the space
// Query param: n (default: 1)
type stepResponse struct {
	Ran   int    `json:"ran"`
	Clock string `json:"clock"`
	Idle  bool   `json:"idle"`
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	spaceID, _ := extractSpaceID(r.URL.Path)
	if spaceID == "" {
		http.Error(w, "space ID is required in path: /space/{spaceID}/step", http.StatusBadRequest)
		return
	}

	n := 1
	if nStr := r.URL.Query().Get("n"); nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid n: must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}

	var resp stepResponse
	err := s.manager.Do(spaceID, func(runner *space.Runner) error {
		resp.Ran = runner.Run(n)
		resp.Clock = runner.Clock().String()
		resp.Idle = runner.Idle()
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// GET /space/{spaceID}/snapshot
// Returns a point-in-time capture of the space state
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	spaceID, _ := extractSpaceID(r.URL.Path)
	if spaceID == "" {
		http.Error(w, "space ID is required in path: /space/{spaceID}/snapshot", http.StatusBadRequest)
		return
	}

	var snapshot space.Snapshot
	err := s.manager.Do(spaceID, func(runner *space.Runner) error {
		snapshot = space.TakeSnapshot(runner)
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	data, err := space.EncodeSnapshotJSON(snapshot)
	if err != nil {
		http.Error(w, "cannot encode snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleSpaceRoutes routes requests to space-specific handlers
// Handles paths like /space/{spaceID}/stock, /space/{spaceID}/step, etc.
func (s *Server) handleSpaceRoutes(w http.ResponseWriter, r *http.Request) {
	spaceID, remainingPath := extractSpaceID(r.URL.Path)
	if spaceID == "" {
		http.Error(w, "space ID is required in path: /space/{spaceID}/...", http.StatusBadRequest)
		return
	}

	switch {
	case remainingPath == "" && r.Method == http.MethodGet:
		s.handleGetSpace(w, r)
	case remainingPath == "" && r.Method == http.MethodDelete:
		s.handleDeleteSpace(w, r)
	case remainingPath == "/stock" && r.Method == http.MethodPost:
		s.handleInjectStock(w, r)
	case remainingPath == "/step" && r.Method == http.MethodPost:
		s.handleStep(w, r)
	case remainingPath == "/snapshot" && r.Method == http.MethodGet:
		s.handleSnapshot(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// handleSpacesRoutes handles the space collection endpoints
func (s *Server) handleSpacesRoutes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSpace(w, r)
	case http.MethodGet:
		s.handleListSpaces(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleNotifiersRoutes handles notifier management endpoints
func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /notifiers
// List all registered notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	notifierIDs := s.notifierMgr.ListNotifiers()

	notifiers := make([]map[string]string, 0, len(notifierIDs))
	for _, id := range notifierIDs {
		notifier, exists := s.notifierMgr.GetNotifier(id)
		if exists {
			notifiers = append(notifiers, map[string]string{
				"id":   id,
				"type": notifier.Type(),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"notifiers": notifiers}); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// POST /notifiers
// Register a new notifier
// Body: { "type": "webhook", "id": "my-webhook", "config": { "url": "http://..." } }
type registerNotifierRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	var notifier space.Notifier

	switch req.Type {
	case "webhook":
		url, ok := req.Config["url"].(string)
		if !ok || url == "" {
			http.Error(w, "webhook URL is required", http.StatusBadRequest)
			return
		}
		wh := spacenotifiers.NewWebhookNotifier(req.ID, url)

		// Set custom headers if provided
		if headers, ok := req.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if vStr, ok := v.(string); ok {
					wh.SetHeader(k, vStr)
				}
			}
		}

		notifier = wh
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.notifierMgr.RegisterNotifier(notifier); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
// Unregister a notifier
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	notifierID := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if notifierID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	if err := s.notifierMgr.UnregisterNotifier(notifierID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}

// GET /events
// Upgrades the connection to a websocket that streams reaction events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	upgrader := s.wsNotifier.Upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("Websocket upgrade failed: error=%v", err)
		return
	}

	s.wsNotifier.RegisterClient(conn)

	// Drain control frames until the client goes away
	go func() {
		defer s.wsNotifier.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
