package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/daniacca/metaspace/internal/space"
)

// SpaceBuilder provides a fluent API for building space configurations.
// Use it to define the compartment's reaction interval, volume, enzymes
// and routing table before submitting the space to a server.
type SpaceBuilder struct {
	id              string
	interval        time.Duration
	volume          float64
	seed            int64
	metabolites     map[string]int
	enzymes         []*EnzymeBuilder
	routes          []space.RouteConfig
	biomassAddress  *space.AddressConfig
	biomassInterval time.Duration
}

// NewSpace creates a new space builder with the given ID.
// The ID identifies the space on the server.
func NewSpace(id string) *SpaceBuilder {
	return &SpaceBuilder{
		id:          id,
		interval:    time.Millisecond,
		volume:      1e-15,
		metabolites: make(map[string]int),
		enzymes:     make([]*EnzymeBuilder, 0),
		routes:      make([]space.RouteConfig, 0),
	}
}

// Interval sets the periodic reaction-selection interval.
// The default is one millisecond.
func (sb *SpaceBuilder) Interval(d time.Duration) *SpaceBuilder {
	sb.interval = d
	return sb
}

// Volume sets the compartment volume in liters, used when converting
// metabolite amounts to concentrations. The default is 1e-15.
func (sb *SpaceBuilder) Volume(v float64) *SpaceBuilder {
	sb.volume = v
	return sb
}

// Seed fixes the space's random seed for reproducible runs.
// A zero seed (the default) lets the server seed from the wall clock.
func (sb *SpaceBuilder) Seed(seed int64) *SpaceBuilder {
	sb.seed = seed
	return sb
}

// Metabolite sets the initial amount of one species in the compartment.
func (sb *SpaceBuilder) Metabolite(name string, amount int) *SpaceBuilder {
	sb.metabolites[name] = amount
	return sb
}

// Enzyme adds an enzyme definition to the space.
func (sb *SpaceBuilder) Enzyme(eb *EnzymeBuilder) *SpaceBuilder {
	sb.enzymes = append(sb.enzymes, eb)
	return sb
}

// Route maps a reaction address (compartment ID and reaction-set name)
// to an output channel. Every reaction address referenced by an enzyme
// must be routed.
func (sb *SpaceBuilder) Route(cid, rsn string, channel int) *SpaceBuilder {
	sb.routes = append(sb.routes, space.RouteConfig{Cid: cid, Rsn: rsn, Port: channel})
	return sb
}

// Biomass enables periodic biomass harvesting: every interval the
// space flushes its positive stock to the given address. The address
// must also be routed.
func (sb *SpaceBuilder) Biomass(cid, rsn string, interval time.Duration) *SpaceBuilder {
	sb.biomassAddress = &space.AddressConfig{Cid: cid, Rsn: rsn}
	sb.biomassInterval = interval
	return sb
}

// Build converts the builder to a SpaceConfig that can be used with
// Client.CreateSpace or space.BuildSpaceFromConfig.
func (sb *SpaceBuilder) Build() space.SpaceConfig {
	enzymes := make([]space.EnzymeConfig, 0, len(sb.enzymes))
	for _, eb := range sb.enzymes {
		enzymes = append(enzymes, eb.Build())
	}

	cfg := space.SpaceConfig{
		ID:           sb.id,
		IntervalTime: sb.interval.String(),
		Volume:       sb.volume,
		Seed:         sb.seed,
		Metabolites:  sb.metabolites,
		Enzymes:      enzymes,
		RoutingTable: sb.routes,
	}

	if sb.biomassAddress != nil {
		cfg.BiomassAddress = sb.biomassAddress
		cfg.BiomassInterval = sb.biomassInterval.String()
	}

	return cfg
}

// EnzymeBuilder provides a fluent API for building enzyme definitions.
// An enzyme kind carries an amount (number of identical units) and the
// set of reactions each unit can catalyze.
type EnzymeBuilder struct {
	id        string
	amount    int
	reactions []*ReactionBuilder
}

// NewEnzyme creates a new enzyme builder with the given ID and amount.
func NewEnzyme(id string, amount int) *EnzymeBuilder {
	return &EnzymeBuilder{
		id:        id,
		amount:    amount,
		reactions: make([]*ReactionBuilder, 0),
	}
}

// Reaction adds a reaction this enzyme can catalyze.
func (eb *EnzymeBuilder) Reaction(rb *ReactionBuilder) *EnzymeBuilder {
	eb.reactions = append(eb.reactions, rb)
	return eb
}

// Build converts the builder to an EnzymeConfig.
func (eb *EnzymeBuilder) Build() space.EnzymeConfig {
	reactions := make([]space.ReactionConfig, 0, len(eb.reactions))
	for _, rb := range eb.reactions {
		reactions = append(reactions, rb.Build())
	}

	return space.EnzymeConfig{
		ID:        eb.id,
		Amount:    eb.amount,
		Reactions: reactions,
	}
}

// ReactionBuilder provides a fluent API for building reaction
// configurations: the target address, binding constants and
// stoichiometries.
type ReactionBuilder struct {
	id         string
	cid        string
	rsn        string
	konSTP     float64
	konPTS     float64
	koffSTP    float64
	koffPTS    float64
	reversible bool
	substrate  map[string]int
	product    map[string]int
}

// NewReaction creates a new reaction builder with the given ID and
// target address. The ID must be unique across the space's enzymes.
func NewReaction(id, cid, rsn string) *ReactionBuilder {
	return &ReactionBuilder{
		id:        id,
		cid:       cid,
		rsn:       rsn,
		substrate: make(map[string]int),
		product:   make(map[string]int),
	}
}

// Kon sets the forward binding constant.
func (rb *ReactionBuilder) Kon(kon float64) *ReactionBuilder {
	rb.konSTP = kon
	return rb
}

// KonPTS sets the reverse binding constant and marks the reaction
// reversible.
func (rb *ReactionBuilder) KonPTS(kon float64) *ReactionBuilder {
	rb.konPTS = kon
	rb.reversible = true
	return rb
}

// Koff sets the forward unbinding constant.
func (rb *ReactionBuilder) Koff(koff float64) *ReactionBuilder {
	rb.koffSTP = koff
	return rb
}

// KoffPTS sets the reverse unbinding constant.
func (rb *ReactionBuilder) KoffPTS(koff float64) *ReactionBuilder {
	rb.koffPTS = koff
	return rb
}

// Substrate adds one species to the substrate stoichiometry: the
// amount consumed by one firing in the substrate-to-product direction.
func (rb *ReactionBuilder) Substrate(name string, amount int) *ReactionBuilder {
	rb.substrate[name] = amount
	return rb
}

// Product adds one species to the product stoichiometry.
func (rb *ReactionBuilder) Product(name string, amount int) *ReactionBuilder {
	rb.product[name] = amount
	return rb
}

// Build converts the builder to a ReactionConfig.
func (rb *ReactionBuilder) Build() space.ReactionConfig {
	return space.ReactionConfig{
		ID:         rb.id,
		Address:    space.AddressConfig{Cid: rb.cid, Rsn: rb.rsn},
		KonSTP:     rb.konSTP,
		KonPTS:     rb.konPTS,
		KoffSTP:    rb.koffSTP,
		KoffPTS:    rb.koffPTS,
		Reversible: rb.reversible,
		Substrate:  rb.substrate,
		Product:    rb.product,
	}
}

// Client is an HTTP client for a metaspace server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL
// (e.g. "http://localhost:8080").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetHTTPClient replaces the underlying HTTP client, e.g. to adjust
// timeouts or inject a test transport.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// CreateSpace submits a space configuration to the server.
func (c *Client) CreateSpace(ctx context.Context, sb *SpaceBuilder) error {
	return c.postJSON(ctx, sb.Build(), http.StatusCreated, "spaces")
}

// ListSpaces returns the IDs of all spaces on the server.
func (c *Client) ListSpaces(ctx context.Context) ([]string, error) {
	var out struct {
		Spaces []string `json:"spaces"`
	}
	if err := c.getJSON(ctx, &out, "spaces"); err != nil {
		return nil, err
	}
	return out.Spaces, nil
}

// SpaceState is the observable state of one space as reported by the
// server.
type SpaceState struct {
	ID           string         `json:"id"`
	Clock        string         `json:"clock"`
	Metabolites  map[string]int `json:"metabolites"`
	Enzymes      map[string]int `json:"enzymes"`
	PendingTasks int            `json:"pending_tasks"`
	NextEventIn  string         `json:"next_event_in"`
}

// GetSpace fetches the current state of a space.
func (c *Client) GetSpace(ctx context.Context, spaceID string) (SpaceState, error) {
	var state SpaceState
	if err := c.getJSON(ctx, &state, "space", spaceID); err != nil {
		return SpaceState{}, err
	}
	return state, nil
}

// DeleteSpace removes a space from the server.
func (c *Client) DeleteSpace(ctx context.Context, spaceID string) error {
	u, err := url.JoinPath(c.baseURL, "space", spaceID)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req, http.StatusOK, nil)
}

// InjectStock queues a metabolite batch for delivery on the space's
// input port after the given delay. A zero delay delivers at the
// space's current virtual time.
func (c *Client) InjectStock(ctx context.Context, spaceID string, metabolites map[string]int, after time.Duration) error {
	body := struct {
		Metabolites map[string]int `json:"metabolites"`
		After       string         `json:"after,omitempty"`
	}{Metabolites: metabolites}
	if after > 0 {
		body.After = after.String()
	}
	return c.postJSON(ctx, body, http.StatusOK, "space", spaceID, "stock")
}

// StepResult reports the outcome of a Step call.
type StepResult struct {
	Ran   int    `json:"ran"`
	Clock string `json:"clock"`
	Idle  bool   `json:"idle"`
}

// Step asks the server to process up to n discrete events on the
// space and reports how many ran and the new virtual clock.
func (c *Client) Step(ctx context.Context, spaceID string, n int) (StepResult, error) {
	u, err := url.JoinPath(c.baseURL, "space", spaceID, "step")
	if err != nil {
		return StepResult{}, fmt.Errorf("failed to build URL: %w", err)
	}
	if n > 1 {
		u += fmt.Sprintf("?n=%d", n)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return StepResult{}, fmt.Errorf("failed to create request: %w", err)
	}

	var result StepResult
	if err := c.do(req, http.StatusOK, &result); err != nil {
		return StepResult{}, err
	}
	return result, nil
}

// Snapshot fetches a point-in-time capture of the space state.
func (c *Client) Snapshot(ctx context.Context, spaceID string) (space.Snapshot, error) {
	var snapshot space.Snapshot
	if err := c.getJSON(ctx, &snapshot, "space", spaceID, "snapshot"); err != nil {
		return space.Snapshot{}, err
	}
	return snapshot, nil
}

// RegisterWebhook registers a webhook notifier on the server. Events
// emitted by any space are POSTed to the given URL.
func (c *Client) RegisterWebhook(ctx context.Context, id, webhookURL string) error {
	body := struct {
		Type   string         `json:"type"`
		ID     string         `json:"id"`
		Config map[string]any `json:"config"`
	}{
		Type:   "webhook",
		ID:     id,
		Config: map[string]any{"url": webhookURL},
	}
	return c.postJSON(ctx, body, http.StatusOK, "notifiers")
}

func (c *Client) postJSON(ctx context.Context, body any, wantStatus int, pathElems ...string) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	u, err := url.JoinPath(c.baseURL, pathElems...)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, wantStatus, nil)
}

func (c *Client) getJSON(ctx context.Context, out any, pathElems ...string) error {
	u, err := url.JoinPath(c.baseURL, pathElems...)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req, http.StatusOK, out)
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
