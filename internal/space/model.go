package space

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
)

// reactionSendDelay is the transmission latency between committing a
// selection round and emitting the resulting trigger messages.
const reactionSendDelay = time.Millisecond

// Space is one simulated metabolic compartment: a local species stock,
// a catalog of enzymes competing to trigger reactions, a routing table
// towards neighbor compartments, and a task scheduler carrying the
// pending work. It implements the four-function discrete-event
// transition protocol and is driven externally, one transition at a
// time; a Space instance is not safe for concurrent use.
type Space struct {
	id              string
	interval        time.Duration
	biomassInterval time.Duration
	biomassAddress  ReactionAddress
	metabolites     Stock
	enzymes         map[string]Enzyme
	routes          RoutingTable
	volume          float64

	tasks  *TaskScheduler
	rng    *rand.Rand
	logger Logger
}

// NewSpace assembles a space from already-validated parts. Most callers
// go through BuildSpaceFromConfig instead. The rng seed is owned by
// this instance alone so that multiple spaces never share random state.
func NewSpace(id string, interval time.Duration, metabolites Stock, enzymes map[string]Enzyme, routes RoutingTable, volume float64, seed int64) *Space {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if metabolites == nil {
		metabolites = make(Stock)
	}
	if enzymes == nil {
		enzymes = make(map[string]Enzyme)
	}
	if routes == nil {
		routes = make(RoutingTable)
	}
	s := &Space{
		id:          id,
		interval:    interval,
		metabolites: metabolites,
		enzymes:     enzymes,
		routes:      routes,
		volume:      volume,
		tasks:       NewTaskScheduler(),
		rng:         rand.New(rand.NewSource(seed)),
		logger:      NewNoOpLogger(),
	}
	// A space born with stock arms its first selection round immediately.
	s.setNextSelection()
	return s
}

// SetLogger replaces the space's logger. Passing nil restores the no-op
// logger.
func (s *Space) SetLogger(logger Logger) {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	s.logger = logger
}

// SetBiomassTarget configures where and with which emission delay the
// space flushes its whole stock when a biomass request arrives.
func (s *Space) SetBiomassTarget(addr ReactionAddress, interval time.Duration) {
	s.biomassAddress = addr
	s.biomassInterval = interval
}

// ID returns the space identifier.
func (s *Space) ID() string {
	return s.id
}

// Interval returns the fixed re-arm interval between selection rounds.
func (s *Space) Interval() time.Duration {
	return s.interval
}

// Stock returns a copy of the current species stock.
func (s *Space) Stock() Stock {
	return s.metabolites.Clone()
}

// EnzymeLevels returns the unit count per enzyme kind.
func (s *Space) EnzymeLevels() map[string]int {
	out := make(map[string]int, len(s.enzymes))
	for id, enzyme := range s.enzymes {
		out[id] = enzyme.Amount
	}
	return out
}

// PendingTasks returns the number of scheduled tasks. Diagnostics only.
func (s *Space) PendingTasks() int {
	return s.tasks.Len()
}

// InternalTransition fires when the model's own time-advance elapses
// with no external input. A due Selecting task is committed and a
// selection round runs; its triggers, merged per destination, are
// scheduled for emission after the transmission latency. Any other due
// task is simply dropped, its payload having already been pulled
// through Output. Finally the next selection round is re-armed if
// stock warrants one.
func (s *Space) InternalTransition() {
	s.logger.Debugf("space %s: begin internal transition", s.id)

	// The driver invokes this exactly when the time-advance elapses;
	// fold that time so the imminent tasks reach zero remaining time.
	if left := s.tasks.TimeAdvance(); left != Forever {
		s.tasks.Update(left)
	}

	if s.tasks.IsInNext(NewTask(Selecting)) {
		// Advance must run after the due-set check and before the
		// selection round reads the stock.
		s.tasks.Advance()

		selected := Task{Kind: SendingReactions, Bags: make(Bag)}
		s.selectReactions(selected.Bags)
		if !selected.Bags.Empty() {
			selected.Bags = mergeBag(selected.Bags)
			s.tasks.Add(reactionSendDelay, selected)
		}
	} else {
		s.tasks.Advance()
	}

	s.setNextSelection()
	s.logger.Debugf("space %s: end internal transition", s.id)
}

// ExternalTransition fires when a message batch arrives after elapsed
// time e. Incoming stock is merged into the local stock; biomass and
// show requests are honored; then the next selection round is re-armed
// if warranted.
func (s *Space) ExternalTransition(elapsed time.Duration, incoming []Message) {
	s.logger.Debugf("space %s: begin external transition (elapsed=%v, messages=%d)", s.id, elapsed, len(incoming))

	// Update must precede every scheduler query in this step.
	s.tasks.Update(elapsed)

	selectBiomass := false
	showStock := false
	for _, m := range incoming {
		switch {
		case m.ShowRequest:
			showStock = true
		case m.BiomassRequest:
			selectBiomass = true
		default:
			s.metabolites.Merge(m.Metabolites)
		}
	}

	if showStock {
		s.logger.Infof("space %s state: %s", s.id, s.String())
	}
	if selectBiomass {
		s.selectForBiomass()
	}

	s.setNextSelection()
	s.logger.Debugf("space %s: end external transition", s.id)
}

// ConfluentTransition resolves the case where the model's own deadline
// and an incoming batch coincide exactly: the internal transition runs
// first, then the external one with zero elapsed time since the
// internal transition already accounted for it.
func (s *Space) ConfluentTransition(incoming []Message) {
	s.InternalTransition()
	s.ExternalTransition(0, incoming)
}

// Output returns the union of the message bags of every currently-due
// task, except Selecting tasks which carry no payload and must never be
// emitted. It is a pure query and can be called repeatedly.
func (s *Space) Output() Bag {
	bags := make(Bag)
	for _, task := range s.tasks.Imminent() {
		if task.Kind == Selecting {
			continue
		}
		bags.Merge(task.Bags)
	}
	return bags
}

// TimeAdvance returns the minimum remaining time across pending tasks,
// falling back to the re-arm interval when the scheduler is empty. It
// is a pure query and can be called repeatedly.
func (s *Space) TimeAdvance() time.Duration {
	result := s.tasks.TimeAdvance()
	if result == Forever {
		result = s.interval
	}
	return result
}

// selectForBiomass copies the whole positive stock into one message
// addressed to the biomass target, schedules its emission, and empties
// the stock.
func (s *Space) selectForBiomass() {
	if s.biomassAddress.Empty() {
		s.logger.Warnf("space %s: biomass request ignored, no biomass address configured", s.id)
		return
	}

	task := Task{Kind: SendingBiomass, Bags: make(Bag)}
	s.pushToChannel(task.Bags, s.biomassAddress, Message{
		From:        s.id,
		Metabolites: s.metabolites.Positive(),
	})

	for name := range s.metabolites {
		s.metabolites[name] = 0
	}

	s.tasks.Add(s.biomassInterval, task)
}

// setNextSelection arms a new Selecting task one interval out, but only
// while there is stock to select from and no Selecting task is already
// queued. Zero stock legitimately quiesces the model; the existence
// check prevents internal and external transitions from double-arming
// the same recurring round.
func (s *Space) setNextSelection() {
	if s.metabolites.HasPositive() && !s.tasks.Exists(NewTask(Selecting)) {
		s.tasks.Add(s.interval, NewTask(Selecting))
	}
}

// pushToChannel routes a message to the output channel registered for
// the address. Construction-time validation guarantees the route; a
// miss here means the catalog and the table went out of sync.
func (s *Space) pushToChannel(bags Bag, addr ReactionAddress, m Message) {
	channel, ok := s.routes.Route(addr)
	if !ok {
		panic(fmt.Sprintf("space %s: no route for reaction address %s", s.id, addr))
	}
	bags.Push(channel, m)
}

// String dumps enzyme unit counts and the species stock, for
// observability only.
func (s *Space) String() string {
	var b strings.Builder

	b.WriteString(`{"enzymes": {`)
	enzymeIDs := make([]string, 0, len(s.enzymes))
	for id := range s.enzymes {
		enzymeIDs = append(enzymeIDs, id)
	}
	sort.Strings(enzymeIDs)
	for i, id := range enzymeIDs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: %d", id, s.enzymes[id].Amount)
	}

	b.WriteString(`}, "metabolites": {`)
	names := make([]string, 0, len(s.metabolites))
	for name := range s.metabolites {
		names = append(names, string(name))
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: %d", name, s.metabolites[SpeciesName(name)])
	}

	b.WriteString("} }")
	return b.String()
}
