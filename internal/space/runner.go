package space

import (
	"fmt"
	"sort"
	"time"
)

// TransitionKind names which transition function a runner step executed.
type TransitionKind string

const (
	TransitionInternal  TransitionKind = "internal"
	TransitionExternal  TransitionKind = "external"
	TransitionConfluent TransitionKind = "confluent"
)

// StepInfo summarizes one processed discrete event.
type StepInfo struct {
	At        time.Duration  `json:"at"`
	Kind      TransitionKind `json:"kind"`
	Output    Bag            `json:"output,omitempty"`
	Delivered int            `json:"delivered,omitempty"`
}

type pendingInput struct {
	at   time.Duration
	msgs []Message
}

// Runner is the discrete-event driver for a single space. It keeps a
// virtual clock and a time-ordered inbox of external message batches,
// and executes the classic protocol: jump to the next event, pull the
// output if the model's own deadline fires, then run the matching
// transition function. Like the space itself it is meant for
// single-goroutine use.
type Runner struct {
	space     *Space
	clock     time.Duration
	inbox     []pendingInput
	listeners []func(StepInfo)
}

// NewRunner creates a driver for the given space.
func NewRunner(s *Space) *Runner {
	return &Runner{space: s}
}

// Space returns the driven space.
func (r *Runner) Space() *Space {
	return r.space
}

// Clock returns the current virtual time.
func (r *Runner) Clock() time.Duration {
	return r.clock
}

// OnStep registers a callback invoked after every processed event.
func (r *Runner) OnStep(fn func(StepInfo)) {
	r.listeners = append(r.listeners, fn)
}

// InjectAt queues a message batch for delivery at virtual time at.
// Delivery in the past is rejected.
func (r *Runner) InjectAt(at time.Duration, msgs ...Message) error {
	if at < r.clock {
		return fmt.Errorf("cannot inject at %v, clock is already at %v", at, r.clock)
	}
	if len(msgs) == 0 {
		return nil
	}
	idx := sort.Search(len(r.inbox), func(i int) bool {
		return r.inbox[i].at > at
	})
	r.inbox = append(r.inbox, pendingInput{})
	copy(r.inbox[idx+1:], r.inbox[idx:])
	r.inbox[idx] = pendingInput{at: at, msgs: msgs}
	return nil
}

// InjectAfter queues a message batch for delivery delay from now.
func (r *Runner) InjectAfter(delay time.Duration, msgs ...Message) error {
	if delay < 0 {
		return fmt.Errorf("cannot inject with negative delay %v", delay)
	}
	return r.InjectAt(r.clock+delay, msgs...)
}

// Step processes the next discrete event: the earliest of the model's
// own deadline and the first queued external batch. When both coincide
// the output is pulled and the confluent transition resolves the tie.
func (r *Runner) Step() StepInfo {
	internalAt := Forever
	if ta := r.space.TimeAdvance(); ta != Forever {
		internalAt = r.clock + ta
	}

	if len(r.inbox) > 0 && r.inbox[0].at <= internalAt {
		at := r.inbox[0].at
		msgs := r.takeInboxAt(at)

		if at == internalAt {
			out := r.space.Output()
			r.clock = at
			r.space.ConfluentTransition(msgs)
			return r.emit(StepInfo{At: at, Kind: TransitionConfluent, Output: out, Delivered: len(msgs)})
		}

		elapsed := at - r.clock
		r.clock = at
		r.space.ExternalTransition(elapsed, msgs)
		return r.emit(StepInfo{At: at, Kind: TransitionExternal, Delivered: len(msgs)})
	}

	out := r.space.Output()
	r.clock = internalAt
	r.space.InternalTransition()
	return r.emit(StepInfo{At: internalAt, Kind: TransitionInternal, Output: out})
}

// Idle reports whether no further event can occur: the space is
// passive and no external batch is queued.
func (r *Runner) Idle() bool {
	return r.space.TimeAdvance() == Forever && len(r.inbox) == 0
}

// Run processes up to maxEvents events and returns how many ran. It
// stops early once the system goes idle.
func (r *Runner) Run(maxEvents int) int {
	for i := 0; i < maxEvents; i++ {
		if r.Idle() {
			return i
		}
		r.Step()
	}
	return maxEvents
}

// RunUntil processes events until the virtual clock would pass t, and
// returns how many events ran. Events scheduled exactly at t still run.
func (r *Runner) RunUntil(t time.Duration) int {
	ran := 0
	for {
		if r.Idle() {
			return ran
		}
		ta := r.space.TimeAdvance()
		next := Forever
		if ta != Forever {
			next = r.clock + ta
		}
		if len(r.inbox) > 0 && r.inbox[0].at < next {
			next = r.inbox[0].at
		}
		if next > t {
			return ran
		}
		r.Step()
		ran++
	}
}

// takeInboxAt removes and merges every batch queued exactly at time at.
func (r *Runner) takeInboxAt(at time.Duration) []Message {
	var msgs []Message
	for len(r.inbox) > 0 && r.inbox[0].at == at {
		msgs = append(msgs, r.inbox[0].msgs...)
		r.inbox = r.inbox[1:]
	}
	return msgs
}

func (r *Runner) emit(info StepInfo) StepInfo {
	for _, fn := range r.listeners {
		fn(info)
	}
	return info
}
