package space

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Forever is the time-advance reported by an empty scheduler.
const Forever = time.Duration(math.MaxInt64)

type scheduledTask struct {
	timeLeft time.Duration
	task     Task
}

// TaskScheduler holds pending delayed tasks ordered by remaining time,
// ties broken by insertion order. Callers follow a peek-then-commit
// protocol: Update with the elapsed time once per step, read the due
// set through Next/IsInNext, then Advance to drop it.
type TaskScheduler struct {
	entries []scheduledTask
}

// NewTaskScheduler creates an empty scheduler.
func NewTaskScheduler() *TaskScheduler {
	return &TaskScheduler{}
}

// Add inserts a task with remaining time = delay. A negative delay is a
// programming-contract violation and panics.
func (ts *TaskScheduler) Add(delay time.Duration, task Task) {
	if delay < 0 {
		panic(fmt.Sprintf("task scheduler: negative delay %v for task %s", delay, task.Kind))
	}

	// Strictly-greater search point keeps insertion stable for ties.
	idx := sort.Search(len(ts.entries), func(i int) bool {
		return ts.entries[i].timeLeft > delay
	})

	ts.entries = append(ts.entries, scheduledTask{})
	copy(ts.entries[idx+1:], ts.entries[idx:])
	ts.entries[idx] = scheduledTask{timeLeft: delay, task: task}
}

// Update decrements every pending task's remaining time by elapsed.
// It must be called once per discrete step before any query. A negative
// elapsed time is a programming-contract violation and panics.
func (ts *TaskScheduler) Update(elapsed time.Duration) {
	if elapsed < 0 {
		panic(fmt.Sprintf("task scheduler: negative elapsed time %v", elapsed))
	}
	for i := range ts.entries {
		ts.entries[i].timeLeft -= elapsed
		if ts.entries[i].timeLeft < 0 {
			ts.entries[i].timeLeft = 0
		}
	}
}

// Advance removes every task whose remaining time has reached zero.
// It is the commit step of the peek-then-commit protocol; callers are
// expected to have consumed the due payloads through Next beforehand.
// With an empty due set it is a no-op.
func (ts *TaskScheduler) Advance() {
	due := 0
	for due < len(ts.entries) && ts.entries[due].timeLeft == 0 {
		due++
	}
	ts.entries = ts.entries[due:]
}

// Next returns the tasks that are due now. It does not mutate the queue.
func (ts *TaskScheduler) Next() []Task {
	var out []Task
	for _, entry := range ts.entries {
		if entry.timeLeft != 0 {
			break
		}
		out = append(out, entry.task)
	}
	return out
}

// Imminent returns the tasks sharing the minimum remaining time. Once
// a step has folded that minimum through Update, Imminent and Next
// coincide; before the fold it answers "what would be due at the next
// deadline" without mutating the queue.
func (ts *TaskScheduler) Imminent() []Task {
	if len(ts.entries) == 0 {
		return nil
	}
	minLeft := ts.entries[0].timeLeft
	var out []Task
	for _, entry := range ts.entries {
		if entry.timeLeft != minLeft {
			break
		}
		out = append(out, entry.task)
	}
	return out
}

// IsInNext reports whether a task equal to t is among the due set.
func (ts *TaskScheduler) IsInNext(t Task) bool {
	for _, entry := range ts.entries {
		if entry.timeLeft != 0 {
			break
		}
		if entry.task.Equal(t) {
			return true
		}
	}
	return false
}

// Exists reports whether a task equal to t is anywhere in the queue,
// due or not.
func (ts *TaskScheduler) Exists(t Task) bool {
	for _, entry := range ts.entries {
		if entry.task.Equal(t) {
			return true
		}
	}
	return false
}

// TimeAdvance returns the minimum remaining time over all pending
// tasks, or Forever when the scheduler is empty.
func (ts *TaskScheduler) TimeAdvance() time.Duration {
	if len(ts.entries) == 0 {
		return Forever
	}
	return ts.entries[0].timeLeft
}

// Len returns the number of pending tasks.
func (ts *TaskScheduler) Len() int {
	return len(ts.entries)
}
