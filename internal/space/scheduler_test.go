package space

import (
	"testing"
	"time"
)

func TestTaskScheduler_EmptyTimeAdvance(t *testing.T) {
	ts := NewTaskScheduler()

	if ta := ts.TimeAdvance(); ta != Forever {
		t.Errorf("Expected Forever for empty scheduler, got %v", ta)
	}

	if ts.Len() != 0 {
		t.Errorf("Expected empty scheduler, got %d tasks", ts.Len())
	}
}

func TestTaskScheduler_AddAndTimeAdvance(t *testing.T) {
	ts := NewTaskScheduler()
	ts.Add(100*time.Millisecond, NewTask(Selecting))
	ts.Add(50*time.Millisecond, NewTask(SendingReactions))

	if ta := ts.TimeAdvance(); ta != 50*time.Millisecond {
		t.Errorf("Expected time advance 50ms, got %v", ta)
	}

	if ts.Len() != 2 {
		t.Errorf("Expected 2 tasks, got %d", ts.Len())
	}
}

func TestTaskScheduler_UpdateThenNext(t *testing.T) {
	ts := NewTaskScheduler()
	ts.Add(100*time.Millisecond, NewTask(Selecting))
	ts.Add(200*time.Millisecond, NewTask(SendingReactions))

	// Nothing is due before its remaining time reaches zero
	if next := ts.Next(); len(next) != 0 {
		t.Errorf("Expected no due tasks, got %d", len(next))
	}

	ts.Update(100 * time.Millisecond)

	next := ts.Next()
	if len(next) != 1 {
		t.Fatalf("Expected 1 due task, got %d", len(next))
	}
	if next[0].Kind != Selecting {
		t.Errorf("Expected Selecting due, got %v", next[0].Kind)
	}

	if ta := ts.TimeAdvance(); ta != 0 {
		t.Errorf("Expected time advance 0 with a due task, got %v", ta)
	}
}

func TestTaskScheduler_UpdateClampsAtZero(t *testing.T) {
	ts := NewTaskScheduler()
	ts.Add(10*time.Millisecond, NewTask(Selecting))

	// Overshooting the remaining time clamps at zero instead of going
	// negative
	ts.Update(time.Second)

	if ta := ts.TimeAdvance(); ta != 0 {
		t.Errorf("Expected time advance 0 after overshoot, got %v", ta)
	}

	if !ts.IsInNext(NewTask(Selecting)) {
		t.Error("Expected Selecting to be due after overshoot")
	}
}

func TestTaskScheduler_AdvanceDropsDueSet(t *testing.T) {
	ts := NewTaskScheduler()
	ts.Add(50*time.Millisecond, NewTask(Selecting))
	ts.Add(50*time.Millisecond, NewTask(SendingReactions))
	ts.Add(100*time.Millisecond, NewTask(SendingBiomass))

	ts.Update(50 * time.Millisecond)

	if got := len(ts.Next()); got != 2 {
		t.Fatalf("Expected 2 due tasks, got %d", got)
	}

	ts.Advance()

	if ts.Len() != 1 {
		t.Errorf("Expected 1 remaining task, got %d", ts.Len())
	}

	if ta := ts.TimeAdvance(); ta != 50*time.Millisecond {
		t.Errorf("Expected 50ms left on the survivor, got %v", ta)
	}
}

func TestTaskScheduler_AdvanceEmptyIsNoOp(t *testing.T) {
	ts := NewTaskScheduler()
	ts.Advance()

	if ts.Len() != 0 {
		t.Errorf("Expected empty scheduler after no-op advance, got %d", ts.Len())
	}

	// Advance with nothing due leaves pending tasks alone
	ts.Add(time.Second, NewTask(Selecting))
	ts.Advance()

	if ts.Len() != 1 {
		t.Errorf("Expected pending task to survive advance, got %d tasks", ts.Len())
	}
}

func TestTaskScheduler_TieStability(t *testing.T) {
	first := Task{Kind: SendingReactions, Bags: Bag{0: {{ReactionID: "r1", Amount: 1}}}}
	second := Task{Kind: SendingReactions, Bags: Bag{0: {{ReactionID: "r2", Amount: 1}}}}

	ts := NewTaskScheduler()
	ts.Add(10*time.Millisecond, first)
	ts.Add(10*time.Millisecond, second)

	ts.Update(10 * time.Millisecond)

	next := ts.Next()
	if len(next) != 2 {
		t.Fatalf("Expected 2 due tasks, got %d", len(next))
	}

	// Equal delays keep insertion order
	if !next[0].Equal(first) || !next[1].Equal(second) {
		t.Error("Expected ties to preserve insertion order")
	}
}

func TestTaskScheduler_Imminent(t *testing.T) {
	ts := NewTaskScheduler()
	ts.Add(30*time.Millisecond, NewTask(Selecting))
	ts.Add(30*time.Millisecond, NewTask(SendingReactions))
	ts.Add(60*time.Millisecond, NewTask(SendingBiomass))

	// Imminent answers before any Update has folded the delay
	imminent := ts.Imminent()
	if len(imminent) != 2 {
		t.Fatalf("Expected 2 imminent tasks, got %d", len(imminent))
	}
	if imminent[0].Kind != Selecting || imminent[1].Kind != SendingReactions {
		t.Error("Expected the 30ms pair to be imminent")
	}

	// After the fold, Imminent and Next agree
	ts.Update(30 * time.Millisecond)
	if len(ts.Next()) != len(ts.Imminent()) {
		t.Error("Expected Next and Imminent to coincide once the delay is folded")
	}
}

func TestTaskScheduler_ImminentEmpty(t *testing.T) {
	ts := NewTaskScheduler()
	if got := ts.Imminent(); got != nil {
		t.Errorf("Expected nil imminent set for empty scheduler, got %v", got)
	}
}

func TestTaskScheduler_IsInNextAndExists(t *testing.T) {
	ts := NewTaskScheduler()
	ts.Add(100*time.Millisecond, NewTask(Selecting))

	// Pending but not due: Exists sees it, IsInNext does not
	if ts.IsInNext(NewTask(Selecting)) {
		t.Error("Expected Selecting not due yet")
	}
	if !ts.Exists(NewTask(Selecting)) {
		t.Error("Expected Selecting to exist in the queue")
	}

	ts.Update(100 * time.Millisecond)

	if !ts.IsInNext(NewTask(Selecting)) {
		t.Error("Expected Selecting to be due after update")
	}
}

func TestTaskScheduler_ExistsComparesPayload(t *testing.T) {
	withBag := Task{Kind: SendingReactions, Bags: Bag{0: {{ReactionID: "r1", Amount: 1}}}}
	otherBag := Task{Kind: SendingReactions, Bags: Bag{0: {{ReactionID: "r2", Amount: 1}}}}

	ts := NewTaskScheduler()
	ts.Add(10*time.Millisecond, withBag)

	if !ts.Exists(withBag) {
		t.Error("Expected identical sending task to be found")
	}
	if ts.Exists(otherBag) {
		t.Error("Expected sending task with a different bag not to match")
	}
}

func TestTaskScheduler_AddNegativeDelayPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic on negative delay")
		}
	}()

	ts := NewTaskScheduler()
	ts.Add(-time.Millisecond, NewTask(Selecting))
}

func TestTaskScheduler_UpdateNegativeElapsedPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic on negative elapsed time")
		}
	}()

	ts := NewTaskScheduler()
	ts.Add(time.Millisecond, NewTask(Selecting))
	ts.Update(-time.Millisecond)
}

func TestTaskScheduler_OrderedInsertion(t *testing.T) {
	ts := NewTaskScheduler()
	ts.Add(300*time.Millisecond, NewTask(SendingBiomass))
	ts.Add(100*time.Millisecond, NewTask(Selecting))
	ts.Add(200*time.Millisecond, NewTask(SendingReactions))

	ts.Update(100 * time.Millisecond)
	next := ts.Next()
	if len(next) != 1 || next[0].Kind != Selecting {
		t.Fatalf("Expected Selecting first, got %v", next)
	}
	ts.Advance()

	ts.Update(100 * time.Millisecond)
	next = ts.Next()
	if len(next) != 1 || next[0].Kind != SendingReactions {
		t.Fatalf("Expected SendingReactions second, got %v", next)
	}
	ts.Advance()

	ts.Update(100 * time.Millisecond)
	next = ts.Next()
	if len(next) != 1 || next[0].Kind != SendingBiomass {
		t.Fatalf("Expected SendingBiomass last, got %v", next)
	}
}
