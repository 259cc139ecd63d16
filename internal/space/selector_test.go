package space

import (
	"math"
	"testing"
	"time"
)

// saturatedSpace builds a single-enzyme space whose binding propensity
// rounds to exactly 1.0 in float64, so every unit trial fires.
func saturatedSpace(t *testing.T, enzymeUnits int, stock Stock) *Space {
	t.Helper()

	addr := ReactionAddress{Compartment: "c", ReactionSet: "inner"}
	enzymes := map[string]Enzyme{
		"enz1": {
			ID:     "enz1",
			Amount: enzymeUnits,
			HandledReactions: map[string]ReactionInfo{
				"r1": {
					ID:             "r1",
					Address:        addr,
					SubstrateSctry: Stock{"A": 1},
					ProductSctry:   Stock{"B": 1},
					KonSTP:         1e20,
				},
			},
		},
	}
	routes := RoutingTable{addr: 0}

	return NewSpace("test", 100*time.Millisecond, stock, enzymes, routes, 1e-23, 42)
}

func TestBindingThreshold_Saturated(t *testing.T) {
	s := saturatedSpace(t, 1, Stock{"A": 10})

	// concentration*kon is far above 1/epsilon, so exp(-1/x) rounds to 1
	got := s.bindingThreshold(Stock{"A": 1}, 1e20)
	if got != 1.0 {
		t.Errorf("Expected propensity exactly 1.0, got %g", got)
	}
}

func TestBindingThreshold_ZeroStock(t *testing.T) {
	s := saturatedSpace(t, 1, Stock{"A": 0})

	if got := s.bindingThreshold(Stock{"A": 1}, 1e20); got != 0 {
		t.Errorf("Expected propensity 0 with zero stock, got %g", got)
	}
}

func TestBindingThreshold_SmallConcentration(t *testing.T) {
	s := saturatedSpace(t, 1, Stock{"A": 10})

	// With a modest kon the propensity is strictly between 0 and 1
	got := s.bindingThreshold(Stock{"A": 1}, 0.8)
	if got <= 0 || got >= 1 {
		t.Errorf("Expected propensity in (0, 1), got %g", got)
	}

	concentration := 10.0 / (avogadro * 1e-23)
	want := math.Exp(-(1.0 / (concentration * 0.8)))
	if got != want {
		t.Errorf("Expected propensity %g, got %g", want, got)
	}
}

func TestEnough(t *testing.T) {
	s := saturatedSpace(t, 1, Stock{"A": 3, "B": 0})

	tests := []struct {
		name  string
		sctry Stock
		want  bool
	}{
		{"covered", Stock{"A": 2}, true},
		{"exactly covered", Stock{"A": 3}, true},
		{"short", Stock{"A": 4}, false},
		{"zero stock species", Stock{"B": 1}, false},
		{"non-local species skipped", Stock{"A": 1, "X": 100}, true},
		{"all non-local", Stock{"X": 1}, false},
		{"mixed with shortfall", Stock{"A": 4, "X": 1}, false},
	}

	for _, tt := range tests {
		if got := s.enough(tt.sctry); got != tt.want {
			t.Errorf("%s: enough(%v) = %v, want %v", tt.name, tt.sctry, got, tt.want)
		}
	}
}

func TestConsume(t *testing.T) {
	s := saturatedSpace(t, 1, Stock{"A": 3, "B": 5})

	s.consume(Stock{"A": 2, "X": 100})

	if s.metabolites["A"] != 1 {
		t.Errorf("Expected A=1 after consume, got %d", s.metabolites["A"])
	}
	// Non-local species are not the space's responsibility
	if _, ok := s.metabolites["X"]; ok {
		t.Error("Expected non-local species not to appear in stock")
	}
}

func TestConsume_ShortfallPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic on insufficient stock")
		}
	}()

	s := saturatedSpace(t, 1, Stock{"A": 1})
	s.consume(Stock{"A": 2})
}

func TestPickReaction_ForwardPartition(t *testing.T) {
	enzyme := Enzyme{
		ID: "enz1",
		HandledReactions: map[string]ReactionInfo{
			"r1": {ID: "r1"},
			"r2": {ID: "r2"},
		},
	}
	sons := map[string]float64{"r1": 0.3, "r2": 0.4}
	pons := map[string]float64{"r1": 0, "r2": 0.2}
	order := []string{"r1", "r2"}

	tests := []struct {
		rv      float64
		wantID  string
		wantWay Way
		wantOK  bool
	}{
		{0.0, "r1", STP, true},
		{0.29, "r1", STP, true},
		{0.3, "r2", STP, true},
		{0.69, "r2", STP, true},
		{0.7, "r2", PTS, true},  // reverse band starts after all forward bands
		{0.89, "r2", PTS, true},
		{0.9, "", STP, false},   // residual mass: no reaction
		{0.99, "", STP, false},
	}

	for _, tt := range tests {
		re, way, ok := pickReaction(enzyme, sons, pons, order, tt.rv)
		if ok != tt.wantOK {
			t.Errorf("rv=%v: ok=%v, want %v", tt.rv, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if re.ID != tt.wantID || way != tt.wantWay {
			t.Errorf("rv=%v: picked %s/%v, want %s/%v", tt.rv, re.ID, way, tt.wantID, tt.wantWay)
		}
	}
}

func TestNormalize(t *testing.T) {
	sons := map[string]float64{"r1": 0.8, "r2": 0.6}
	pons := map[string]float64{"r1": 0.6}

	total := sumAll(sons) + sumAll(pons)
	if total != 2.0 {
		t.Fatalf("Expected total 2.0, got %g", total)
	}

	normalize(sons, total)
	normalize(pons, total)

	if got := sumAll(sons) + sumAll(pons); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("Expected normalized total 1.0, got %g", got)
	}
	if sons["r1"] != 0.4 {
		t.Errorf("Expected r1 normalized to 0.4, got %g", sons["r1"])
	}
}

func TestSelectReactions_SaturatedFiresEveryUnit(t *testing.T) {
	s := saturatedSpace(t, 3, Stock{"A": 10})

	bags := make(Bag)
	s.selectReactions(bags)

	// Every unit fires with propensity 1, one trigger each
	if len(bags[0]) != 3 {
		t.Fatalf("Expected 3 trigger messages, got %d", len(bags[0]))
	}
	for _, m := range bags[0] {
		if m.ReactionID != "r1" || m.Amount != 1 || m.Direction != STP {
			t.Errorf("Unexpected trigger %+v", m)
		}
		if m.From != "test" {
			t.Errorf("Expected origin 'test', got %q", m.From)
		}
	}

	// Substrate debited once per firing
	if s.metabolites["A"] != 7 {
		t.Errorf("Expected A=7 after 3 firings, got %d", s.metabolites["A"])
	}
}

func TestSelectReactions_NoStockNoTriggers(t *testing.T) {
	s := saturatedSpace(t, 3, Stock{"A": 0})

	bags := make(Bag)
	s.selectReactions(bags)

	if !bags.Empty() {
		t.Errorf("Expected no triggers with empty stock, got %v", bags)
	}
}

func TestSelectReactions_StockLimitsFirings(t *testing.T) {
	// 5 units but only 2 substrate: after two firings the propensity
	// collapses to zero and the remaining units stay idle
	s := saturatedSpace(t, 5, Stock{"A": 2})

	bags := make(Bag)
	s.selectReactions(bags)

	if len(bags[0]) != 2 {
		t.Fatalf("Expected exactly 2 triggers, got %d", len(bags[0]))
	}
	if s.metabolites["A"] != 0 {
		t.Errorf("Expected stock exhausted, got A=%d", s.metabolites["A"])
	}
}

func TestUnfoldEnzymes(t *testing.T) {
	addr := ReactionAddress{Compartment: "c", ReactionSet: "inner"}
	enzymes := map[string]Enzyme{
		"b-enz": {ID: "b-enz", Amount: 2},
		"a-enz": {ID: "a-enz", Amount: 1},
	}
	s := NewSpace("test", time.Millisecond, Stock{}, enzymes, RoutingTable{addr: 0}, 1e-15, 1)

	units := s.unfoldEnzymes()
	if len(units) != 3 {
		t.Fatalf("Expected 3 units, got %d", len(units))
	}

	// Expansion order is sorted by kind before shuffling
	want := []string{"a-enz", "b-enz", "b-enz"}
	for i := range want {
		if units[i] != want[i] {
			t.Errorf("Expected unit %q at index %d, got %q", want[i], i, units[i])
		}
	}
}
