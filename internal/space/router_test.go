package space

import "testing"

func TestRoutingTable_Route(t *testing.T) {
	rt := RoutingTable{
		{Compartment: "c", ReactionSet: "inner"}: 0,
		{Compartment: "c", ReactionSet: "outer"}: 1,
	}

	channel, ok := rt.Route(ReactionAddress{Compartment: "c", ReactionSet: "outer"})
	if !ok {
		t.Fatal("Expected route to exist")
	}
	if channel != 1 {
		t.Errorf("Expected channel 1, got %d", channel)
	}

	if _, ok := rt.Route(ReactionAddress{Compartment: "x", ReactionSet: "y"}); ok {
		t.Error("Expected unknown address to have no route")
	}
}

func TestRoutingTable_Addresses(t *testing.T) {
	rt := RoutingTable{
		{Compartment: "b", ReactionSet: "r"}: 0,
		{Compartment: "a", ReactionSet: "s"}: 1,
		{Compartment: "a", ReactionSet: "r"}: 2,
	}

	addrs := rt.Addresses()
	if len(addrs) != 3 {
		t.Fatalf("Expected 3 addresses, got %d", len(addrs))
	}

	want := []ReactionAddress{
		{Compartment: "a", ReactionSet: "r"},
		{Compartment: "a", ReactionSet: "s"},
		{Compartment: "b", ReactionSet: "r"},
	}
	for i := range want {
		if addrs[i] != want[i] {
			t.Errorf("Expected %v at index %d, got %v", want[i], i, addrs[i])
		}
	}
}

func TestMergeMessages_SumsByReactionID(t *testing.T) {
	msgs := []Message{
		{ReactionID: "r2", From: "s", Direction: STP, Amount: 1},
		{ReactionID: "r1", From: "s", Direction: STP, Amount: 1},
		{ReactionID: "r2", From: "s", Direction: STP, Amount: 3},
	}

	merged := mergeMessages(msgs)
	if len(merged) != 2 {
		t.Fatalf("Expected 2 merged messages, got %d", len(merged))
	}

	// Output is sorted by reaction ID
	if merged[0].ReactionID != "r1" || merged[0].Amount != 1 {
		t.Errorf("Expected r1 with amount 1, got %s amount %d", merged[0].ReactionID, merged[0].Amount)
	}
	if merged[1].ReactionID != "r2" || merged[1].Amount != 4 {
		t.Errorf("Expected r2 with amount 4, got %s amount %d", merged[1].ReactionID, merged[1].Amount)
	}
}

func TestMergeMessages_DropsNonPositive(t *testing.T) {
	msgs := []Message{
		{ReactionID: "r1", Amount: 0},
		{ReactionID: "r2", Amount: -3},
		{ReactionID: "r3", Amount: 1},
	}

	merged := mergeMessages(msgs)
	if len(merged) != 1 {
		t.Fatalf("Expected 1 surviving message, got %d", len(merged))
	}
	if merged[0].ReactionID != "r3" {
		t.Errorf("Expected r3 to survive, got %s", merged[0].ReactionID)
	}
}

func TestMergeMessages_Empty(t *testing.T) {
	if got := mergeMessages(nil); len(got) != 0 {
		t.Errorf("Expected no messages, got %d", len(got))
	}
}

func TestMergeBag(t *testing.T) {
	b := Bag{
		0: {
			{ReactionID: "r1", Amount: 1},
			{ReactionID: "r1", Amount: 2},
		},
		1: {
			{ReactionID: "r1", Amount: 5},
		},
	}

	merged := mergeBag(b)

	// Aggregation is per channel, never across channels
	if len(merged[0]) != 1 || merged[0][0].Amount != 3 {
		t.Errorf("Expected channel 0 merged to amount 3, got %v", merged[0])
	}
	if len(merged[1]) != 1 || merged[1][0].Amount != 5 {
		t.Errorf("Expected channel 1 untouched with amount 5, got %v", merged[1])
	}
}
