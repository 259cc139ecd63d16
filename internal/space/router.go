package space

import "sort"

// RoutingTable maps a reaction address to an output channel index.
// Construction-time validation guarantees an entry for every address
// reachable from the enzyme catalog, so a missed lookup at runtime is
// an internal-consistency violation, not a recoverable error.
type RoutingTable map[ReactionAddress]int

// Route returns the output channel for the given address.
func (rt RoutingTable) Route(addr ReactionAddress) (int, bool) {
	channel, ok := rt[addr]
	return channel, ok
}

// Addresses returns the table's addresses in lexicographic order.
func (rt RoutingTable) Addresses() []ReactionAddress {
	out := make([]ReactionAddress, 0, len(rt))
	for addr := range rt {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// mergeMessages aggregates reaction triggers bound for the same
// reaction ID into a single message with the summed amount. Messages
// with a non-positive amount are dropped before aggregation; the
// selector never produces them, but the merge tolerates them.
func mergeMessages(msgs []Message) []Message {
	merged := make(map[string]Message)
	for _, m := range msgs {
		if m.Amount <= 0 {
			continue
		}
		if prev, ok := merged[m.ReactionID]; ok {
			prev.Amount += m.Amount
			merged[m.ReactionID] = prev
		} else {
			merged[m.ReactionID] = m
		}
	}

	rids := make([]string, 0, len(merged))
	for rid := range merged {
		rids = append(rids, rid)
	}
	sort.Strings(rids)

	out := make([]Message, 0, len(merged))
	for _, rid := range rids {
		out = append(out, merged[rid])
	}
	return out
}

// mergeBag applies mergeMessages to every channel of the bag.
func mergeBag(b Bag) Bag {
	out := make(Bag, len(b))
	for ch, msgs := range b {
		out[ch] = mergeMessages(msgs)
	}
	return out
}
