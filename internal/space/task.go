package space

import "sort"

// Status is the kind tag of a scheduled task.
type Status int

const (
	// Selecting marks the recurring reaction-selection round. It
	// carries no payload and its identity is the tag alone.
	Selecting Status = iota + 1
	// SendingReactions marks a pending emission of reaction triggers.
	SendingReactions
	// SendingBiomass marks a pending bulk stock emission to the
	// biomass address.
	SendingBiomass
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case Selecting:
		return "selecting"
	case SendingReactions:
		return "sending_reactions"
	case SendingBiomass:
		return "sending_biomass"
	default:
		return "unknown"
	}
}

// Bag groups outgoing messages by output channel index. A fresh bag is
// built per output call; the router only computes the index.
type Bag map[int][]Message

// Empty reports whether the bag holds no messages at all.
func (b Bag) Empty() bool {
	for _, msgs := range b {
		if len(msgs) > 0 {
			return false
		}
	}
	return true
}

// Channels returns the bag's channel indexes in ascending order.
func (b Bag) Channels() []int {
	out := make([]int, 0, len(b))
	for ch := range b {
		out = append(out, ch)
	}
	sort.Ints(out)
	return out
}

// Merge appends every message from other into b, channel by channel.
func (b Bag) Merge(other Bag) {
	for ch, msgs := range other {
		b[ch] = append(b[ch], msgs...)
	}
}

// Push appends a message to the given channel.
func (b Bag) Push(channel int, m Message) {
	b[channel] = append(b[channel], m)
}

// Equal reports whether both bags hold the same messages per channel,
// in the same order.
func (b Bag) Equal(other Bag) bool {
	if len(b) != len(other) {
		return false
	}
	for ch, msgs := range b {
		otherMsgs, ok := other[ch]
		if !ok || len(msgs) != len(otherMsgs) {
			return false
		}
		for i := range msgs {
			if !msgs[i].Equal(otherMsgs[i]) {
				return false
			}
		}
	}
	return true
}

// Task is a pending delayed action held by the scheduler. A Selecting
// task is payload-free; the sending kinds carry the messages to emit.
type Task struct {
	Kind Status
	Bags Bag
}

// NewTask builds a payload-free task of the given kind.
func NewTask(kind Status) Task {
	return Task{Kind: kind}
}

// Equal compares tasks. Selecting tasks compare by tag alone since the
// variant carries no payload; the sending kinds additionally compare
// their message bags.
func (t Task) Equal(o Task) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind == SendingReactions || t.Kind == SendingBiomass {
		return t.Bags.Equal(o.Bags)
	}
	return true
}
