package space

import (
	"encoding/json"
	"fmt"
)

// Way is the direction a reaction fires in: substrate-to-product (STP)
// or, for reversible reactions, product-to-substrate (PTS).
type Way int

const (
	STP Way = iota
	PTS
)

// String returns the string representation of the direction.
func (w Way) String() string {
	switch w {
	case STP:
		return "stp"
	case PTS:
		return "pts"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the direction as its string form.
func (w Way) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

// UnmarshalJSON decodes a direction from its string form.
func (w *Way) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "stp":
		*w = STP
	case "pts":
		*w = PTS
	default:
		return fmt.Errorf("invalid reaction direction: %q", s)
	}
	return nil
}

// ReactionAddress identifies the destination of a triggered reaction:
// a compartment plus one of its reaction sets. The zero value (both
// fields empty) means "no destination".
type ReactionAddress struct {
	Compartment string `json:"cid"`
	ReactionSet string `json:"rsn"`
}

// Empty reports whether the address has no destination.
func (a ReactionAddress) Empty() bool {
	return a.Compartment == "" && a.ReactionSet == ""
}

// Less orders addresses lexicographically by (compartment, reaction set).
func (a ReactionAddress) Less(o ReactionAddress) bool {
	if a.Compartment != o.Compartment {
		return a.Compartment < o.Compartment
	}
	return a.ReactionSet < o.ReactionSet
}

// String returns the compact compartment_reactionSet form.
func (a ReactionAddress) String() string {
	return a.Compartment + "_" + a.ReactionSet
}

// ReactionInfo describes one reaction an enzyme kind can catalyze:
// where its triggers are delivered, what it consumes and produces, and
// its kinetic constants for both directions.
type ReactionInfo struct {
	ID             string
	Address        ReactionAddress
	SubstrateSctry Stock
	ProductSctry   Stock
	KonSTP         float64
	KonPTS         float64
	KoffSTP        float64
	KoffPTS        float64
	Reversible     bool
}

// Enzyme is a kind of catalyst present in a space. Amount is the number
// of catalytic units; each unit is evaluated as an independent
// stochastic actor during a selection round.
type Enzyme struct {
	ID               string
	Amount           int
	HandledReactions map[string]ReactionInfo
}
