package space

import (
	"fmt"
	"math"
	"sort"
)

// avogadro is the constant used to turn integer stock amounts into
// concentrations over the compartment volume.
const avogadro = 6.0221415e23

// selectReactions runs one reaction-selection round. Every enzyme unit
// gets one independent stochastic trial, in a uniformly shuffled order:
// the unit either triggers one of its reactions (pushing a trigger
// message into bags and debiting the consumed stock immediately) or
// does nothing this round.
func (s *Space) selectReactions(bags Bag) {
	unitIDs := s.unfoldEnzymes()
	s.rng.Shuffle(len(unitIDs), func(i, j int) {
		unitIDs[i], unitIDs[j] = unitIDs[j], unitIDs[i]
	})

	for _, eid := range unitIDs {
		enzyme := s.enzymes[eid]
		sons, pons, order := s.collectPropensities(enzyme.HandledReactions)

		// The aggregate partition must not exceed 1. Anything below 1
		// leaves residual "no reaction" probability mass.
		total := sumAll(sons) + sumAll(pons)
		if total > 1 {
			normalize(sons, total)
			normalize(pons, total)
		}

		rv := s.rng.Float64()
		re, direction, ok := pickReaction(enzyme, sons, pons, order, rv)
		if !ok {
			continue
		}

		s.pushToChannel(bags, re.Address, Message{
			ReactionID: re.ID,
			From:       s.id,
			Direction:  direction,
			Amount:     1,
		})

		if direction == STP {
			s.consume(re.SubstrateSctry)
		} else {
			s.consume(re.ProductSctry)
		}
	}
}

// unfoldEnzymes expands every enzyme kind into one entry per catalytic
// unit, so each physical copy gets its own trial.
func (s *Space) unfoldEnzymes() []string {
	kinds := make([]string, 0, len(s.enzymes))
	for id := range s.enzymes {
		kinds = append(kinds, id)
	}
	sort.Strings(kinds)

	var units []string
	for _, id := range kinds {
		for i := 0; i < s.enzymes[id].Amount; i++ {
			units = append(units, id)
		}
	}
	return units
}

// collectPropensities computes the forward (sons) and, for reversible
// reactions with enough product stock, reverse (pons) binding
// propensities of every reaction the enzyme kind handles. The returned
// order is the reactions' natural ID order, which fixes the partition
// layout of the random draw.
func (s *Space) collectPropensities(reactions map[string]ReactionInfo) (sons, pons map[string]float64, order []string) {
	sons = make(map[string]float64, len(reactions))
	pons = make(map[string]float64, len(reactions))
	order = make([]string, 0, len(reactions))

	for rid := range reactions {
		order = append(order, rid)
	}
	sort.Strings(order)

	for _, rid := range order {
		re := reactions[rid]

		if s.enough(re.SubstrateSctry) {
			sons[rid] = s.bindingThreshold(re.SubstrateSctry, re.KonSTP)
		} else {
			sons[rid] = 0
		}

		if re.Reversible && s.enough(re.ProductSctry) {
			pons[rid] = s.bindingThreshold(re.ProductSctry, re.KonPTS)
		} else {
			pons[rid] = 0
		}
	}
	return sons, pons, order
}

// pickReaction partitions [0,1) into consecutive sub-intervals, one per
// forward propensity in natural order followed by one per reverse
// propensity, and selects the reaction whose sub-interval contains rv.
// Falling past all sub-intervals means the unit triggers nothing.
func pickReaction(enzyme Enzyme, sons, pons map[string]float64, order []string, rv float64) (ReactionInfo, Way, bool) {
	partial := 0.0
	for _, rid := range order {
		partial += sons[rid]
		if rv < partial {
			return enzyme.HandledReactions[rid], STP, true
		}
	}
	for _, rid := range order {
		partial += pons[rid]
		if rv < partial {
			return enzyme.HandledReactions[rid], PTS, true
		}
	}
	return ReactionInfo{}, STP, false
}

// bindingThreshold derives the probability-like binding propensity for
// one reaction direction from the local concentration of its
// stoichiometry and the kinetic constant kon.
func (s *Space) bindingThreshold(sctry Stock, kon float64) float64 {
	concentration := 1.0
	for name := range sctry {
		if amount, ok := s.metabolites[name]; ok {
			concentration *= float64(amount) / (avogadro * s.volume)
		}
	}
	if concentration == 0 {
		return 0
	}
	return math.Exp(-(1.0 / (concentration * kon)))
}

// enough reports whether the local stock can cover the stoichiometry.
// Species the space does not hold locally are not its responsibility
// and are skipped; at least one species must be local for the check to
// pass.
func (s *Space) enough(sctry Stock) bool {
	anyLocal := false
	for name, required := range sctry {
		amount, ok := s.metabolites[name]
		if !ok {
			continue
		}
		if amount < required {
			return false
		}
		anyLocal = true
	}
	return anyLocal
}

// consume debits the stoichiometry from local stock. The propensity
// check already guaranteed sufficiency, so a shortfall here means the
// catalog or the stock was altered out from under the selector.
func (s *Space) consume(sctry Stock) {
	for name, required := range sctry {
		amount, ok := s.metabolites[name]
		if !ok {
			continue
		}
		if amount < required {
			panic(fmt.Sprintf("space %s: consuming %d %s with only %d in stock", s.id, required, name, amount))
		}
		s.metabolites[name] = amount - required
	}
}

func sumAll(ons map[string]float64) float64 {
	total := 0.0
	for _, on := range ons {
		total += on
	}
	return total
}

func normalize(ons map[string]float64, total float64) {
	for rid := range ons {
		ons[rid] /= total
	}
}
