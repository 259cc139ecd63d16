package space

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid space config: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "space config validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// ValidateSpaceConfig performs comprehensive validation of a SpaceConfig.
// A space must refuse to start on an incomplete catalog, so in
// particular every reaction address reachable from the enzyme catalog
// (and the biomass address, when set) must have a routing-table entry.
func ValidateSpaceConfig(cfg SpaceConfig) error {
	err := &ValidationError{}

	if cfg.ID == "" {
		err.Add("space id is required")
	}

	if cfg.IntervalTime == "" {
		err.Add("interval_time is required")
	} else if interval, parseErr := time.ParseDuration(cfg.IntervalTime); parseErr != nil {
		err.Add("invalid interval_time: " + parseErr.Error())
	} else if interval <= 0 {
		err.Add("interval_time must be positive")
	}

	if cfg.Volume <= 0 {
		err.Add("volume must be positive")
	}

	for name, amount := range cfg.Metabolites {
		if name == "" {
			err.Add("metabolite with empty species name")
		}
		if amount < 0 {
			err.Add(fmt.Sprintf("metabolite %s has negative amount %d", name, amount))
		}
	}

	routes := make(map[ReactionAddress]bool, len(cfg.RoutingTable))
	ports := make(map[int]bool, len(cfg.RoutingTable))
	for _, route := range cfg.RoutingTable {
		addr := ReactionAddress{Compartment: route.Cid, ReactionSet: route.Rsn}
		if addr.Empty() {
			err.Add("routing-table entry with empty address")
			continue
		}
		if routes[addr] {
			err.Add("duplicate routing-table entry for address " + addr.String())
		}
		routes[addr] = true
		if route.Port < 0 {
			err.Add(fmt.Sprintf("routing-table entry %s has negative port %d", addr, route.Port))
		}
		ports[route.Port] = true
	}

	enzymeIDs := make(map[string]bool, len(cfg.Enzymes))
	for i, enzyme := range cfg.Enzymes {
		prefix := fmt.Sprintf("enzyme at index %d", i)
		if enzyme.ID != "" {
			prefix = "enzyme '" + enzyme.ID + "'"
		}

		if enzyme.ID == "" {
			err.Add(prefix + ": enzyme id is required")
		} else if enzymeIDs[enzyme.ID] {
			err.Add("duplicate enzyme id: " + enzyme.ID)
		} else {
			enzymeIDs[enzyme.ID] = true
		}

		if enzyme.Amount <= 0 {
			err.Add(fmt.Sprintf("%s: amount must be positive, got %d", prefix, enzyme.Amount))
		}

		reactionIDs := make(map[string]bool, len(enzyme.Reactions))
		for _, reaction := range enzyme.Reactions {
			rPrefix := prefix + ": reaction '" + reaction.ID + "'"
			if reaction.ID == "" {
				err.Add(prefix + ": reaction id is required")
				continue
			}
			if reactionIDs[reaction.ID] {
				err.Add(prefix + ": duplicate reaction id: " + reaction.ID)
			}
			reactionIDs[reaction.ID] = true

			addr := ReactionAddress{Compartment: reaction.Address.Cid, ReactionSet: reaction.Address.Rsn}
			if addr.Empty() {
				err.Add(rPrefix + ": destination address is required")
			} else if !routes[addr] {
				err.Add(rPrefix + ": no routing-table entry for address " + addr.String())
			}

			if reaction.KonSTP <= 0 {
				err.Add(rPrefix + ": kon_stp must be positive")
			}
			if reaction.Reversible && reaction.KonPTS <= 0 {
				err.Add(rPrefix + ": kon_pts must be positive for a reversible reaction")
			}
			if len(reaction.Substrate) == 0 {
				err.Add(rPrefix + ": substrate stoichiometry is required")
			}
			for name, amount := range reaction.Substrate {
				if amount <= 0 {
					err.Add(fmt.Sprintf("%s: substrate %s must have positive amount, got %d", rPrefix, name, amount))
				}
			}
			if reaction.Reversible && len(reaction.Product) == 0 {
				err.Add(rPrefix + ": product stoichiometry is required for a reversible reaction")
			}
			for name, amount := range reaction.Product {
				if amount <= 0 {
					err.Add(fmt.Sprintf("%s: product %s must have positive amount, got %d", rPrefix, name, amount))
				}
			}
		}
	}

	if cfg.BiomassAddress != nil {
		addr := ReactionAddress{Compartment: cfg.BiomassAddress.Cid, ReactionSet: cfg.BiomassAddress.Rsn}
		if addr.Empty() {
			err.Add("biomass_address must not be empty when set")
		} else if !routes[addr] {
			err.Add("no routing-table entry for biomass address " + addr.String())
		}
		if cfg.BiomassInterval == "" {
			err.Add("biomass_interval is required when biomass_address is set")
		} else if interval, parseErr := time.ParseDuration(cfg.BiomassInterval); parseErr != nil {
			err.Add("invalid biomass_interval: " + parseErr.Error())
		} else if interval <= 0 {
			err.Add("biomass_interval must be positive")
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}
