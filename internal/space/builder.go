package space

import (
	"fmt"
	"time"
)

// BuildSpaceFromConfig validates cfg and assembles a ready-to-drive
// Space from it. Configuration errors are fatal here; the model never
// starts with an incomplete catalog or routing table.
func BuildSpaceFromConfig(cfg SpaceConfig) (*Space, error) {
	if err := ValidateSpaceConfig(cfg); err != nil {
		return nil, err
	}

	interval, err := time.ParseDuration(cfg.IntervalTime)
	if err != nil {
		return nil, fmt.Errorf("parsing interval_time: %w", err)
	}

	metabolites := make(Stock, len(cfg.Metabolites))
	for name, amount := range cfg.Metabolites {
		metabolites[SpeciesName(name)] = amount
	}

	enzymes := make(map[string]Enzyme, len(cfg.Enzymes))
	for _, ec := range cfg.Enzymes {
		handled := make(map[string]ReactionInfo, len(ec.Reactions))
		for _, rc := range ec.Reactions {
			handled[rc.ID] = ReactionInfo{
				ID: rc.ID,
				Address: ReactionAddress{
					Compartment: rc.Address.Cid,
					ReactionSet: rc.Address.Rsn,
				},
				SubstrateSctry: stockFromConfig(rc.Substrate),
				ProductSctry:   stockFromConfig(rc.Product),
				KonSTP:         rc.KonSTP,
				KonPTS:         rc.KonPTS,
				KoffSTP:        rc.KoffSTP,
				KoffPTS:        rc.KoffPTS,
				Reversible:     rc.Reversible,
			}
		}
		enzymes[ec.ID] = Enzyme{
			ID:               ec.ID,
			Amount:           ec.Amount,
			HandledReactions: handled,
		}
	}

	routes := make(RoutingTable, len(cfg.RoutingTable))
	for _, route := range cfg.RoutingTable {
		routes[ReactionAddress{Compartment: route.Cid, ReactionSet: route.Rsn}] = route.Port
	}

	s := NewSpace(cfg.ID, interval, metabolites, enzymes, routes, cfg.Volume, cfg.Seed)

	if cfg.BiomassAddress != nil {
		biomassInterval, err := time.ParseDuration(cfg.BiomassInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing biomass_interval: %w", err)
		}
		s.SetBiomassTarget(ReactionAddress{
			Compartment: cfg.BiomassAddress.Cid,
			ReactionSet: cfg.BiomassAddress.Rsn,
		}, biomassInterval)
	}

	return s, nil
}

func stockFromConfig(amounts map[string]int) Stock {
	out := make(Stock, len(amounts))
	for name, amount := range amounts {
		out[SpeciesName(name)] = amount
	}
	return out
}
