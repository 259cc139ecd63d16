package space

// AddressConfig is the JSON shape of a reaction address.
type AddressConfig struct {
	Cid string `json:"cid"`
	Rsn string `json:"rsn"`
}

// ReactionConfig is the JSON shape of one reaction handled by an enzyme.
// Stoichiometries map species name to the integer amount consumed
// (substrate) or produced (product) by one reaction event.
type ReactionConfig struct {
	ID         string         `json:"id"`
	Address    AddressConfig  `json:"address"`
	KonSTP     float64        `json:"kon_stp"`
	KonPTS     float64        `json:"kon_pts"`
	KoffSTP    float64        `json:"koff_stp"`
	KoffPTS    float64        `json:"koff_pts"`
	Reversible bool           `json:"reversible"`
	Substrate  map[string]int `json:"substrate,omitempty"`
	Product    map[string]int `json:"product,omitempty"`
}

// EnzymeConfig is the JSON shape of one enzyme kind.
type EnzymeConfig struct {
	ID        string           `json:"id"`
	Amount    int              `json:"amount"`
	Reactions []ReactionConfig `json:"reactions"`
}

// RouteConfig is the JSON shape of one routing-table entry.
type RouteConfig struct {
	Cid  string `json:"cid"`
	Rsn  string `json:"rsn"`
	Port int    `json:"port"`
}

// SpaceConfig is the fully-resolved construction record of a space.
// Durations are Go duration strings (e.g. "100ms"). A zero seed means
// the space seeds its private generator from the wall clock.
type SpaceConfig struct {
	ID              string           `json:"id"`
	IntervalTime    string           `json:"interval_time"`
	Volume          float64          `json:"volume"`
	Seed            int64            `json:"seed,omitempty"`
	Metabolites     map[string]int   `json:"metabolites,omitempty"`
	Enzymes         []EnzymeConfig   `json:"enzymes,omitempty"`
	RoutingTable    []RouteConfig    `json:"routing_table,omitempty"`
	BiomassAddress  *AddressConfig   `json:"biomass_address,omitempty"`
	BiomassInterval string           `json:"biomass_interval,omitempty"`
}
