package space

// Message is the unit exchanged between compartments. A reaction
// trigger carries a reaction ID, origin, direction and amount; a bulk
// stock transfer carries a Metabolites delta instead. The two request
// flags mark control messages that ask the receiving space to flush its
// stock to the biomass address or to dump its state.
type Message struct {
	ReactionID     string `json:"rid,omitempty"`
	From           string `json:"from,omitempty"`
	Direction      Way    `json:"direction"`
	Amount         int    `json:"amount,omitempty"`
	Metabolites    Stock  `json:"metabolites,omitempty"`
	BiomassRequest bool   `json:"biomass_request,omitempty"`
	ShowRequest    bool   `json:"show_request,omitempty"`
}

// NewStockMessage builds a bulk stock-transfer message.
func NewStockMessage(from string, metabolites Stock) Message {
	return Message{From: from, Metabolites: metabolites}
}

// NewBiomassRequest builds a control message asking the receiving space
// to flush its stock to the biomass address.
func NewBiomassRequest(from string) Message {
	return Message{From: from, BiomassRequest: true}
}

// NewShowRequest builds a control message asking the receiving space to
// dump its state through its logger.
func NewShowRequest(from string) Message {
	return Message{From: from, ShowRequest: true}
}

// Equal reports whether two messages carry exactly the same content.
func (m Message) Equal(o Message) bool {
	return m.ReactionID == o.ReactionID &&
		m.From == o.From &&
		m.Direction == o.Direction &&
		m.Amount == o.Amount &&
		m.BiomassRequest == o.BiomassRequest &&
		m.ShowRequest == o.ShowRequest &&
		m.Metabolites.Equal(o.Metabolites)
}
