package space

// SpeciesName is the name/identifier of a metabolite species.
type SpeciesName string

// Stock maps species to non-negative integer amounts. Amounts are only
// mutated through the space model's own credit/debit paths; a negative
// amount is an internal-consistency violation, never a valid state.
type Stock map[SpeciesName]int

// Merge adds every amount from other into s, inserting entries for
// species that s does not hold yet.
func (s Stock) Merge(other Stock) {
	for name, amount := range other {
		if _, ok := s[name]; ok {
			s[name] += amount
		} else {
			s[name] = amount
		}
	}
}

// HasPositive reports whether at least one species has a positive amount.
func (s Stock) HasPositive() bool {
	for _, amount := range s {
		if amount > 0 {
			return true
		}
	}
	return false
}

// Positive returns a copy of s holding only the entries with amount > 0.
func (s Stock) Positive() Stock {
	out := make(Stock)
	for name, amount := range s {
		if amount > 0 {
			out[name] = amount
		}
	}
	return out
}

// Clone returns an independent copy of s.
func (s Stock) Clone() Stock {
	out := make(Stock, len(s))
	for name, amount := range s {
		out[name] = amount
	}
	return out
}

// Equal reports whether s and other hold exactly the same amounts.
func (s Stock) Equal(other Stock) bool {
	if len(s) != len(other) {
		return false
	}
	for name, amount := range s {
		if other[name] != amount {
			return false
		}
	}
	return true
}
