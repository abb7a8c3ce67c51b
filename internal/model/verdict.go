package model

// Verdict is the classifier output for one profile.
// It is derived from a ProfileRecord and never persisted.
type Verdict struct {
	// Suspicious is true when at least one rule matched.
	Suspicious bool `json:"suspicious"`

	// Reasons lists the matching rules in evaluation order.
	Reasons []string `json:"reasons"`
}

// Resolution is the outcome of resolving a single athlete identifier.
type Resolution struct {
	// Record is the scraped (or cached) profile. On fetch failure it is the
	// empty record for the identifier.
	Record ProfileRecord `json:"profile"`

	// FromCache is true when the record came from a fresh cache entry.
	FromCache bool `json:"fromCache"`

	// Verdict is recomputed from Record on every resolution.
	Verdict Verdict `json:"verdict"`

	// Error describes a per-profile fetch failure; empty on success.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the profile could not be fetched.
func (r Resolution) Failed() bool {
	return r.Error != ""
}
