// Package metrics derives valuation metrics and the financial overview table
// from raw provider data. Everything here is pure: no I/O, and the same inputs
// always produce the same outputs.
package metrics

// Capabilities selects which optional derived fields the engine computes.
type Capabilities struct {
	// IncludeNTM computes the forward P/E.
	IncludeNTM bool `mapstructure:"include_ntm" yaml:"include_ntm"`
	// IncludeLTM adds the LTM column to the overview table and the trailing
	// four-quarter sums to the snapshot.
	IncludeLTM bool `mapstructure:"include_ltm" yaml:"include_ltm"`
	// DeriveEBITDA falls back to EBIT + D&A for periods without an EBITDA line.
	DeriveEBITDA bool `mapstructure:"derive_ebitda" yaml:"derive_ebitda"`
}

// DefaultCapabilities enables every optional field. Yahoo statements carry no
// EBITDA line, so derivation is on by default.
func DefaultCapabilities() Capabilities {
	return Capabilities{IncludeNTM: true, IncludeLTM: true, DeriveEBITDA: true}
}

// Engine computes snapshots and overview tables.
type Engine struct {
	caps  Capabilities
	vocab Vocabulary
}

// New creates an engine with the default line-item vocabulary.
func New(caps Capabilities) *Engine {
	return &Engine{caps: caps, vocab: DefaultVocabulary()}
}

// NewWithVocabulary creates an engine using a custom vocabulary.
func NewWithVocabulary(caps Capabilities, vocab Vocabulary) *Engine {
	return &Engine{caps: caps, vocab: vocab}
}

// Capabilities returns the engine's capability flags.
func (e *Engine) Capabilities() Capabilities { return e.caps }
