package domain

// DefaultTrustThreshold is the rank a reaction author must exceed to count.
const DefaultTrustThreshold = 50

// TrustAssertion is one provider's rank for a subject.
type TrustAssertion struct {
	ID         string `json:"id"`
	SubjectKey string `json:"subject_key"` // "d" tag
	Rank       int    `json:"rank"`
	CreatedAt  int64  `json:"created_at"`
}

// TrustMap maps subject pubkey to rank, always derived from a single provider.
// A missing subject has rank 0.
type TrustMap map[string]int

// Rank returns the subject's rank, 0 when absent.
func (m TrustMap) Rank(subject string) int {
	return m[subject]
}

// Trusted reports whether subject's rank is strictly above threshold.
func (m TrustMap) Trusted(subject string, threshold int) bool {
	return m[subject] > threshold
}

// WithFallback returns a copy where subjects absent (or ranked 0) take their fallback rank.
func (m TrustMap) WithFallback(fallback map[string]int) TrustMap {
	out := make(TrustMap, len(m)+len(fallback))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range fallback {
		if out[k] == 0 {
			out[k] = v
		}
	}
	return out
}

// TrustProvider identifies who publishes the assertions a viewer trusts and where.
type TrustProvider struct {
	PubKey   string `json:"pubkey"`
	RelayURL string `json:"relay_url"`
	// Declared is false when the viewer has no provider record and the default applies.
	Declared bool `json:"declared"`
}
