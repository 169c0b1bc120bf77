package tiercache

// Self-heal reasons passed to Hooks.SelfHeal.
const (
	ReasonCorrupt     = "corrupt"
	ReasonExpired     = "expired"
	ReasonValueDecode = "value_decode"
)

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// An entry was deleted by the cache on read.
	// reason ∈ {"corrupt", "expired", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction/admission).
	ProviderSetRejected(storageKey string)

	// A chain read was served by tier (0 = fastest).
	ChainHit(tier int, name string)

	// A chain read missed every tier; count is the number of unresolved keys.
	ChainMiss(count int)

	// A tier failed with a backend error and was skipped (reads) or counted as
	// false (writes). op is the Cache method name, e.g. "get", "set_multiple".
	TierFailure(tier int, name, op string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) SelfHeal(string, string)                {}
func (NopHooks) ProviderSetRejected(string)             {}
func (NopHooks) ChainHit(int, string)                   {}
func (NopHooks) ChainMiss(int)                          {}
func (NopHooks) TierFailure(int, string, string, error) {}
