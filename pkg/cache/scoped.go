package cache

// ScopedKeyer wraps a Keyer with a prefix, so several tools or tenants can
// share one Redis database without key collisions.
//
// Example usage:
//
//	// Keys for a CI pipeline sharing a team Redis
//	ciKeyer := NewScopedKeyer(NewDefaultKeyer(), "ci:frontend:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ExtractKey generates a prefixed extraction key.
func (k *ScopedKeyer) ExtractKey(datasetHash string, opts ExtractKeyOpts) string {
	return k.prefix + k.inner.ExtractKey(datasetHash, opts)
}
