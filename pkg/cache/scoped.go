package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several tenants or
// environments can share one Redis database.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// CartogramKey returns the prefixed inner key.
func (k *ScopedKeyer) CartogramKey(inputHash string, opts CartogramKeyOpts) string {
	return k.prefix + k.inner.CartogramKey(inputHash, opts)
}

// ArtifactKey returns the prefixed inner key.
func (k *ScopedKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(resultHash, opts)
}
