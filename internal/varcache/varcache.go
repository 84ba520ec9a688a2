// Package varcache buffers variant records whose output disposition
// depends on gene-feature-scoped segregation state that later records in
// the stream will resolve.
package varcache

import "github.com/seqkin/seqkin/internal/vcf"

// CachedVariant wraps a record awaiting final disposition. Immutable
// after creation.
type CachedVariant struct {
	Record *vcf.Variant
	VarID  string
	// CanOutput marks records destined for output regardless of how
	// deferred segregation state resolves.
	CanOutput bool
}

// Cache holds records while their gene-feature window is open. It tracks
// the union of features of all cached records; a new record whose
// features are disjoint from that set closes the window, moving the
// cached records to the output-ready list pending checker resolution.
type Cache struct {
	cache       []*CachedVariant
	features    map[string]bool
	outputReady []*CachedVariant
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{features: make(map[string]bool)}
}

// Add caches a record. If its features are disjoint from the active
// feature set the current window closes first and the record starts the
// next one; otherwise the active set is extended.
func (c *Cache) Add(rec *vcf.Variant, canOutput bool) {
	feats := rec.Features()
	if len(c.features) > 0 && disjoint(c.features, feats) {
		c.Flush()
		c.features = feats
	} else {
		for f := range feats {
			c.features[f] = true
		}
	}
	c.cache = append(c.cache, &CachedVariant{
		Record:    rec,
		VarID:     rec.VarID(),
		CanOutput: canOutput,
	})
}

// Check tests whether a record that is not itself being cached closes the
// current window, and flushes if so. Used for records matching no active
// model that must still drive window bookkeeping.
func (c *Cache) Check(rec *vcf.Variant) {
	feats := rec.Features()
	if len(c.features) > 0 && disjoint(c.features, feats) {
		c.Flush()
		c.features = make(map[string]bool)
	}
}

// Flush moves all cached records to the output-ready list without
// discarding them; their final accept/reject is still pending checker
// resolution.
func (c *Cache) Flush() {
	c.outputReady = append(c.outputReady, c.cache...)
	c.cache = nil
}

// OutputReady returns the records whose window has closed, in insertion
// order.
func (c *Cache) OutputReady() []*CachedVariant {
	return c.outputReady
}

// HasOutputReady reports whether any records await emission.
func (c *Cache) HasOutputReady() bool {
	return len(c.outputReady) > 0
}

// ClearOutputReady drops the output-ready list after the caller has
// emitted or discarded its records.
func (c *Cache) ClearOutputReady() {
	c.outputReady = nil
}

// Len returns the number of records currently held in the open window.
func (c *Cache) Len() int {
	return len(c.cache)
}

func disjoint(a, b map[string]bool) bool {
	for f := range b {
		if a[f] {
			return false
		}
	}
	return true
}
