package inherit

// candidate accumulates the per-family segregants recorded for one
// variant while its gene-feature window is still open.
type candidate struct {
	varID    string
	features map[string]bool
	segs     []*Segregant
	families map[string]bool
	emitted  bool
}

// deferred is the per-gene-feature accumulator used by the dominant and
// de novo checkers when a minimum-family-count threshold defers their
// verdicts past the current record. Candidates are grouped by feature;
// a feature's candidates pass once the distinct families holding any
// candidate in that feature reach minFamilies.
type deferred struct {
	minFamilies int
	byFeature   map[string]map[string]*candidate // feature -> varID -> candidate

	// lastFeatures is the feature set of the most recently processed
	// record: the window those features belong to is still open, so they
	// are withheld from non-final resolution.
	lastFeatures map[string]bool
}

func newDeferred(minFamilies int) *deferred {
	if minFamilies < 1 {
		minFamilies = 1
	}
	return &deferred{
		minFamilies: minFamilies,
		byFeature:   make(map[string]map[string]*candidate),
	}
}

// add records a candidate under each of its features. Candidates with no
// features are keyed under the empty feature, which is always resolvable.
// With a family threshold of 1 the immediate per-record verdict is
// authoritative and nothing is accumulated.
func (d *deferred) add(c *candidate) {
	if d.minFamilies <= 1 {
		return
	}
	feats := c.features
	if len(feats) == 0 {
		feats = map[string]bool{"": true}
	}
	for f := range feats {
		m, ok := d.byFeature[f]
		if !ok {
			m = make(map[string]*candidate)
			d.byFeature[f] = m
		}
		if prev, ok := m[c.varID]; ok {
			// Same variant seen again for this feature: merge families
			// and segregants.
			prev.segs = append(prev.segs, c.segs...)
			for fam := range c.families {
				prev.families[fam] = true
			}
			continue
		}
		m[c.varID] = c
	}
}

// setWindow records the feature set of the current record, marking those
// features as belonging to the still-open window.
func (d *deferred) setWindow(features map[string]bool) {
	d.lastFeatures = features
}

// resolve releases every closed feature window: candidates in features
// disjoint from the open window (or all features when final) are scored
// against the family threshold and cleared. The result maps variant
// identifiers to their confirming segregants.
func (d *deferred) resolve(final bool) map[string][]*Segregant {
	result := make(map[string][]*Segregant)
	for f, cands := range d.byFeature {
		if !final && f != "" && d.lastFeatures[f] {
			continue
		}
		families := make(map[string]bool)
		for _, c := range cands {
			for fam := range c.families {
				families[fam] = true
			}
		}
		if len(families) >= d.minFamilies {
			for _, c := range cands {
				if c.emitted {
					continue
				}
				c.emitted = true
				result[c.varID] = append(result[c.varID], c.segs...)
			}
		}
		delete(d.byFeature, f)
	}
	return result
}
