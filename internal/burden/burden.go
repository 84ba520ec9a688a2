// Package burden accumulates per-gene-feature allele counts in case and
// control cohorts from the filter's accept decisions. It consumes the
// core's verdicts and segregants but never influences them.
package burden

import (
	"fmt"
	"io"
	"sort"

	"github.com/seqkin/seqkin/internal/inherit"
	"github.com/seqkin/seqkin/internal/vcf"
)

// featureCount is the running tally for one gene feature.
type featureCount struct {
	feature  string
	gene     string
	cases    int
	controls int
}

// Counter tallies qualifying allele observations per gene feature. Each
// sample contributes at most two counted copies per feature, matching
// the diploid maximum.
type Counter struct {
	cases    map[string]bool
	controls map[string]bool
	counts   map[string]*featureCount
	perSamp  map[string]map[string]int // feature -> sample -> copies counted
}

// NewCounter builds a counter over the given case and control sample
// sets.
func NewCounter(cases, controls []string) *Counter {
	c := &Counter{
		cases:    make(map[string]bool, len(cases)),
		controls: make(map[string]bool, len(controls)),
		counts:   make(map[string]*featureCount),
		perSamp:  make(map[string]map[string]int),
	}
	for _, s := range cases {
		c.cases[s] = true
	}
	for _, s := range controls {
		c.controls[s] = true
	}
	return c
}

// Count tallies every retained allele of a record that is being written
// directly (no cache involved): each carrying cohort sample contributes
// its genotype copy count, capped per feature.
func (c *Counter) Count(rec *vcf.Variant, filterAlleles, ignoreCSQ []bool) {
	for i := 0; i < rec.NAlts(); i++ {
		if i < len(filterAlleles) && filterAlleles[i] {
			continue
		}
		feats := alleleFeatures(rec, i, ignoreCSQ)
		for sample := range c.cases {
			c.countSample(rec, feats, sample, i, 2)
		}
		for sample := range c.controls {
			c.countSample(rec, feats, sample, i, 2)
		}
	}
}

// CountSegregants tallies resolved segregants from one inheritance
// model. maxPerSample caps the copies attributed per sample per variant:
// 1 for dominant/de novo, 2 for recessive. Callers count dominant and
// de novo segregants before recessive ones so the higher recessive cap
// is not lowered by an earlier single-copy observation.
func (c *Counter) CountSegregants(segs map[string][]*inherit.Segregant, maxPerSample int) {
	ids := make([]string, 0, len(segs))
	for id := range segs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, seg := range segs[id] {
			for _, sample := range seg.Samples {
				c.countSample(seg.Record, seg.Features, sample, seg.Allele, maxPerSample)
			}
		}
	}
}

// countSample attributes up to max copies of an allele carried by a
// sample to every feature in feats.
func (c *Counter) countSample(rec *vcf.Variant, feats map[string]bool, sample string, alt, max int) {
	gt, ok := rec.Genotype(sample)
	if !ok {
		return
	}
	copies := gt.CountAllele(alt + 1)
	if copies == 0 {
		return
	}
	if copies > max {
		copies = max
	}
	for feat := range feats {
		seen := c.perSamp[feat]
		if seen == nil {
			seen = make(map[string]int)
			c.perSamp[feat] = seen
		}
		room := 2 - seen[sample]
		if room <= 0 {
			continue
		}
		n := copies
		if n > room {
			n = room
		}
		seen[sample] += n

		fc := c.counts[feat]
		if fc == nil {
			fc = &featureCount{feature: feat, gene: geneForFeature(rec, feat)}
			c.counts[feat] = fc
		}
		if c.cases[sample] {
			fc.cases += n
		} else if c.controls[sample] {
			fc.controls += n
		}
	}
}

// Output writes the per-feature tallies as a TSV table in stable order.
func (c *Counter) Output(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "#feature\tgene\tcases\tcontrols"); err != nil {
		return err
	}
	feats := make([]string, 0, len(c.counts))
	for f := range c.counts {
		feats = append(feats, f)
	}
	sort.Strings(feats)
	for _, f := range feats {
		fc := c.counts[f]
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", fc.feature, fc.gene, fc.cases, fc.controls); err != nil {
			return err
		}
	}
	return nil
}

func alleleFeatures(rec *vcf.Variant, alt int, ignoreCSQ []bool) map[string]bool {
	feats := make(map[string]bool)
	vep := rec.VepAlleles()
	for i, csq := range rec.CSQ {
		if i < len(ignoreCSQ) && ignoreCSQ[i] {
			continue
		}
		if csq.Allele != "" && csq.Allele != rec.Alts[alt] && csq.Allele != vep[alt] {
			continue
		}
		if csq.Feature != "" {
			feats[csq.Feature] = true
		}
	}
	return feats
}

func geneForFeature(rec *vcf.Variant, feature string) string {
	for _, csq := range rec.CSQ {
		if csq.Feature == feature {
			if csq.Symbol != "" {
				return csq.Symbol
			}
			return csq.Gene
		}
	}
	return ""
}
