package inherit

import "github.com/seqkin/seqkin/internal/vcf"

// ControlFilter screens alleles against an unaffected control cohort for
// the dominant and de novo models: an allele carried by more than the
// allowed number of gate-passing controls is filtered.
type ControlFilter struct {
	gate        Gate
	controls    []string
	maxCarriers int
}

// NewControlFilter builds a control screen over every unaffected
// pedigree individual present in the input stream. maxCarriers is the
// number of carrying controls tolerated before an allele is filtered.
func NewControlFilter(ff *FamilyFilter, maxCarriers int) *ControlFilter {
	return &ControlFilter{
		gate:        ff.Gate,
		controls:    ff.AllControls(),
		maxCarriers: maxCarriers,
	}
}

// Controls returns the cohort sample names.
func (c *ControlFilter) Controls() []string {
	return c.controls
}

// Filter returns true when the alt allele (0-based index) should be
// excluded because too many controls carry it. Gate failures remove a
// control's genotype from consideration.
func (c *ControlFilter) Filter(rec *vcf.Variant, alt int) bool {
	allele := alt + 1
	carriers := 0
	for _, s := range c.controls {
		gt, ok := rec.Genotype(s)
		if !ok || gt.IsMissing() || !c.gate.Pass(gt, allele) {
			continue
		}
		if gt.HasAllele(allele) {
			carriers++
			if carriers > c.maxCarriers {
				return true
			}
		}
	}
	return false
}
