package filter

import "github.com/seqkin/seqkin/internal/vcf"

// defaultCSQClasses are the functional consequence classes retained by
// default: protein-altering and splice-disrupting terms.
var defaultCSQClasses = []string{
	"TFBS_ablation",
	"TFBS_amplification",
	"frameshift_variant",
	"inframe_deletion",
	"inframe_insertion",
	"missense_variant",
	"protein_altering_variant",
	"regulatory_region_ablation",
	"regulatory_region_amplification",
	"splice_acceptor_variant",
	"splice_donor_variant",
	"start_lost",
	"stop_gained",
	"stop_lost",
	"transcript_ablation",
	"transcript_amplification",
}

// CSQFilter filters alleles on their functional consequence annotations:
// an allele survives only if at least one of its CSQ entries carries a
// qualifying consequence class. It also produces the per-entry exclusion
// mask consumed by the inheritance checkers, so that feature windows are
// built only from qualifying annotations.
type CSQFilter struct {
	classes       map[string]bool
	canonicalOnly bool
}

// NewCSQFilter builds a consequence filter for the given SO terms; nil
// selects the default protein-altering set.
func NewCSQFilter(classes []string, canonicalOnly bool) *CSQFilter {
	if classes == nil {
		classes = defaultCSQClasses
	}
	m := make(map[string]bool, len(classes))
	for _, c := range classes {
		m[c] = true
	}
	return &CSQFilter{classes: m, canonicalOnly: canonicalOnly}
}

// Filter returns the per-allele removal mask and the per-CSQ-entry
// exclusion mask for the record. A record without annotations removes
// nothing.
func (f *CSQFilter) Filter(rec *vcf.Variant) (removeAlleles, ignoreCSQ []bool) {
	removeAlleles = make([]bool, rec.NAlts())
	ignoreCSQ = make([]bool, len(rec.CSQ))
	if len(rec.CSQ) == 0 {
		return removeAlleles, ignoreCSQ
	}

	qualifying := make(map[string]bool, rec.NAlts())
	for i, csq := range rec.CSQ {
		if f.canonicalOnly && csq.Fields["CANONICAL"] != "YES" {
			ignoreCSQ[i] = true
			continue
		}
		if !f.qualifies(csq) {
			ignoreCSQ[i] = true
			continue
		}
		if csq.Allele == "" {
			// Entry applies to every allele.
			for _, alt := range rec.Alts {
				qualifying[alt] = true
			}
			continue
		}
		qualifying[csq.Allele] = true
	}
	// The CSQ Allele column carries VEP's trimmed representation for
	// indels, so each ALT is looked up under both spellings.
	vep := rec.VepAlleles()
	for i, alt := range rec.Alts {
		if !qualifying[alt] && !qualifying[vep[i]] {
			removeAlleles[i] = true
		}
	}
	return removeAlleles, ignoreCSQ
}

func (f *CSQFilter) qualifies(csq vcf.CSQAnnotation) bool {
	for class := range f.classes {
		if csq.HasConsequence(class) {
			return true
		}
	}
	return false
}
