// Package filter provides the per-allele annotation filters applied
// before inheritance checking: each component examines one external
// evidence source and votes per allele.
package filter

import "github.com/seqkin/seqkin/internal/vcf"

// Verdict carries one filter's per-allele votes. Remove marks alleles to
// exclude, Keep overrides removal (e.g. known pathogenic), Matched marks
// alleles found in the filter's source regardless of vote.
type Verdict struct {
	Remove  []bool
	Keep    []bool
	Matched []bool
}

// NewVerdict allocates an all-false verdict for n alleles.
func NewVerdict(n int) Verdict {
	return Verdict{
		Remove:  make([]bool, n),
		Keep:    make([]bool, n),
		Matched: make([]bool, n),
	}
}

// AlleleFilter is implemented by each evidence-source component. Filters
// may annotate the record with INFO entries as a side effect.
type AlleleFilter interface {
	// Annotate evaluates the record and returns per-allele votes.
	Annotate(rec *vcf.Variant) Verdict

	// HeaderFields returns the INFO descriptors the filter adds,
	// registered once at startup.
	HeaderFields() []vcf.MetaField
}

// MergeInto ORs the votes of v into dst. True votes are never overridden
// back to false: an allele filtered by one source stays filtered even if
// absent from another.
func MergeInto(dst *Verdict, v Verdict) {
	orInto(dst.Remove, v.Remove)
	orInto(dst.Keep, v.Keep)
	orInto(dst.Matched, v.Matched)
}

// Resolve collapses merged votes into the final per-allele exclusion
// mask: Keep overrides Remove; filterKnown excludes matched alleles,
// filterNovel excludes unmatched ones.
func (v Verdict) Resolve(filterKnown, filterNovel bool) []bool {
	out := make([]bool, len(v.Remove))
	for i := range out {
		switch {
		case v.Keep[i]:
			out[i] = false
		case v.Remove[i]:
			out[i] = true
		case filterKnown && v.Matched[i]:
			out[i] = true
		case filterNovel && !v.Matched[i]:
			out[i] = true
		}
	}
	return out
}

// AllTrue reports whether every element of the mask is set.
func AllTrue(mask []bool) bool {
	for _, m := range mask {
		if !m {
			return false
		}
	}
	return len(mask) > 0
}

func orInto(dst, src []bool) {
	for i := range dst {
		if i < len(src) && src[i] {
			dst[i] = true
		}
	}
}
