package filter

import (
	"strconv"
	"strings"

	"github.com/seqkin/seqkin/internal/vcf"
)

// AFFilter filters on the record's own INFO AF annotation: alleles with
// a frequency above MaxAF (or below MinAF when set) are removed.
type AFFilter struct {
	MaxAF float64 // remove alleles with AF > MaxAF; 0 disables
	MinAF float64 // remove alleles with AF < MinAF or no AF; 0 disables
}

// HeaderFields returns nil: the filter only consumes existing
// annotations.
func (f *AFFilter) HeaderFields() []vcf.MetaField {
	return nil
}

// Annotate votes per allele using the INFO AF values, which are
// comma-separated parallel to the ALT column.
func (f *AFFilter) Annotate(rec *vcf.Variant) Verdict {
	v := NewVerdict(rec.NAlts())
	raw, ok := rec.Info["AF"].(string)
	if !ok {
		if f.MinAF > 0 {
			for i := range v.Remove {
				v.Remove[i] = true
			}
		}
		return v
	}
	values := strings.Split(raw, ",")
	for i := 0; i < rec.NAlts(); i++ {
		if i >= len(values) || values[i] == "." {
			if f.MinAF > 0 {
				v.Remove[i] = true
			}
			continue
		}
		af, err := strconv.ParseFloat(values[i], 64)
		if err != nil {
			continue
		}
		if f.MaxAF > 0 && af > f.MaxAF {
			v.Remove[i] = true
		}
		if f.MinAF > 0 && af < f.MinAF {
			v.Remove[i] = true
		}
	}
	return v
}
