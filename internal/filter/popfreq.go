package filter

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seqkin/seqkin/internal/popdb"
	"github.com/seqkin/seqkin/internal/vcf"
)

// PopFreqFilter filters on population allele frequencies from a popdb
// store and annotates each record with the frequencies found.
type PopFreqFilter struct {
	store   *popdb.Store
	maxFreq float64 // remove alleles with population AF >= maxFreq; 0 disables
	minFreq float64 // remove alleles with population AF < minFreq; 0 disables
	logger  *zap.Logger
}

// NewPopFreqFilter builds a population-frequency filter over an open
// store.
func NewPopFreqFilter(store *popdb.Store, maxFreq, minFreq float64, logger *zap.Logger) *PopFreqFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PopFreqFilter{store: store, maxFreq: maxFreq, minFreq: minFreq, logger: logger}
}

// HeaderFields returns the INFO descriptor for the added frequency
// annotation.
func (f *PopFreqFilter) HeaderFields() []vcf.MetaField {
	return []vcf.MetaField{{
		ID:          "seqkin_popdb_AF",
		Number:      "A",
		Type:        "Float",
		Description: "Population allele frequency from the configured frequency database",
	}}
}

// Annotate looks up each allele in the store, removing alleles whose
// population frequency falls outside the configured bounds. Lookup
// failures are logged and treated as unmatched.
func (f *PopFreqFilter) Annotate(rec *vcf.Variant) Verdict {
	v := NewVerdict(rec.NAlts())
	values := make([]string, rec.NAlts())
	any := false
	for i, alt := range rec.Alts {
		values[i] = "."
		af, found, err := f.store.LookupAF(rec.NormalizeChrom(), rec.Pos, rec.Ref, alt)
		if err != nil {
			f.logger.Warn("population frequency lookup failed",
				zap.String("var", rec.VarID()), zap.Error(err))
			continue
		}
		if !found {
			continue
		}
		any = true
		v.Matched[i] = true
		values[i] = fmt.Sprintf("%g", af)
		if f.maxFreq > 0 && af >= f.maxFreq {
			v.Remove[i] = true
		}
		if f.minFreq > 0 && af < f.minFreq {
			v.Remove[i] = true
		}
	}
	if any {
		rec.AddInfo("seqkin_popdb_AF", strings.Join(values, ","))
	}
	return v
}
