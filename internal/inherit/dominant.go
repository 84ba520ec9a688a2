package inherit

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/seqkin/seqkin/internal/vcf"
)

// DominantFilter flags alleles carried by every affected individual of a
// family and by no gate-passing unaffected member.
type DominantFilter struct {
	ff       *FamilyFilter
	gate     Gate
	families []string
	defers   *deferred
	report   io.Writer
	logger   *zap.Logger
}

// NewDominantFilter builds a dominant checker over every family with at
// least one sample fitting the dominant model.
func NewDominantFilter(ff *FamilyFilter, minFamilies int, report io.Writer, logger *zap.Logger) *DominantFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DominantFilter{
		ff:       ff,
		gate:     ff.Gate,
		families: ff.FamiliesWithModel(ModelDominant),
		defers:   newDeferred(minFamilies),
		report:   report,
		logger:   logger,
	}
}

// Affected returns every affected sample the checker evaluates; an empty
// result means no sample fits the model.
func (f *DominantFilter) Affected() []string {
	var samples []string
	for _, fid := range f.families {
		samples = append(samples, f.ff.Affected(fid)...)
	}
	return samples
}

// HeaderFields returns the INFO descriptors the checker annotates
// records with.
func (f *DominantFilter) HeaderFields() []vcf.MetaField {
	return []vcf.MetaField{{
		ID:     "seqkin_dominant_fam",
		Number: "A",
		Type:   "String",
		Description: "Family IDs in which an ALT allele segregates with " +
			"affected status under a dominant model",
	}}
}

// ProcessRecord evaluates each non-excluded allele against every eligible
// family. Returns true when at least one allele segregates dominantly in
// at least one family.
func (f *DominantFilter) ProcessRecord(rec *vcf.Variant, ignoreAlleles, ignoreCSQ []bool) bool {
	hit := false
	famInfo := make([]string, rec.NAlts())
	for i := 0; i < rec.NAlts(); i++ {
		if i < len(ignoreAlleles) && ignoreAlleles[i] {
			continue
		}
		allele := i + 1
		var matched []*Segregant
		feats := featuresForAllele(rec, i, ignoreCSQ)
		for _, fid := range f.families {
			carriers, ok := f.familyDominant(rec, fid, allele)
			if !ok {
				continue
			}
			matched = append(matched, &Segregant{
				Record:   rec,
				Allele:   i,
				Features: feats,
				Family:   fid,
				Samples:  carriers,
				Model:    ModelDominant,
			})
		}
		if len(matched) == 0 {
			continue
		}
		hit = true
		cand := &candidate{
			varID:    rec.VarID(),
			features: feats,
			families: make(map[string]bool, len(matched)),
		}
		for _, seg := range matched {
			cand.families[seg.Family] = true
			cand.segs = append(cand.segs, seg)
			famInfo[i] = joinNonEmpty(famInfo[i], seg.Family)
			// With a cross-family threshold the verdict is not final
			// yet; the report line is written at resolution instead.
			if f.report != nil && f.defers.minFamilies <= 1 {
				fmt.Fprintln(f.report, seg.ReportLine())
			}
		}
		f.defers.add(cand)
	}
	f.defers.setWindow(rec.Features())
	if hit {
		rec.AddInfo("seqkin_dominant_fam", alleleInfoString(famInfo))
		f.logger.Debug("dominant candidate", zap.String("var", rec.VarID()))
	}
	return hit
}

// familyDominant reports whether the allele is carried by every affected
// member of the family (het or hom, passing the gate) and by no
// gate-passing unaffected member. Gate failures remove a genotype from
// consideration entirely: a failed unaffected call neither vetoes nor
// confirms.
func (f *DominantFilter) familyDominant(rec *vcf.Variant, family string, allele int) ([]string, bool) {
	affected := f.ff.Affected(family)
	if len(affected) == 0 {
		return nil, false
	}
	carriers := make([]string, 0, len(affected))
	for _, s := range affected {
		gt, ok := rec.Genotype(s)
		if !ok || !gt.HasAllele(allele) || !f.gate.Pass(gt, allele) {
			return nil, false
		}
		carriers = append(carriers, s)
	}
	for _, s := range f.ff.Unaffected(family) {
		gt, ok := rec.Genotype(s)
		if !ok || gt.IsMissing() || !f.gate.Pass(gt, allele) {
			continue
		}
		if gt.HasAllele(allele) {
			return nil, false
		}
	}
	return carriers, true
}

// ProcessDominants resolves closed gene-feature windows against the
// minimum-family-count threshold. With final=true, open windows are
// forced to resolve as well.
func (f *DominantFilter) ProcessDominants(final bool) map[string][]*Segregant {
	segs := f.defers.resolve(final)
	reportSegregants(f.report, segs)
	return segs
}
