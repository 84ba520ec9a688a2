package inherit

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/seqkin/seqkin/internal/vcf"
)

// trio is one affected individual with both parents present in the input.
type trio struct {
	family string
	child  string
	father string
	mother string
}

// DeNovoFilter flags alleles present in an affected child but absent from
// both parents' genotype calls.
type DeNovoFilter struct {
	ff     *FamilyFilter
	gate   Gate
	trios  []trio
	defers *deferred
	report io.Writer
	logger *zap.Logger

	// missingAsAbsent permits a de novo call when a parent's genotype is
	// missing or fails the quality gate. Off by default: a call then
	// requires an explicit non-carrying parental genotype.
	missingAsAbsent bool
}

// NewDeNovoFilter builds a de novo checker over every trio-complete
// affected sample to which the de novo model applies.
func NewDeNovoFilter(ff *FamilyFilter, minFamilies int, report io.Writer, logger *zap.Logger) *DeNovoFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &DeNovoFilter{
		ff:     ff,
		gate:   ff.Gate,
		defers: newDeferred(minFamilies),
		report: report,
		logger: logger,
	}
	for _, fid := range ff.FamiliesWithModel(ModelDeNovo) {
		for _, child := range ff.TrioComplete(fid) {
			if !hasModel(ff, child, ModelDeNovo) {
				continue
			}
			ind := ff.Ped.Individuals[child]
			f.trios = append(f.trios, trio{
				family: fid,
				child:  child,
				father: ind.FatherID,
				mother: ind.MotherID,
			})
		}
	}
	return f
}

// SetMissingAsAbsent configures whether a missing or gate-failed parental
// genotype counts as allele absence.
func (f *DeNovoFilter) SetMissingAsAbsent(v bool) {
	f.missingAsAbsent = v
}

// Affected returns the child samples the checker evaluates; an empty
// result means no sample fits the model.
func (f *DeNovoFilter) Affected() []string {
	children := make([]string, 0, len(f.trios))
	for _, t := range f.trios {
		children = append(children, t.child)
	}
	return children
}

// HeaderFields returns the INFO descriptors the checker annotates
// records with.
func (f *DeNovoFilter) HeaderFields() []vcf.MetaField {
	return []vcf.MetaField{{
		ID:     "seqkin_denovo",
		Number: "A",
		Type:   "String",
		Description: "Sample IDs in which an ALT allele appears to have arisen " +
			"de novo based on the absence of an allele call in either parent",
	}}
}

// ProcessRecord evaluates each non-excluded allele against every trio.
// Returns true when at least one allele in at least one family is a de
// novo candidate. Candidates are accumulated per gene feature for
// min-family resolution via ProcessDeNovos.
func (f *DeNovoFilter) ProcessRecord(rec *vcf.Variant, ignoreAlleles, ignoreCSQ []bool) bool {
	hit := false
	children := make([]string, rec.NAlts())
	for i := 0; i < rec.NAlts(); i++ {
		if i < len(ignoreAlleles) && ignoreAlleles[i] {
			continue
		}
		allele := i + 1
		perFamily := make(map[string][]string)
		for _, t := range f.trios {
			if f.trioDeNovo(rec, t, allele) {
				perFamily[t.family] = append(perFamily[t.family], t.child)
			}
		}
		if len(perFamily) == 0 {
			continue
		}
		hit = true
		feats := featuresForAllele(rec, i, ignoreCSQ)
		cand := &candidate{
			varID:    rec.VarID(),
			features: feats,
			families: make(map[string]bool, len(perFamily)),
		}
		for fam, kids := range perFamily {
			cand.families[fam] = true
			children[i] = joinNonEmpty(children[i], strings.Join(kids, "|"))
			seg := &Segregant{
				Record:   rec,
				Allele:   i,
				Features: feats,
				Family:   fam,
				Samples:  kids,
				Model:    ModelDeNovo,
			}
			cand.segs = append(cand.segs, seg)
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
		rec.AddInfo("seqkin_denovo", alleleInfoString(children))
		f.logger.Debug("de novo candidate", zap.String("var", rec.VarID()))
	}
	return hit
}

// trioDeNovo reports whether the child carries the allele while both
// parents' calls pass the gate and provably lack it.
func (f *DeNovoFilter) trioDeNovo(rec *vcf.Variant, t trio, allele int) bool {
	child, ok := rec.Genotype(t.child)
	if !ok || !child.HasAllele(allele) || !f.gate.Pass(child, allele) {
		return false
	}
	for _, parent := range []string{t.father, t.mother} {
		gt, ok := rec.Genotype(parent)
		if !ok || gt.IsMissing() || !f.gate.Pass(gt, allele) {
			if !f.missingAsAbsent {
				return false
			}
			continue
		}
		if gt.HasAllele(allele) {
			return false
		}
	}
	return true
}

// ProcessDeNovos resolves closed gene-feature windows against the
// minimum-family-count threshold. With final=true, open windows are
// forced to resolve as well.
func (f *DeNovoFilter) ProcessDeNovos(final bool) map[string][]*Segregant {
	segs := f.defers.resolve(final)
	reportSegregants(f.report, segs)
	return segs
}

func hasModel(ff *FamilyFilter, sample, model string) bool {
	for _, m := range ff.ModelsFor(sample) {
		if m == model {
			return true
		}
	}
	return false
}

// featuresForAllele returns the feature IDs annotated for the given alt
// allele, honoring the per-consequence exclusion mask (parallel to
// rec.CSQ). Entries without an allele column apply to every allele; the
// Allele column is compared against both the raw ALT and its trimmed
// VEP representation, which differ for indels.
func featuresForAllele(rec *vcf.Variant, alt int, ignoreCSQ []bool) map[string]bool {
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

// alleleInfoString renders per-allele INFO values, '.' for alleles with
// no value.
func alleleInfoString(values []string) string {
	out := make([]string, len(values))
	for i, v := range values {
		if v == "" {
			out[i] = "."
		} else {
			out[i] = v
		}
	}
	return strings.Join(out, ",")
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	return a + "|" + b
}
