package inherit

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/seqkin/seqkin/internal/vcf"
)

// Parental origin of a heterozygous allele, when parental genotypes can
// establish it.
const (
	originUnknown = iota
	originPaternal
	originMaternal
)

// hetCandidate is one heterozygous allele carried by one affected
// individual, contributing to that individual's per-gene-feature carrier
// set for compound-het pairing.
type hetCandidate struct {
	rec      *vcf.Variant
	varID    string
	allele   int
	sample   string
	origin   int
	features map[string]bool

	// unaffected family members het-carrying the same allele, used for
	// pair invalidation at resolution time.
	unaffectedCarriers map[string]bool
}

// homEntry is an immediate single-variant recessive candidate: every
// usable affected genotype in the family homozygous for the allele, with
// carrier parents where present.
type homEntry struct {
	seg      *Segregant
	features map[string]bool
}

// RecessiveFilter detects biallelic inheritance: homozygous-alt recessive
// candidates and compound-heterozygous pairs within a gene-feature
// window. Verdicts are deferred; ProcessPotentialRecessives resolves
// closed windows.
type RecessiveFilter struct {
	ff          *FamilyFilter
	gate        Gate
	families    []string
	minFamilies int
	report      io.Writer
	logger      *zap.Logger

	hets         map[string][]*hetCandidate // family -> pending het candidates
	homs         map[string][]*homEntry     // family -> pending hom candidates
	lastFeatures map[string]bool
}

// NewRecessiveFilter builds a recessive checker over every family with at
// least one sample fitting the recessive model.
func NewRecessiveFilter(ff *FamilyFilter, minFamilies int, report io.Writer, logger *zap.Logger) *RecessiveFilter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if minFamilies < 1 {
		minFamilies = 1
	}
	return &RecessiveFilter{
		ff:          ff,
		gate:        ff.Gate,
		families:    ff.FamiliesWithModel(ModelRecessive),
		minFamilies: minFamilies,
		report:      report,
		logger:      logger,
		hets:        make(map[string][]*hetCandidate),
		homs:        make(map[string][]*homEntry),
	}
}

// Affected returns every affected sample the checker evaluates; an empty
// result means no sample fits the model.
func (f *RecessiveFilter) Affected() []string {
	var samples []string
	for _, fid := range f.families {
		samples = append(samples, f.ff.Affected(fid)...)
	}
	return samples
}

// HeaderFields returns the INFO descriptors the checker annotates
// records with.
func (f *RecessiveFilter) HeaderFields() []vcf.MetaField {
	return []vcf.MetaField{{
		ID:     "seqkin_recessive_fam",
		Number: "A",
		Type:   "String",
		Description: "Family IDs in which an ALT allele fits biallelic " +
			"(homozygous or compound heterozygous) inheritance",
	}}
}

// ProcessRecord classifies each non-excluded allele per eligible family:
// homozygous-alt affected genotypes become immediate recessive
// candidates, heterozygous ones join the compound-het carrier set.
// Returns true when any candidate state was recorded.
func (f *RecessiveFilter) ProcessRecord(rec *vcf.Variant, ignoreAlleles, ignoreCSQ []bool) bool {
	stored := false
	for i := 0; i < rec.NAlts(); i++ {
		if i < len(ignoreAlleles) && ignoreAlleles[i] {
			continue
		}
		allele := i + 1
		feats := featuresForAllele(rec, i, ignoreCSQ)
		for _, fid := range f.families {
			if f.unaffectedHomAlt(rec, fid, allele) {
				// Full penetrance assumed: an unaffected homozygote
				// rules the allele out for the whole family.
				continue
			}
			if f.processFamily(rec, fid, i, allele, feats) {
				stored = true
			}
		}
	}
	f.lastFeatures = rec.Features()
	return stored
}

// processFamily records hom and het candidate state for one allele in one
// family. Returns true when anything was stored.
func (f *RecessiveFilter) processFamily(rec *vcf.Variant, fid string, altIdx, allele int, feats map[string]bool) bool {
	affected := f.ff.Affected(fid)
	if len(affected) == 0 {
		return false
	}

	var homSamples, hetSamples []string
	usable := 0
	for _, s := range affected {
		gt, ok := rec.Genotype(s)
		if !ok || gt.IsMissing() || !f.gate.Pass(gt, allele) {
			continue
		}
		usable++
		switch {
		case gt.IsHomAlt(allele):
			if f.parentsCarry(rec, s, allele) {
				homSamples = append(homSamples, s)
			}
		case gt.IsHet(allele):
			hetSamples = append(hetSamples, s)
		}
	}

	stored := false
	if usable > 0 && len(homSamples) == usable {
		f.homs[fid] = append(f.homs[fid], &homEntry{
			seg: &Segregant{
				Record:   rec,
				Allele:   altIdx,
				Features: feats,
				Family:   fid,
				Samples:  homSamples,
				Model:    ModelRecessive,
			},
			features: feats,
		})
		stored = true
	}
	if len(hetSamples) > 0 {
		unaffCarriers := f.unaffectedHetCarriers(rec, fid, allele)
		for _, s := range hetSamples {
			f.hets[fid] = append(f.hets[fid], &hetCandidate{
				rec:                rec,
				varID:              rec.VarID(),
				allele:             altIdx,
				sample:             s,
				origin:             f.hetOrigin(rec, s, allele),
				features:           feats,
				unaffectedCarriers: unaffCarriers,
			})
		}
		stored = true
	}
	return stored
}

// unaffectedHomAlt reports whether any gate-passing unaffected member of
// the family is homozygous for the allele.
func (f *RecessiveFilter) unaffectedHomAlt(rec *vcf.Variant, fid string, allele int) bool {
	for _, s := range f.ff.Unaffected(fid) {
		gt, ok := rec.Genotype(s)
		if ok && f.gate.Pass(gt, allele) && gt.IsHomAlt(allele) {
			return true
		}
	}
	return false
}

// unaffectedHetCarriers returns the gate-passing unaffected members of
// the family carrying exactly one copy of the allele.
func (f *RecessiveFilter) unaffectedHetCarriers(rec *vcf.Variant, fid string, allele int) map[string]bool {
	carriers := make(map[string]bool)
	for _, s := range f.ff.Unaffected(fid) {
		gt, ok := rec.Genotype(s)
		if ok && f.gate.Pass(gt, allele) && gt.IsHet(allele) {
			carriers[s] = true
		}
	}
	return carriers
}

// parentsCarry verifies biparental inheritance of a homozygous call:
// every parent with a usable genotype must carry exactly one copy.
// Parents that are absent or fail the gate do not veto.
func (f *RecessiveFilter) parentsCarry(rec *vcf.Variant, sample string, allele int) bool {
	ind, ok := f.ff.Ped.Individuals[sample]
	if !ok {
		return true
	}
	for _, parent := range []string{ind.FatherID, ind.MotherID} {
		if parent == "0" {
			continue
		}
		gt, ok := rec.Genotype(parent)
		if !ok || gt.IsMissing() || !f.gate.Pass(gt, allele) {
			continue
		}
		if gt.CountAllele(allele) != 1 {
			return false
		}
	}
	return true
}

// hetOrigin determines which parent a heterozygous allele came from, when
// parental genotypes establish it unambiguously.
func (f *RecessiveFilter) hetOrigin(rec *vcf.Variant, sample string, allele int) int {
	ind, ok := f.ff.Ped.Individuals[sample]
	if !ok {
		return originUnknown
	}
	father := f.parentCarries(rec, ind.FatherID, allele)
	mother := f.parentCarries(rec, ind.MotherID, allele)
	switch {
	case father == carrierYes && mother == carrierNo:
		return originPaternal
	case mother == carrierYes && father == carrierNo:
		return originMaternal
	default:
		return originUnknown
	}
}

const (
	carrierUnknown = iota
	carrierYes
	carrierNo
)

func (f *RecessiveFilter) parentCarries(rec *vcf.Variant, parent string, allele int) int {
	if parent == "" || parent == "0" {
		return carrierUnknown
	}
	gt, ok := rec.Genotype(parent)
	if !ok || gt.IsMissing() || !f.gate.Pass(gt, allele) {
		return carrierUnknown
	}
	if gt.HasAllele(allele) {
		return carrierYes
	}
	return carrierNo
}

// hetGroup aggregates the het candidates for one variant allele within
// one family at resolution time.
type hetGroup struct {
	rec                *vcf.Variant
	varID              string
	allele             int
	features           map[string]bool
	carriers           map[string]int // affected sample -> origin
	unaffectedCarriers map[string]bool
}

// ProcessPotentialRecessives resolves all pending gene-feature windows
// that the linear scan has moved past, returning a mapping from variant
// identifier to confirming segregants and clearing resolved state. With
// final=true, windows not yet confirmed closed are forced to resolve
// (used at stream end).
func (f *RecessiveFilter) ProcessPotentialRecessives(final bool) map[string][]*Segregant {
	var confirmed []*Segregant

	// Homozygous candidates resolve on window close alone.
	for fid, entries := range f.homs {
		var keep []*homEntry
		for _, e := range entries {
			if f.resolvable(e.features, final) {
				confirmed = append(confirmed, e.seg)
			} else {
				keep = append(keep, e)
			}
		}
		f.homs[fid] = keep
	}

	// Compound-het pairing within each family's closed windows.
	for fid, cands := range f.hets {
		var keep, due []*hetCandidate
		for _, c := range cands {
			if f.resolvable(c.features, final) {
				due = append(due, c)
			} else {
				keep = append(keep, c)
			}
		}
		f.hets[fid] = keep
		confirmed = append(confirmed, f.pairCompoundHets(fid, due)...)
	}

	// Score confirmed segregants against the cross-family threshold.
	famsByFeature := make(map[string]map[string]bool)
	for _, seg := range confirmed {
		for feat := range seg.Features {
			if famsByFeature[feat] == nil {
				famsByFeature[feat] = make(map[string]bool)
			}
			famsByFeature[feat][seg.Family] = true
		}
	}

	result := make(map[string][]*Segregant)
	annotated := make(map[*vcf.Variant][]string)
	for _, seg := range confirmed {
		if f.minFamilies > 1 && !f.meetsFamilyCount(seg, famsByFeature) {
			continue
		}
		result[seg.Record.VarID()] = append(result[seg.Record.VarID()], seg)
		if fams := annotated[seg.Record]; len(fams) == 0 {
			annotated[seg.Record] = make([]string, seg.Record.NAlts())
		}
		annotated[seg.Record][seg.Allele] = joinNonEmpty(annotated[seg.Record][seg.Allele], seg.Family)
		if f.report != nil {
			fmt.Fprintln(f.report, seg.ReportLine())
		}
	}
	for rec, fams := range annotated {
		rec.AddInfo("seqkin_recessive_fam", alleleInfoString(fams))
	}
	if len(result) > 0 {
		f.logger.Debug("resolved recessive segregants", zap.Int("variants", len(result)))
	}
	return result
}

// pairCompoundHets finds valid compound-het pairs among a family's due
// candidates: two distinct variants, shared feature, carried by the same
// affected individual from opposite parents, and not jointly carried by
// any unaffected member.
func (f *RecessiveFilter) pairCompoundHets(fid string, due []*hetCandidate) []*Segregant {
	groups := make(map[string]*hetGroup)
	var order []string
	for _, c := range due {
		key := c.varID + "#" + strconv.Itoa(c.allele)
		g, ok := groups[key]
		if !ok {
			g = &hetGroup{
				rec:                c.rec,
				varID:              c.varID,
				allele:             c.allele,
				features:           c.features,
				carriers:           make(map[string]int),
				unaffectedCarriers: c.unaffectedCarriers,
			}
			groups[key] = g
			order = append(order, key)
		}
		g.carriers[c.sample] = c.origin
	}
	sort.Strings(order)

	var segs []*Segregant
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			g1, g2 := groups[order[i]], groups[order[j]]
			if g1.varID == g2.varID {
				continue
			}
			shared := intersectFeatures(g1.features, g2.features)
			if len(shared) == 0 {
				continue
			}
			samples := pairedSamples(g1, g2)
			if len(samples) == 0 {
				continue
			}
			if jointUnaffectedCarrier(g1, g2) {
				continue
			}
			segs = append(segs,
				&Segregant{Record: g1.rec, Allele: g1.allele, Features: shared,
					Family: fid, Samples: samples, Model: ModelRecessive},
				&Segregant{Record: g2.rec, Allele: g2.allele, Features: shared,
					Family: fid, Samples: samples, Model: ModelRecessive},
			)
		}
	}
	return segs
}

// pairedSamples returns the affected individuals carrying both alleles
// with phase consistent with biparental origin.
func pairedSamples(g1, g2 *hetGroup) []string {
	var samples []string
	for s, o1 := range g1.carriers {
		o2, ok := g2.carriers[s]
		if !ok {
			continue
		}
		if (o1 == originPaternal && o2 == originPaternal) ||
			(o1 == originMaternal && o2 == originMaternal) {
			continue
		}
		samples = append(samples, s)
	}
	sort.Strings(samples)
	return samples
}

// jointUnaffectedCarrier reports whether any unaffected family member
// carries the identical pair.
func jointUnaffectedCarrier(g1, g2 *hetGroup) bool {
	for s := range g1.unaffectedCarriers {
		if g2.unaffectedCarriers[s] {
			return true
		}
	}
	return false
}

// meetsFamilyCount reports whether any feature of the segregant reached
// the configured distinct-family threshold.
func (f *RecessiveFilter) meetsFamilyCount(seg *Segregant, famsByFeature map[string]map[string]bool) bool {
	for feat := range seg.Features {
		if len(famsByFeature[feat]) >= f.minFamilies {
			return true
		}
	}
	return false
}

// resolvable reports whether a candidate's feature window has closed: its
// features are disjoint from those of the most recent record. Empty
// feature sets close trivially.
func (f *RecessiveFilter) resolvable(features map[string]bool, final bool) bool {
	if final || len(features) == 0 {
		return true
	}
	for feat := range features {
		if f.lastFeatures[feat] {
			return false
		}
	}
	return true
}

func intersectFeatures(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for f := range a {
		if b[f] {
			out[f] = true
		}
	}
	return out
}
