package inherit

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/seqkin/seqkin/internal/ped"
)

// Inheritance model names.
const (
	ModelDeNovo    = "de_novo"
	ModelDominant  = "dominant"
	ModelRecessive = "recessive"
)

// ErrNoPedigree is returned when inheritance filtering is requested
// without a pedigree or singleton sample specification.
var ErrNoPedigree = errors.New("inheritance filtering requires a pedigree or singleton samples")

// FamilyFilter bridges a pedigree to the sample set present in the input
// stream. It determines per-family model eligibility (trio completeness,
// control availability) and carries the genotype-quality gate shared by
// all model checkers.
type FamilyFilter struct {
	Ped  *ped.Pedigree
	Gate Gate

	logger  *zap.Logger
	samples map[string]bool // samples present in the input stream

	// patterns maps a sample to the inheritance-model names applicable
	// to it, either inferred from pedigree structure or explicitly
	// forced for singleton modes.
	patterns map[string][]string

	affected     map[string][]string // family -> affected samples in input
	unaffected   map[string][]string // family -> unaffected samples in input
	trioComplete map[string][]string // family -> affected with both parents in input
}

// NewFamilyFilter builds a family filter for the given pedigree and the
// sample names present in the input stream. When infer is true, each
// sample's applicable inheritance models are derived from its phenotype
// and family structure; otherwise patterns must be forced explicitly
// (singleton modes).
func NewFamilyFilter(pedigree *ped.Pedigree, samples []string, gate Gate, infer bool, logger *zap.Logger) (*FamilyFilter, error) {
	if pedigree == nil {
		return nil, ErrNoPedigree
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ff := &FamilyFilter{
		Ped:          pedigree,
		Gate:         gate,
		logger:       logger,
		samples:      make(map[string]bool, len(samples)),
		patterns:     make(map[string][]string),
		affected:     make(map[string][]string),
		unaffected:   make(map[string][]string),
		trioComplete: make(map[string][]string),
	}
	for _, s := range samples {
		ff.samples[s] = true
	}

	for fid, fam := range pedigree.Families {
		for _, id := range sortedIDs(fam.Members) {
			ind := fam.Members[id]
			if !ff.samples[ind.ID] {
				continue
			}
			switch {
			case ind.IsAffected():
				ff.affected[fid] = append(ff.affected[fid], ind.ID)
				if ind.HasBothParents() && ff.samples[ind.FatherID] && ff.samples[ind.MotherID] {
					ff.trioComplete[fid] = append(ff.trioComplete[fid], ind.ID)
				}
			case ind.IsUnaffected():
				ff.unaffected[fid] = append(ff.unaffected[fid], ind.ID)
			}
		}
	}

	if infer {
		ff.inferPatterns()
	}
	return ff, nil
}

// inferPatterns derives per-sample inheritance models from phenotype and
// family structure: every affected sample in the input can be tested
// under dominant and recessive models; de novo additionally requires a
// complete trio.
func (ff *FamilyFilter) inferPatterns() {
	for fid, affected := range ff.affected {
		trios := make(map[string]bool, len(ff.trioComplete[fid]))
		for _, s := range ff.trioComplete[fid] {
			trios[s] = true
		}
		for _, s := range affected {
			ff.patterns[s] = append(ff.patterns[s], ModelDominant, ModelRecessive)
			if trios[s] {
				ff.patterns[s] = append(ff.patterns[s], ModelDeNovo)
			}
		}
		ff.logger.Debug("inferred inheritance patterns",
			zap.String("family", fid),
			zap.Int("affected", len(affected)),
			zap.Int("trios", len(trios)))
	}
}

// ForcePattern explicitly marks a sample as testable under the named
// model, used when singleton samples are specified directly.
func (ff *FamilyFilter) ForcePattern(sample, model string) {
	ff.patterns[sample] = append(ff.patterns[sample], model)
}

// ModelsFor returns the inheritance-model names applicable to a sample.
func (ff *FamilyFilter) ModelsFor(sample string) []string {
	return ff.patterns[sample]
}

// HasSample reports whether a sample is present in the input stream.
func (ff *FamilyFilter) HasSample(id string) bool {
	return ff.samples[id]
}

// Affected returns the affected samples of a family that are present in
// the input stream.
func (ff *FamilyFilter) Affected(family string) []string {
	return ff.affected[family]
}

// Unaffected returns the unaffected samples of a family that are present
// in the input stream.
func (ff *FamilyFilter) Unaffected(family string) []string {
	return ff.unaffected[family]
}

// TrioComplete returns the affected samples of a family with both parents
// present in the input stream.
func (ff *FamilyFilter) TrioComplete(family string) []string {
	return ff.trioComplete[family]
}

// FamiliesWithModel returns the IDs of families containing at least one
// sample to which the named model applies, in stable order.
func (ff *FamilyFilter) FamiliesWithModel(model string) []string {
	fams := make(map[string]bool)
	for sample, models := range ff.patterns {
		for _, m := range models {
			if m == model {
				if ind, ok := ff.Ped.Individuals[sample]; ok {
					fams[ind.FamilyID] = true
				}
			}
		}
	}
	ids := make([]string, 0, len(fams))
	for id := range fams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllControls returns every unaffected pedigree individual present in the
// input stream, across all families, in stable order.
func (ff *FamilyFilter) AllControls() []string {
	var controls []string
	for fid := range ff.Ped.Families {
		controls = append(controls, ff.unaffected[fid]...)
	}
	sort.Strings(controls)
	return controls
}

func sortedIDs(members map[string]*ped.Individual) []string {
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
