// Package runner drives the per-record filtering loop: global gates,
// external allele filters, inheritance checkers and the variant cache,
// in a single ordered pass over a coordinate-sorted stream.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/seqkin/seqkin/internal/burden"
	"github.com/seqkin/seqkin/internal/filter"
	"github.com/seqkin/seqkin/internal/inherit"
	"github.com/seqkin/seqkin/internal/output"
	"github.com/seqkin/seqkin/internal/ped"
	"github.com/seqkin/seqkin/internal/varcache"
	"github.com/seqkin/seqkin/internal/vcf"
)

// ErrNoViableModel is returned when every requested inheritance model
// ends up with zero eligible samples.
var ErrNoViableModel = errors.New("no inheritance filters could be created with current settings")

// Config holds every knob of a filtering run.
type Config struct {
	Pedigree *ped.Pedigree // nil when only singleton samples are given

	DeNovo    bool
	Dominant  bool
	Recessive bool

	SingletonRecessive []string
	SingletonDominant  []string
	SegControls        []string

	MinFamilies        int
	Gate               inherit.Gate
	MaxControlCarriers int
	MissingAsAbsent    bool

	PassFiltersOnly bool
	MinQual         float64

	MaxAF float64
	MinAF float64

	CSQClasses    []string
	CanonicalOnly bool
	NoCSQFilter   bool

	// Extra allele filters assembled by the caller (e.g. the popdb
	// frequency filter), applied in order after the internal AF filter.
	Filters []filter.AlleleFilter

	FilterKnown bool
	FilterNovel bool

	Reports   *output.Reports
	BurdenOut io.Writer

	Logger *zap.Logger
}

// Runner owns the state of one filtering pass.
type Runner struct {
	cfg    Config
	logger *zap.Logger

	parser *vcf.Parser
	out    *output.VCFWriter

	csqFilter *filter.CSQFilter
	filters   []filter.AlleleFilter

	familyFilter    *inherit.FamilyFilter
	controlFilter   *inherit.ControlFilter
	deNovoFilter    *inherit.DeNovoFilter
	dominantFilter  *inherit.DominantFilter
	recessiveFilter *inherit.RecessiveFilter

	cache    *varcache.Cache
	useCache bool

	// pendingKeep holds variant identifiers whose deferred verdict has
	// already resolved to keep while the record itself was still in the
	// open cache window. A record with no feature annotations resolves
	// immediately yet leaves the cache one flush later, so the verdict
	// must outlive the flush that produced it.
	pendingKeep map[string]bool

	counter *burden.Counter

	processed int
	written   int
	filtered  int
}

// New wires a runner over an open parser and output destination. It
// fails fast on configuration errors: inheritance filtering without a
// pedigree or singleton samples, or no viable inheritance model.
func New(parser *vcf.Parser, out io.Writer, cfg Config) (*Runner, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		cfg:    cfg,
		logger: logger,
		parser: parser,
		out:    output.NewVCFWriter(out, parser.Header()),
		cache:  varcache.New(),

		pendingKeep: make(map[string]bool),
	}

	if !cfg.NoCSQFilter {
		r.csqFilter = filter.NewCSQFilter(cfg.CSQClasses, cfg.CanonicalOnly)
	}
	if cfg.MaxAF > 0 || cfg.MinAF > 0 {
		r.filters = append(r.filters, &filter.AFFilter{MaxAF: cfg.MaxAF, MinAF: cfg.MinAF})
	}
	r.filters = append(r.filters, cfg.Filters...)

	wantInheritance := cfg.DeNovo || cfg.Dominant || cfg.Recessive ||
		len(cfg.SingletonRecessive) > 0 || len(cfg.SingletonDominant) > 0
	if wantInheritance {
		if err := r.setupInheritance(); err != nil {
			return nil, err
		}
	}

	for _, f := range r.filters {
		for _, hf := range f.HeaderFields() {
			parser.Header().AddInfoField(hf)
		}
	}

	if cfg.BurdenOut != nil {
		r.setupBurden()
	}
	return r, nil
}

// setupInheritance builds the family filter and the requested model
// checkers, degrading with a warning when a model has no eligible
// samples but another remains viable.
func (r *Runner) setupInheritance() error {
	cfg := &r.cfg
	pedigree := cfg.Pedigree
	infer := true
	if pedigree == nil {
		if len(cfg.SingletonRecessive) == 0 && len(cfg.SingletonDominant) == 0 {
			return inherit.ErrNoPedigree
		}
		pedigree = ped.New()
		infer = false
	}

	// Singleton samples become synthetic one-person families; an ID
	// clashing with a pedigree individual is a configuration error.
	for _, s := range uniq(append(append([]string{}, cfg.SingletonRecessive...), cfg.SingletonDominant...)) {
		ind := ped.NewIndividual(s, s, "0", "0", 0, 2)
		if err := pedigree.AddIndividual(ind); err != nil {
			return fmt.Errorf("singleton sample %q already in pedigree: %w", s, err)
		}
	}
	// Segregation controls already modeled in the pedigree are left as
	// they are.
	for _, s := range uniq(cfg.SegControls) {
		ind := ped.NewIndividual(s, s, "0", "0", 0, 1)
		var dup *ped.DuplicateIndividualError
		if err := pedigree.AddIndividual(ind); err != nil && !errors.As(err, &dup) {
			return err
		}
	}

	ff, err := inherit.NewFamilyFilter(pedigree, r.parser.SampleNames(), cfg.Gate, infer, r.logger)
	if err != nil {
		return err
	}
	for _, s := range cfg.SingletonRecessive {
		ff.ForcePattern(s, inherit.ModelRecessive)
	}
	for _, s := range cfg.SingletonDominant {
		ff.ForcePattern(s, inherit.ModelDominant)
	}
	r.familyFilter = ff

	recessive := cfg.Recessive || len(cfg.SingletonRecessive) > 0
	dominant := cfg.Dominant || len(cfg.SingletonDominant) > 0

	if dominant || cfg.DeNovo {
		r.controlFilter = inherit.NewControlFilter(ff, cfg.MaxControlCarriers)
	}
	var recessiveReport, dominantReport, deNovoReport io.Writer
	if cfg.Reports != nil {
		recessiveReport = reportWriter(cfg.Reports.Recessive)
		dominantReport = reportWriter(cfg.Reports.Dominant)
		deNovoReport = reportWriter(cfg.Reports.DeNovo)
	}
	if cfg.DeNovo {
		f := inherit.NewDeNovoFilter(ff, cfg.MinFamilies, deNovoReport, r.logger)
		f.SetMissingAsAbsent(cfg.MissingAsAbsent)
		if len(f.Affected()) == 0 {
			if !dominant && !recessive {
				return fmt.Errorf("%w: no samples fit a de novo model", ErrNoViableModel)
			}
			r.logger.Warn("no samples fit a de novo model, continuing with other models")
		} else {
			r.deNovoFilter = f
		}
	}
	if dominant {
		f := inherit.NewDominantFilter(ff, cfg.MinFamilies, dominantReport, r.logger)
		if len(f.Affected()) == 0 {
			if !cfg.DeNovo && !recessive {
				return fmt.Errorf("%w: no samples fit a dominant model", ErrNoViableModel)
			}
			r.logger.Warn("no samples fit a dominant model, continuing with other models")
		} else {
			r.dominantFilter = f
		}
	}
	if recessive {
		f := inherit.NewRecessiveFilter(ff, cfg.MinFamilies, recessiveReport, r.logger)
		if len(f.Affected()) == 0 {
			if !cfg.DeNovo && !dominant {
				return fmt.Errorf("%w: no samples fit a recessive model", ErrNoViableModel)
			}
			r.logger.Warn("no samples fit a recessive model, continuing with other models")
		} else {
			r.recessiveFilter = f
		}
	}
	if r.deNovoFilter == nil && r.dominantFilter == nil && r.recessiveFilter == nil {
		return ErrNoViableModel
	}

	r.useCache = r.recessiveFilter != nil ||
		((r.deNovoFilter != nil || r.dominantFilter != nil) && cfg.MinFamilies > 1)

	for _, c := range r.activeCheckers() {
		for _, hf := range c.headerFields() {
			r.parser.Header().AddInfoField(hf)
		}
	}
	return nil
}

// setupBurden builds the burden counter over the affected samples of the
// active checkers as cases and the control cohort as controls.
func (r *Runner) setupBurden() {
	var cases []string
	if r.deNovoFilter != nil {
		cases = append(cases, r.deNovoFilter.Affected()...)
	}
	if r.dominantFilter != nil {
		cases = append(cases, r.dominantFilter.Affected()...)
	}
	if r.recessiveFilter != nil {
		cases = append(cases, r.recessiveFilter.Affected()...)
	}
	var controls []string
	if r.controlFilter != nil {
		controls = r.controlFilter.Controls()
	} else if r.familyFilter != nil {
		controls = r.familyFilter.AllControls()
	}
	r.counter = burden.NewCounter(uniq(cases), uniq(controls))
}

// Run writes the output header, processes the stream to exhaustion and
// finalizes all deferred state.
func (r *Runner) Run() error {
	if err := r.out.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for {
		rec, err := r.parser.Next()
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		if rec == nil {
			break
		}
		if err := r.ProcessRecord(rec); err != nil {
			return err
		}
		r.processed++
		if r.processed%10000 == 0 {
			r.logger.Info("progress",
				zap.Int("processed", r.processed),
				zap.Int("written", r.written),
				zap.Int("filtered", r.filtered),
				zap.String("at", fmt.Sprintf("%s:%d", rec.Chrom, rec.Pos)))
		}
	}
	if err := r.FinishUp(); err != nil {
		return err
	}
	r.logger.Info("finished",
		zap.Int("processed", r.processed),
		zap.Int("written", r.written),
		zap.Int("filtered", r.filtered))
	return nil
}

// ProcessRecord runs one record through the full filter sequence.
func (r *Runner) ProcessRecord(rec *vcf.Variant) error {
	if r.filterGlobal(rec) {
		r.filtered++
		return nil
	}

	filterAlleles, ignoreCSQ := r.filterAllelesExternal(rec)
	if filter.AllTrue(filterAlleles) {
		r.filtered++
		return nil
	}

	// Control cohort screening tightens the mask for dominant/de novo
	// only; recessive carriers may legitimately appear in controls.
	domFilterAlleles := filterAlleles
	if r.controlFilter != nil {
		domFilterAlleles = append([]bool(nil), filterAlleles...)
		for i := range domFilterAlleles {
			if !domFilterAlleles[i] && r.controlFilter.Filter(rec, i) {
				domFilterAlleles[i] = true
			}
		}
	}

	var domHit, denovoHit, recessiveHit bool
	if r.dominantFilter != nil {
		domHit = r.dominantFilter.ProcessRecord(rec, domFilterAlleles, ignoreCSQ)
	}
	if r.deNovoFilter != nil {
		denovoHit = r.deNovoFilter.ProcessRecord(rec, domFilterAlleles, ignoreCSQ)
	}
	if r.recessiveFilter != nil {
		recessiveHit = r.recessiveFilter.ProcessRecord(rec, filterAlleles, ignoreCSQ)
	}

	switch {
	case r.useCache:
		if denovoHit || domHit || recessiveHit {
			// Dominant/de novo verdicts are final per record unless a
			// cross-family threshold defers them.
			keepAnyway := r.cfg.MinFamilies < 2 && (denovoHit || domHit)
			r.cache.Add(rec, keepAnyway)
		} else {
			r.cache.Check(rec)
			r.filtered++
		}
		if r.cache.HasOutputReady() {
			return r.outputCache(false)
		}
	case r.deNovoFilter != nil || r.dominantFilter != nil:
		if denovoHit || domHit {
			r.written++
			if r.counter != nil {
				r.counter.Count(rec, domFilterAlleles, ignoreCSQ)
			}
			return r.out.Write(rec)
		}
		r.filtered++
	default:
		r.written++
		if r.counter != nil {
			r.counter.Count(rec, filterAlleles, ignoreCSQ)
		}
		return r.out.Write(rec)
	}
	return nil
}

// filterGlobal applies whole-record gates.
func (r *Runner) filterGlobal(rec *vcf.Variant) bool {
	if r.cfg.PassFiltersOnly && rec.Filter != "PASS" {
		return true
	}
	if r.cfg.MinQual > 0 && rec.Qual < r.cfg.MinQual {
		return true
	}
	return false
}

// filterAllelesExternal merges the votes of every external evidence
// filter into the per-allele exclusion mask, plus the per-CSQ exclusion
// mask from the consequence filter.
func (r *Runner) filterAllelesExternal(rec *vcf.Variant) ([]bool, []bool) {
	verdict := filter.NewVerdict(rec.NAlts())
	for i, alt := range rec.Alts {
		if alt == "*" {
			verdict.Remove[i] = true
		}
	}
	var ignoreCSQ []bool
	if r.csqFilter != nil {
		removeAlleles, ignore := r.csqFilter.Filter(rec)
		ignoreCSQ = ignore
		for i, rm := range removeAlleles {
			if rm {
				verdict.Remove[i] = true
			}
		}
	}
	for _, f := range r.filters {
		filter.MergeInto(&verdict, f.Annotate(rec))
	}
	return verdict.Resolve(r.cfg.FilterKnown, r.cfg.FilterNovel), ignoreCSQ
}

// outputCache resolves deferred checker state and emits every
// output-ready record that either carries an unconditional keep or whose
// identifier appears in a resolved pass-set. Resolved identifiers are
// held in pendingKeep until the record leaves the cache, so a verdict
// reached before its record's window flushes is not lost.
func (r *Runner) outputCache(final bool) error {
	var recessiveSegs, dominantSegs, deNovoSegs map[string][]*inherit.Segregant

	if r.recessiveFilter != nil {
		recessiveSegs = r.recessiveFilter.ProcessPotentialRecessives(final)
		for id := range recessiveSegs {
			r.pendingKeep[id] = true
		}
	}
	if r.dominantFilter != nil && r.cfg.MinFamilies > 1 {
		dominantSegs = r.dominantFilter.ProcessDominants(final)
		for id := range dominantSegs {
			r.pendingKeep[id] = true
		}
	}
	if r.deNovoFilter != nil && r.cfg.MinFamilies > 1 {
		deNovoSegs = r.deNovoFilter.ProcessDeNovos(final)
		for id := range deNovoSegs {
			r.pendingKeep[id] = true
		}
	}

	if final {
		r.cache.Flush()
	}
	for _, cv := range r.cache.OutputReady() {
		if cv.CanOutput || r.pendingKeep[cv.VarID] {
			delete(r.pendingKeep, cv.VarID)
			r.written++
			if err := r.out.Write(cv.Record); err != nil {
				return err
			}
		} else {
			r.filtered++
		}
	}
	r.cache.ClearOutputReady()

	if r.counter != nil {
		// Dominant and de novo before recessive: their per-sample cap
		// of one must not lower the recessive cap of two.
		r.counter.CountSegregants(dominantSegs, 1)
		r.counter.CountSegregants(deNovoSegs, 1)
		r.counter.CountSegregants(recessiveSegs, 2)
	}
	return nil
}

// FinishUp forces resolution of open models, drains the cache and
// flushes output.
func (r *Runner) FinishUp() error {
	if r.useCache {
		if err := r.outputCache(true); err != nil {
			return err
		}
	}
	if r.counter != nil && r.cfg.BurdenOut != nil {
		if err := r.counter.Output(r.cfg.BurdenOut); err != nil {
			return fmt.Errorf("write burden counts: %w", err)
		}
	}
	return r.out.Flush()
}

// Processed returns the number of records read.
func (r *Runner) Processed() int { return r.processed }

// Written returns the number of records emitted.
func (r *Runner) Written() int { return r.written }

// Filtered returns the number of records discarded.
func (r *Runner) Filtered() int { return r.filtered }

// activeChecker adapts the three checker types for header registration.
type activeChecker struct {
	headerFields func() []vcf.MetaField
}

func (r *Runner) activeCheckers() []activeChecker {
	var cs []activeChecker
	if r.deNovoFilter != nil {
		cs = append(cs, activeChecker{r.deNovoFilter.HeaderFields})
	}
	if r.dominantFilter != nil {
		cs = append(cs, activeChecker{r.dominantFilter.HeaderFields})
	}
	if r.recessiveFilter != nil {
		cs = append(cs, activeChecker{r.recessiveFilter.HeaderFields})
	}
	return cs
}

func reportWriter(f *os.File) io.Writer {
	if f == nil {
		return nil
	}
	return f
}

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
