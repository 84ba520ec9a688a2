package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seqkin/seqkin/internal/filter"
	"github.com/seqkin/seqkin/internal/inherit"
	"github.com/seqkin/seqkin/internal/output"
	"github.com/seqkin/seqkin/internal/ped"
	"github.com/seqkin/seqkin/internal/popdb"
	"github.com/seqkin/seqkin/internal/runner"
	"github.com/seqkin/seqkin/internal/vcf"
)

type filterOptions struct {
	output string

	pedFile            string
	deNovo             bool
	dominant           bool
	recessive          bool
	singletonRecessive []string
	singletonDominant  []string
	segControls        []string
	minFamilies        int
	maxControlCarriers int
	missingAsAbsent    bool

	minGQ    int
	minDP    int
	maxDP    int
	minHetAB float64
	maxHetAB float64
	minHomAB float64

	passFilters bool
	minQual     float64

	maxAF float64
	minAF float64

	csqClasses  []string
	canonical   bool
	noCSQFilter bool

	popdbPath  string
	popMaxFreq float64
	popMinFreq float64

	filterKnown bool
	filterNovel bool

	reportPrefix string
	burdenCounts string
}

func newFilterCmd() *cobra.Command {
	opts := &filterOptions{}
	cmd := &cobra.Command{
		Use:   "filter [flags] <input.vcf>",
		Short: "Filter a VCF on inheritance models",
		Long: `Filter variants in a coordinate-sorted VCF on segregation with disease.

Models needing a pedigree (--ped) are de novo, dominant and recessive;
recessive and dominant also run on singleton affected samples named
directly. Use '-' as input to read from stdin.`,
		Example: `  seqkin filter --ped fam.ped --de-novo -o out.vcf trio.vcf.gz
  seqkin filter --ped fam.ped --recessive --report-prefix results cohort.vcf
  seqkin filter --singleton-recessive SAMPLE1 --seg-controls C1,C2 input.vcf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", "Output VCF file (default: stdout)")

	f.StringVar(&opts.pedFile, "ped", "", "PED file describing families")
	f.BoolVar(&opts.deNovo, "de-novo", false, "Keep variants arising de novo in affected children")
	f.BoolVar(&opts.dominant, "dominant", false, "Keep variants segregating dominantly with affection status")
	f.BoolVar(&opts.recessive, "recessive", false, "Keep biallelic variants, including compound heterozygotes")
	f.StringSliceVar(&opts.singletonRecessive, "singleton-recessive", nil, "Affected samples without pedigree to screen recessively")
	f.StringSliceVar(&opts.singletonDominant, "singleton-dominant", nil, "Affected samples without pedigree to screen dominantly")
	f.StringSliceVar(&opts.segControls, "seg-controls", nil, "Unaffected samples treated as segregation controls")
	f.IntVar(&opts.minFamilies, "min-families", 1, "Minimum number of families a qualifying allele must segregate in")
	f.IntVar(&opts.maxControlCarriers, "max-control-carriers", 0, "Controls allowed to carry a dominant or de novo allele")
	f.BoolVar(&opts.missingAsAbsent, "missing-as-absent", false, "Treat missing parental genotypes as confirmed reference for de novo calls")

	f.IntVar(&opts.minGQ, "gq", 20, "Minimum genotype quality (0 disables)")
	f.IntVar(&opts.minDP, "dp", 0, "Minimum genotype depth (0 disables)")
	f.IntVar(&opts.maxDP, "max-dp", 0, "Maximum genotype depth (0 disables)")
	f.Float64Var(&opts.minHetAB, "het-ab", 0, "Minimum allele balance of a het call (0 disables)")
	f.Float64Var(&opts.maxHetAB, "max-het-ab", 0, "Maximum allele balance of a het call (0 disables)")
	f.Float64Var(&opts.minHomAB, "hom-ab", 0, "Minimum allele balance of a hom call (0 disables)")

	f.BoolVar(&opts.passFilters, "pass-filters", false, "Only consider records with FILTER of PASS")
	f.Float64Var(&opts.minQual, "min-qual", 0, "Minimum variant QUAL score (0 disables)")

	f.Float64Var(&opts.maxAF, "max-af", 0, "Maximum INFO AF for an allele (0 disables)")
	f.Float64Var(&opts.minAF, "min-af", 0, "Minimum INFO AF for an allele (0 disables)")

	f.StringSliceVar(&opts.csqClasses, "csq", nil, "Consequence classes to keep (default: likely-damaging classes)")
	f.BoolVar(&opts.canonical, "canonical", false, "Only consider annotations on canonical transcripts")
	f.BoolVar(&opts.noCSQFilter, "no-csq-filter", false, "Disable consequence class filtering")

	f.StringVar(&opts.popdbPath, "popdb", "", "Population frequency database built with 'seqkin popdb load'")
	f.Float64Var(&opts.popMaxFreq, "pop-max-freq", 0, "Maximum population frequency for an allele (0 disables)")
	f.Float64Var(&opts.popMinFreq, "pop-min-freq", 0, "Minimum population frequency for an allele (0 disables)")

	f.BoolVar(&opts.filterKnown, "filter-known", false, "Remove alleles present in the population database")
	f.BoolVar(&opts.filterNovel, "filter-novel", false, "Remove alleles absent from the population database")

	f.StringVar(&opts.reportPrefix, "report-prefix", "", "Write per-model segregation reports with this path prefix")
	f.StringVar(&opts.burdenCounts, "burden-counts", "", "Write per-feature case/control carrier counts to this file")

	return cmd
}

func runFilter(input string, opts *filterOptions) error {
	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	wantInheritance := opts.deNovo || opts.dominant || opts.recessive ||
		len(opts.singletonRecessive) > 0 || len(opts.singletonDominant) > 0
	if opts.pedFile == "" && (opts.deNovo || opts.dominant || opts.recessive) {
		return fmt.Errorf("--de-novo, --dominant and --recessive require --ped")
	}
	if !wantInheritance && opts.reportPrefix != "" {
		return fmt.Errorf("--report-prefix requires an inheritance model")
	}

	var pedigree *ped.Pedigree
	if opts.pedFile != "" {
		p, err := ped.Load(opts.pedFile)
		if err != nil {
			return fmt.Errorf("load pedigree: %w", err)
		}
		pedigree = p
	}

	parser, err := openInput(input)
	if err != nil {
		return err
	}
	defer parser.Close()

	out := os.Stdout
	if opts.output != "" {
		out, err = os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer out.Close()
	}

	var filters []filter.AlleleFilter
	if opts.popdbPath != "" {
		store, err := popdb.Open(opts.popdbPath)
		if err != nil {
			return fmt.Errorf("open population database: %w", err)
		}
		defer store.Close()
		filters = append(filters, filter.NewPopFreqFilter(store, opts.popMaxFreq, opts.popMinFreq, logger))
	} else if opts.filterKnown || opts.filterNovel {
		return fmt.Errorf("--filter-known and --filter-novel require --popdb")
	}

	var reports *output.Reports
	if opts.reportPrefix != "" {
		recessive := opts.recessive || len(opts.singletonRecessive) > 0
		dominant := opts.dominant || len(opts.singletonDominant) > 0
		reports, err = output.OpenReports(opts.reportPrefix, recessive, dominant, opts.deNovo)
		if err != nil {
			return fmt.Errorf("open report files: %w", err)
		}
		defer reports.Close()
	}

	var burdenOut *os.File
	if opts.burdenCounts != "" {
		burdenOut, err = os.Create(opts.burdenCounts)
		if err != nil {
			return fmt.Errorf("create burden counts file: %w", err)
		}
		defer burdenOut.Close()
	}

	cfg := runner.Config{
		Pedigree:           pedigree,
		DeNovo:             opts.deNovo,
		Dominant:           opts.dominant,
		Recessive:          opts.recessive,
		SingletonRecessive: opts.singletonRecessive,
		SingletonDominant:  opts.singletonDominant,
		SegControls:        opts.segControls,
		MinFamilies:        opts.minFamilies,
		Gate: inherit.Gate{
			MinGQ:    opts.minGQ,
			MinDP:    opts.minDP,
			MaxDP:    opts.maxDP,
			MinHetAB: opts.minHetAB,
			MaxHetAB: opts.maxHetAB,
			MinHomAB: opts.minHomAB,
		},
		MaxControlCarriers: opts.maxControlCarriers,
		MissingAsAbsent:    opts.missingAsAbsent,
		PassFiltersOnly:    opts.passFilters,
		MinQual:            opts.minQual,
		MaxAF:              opts.maxAF,
		MinAF:              opts.minAF,
		CSQClasses:         opts.csqClasses,
		CanonicalOnly:      opts.canonical,
		NoCSQFilter:        opts.noCSQFilter,
		Filters:            filters,
		FilterKnown:        opts.filterKnown,
		FilterNovel:        opts.filterNovel,
		Reports:            reports,
		Logger:             logger,
	}
	if burdenOut != nil {
		cfg.BurdenOut = burdenOut
	}

	r, err := runner.New(parser, out, cfg)
	if err != nil {
		return err
	}
	return r.Run()
}

func openInput(path string) (*vcf.Parser, error) {
	if path == "-" {
		return vcf.NewParserFromReader(os.Stdin)
	}
	p, err := vcf.NewParser(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return p, nil
}
