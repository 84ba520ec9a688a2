package vcf

import (
	"strconv"
	"strings"
)

// Genotype holds a single sample's parsed genotype call together with the
// quality metrics used by segregation filtering. Missing numeric metrics
// are recorded as -1.
type Genotype struct {
	Alleles []int // allele indexes (0=ref, 1=first alt); -1 for missing calls
	Phased  bool
	GQ      int   // genotype quality, -1 if absent
	DP      int   // read depth, -1 if absent
	AD      []int // per-allele read depths (ref first), nil if absent
}

// ParseGenotype parses a sample column against its FORMAT keys.
func ParseGenotype(format []string, sample string) Genotype {
	gt := Genotype{GQ: -1, DP: -1}
	values := strings.Split(sample, ":")
	for i, key := range format {
		if i >= len(values) {
			break
		}
		val := values[i]
		switch key {
		case "GT":
			gt.Phased = strings.Contains(val, "|")
			for _, a := range strings.FieldsFunc(val, func(r rune) bool {
				return r == '/' || r == '|'
			}) {
				if a == "." {
					gt.Alleles = append(gt.Alleles, -1)
				} else if n, err := strconv.Atoi(a); err == nil {
					gt.Alleles = append(gt.Alleles, n)
				} else {
					gt.Alleles = append(gt.Alleles, -1)
				}
			}
		case "GQ":
			if n, err := strconv.Atoi(val); err == nil {
				gt.GQ = n
			}
		case "DP":
			if n, err := strconv.Atoi(val); err == nil {
				gt.DP = n
			}
		case "AD":
			for _, d := range strings.Split(val, ",") {
				if n, err := strconv.Atoi(d); err == nil {
					gt.AD = append(gt.AD, n)
				} else {
					gt.AD = append(gt.AD, 0)
				}
			}
		}
	}
	return gt
}

// IsMissing returns true when no allele in the call was genotyped.
func (g Genotype) IsMissing() bool {
	if len(g.Alleles) == 0 {
		return true
	}
	for _, a := range g.Alleles {
		if a != -1 {
			return false
		}
	}
	return true
}

// CountAllele returns the number of copies of the given allele index in
// the call.
func (g Genotype) CountAllele(allele int) int {
	n := 0
	for _, a := range g.Alleles {
		if a == allele {
			n++
		}
	}
	return n
}

// HasAllele returns true when the call contains at least one copy of the
// given allele index.
func (g Genotype) HasAllele(allele int) bool {
	return g.CountAllele(allele) > 0
}

// IsHomRef returns true for a fully genotyped homozygous-reference call.
func (g Genotype) IsHomRef() bool {
	if g.IsMissing() {
		return false
	}
	for _, a := range g.Alleles {
		if a != 0 {
			return false
		}
	}
	return true
}

// IsHet returns true when the call carries exactly one copy of the given
// alt allele index.
func (g Genotype) IsHet(allele int) bool {
	return g.CountAllele(allele) == 1
}

// IsHomAlt returns true when every genotyped copy is the given alt allele
// and there are at least two copies.
func (g Genotype) IsHomAlt(allele int) bool {
	return len(g.Alleles) >= 2 && g.CountAllele(allele) == len(g.Alleles)
}

// AlleleBalance returns the fraction of reads supporting the given allele,
// or -1 when allele depths are unavailable.
func (g Genotype) AlleleBalance(allele int) float64 {
	if g.AD == nil || allele >= len(g.AD) {
		return -1
	}
	total := 0
	for _, d := range g.AD {
		total += d
	}
	if total == 0 {
		return -1
	}
	return float64(g.AD[allele]) / float64(total)
}
