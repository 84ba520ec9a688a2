// Package inherit implements Mendelian inheritance segregation filtering:
// the family filter bridging pedigree to sample data, the per-model
// checkers (de novo, dominant, recessive/compound-het) and their deferred
// per-gene-feature resolution.
package inherit

import "github.com/seqkin/seqkin/internal/vcf"

// Gate is the genotype-quality gate shared by all model checkers: the
// threshold tuple applied to every sample/allele evaluation before a
// genotype is used in segregation logic. Zero values disable a check.
type Gate struct {
	MinGQ    int
	MinDP    int
	MaxDP    int
	MinHetAB float64
	MaxHetAB float64 // 0 means no upper bound
	MinHomAB float64
}

// Pass reports whether the genotype call is usable for the given alt
// allele index. A failing call is treated as missing, never as reference.
func (g Gate) Pass(gt vcf.Genotype, allele int) bool {
	if gt.IsMissing() {
		return false
	}
	if g.MinGQ > 0 && gt.GQ >= 0 && gt.GQ < g.MinGQ {
		return false
	}
	if g.MinDP > 0 && gt.DP >= 0 && gt.DP < g.MinDP {
		return false
	}
	if g.MaxDP > 0 && gt.DP >= 0 && gt.DP > g.MaxDP {
		return false
	}
	if !gt.HasAllele(allele) {
		// Reference or other-allele calls are only screened on GQ/DP.
		return true
	}
	ab := gt.AlleleBalance(allele)
	if ab < 0 {
		return true
	}
	if gt.IsHomAlt(allele) {
		if g.MinHomAB > 0 && ab < g.MinHomAB {
			return false
		}
		return true
	}
	if g.MinHetAB > 0 && ab < g.MinHetAB {
		return false
	}
	if g.MaxHetAB > 0 && ab > g.MaxHetAB {
		return false
	}
	return true
}
