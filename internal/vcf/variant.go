// Package vcf provides VCF file parsing functionality.
package vcf

import (
	"strconv"
	"strings"
)

// Variant represents a single genomic variant record from a VCF file.
// Multi-allelic records are kept whole: per-allele decisions are made by
// index into Alts, so splitting would lose the shared genotype columns.
type Variant struct {
	Chrom  string                 // Chromosome name (e.g., "12", "chr12")
	Pos    int64                  // 1-based genomic position
	ID     string                 // Variant identifier (e.g., rs ID)
	Ref    string                 // Reference allele
	Alts   []string               // Alternate alleles in column order
	Qual   float64                // Quality score
	Filter string                 // Filter status (PASS or filter name)
	Info   map[string]interface{} // INFO field key-value pairs

	// CSQ holds the parsed functional annotation entries for this record,
	// empty when the input carries no CSQ INFO field.
	CSQ []CSQAnnotation

	infoStr   string   // INFO column as read, for output reconstruction
	addedInfo []string // INFO entries appended after parsing
	rawSample string   // FORMAT + sample columns as read
	samples   map[string]Genotype
}

// NAlts returns the number of alternate alleles.
func (v *Variant) NAlts() int {
	return len(v.Alts)
}

// VarID returns a stable identifier for this record built from position,
// reference and the full alternate allele list.
func (v *Variant) VarID() string {
	return v.Chrom + ":" + strconv.FormatInt(v.Pos, 10) + "-" + v.Ref + "/" +
		strings.Join(v.Alts, ",")
}

// Genotype returns the genotype call for the named sample. The second
// return value is false when the sample is absent from the record.
func (v *Variant) Genotype(sample string) (Genotype, bool) {
	gt, ok := v.samples[sample]
	return gt, ok
}

// SetGenotype attaches a genotype call for the named sample. Used by the
// parser and by tests that build records directly.
func (v *Variant) SetGenotype(sample string, gt Genotype) {
	if v.samples == nil {
		v.samples = make(map[string]Genotype)
	}
	v.samples[sample] = gt
}

// Features returns the set of gene/transcript feature identifiers from the
// record's functional annotations. A record with no annotations yields an
// empty set.
func (v *Variant) Features() map[string]bool {
	feats := make(map[string]bool, len(v.CSQ))
	for _, csq := range v.CSQ {
		if csq.Feature != "" {
			feats[csq.Feature] = true
		}
	}
	return feats
}

// AddInfo appends an INFO entry to the record for output.
func (v *Variant) AddInfo(key, value string) {
	v.addedInfo = append(v.addedInfo, key+"="+value)
	if v.Info == nil {
		v.Info = make(map[string]interface{})
	}
	v.Info[key] = value
}

// IsSNV returns true if the allele at the given index is a single
// nucleotide variant.
func (v *Variant) IsSNV(alt int) bool {
	return len(v.Ref) == 1 && len(v.Alts[alt]) == 1
}

// IsIndel returns true if the allele at the given index is an insertion or
// deletion.
func (v *Variant) IsIndel(alt int) bool {
	return len(v.Ref) != len(v.Alts[alt])
}

// VepAlleles returns each ALT allele in the representation VEP uses for
// the CSQ Allele field: when REF and every ALT share the same leading
// base, that base is trimmed and an allele reduced to nothing becomes
// "-". Star and symbolic alleles are never trimmed and do not block
// trimming of the others.
func (v *Variant) VepAlleles() []string {
	out := make([]string, len(v.Alts))
	copy(out, v.Alts)
	if v.Ref == "" {
		return out
	}
	lead := v.Ref[0]
	trim := false
	for _, alt := range v.Alts {
		if alt == "*" || strings.HasPrefix(alt, "<") {
			continue
		}
		if alt == "" || alt[0] != lead {
			return out
		}
		trim = true
	}
	if !trim {
		return out
	}
	for i, alt := range out {
		switch {
		case alt == "*" || strings.HasPrefix(alt, "<"):
		case len(alt) == 1:
			out[i] = "-"
		default:
			out[i] = alt[1:]
		}
	}
	return out
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	if len(v.Chrom) > 3 && v.Chrom[:3] == "chr" {
		return v.Chrom[3:]
	}
	return v.Chrom
}

// String reconstructs the VCF data line, including any INFO entries added
// after parsing.
func (v *Variant) String() string {
	info := v.infoStr
	if len(v.addedInfo) > 0 {
		if info == "." || info == "" {
			info = strings.Join(v.addedInfo, ";")
		} else {
			info = info + ";" + strings.Join(v.addedInfo, ";")
		}
	}
	if info == "" {
		info = "."
	}

	qual := "."
	if v.Qual != 0 {
		qual = strconv.FormatFloat(v.Qual, 'g', -1, 64)
	}

	fields := []string{
		v.Chrom,
		strconv.FormatInt(v.Pos, 10),
		v.ID,
		v.Ref,
		strings.Join(v.Alts, ","),
		qual,
		v.Filter,
		info,
	}
	line := strings.Join(fields, "\t")
	if v.rawSample != "" {
		line += "\t" + v.rawSample
	}
	return line
}
