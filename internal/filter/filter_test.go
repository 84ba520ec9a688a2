package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seqkin/seqkin/internal/vcf"
)

func TestVerdict_MergeAndResolve(t *testing.T) {
	a := NewVerdict(3)
	a.Remove[0] = true
	a.Matched[1] = true

	b := NewVerdict(3)
	b.Remove[2] = true
	b.Keep[0] = true

	MergeInto(&a, b)
	assert.Equal(t, []bool{true, false, true}, a.Remove)
	assert.Equal(t, []bool{true, false, false}, a.Keep)
	assert.Equal(t, []bool{false, true, false}, a.Matched)

	// Keep overrides Remove.
	assert.Equal(t, []bool{false, false, true}, a.Resolve(false, false))

	// filterKnown removes matched alleles.
	assert.Equal(t, []bool{false, true, true}, a.Resolve(true, false))

	// filterNovel removes unmatched alleles.
	assert.Equal(t, []bool{false, false, true}, a.Resolve(false, true))
}

func TestAllTrue(t *testing.T) {
	assert.True(t, AllTrue([]bool{true, true}))
	assert.False(t, AllTrue([]bool{true, false}))
	assert.False(t, AllTrue(nil))
}

func TestAFFilter(t *testing.T) {
	f := &AFFilter{MaxAF: 0.01}

	v := &vcf.Variant{Alts: []string{"G", "T"}, Info: map[string]interface{}{"AF": "0.5,0.001"}}
	got := f.Annotate(v)
	assert.Equal(t, []bool{true, false}, got.Remove)

	// No AF annotation: MaxAF alone removes nothing.
	noAF := &vcf.Variant{Alts: []string{"G"}, Info: map[string]interface{}{}}
	assert.Equal(t, []bool{false}, f.Annotate(noAF).Remove)

	// MinAF removes alleles without a usable frequency.
	minF := &AFFilter{MinAF: 0.0001}
	assert.Equal(t, []bool{true}, minF.Annotate(noAF).Remove)
	dotted := &vcf.Variant{Alts: []string{"G", "T"}, Info: map[string]interface{}{"AF": "0.5,."}}
	assert.Equal(t, []bool{false, true}, minF.Annotate(dotted).Remove)
}

func csqVariant(alts []string, entries ...vcf.CSQAnnotation) *vcf.Variant {
	return &vcf.Variant{Chrom: "1", Pos: 1000, Ref: "A", Alts: alts, CSQ: entries}
}

func TestCSQFilter_Defaults(t *testing.T) {
	f := NewCSQFilter(nil, false)

	v := csqVariant([]string{"G"},
		vcf.CSQAnnotation{Allele: "G", Consequence: "missense_variant", Feature: "ENST1"},
		vcf.CSQAnnotation{Allele: "G", Consequence: "downstream_gene_variant", Feature: "ENST2"},
	)
	remove, ignore := f.Filter(v)
	assert.Equal(t, []bool{false}, remove)
	assert.Equal(t, []bool{false, true}, ignore)
}

func TestCSQFilter_RemovesNonQualifying(t *testing.T) {
	f := NewCSQFilter(nil, false)

	v := csqVariant([]string{"G", "T"},
		vcf.CSQAnnotation{Allele: "G", Consequence: "stop_gained", Feature: "ENST1"},
		vcf.CSQAnnotation{Allele: "T", Consequence: "intron_variant", Feature: "ENST1"},
	)
	remove, _ := f.Filter(v)
	assert.Equal(t, []bool{false, true}, remove)
}

func TestCSQFilter_CanonicalOnly(t *testing.T) {
	f := NewCSQFilter(nil, true)

	v := csqVariant([]string{"G"},
		vcf.CSQAnnotation{Allele: "G", Consequence: "missense_variant", Feature: "ENST1",
			Fields: map[string]string{"CANONICAL": ""}},
	)
	remove, ignore := f.Filter(v)
	assert.Equal(t, []bool{true}, remove)
	assert.Equal(t, []bool{true}, ignore)

	canon := csqVariant([]string{"G"},
		vcf.CSQAnnotation{Allele: "G", Consequence: "missense_variant", Feature: "ENST1",
			Fields: map[string]string{"CANONICAL": "YES"}},
	)
	remove, _ = f.Filter(canon)
	assert.Equal(t, []bool{false}, remove)
}

func TestCSQFilter_NoAnnotations(t *testing.T) {
	f := NewCSQFilter(nil, false)
	remove, ignore := f.Filter(csqVariant([]string{"G"}))
	assert.Equal(t, []bool{false}, remove)
	assert.Empty(t, ignore)
}

func TestCSQFilter_EmptyAlleleAppliesToAll(t *testing.T) {
	f := NewCSQFilter([]string{"missense_variant"}, false)
	v := csqVariant([]string{"G", "T"},
		vcf.CSQAnnotation{Consequence: "missense_variant", Feature: "ENST1"},
	)
	remove, _ := f.Filter(v)
	assert.Equal(t, []bool{false, false}, remove)
}

func TestCSQFilter_IndelVepAllele(t *testing.T) {
	f := NewCSQFilter(nil, false)

	// VEP writes the trimmed allele for indels: "-" for a deletion of
	// the non-shared bases, the suffix for an insertion.
	del := csqVariant([]string{"A"},
		vcf.CSQAnnotation{Allele: "-", Consequence: "frameshift_variant", Feature: "ENST1"},
	)
	del.Ref = "AT"
	remove, _ := f.Filter(del)
	assert.Equal(t, []bool{false}, remove)

	ins := csqVariant([]string{"ACT"},
		vcf.CSQAnnotation{Allele: "CT", Consequence: "inframe_insertion", Feature: "ENST1"},
	)
	remove, _ = f.Filter(ins)
	assert.Equal(t, []bool{false}, remove)
}

func TestCSQFilter_CompoundConsequence(t *testing.T) {
	f := NewCSQFilter([]string{"splice_donor_variant"}, false)
	v := csqVariant([]string{"G"},
		vcf.CSQAnnotation{Allele: "G", Consequence: "splice_donor_variant&intron_variant", Feature: "ENST1"},
	)
	remove, ignore := f.Filter(v)
	assert.Equal(t, []bool{false}, remove)
	assert.Equal(t, []bool{false}, ignore)
}
