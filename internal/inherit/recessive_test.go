package inherit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqkin/seqkin/internal/vcf"
)

// Trio plus an unaffected sibling.
const quadPED = `FAM1 CHILD DAD MOM 1 2
FAM1 SIB DAD MOM 2 1
FAM1 DAD 0 0 1 1
FAM1 MOM 0 0 2 1
`

var quadSamples = []string{"CHILD", "SIB", "DAD", "MOM"}

func newRecessive(t *testing.T, pedText string, samples []string, minFamilies int) *RecessiveFilter {
	t.Helper()
	p := testPedigree(t, pedText)
	ff, err := NewFamilyFilter(p, samples, Gate{MinGQ: 20}, true, nil)
	require.NoError(t, err)
	return NewRecessiveFilter(ff, minFamilies, nil, nil)
}

func TestRecessive_HomozygousTrio(t *testing.T) {
	f := newRecessive(t, quadPED, quadSamples, 1)
	assert.Equal(t, []string{"CHILD"}, f.Affected())

	v := testVariant(1000, "A", []string{"G"}, "ENST1")
	setGT(v, "CHILD", "1/1:60:30")
	setGT(v, "SIB", "0/1:60:30")
	setGT(v, "DAD", "0/1:60:30")
	setGT(v, "MOM", "0/1:60:30")

	require.True(t, f.ProcessRecord(v, nil, nil))

	got := f.ProcessPotentialRecessives(true)
	require.Len(t, got, 1)
	seg := got[v.VarID()][0]
	assert.Equal(t, ModelRecessive, seg.Model)
	assert.Equal(t, []string{"CHILD"}, seg.Samples)
	assert.Equal(t, "FAM1", v.Info["seqkin_recessive_fam"])
}

func TestRecessive_UnaffectedHomozygoteInvalidates(t *testing.T) {
	f := newRecessive(t, quadPED, quadSamples, 1)

	v := testVariant(1000, "A", []string{"G"}, "ENST1")
	setGT(v, "CHILD", "1/1:60:30")
	setGT(v, "SIB", "1/1:60:30")
	setGT(v, "DAD", "0/1:60:30")
	setGT(v, "MOM", "0/1:60:30")

	// The allele is ruled out family-wide; nothing is stored.
	assert.False(t, f.ProcessRecord(v, nil, nil))
	assert.Empty(t, f.ProcessPotentialRecessives(true))
}

func TestRecessive_NonCarrierParentRejectsHom(t *testing.T) {
	f := newRecessive(t, quadPED, quadSamples, 1)

	v := testVariant(1000, "A", []string{"G"}, "ENST1")
	setGT(v, "CHILD", "1/1:60:30")
	setGT(v, "SIB", "0/0:60:30")
	setGT(v, "DAD", "0/0:60:30") // cannot have transmitted the allele
	setGT(v, "MOM", "0/1:60:30")

	assert.False(t, f.ProcessRecord(v, nil, nil))
}

func TestRecessive_GateFailedParentDoesNotVetoHom(t *testing.T) {
	f := newRecessive(t, quadPED, quadSamples, 1)

	v := testVariant(1000, "A", []string{"G"}, "ENST1")
	setGT(v, "CHILD", "1/1:60:30")
	setGT(v, "SIB", "0/0:60:30")
	setGT(v, "DAD", "0/0:5:30") // unusable call, treated as missing
	setGT(v, "MOM", "0/1:60:30")

	assert.True(t, f.ProcessRecord(v, nil, nil))
	assert.Len(t, f.ProcessPotentialRecessives(true), 1)
}

// hetRecord builds a variant het in CHILD with configurable parent and
// sibling calls, annotated to the given feature.
func hetRecord(pos int64, ref, alt, dad, mom, sib, feature string) *vcf.Variant {
	v := testVariant(pos, ref, []string{alt}, feature)
	setGT(v, "CHILD", "0/1:60:30")
	setGT(v, "DAD", dad)
	setGT(v, "MOM", mom)
	setGT(v, "SIB", sib)
	return v
}

func TestRecessive_CompoundHet(t *testing.T) {
	f := newRecessive(t, quadPED, quadSamples, 1)

	// One allele from each parent, same gene feature.
	v1 := hetRecord(1000, "A", "G", "0/1:60:30", "0/0:60:30", "0/0:60:30", "ENST1")
	v2 := hetRecord(2000, "C", "T", "0/0:60:30", "0/1:60:30", "0/0:60:30", "ENST1")
	require.True(t, f.ProcessRecord(v1, nil, nil))
	require.True(t, f.ProcessRecord(v2, nil, nil))

	// Window still open: nothing resolves yet.
	assert.Empty(t, f.ProcessPotentialRecessives(false))

	got := f.ProcessPotentialRecessives(true)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"CHILD"}, got[v1.VarID()][0].Samples)
	assert.Equal(t, []string{"CHILD"}, got[v2.VarID()][0].Samples)
	assert.Equal(t, "FAM1", v1.Info["seqkin_recessive_fam"])
	assert.Equal(t, "FAM1", v2.Info["seqkin_recessive_fam"])
}

func TestRecessive_CompoundHetOrderIndependent(t *testing.T) {
	for _, reversed := range []bool{false, true} {
		f := newRecessive(t, quadPED, quadSamples, 1)

		v1 := hetRecord(1000, "A", "G", "0/1:60:30", "0/0:60:30", "0/0:60:30", "ENST1")
		v2 := hetRecord(2000, "C", "T", "0/0:60:30", "0/1:60:30", "0/0:60:30", "ENST1")
		recs := []*vcf.Variant{v1, v2}
		if reversed {
			recs = []*vcf.Variant{v2, v1}
		}
		for _, v := range recs {
			require.True(t, f.ProcessRecord(v, nil, nil))
		}

		got := f.ProcessPotentialRecessives(true)
		require.Len(t, got, 2)
		for _, v := range recs {
			require.Len(t, got[v.VarID()], 1, "reversed=%v", reversed)
			assert.Equal(t, []string{"CHILD"}, got[v.VarID()][0].Samples)
			assert.Equal(t, "FAM1", v.Info["seqkin_recessive_fam"])
		}
	}
}

func TestRecessive_CompoundHetWindowCloses(t *testing.T) {
	f := newRecessive(t, quadPED, quadSamples, 1)

	v1 := hetRecord(1000, "A", "G", "0/1:60:30", "0/0:60:30", "0/0:60:30", "ENST1")
	v2 := hetRecord(2000, "C", "T", "0/0:60:30", "0/1:60:30", "0/0:60:30", "ENST1")
	require.True(t, f.ProcessRecord(v1, nil, nil))
	require.True(t, f.ProcessRecord(v2, nil, nil))

	// A record in a different feature closes the ENST1 window.
	v3 := hetRecord(9000, "G", "A", "0/0:60:30", "0/0:60:30", "0/0:60:30", "ENST2")
	f.ProcessRecord(v3, nil, nil)

	got := f.ProcessPotentialRecessives(false)
	assert.Len(t, got, 2)
}

func TestRecessive_SameParentOriginRejected(t *testing.T) {
	f := newRecessive(t, quadPED, quadSamples, 1)

	// Both alleles demonstrably paternal: in cis, not biallelic.
	v1 := hetRecord(1000, "A", "G", "0/1:60:30", "0/0:60:30", "0/0:60:30", "ENST1")
	v2 := hetRecord(2000, "C", "T", "0/1:60:30", "0/0:60:30", "0/0:60:30", "ENST1")
	require.True(t, f.ProcessRecord(v1, nil, nil))
	require.True(t, f.ProcessRecord(v2, nil, nil))

	assert.Empty(t, f.ProcessPotentialRecessives(true))
}

func TestRecessive_UnknownOriginPairs(t *testing.T) {
	f := newRecessive(t, quadPED, quadSamples, 1)

	// Parental genotypes missing: origin unknown, pairing allowed.
	v1 := hetRecord(1000, "A", "G", "./.", "./.", "0/0:60:30", "ENST1")
	v2 := hetRecord(2000, "C", "T", "./.", "./.", "0/0:60:30", "ENST1")
	require.True(t, f.ProcessRecord(v1, nil, nil))
	require.True(t, f.ProcessRecord(v2, nil, nil))

	assert.Len(t, f.ProcessPotentialRecessives(true), 2)
}

func TestRecessive_JointUnaffectedCarrierRejected(t *testing.T) {
	f := newRecessive(t, quadPED, quadSamples, 1)

	// The unaffected sibling carries both alleles: the pair cannot be
	// causal under full penetrance.
	v1 := hetRecord(1000, "A", "G", "0/1:60:30", "0/0:60:30", "0/1:60:30", "ENST1")
	v2 := hetRecord(2000, "C", "T", "0/0:60:30", "0/1:60:30", "0/1:60:30", "ENST1")
	require.True(t, f.ProcessRecord(v1, nil, nil))
	require.True(t, f.ProcessRecord(v2, nil, nil))

	assert.Empty(t, f.ProcessPotentialRecessives(true))
}

func TestRecessive_DistinctFeaturesDoNotPair(t *testing.T) {
	f := newRecessive(t, quadPED, quadSamples, 1)

	v1 := hetRecord(1000, "A", "G", "0/1:60:30", "0/0:60:30", "0/0:60:30", "ENST1")
	v2 := hetRecord(2000, "C", "T", "0/0:60:30", "0/1:60:30", "0/0:60:30", "ENST2")
	require.True(t, f.ProcessRecord(v1, nil, nil))
	require.True(t, f.ProcessRecord(v2, nil, nil))

	assert.Empty(t, f.ProcessPotentialRecessives(true))
}

func TestRecessive_MinFamilies(t *testing.T) {
	pedText := `FAM1 AFF1 0 0 1 2
FAM2 AFF2 0 0 2 2
`
	samples := []string{"AFF1", "AFF2"}

	hom := func(pos int64, sample string) *vcf.Variant {
		v := testVariant(pos, "A", []string{"G"}, "ENST1")
		setGT(v, "AFF1", "0/0:60:30")
		setGT(v, "AFF2", "0/0:60:30")
		setGT(v, sample, "1/1:60:30")
		return v
	}

	// One family only: threshold of two discards the candidate.
	f := newRecessive(t, pedText, samples, 2)
	require.True(t, f.ProcessRecord(hom(1000, "AFF1"), nil, nil))
	assert.Empty(t, f.ProcessPotentialRecessives(true))

	// Both families: candidates pass.
	f = newRecessive(t, pedText, samples, 2)
	require.True(t, f.ProcessRecord(hom(1000, "AFF1"), nil, nil))
	require.True(t, f.ProcessRecord(hom(2000, "AFF2"), nil, nil))
	got := f.ProcessPotentialRecessives(true)
	assert.Len(t, got, 2)
}
