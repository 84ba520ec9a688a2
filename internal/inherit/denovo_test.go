package inherit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqkin/seqkin/internal/vcf"
)

func newTrioDeNovo(t *testing.T, minFamilies int) *DeNovoFilter {
	t.Helper()
	p := testPedigree(t, twoFamilyPED)
	samples := []string{"CHILD1", "DAD1", "MOM1", "CHILD2", "MOM2"}
	ff, err := NewFamilyFilter(p, samples, Gate{MinGQ: 20}, true, nil)
	require.NoError(t, err)
	return NewDeNovoFilter(ff, minFamilies, nil, nil)
}

func TestDeNovo_TrioEnumeration(t *testing.T) {
	f := newTrioDeNovo(t, 1)
	// Only FAM1 has a complete trio.
	assert.Equal(t, []string{"CHILD1"}, f.Affected())
}

func TestDeNovo_Basic(t *testing.T) {
	f := newTrioDeNovo(t, 1)

	v := testVariant(1000, "A", []string{"G"}, "ENST1")
	setGT(v, "CHILD1", "0/1:60:30")
	setGT(v, "DAD1", "0/0:60:30")
	setGT(v, "MOM1", "0/0:60:30")

	assert.True(t, f.ProcessRecord(v, nil, nil))
	assert.Equal(t, "CHILD1", v.Info["seqkin_denovo"])
}

func TestDeNovo_InheritedNotFlagged(t *testing.T) {
	f := newTrioDeNovo(t, 1)

	v := testVariant(1000, "A", []string{"G"})
	setGT(v, "CHILD1", "0/1:60:30")
	setGT(v, "DAD1", "0/1:60:30")
	setGT(v, "MOM1", "0/0:60:30")

	assert.False(t, f.ProcessRecord(v, nil, nil))
	assert.NotContains(t, v.Info, "seqkin_denovo")
}

func TestDeNovo_MissingParent(t *testing.T) {
	build := func() *vcf.Variant {
		v := testVariant(1000, "A", []string{"G"})
		setGT(v, "CHILD1", "0/1:60:30")
		setGT(v, "DAD1", "./.")
		setGT(v, "MOM1", "0/0:60:30")
		return v
	}

	// Default: a missing parental genotype blocks the call.
	f := newTrioDeNovo(t, 1)
	assert.False(t, f.ProcessRecord(build(), nil, nil))

	// missing-as-absent treats the missing call as confirmed reference.
	f = newTrioDeNovo(t, 1)
	f.SetMissingAsAbsent(true)
	assert.True(t, f.ProcessRecord(build(), nil, nil))
}

func TestDeNovo_GateFailedParent(t *testing.T) {
	v := testVariant(1000, "A", []string{"G"})
	setGT(v, "CHILD1", "0/1:60:30")
	setGT(v, "DAD1", "0/0:5:30") // below MinGQ
	setGT(v, "MOM1", "0/0:60:30")

	f := newTrioDeNovo(t, 1)
	assert.False(t, f.ProcessRecord(v, nil, nil))
}

func TestDeNovo_IgnoredAllele(t *testing.T) {
	f := newTrioDeNovo(t, 1)

	v := testVariant(1000, "A", []string{"G", "T"})
	setGT(v, "CHILD1", "0/1:60:30")
	setGT(v, "DAD1", "0/0:60:30")
	setGT(v, "MOM1", "0/0:60:30")

	// The carried allele is masked out; the second is not carried.
	assert.False(t, f.ProcessRecord(v, []bool{true, false}, nil))
}

func TestDeNovo_MultiAllelicAnnotation(t *testing.T) {
	f := newTrioDeNovo(t, 1)

	v := testVariant(1000, "A", []string{"G", "T"})
	setGT(v, "CHILD1", "0/2:60:30")
	setGT(v, "DAD1", "0/0:60:30")
	setGT(v, "MOM1", "0/0:60:30")

	assert.True(t, f.ProcessRecord(v, nil, nil))
	assert.Equal(t, ".,CHILD1", v.Info["seqkin_denovo"])
}

func TestDeNovo_MinFamiliesDeferred(t *testing.T) {
	// Two trio families sharing a gene feature.
	pedText := `FAM1 CHILD1 DAD1 MOM1 1 2
FAM1 DAD1 0 0 1 1
FAM1 MOM1 0 0 2 1
FAM2 CHILD2 DAD2 MOM2 2 2
FAM2 DAD2 0 0 1 1
FAM2 MOM2 0 0 2 1
`
	p := testPedigree(t, pedText)
	samples := []string{"CHILD1", "DAD1", "MOM1", "CHILD2", "DAD2", "MOM2"}
	ff, err := NewFamilyFilter(p, samples, Gate{}, true, nil)
	require.NoError(t, err)
	f := NewDeNovoFilter(ff, 2, nil, nil)

	denovoIn := func(pos int64, carriers ...string) *vcf.Variant {
		v := testVariant(pos, "A", []string{"G"}, "ENST1")
		for _, s := range samples {
			setGT(v, s, "0/0:60:30")
		}
		for _, s := range carriers {
			setGT(v, s, "0/1:60:30")
		}
		return v
	}

	v1 := denovoIn(1000, "CHILD1")
	assert.True(t, f.ProcessRecord(v1, nil, nil))
	// One family so far: an open window resolves nothing.
	assert.Empty(t, f.ProcessDeNovos(false))

	v2 := denovoIn(2000, "CHILD2")
	assert.True(t, f.ProcessRecord(v2, nil, nil))

	got := f.ProcessDeNovos(true)
	require.Len(t, got, 2)
	assert.Len(t, got[v1.VarID()], 1)
	assert.Len(t, got[v2.VarID()], 1)
	assert.Equal(t, "FAM1", got[v1.VarID()][0].Family)
}

func TestFeaturesForAllele_VepIndelAllele(t *testing.T) {
	del := testVariant(1000, "TA", []string{"T"})
	del.CSQ = []vcf.CSQAnnotation{{Allele: "-", Feature: "ENST1"}}
	assert.Equal(t, map[string]bool{"ENST1": true}, featuresForAllele(del, 0, nil))

	ins := testVariant(2000, "T", []string{"TCA"})
	ins.CSQ = []vcf.CSQAnnotation{{Allele: "CA", Feature: "ENST2"}}
	assert.Equal(t, map[string]bool{"ENST2": true}, featuresForAllele(ins, 0, nil))
}

func TestDeNovo_DeferredReportAtResolution(t *testing.T) {
	pedText := `FAM1 CHILD1 DAD1 MOM1 1 2
FAM1 DAD1 0 0 1 1
FAM1 MOM1 0 0 2 1
FAM2 CHILD2 DAD2 MOM2 2 2
FAM2 DAD2 0 0 1 1
FAM2 MOM2 0 0 2 1
`
	var buf strings.Builder
	p := testPedigree(t, pedText)
	samples := []string{"CHILD1", "DAD1", "MOM1", "CHILD2", "DAD2", "MOM2"}
	ff, err := NewFamilyFilter(p, samples, Gate{}, true, nil)
	require.NoError(t, err)
	f := NewDeNovoFilter(ff, 2, &buf, nil)

	v1 := testVariant(1000, "A", []string{"G"}, "ENST1")
	for _, s := range samples {
		setGT(v1, s, "0/0:60:30")
	}
	setGT(v1, "CHILD1", "0/1:60:30")
	require.True(t, f.ProcessRecord(v1, nil, nil))

	// One candidate family: no report line until the threshold is met.
	assert.Empty(t, f.ProcessDeNovos(false))
	assert.Empty(t, buf.String())

	v2 := testVariant(2000, "A", []string{"G"}, "ENST1")
	for _, s := range samples {
		setGT(v2, s, "0/0:60:30")
	}
	setGT(v2, "CHILD2", "0/1:60:30")
	require.True(t, f.ProcessRecord(v2, nil, nil))
	assert.Empty(t, buf.String())

	require.Len(t, f.ProcessDeNovos(true), 2)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1:1000-A/G\tde_novo\tFAM1\tCHILD1\tG\t1\tENST1", lines[0])
	assert.Equal(t, "1:2000-A/G\tde_novo\tFAM2\tCHILD2\tG\t1\tENST1", lines[1])
}

func TestDeNovo_ReportLine(t *testing.T) {
	var buf strings.Builder
	p := testPedigree(t, twoFamilyPED)
	samples := []string{"CHILD1", "DAD1", "MOM1"}
	ff, err := NewFamilyFilter(p, samples, Gate{}, true, nil)
	require.NoError(t, err)
	f := NewDeNovoFilter(ff, 1, &buf, nil)

	v := testVariant(1000, "A", []string{"G"}, "ENST1")
	setGT(v, "CHILD1", "0/1:60:30")
	setGT(v, "DAD1", "0/0:60:30")
	setGT(v, "MOM1", "0/0:60:30")
	require.True(t, f.ProcessRecord(v, nil, nil))

	line := strings.TrimSpace(buf.String())
	assert.Equal(t, "1:1000-A/G\tde_novo\tFAM1\tCHILD1\tG\t1\tENST1", line)
}
