package ped

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trioPED = `#FamilyID IndividualID FatherID MotherID Sex Phenotype
FAM1 CHILD FATHER MOTHER 1 2
FAM1 FATHER 0 0 1 1
FAM1 MOTHER 0 0 2 1
`

func TestParse_Trio(t *testing.T) {
	p, err := Parse(strings.NewReader(trioPED))
	require.NoError(t, err)

	require.Len(t, p.Families, 1)
	require.Len(t, p.Individuals, 3)

	child := p.Individuals["CHILD"]
	require.NotNil(t, child)
	assert.Equal(t, "FAM1", child.FamilyID)
	assert.Equal(t, "FATHER", child.FatherID)
	assert.Equal(t, "MOTHER", child.MotherID)
	assert.True(t, child.IsAffected())
	assert.True(t, child.IsMale())
	assert.True(t, child.HasBothParents())
	assert.False(t, child.IsFounder())

	father := p.Individuals["FATHER"]
	assert.True(t, father.IsFounder())
	assert.True(t, father.IsUnaffected())
	assert.Equal(t, []string{"CHILD"}, father.Children)

	mother := p.Individuals["MOTHER"]
	assert.True(t, mother.IsFemale())
	assert.Equal(t, []string{"CHILD"}, mother.Children)
}

func TestParse_OrderIndependent(t *testing.T) {
	// Child rows before parent rows must produce the same model.
	reversed := `FAM1 FATHER 0 0 1 1
FAM1 MOTHER 0 0 2 1
FAM1 CHILD FATHER MOTHER 1 2
`
	p1, err := Parse(strings.NewReader(trioPED))
	require.NoError(t, err)
	p2, err := Parse(strings.NewReader(reversed))
	require.NoError(t, err)

	assert.Equal(t, p1.Individuals["FATHER"].Children, p2.Individuals["FATHER"].Children)
	assert.Equal(t, p1.Families["FAM1"].ChildrenOf("MOTHER"), p2.Families["FAM1"].ChildrenOf("MOTHER"))
}

func TestParse_Siblings(t *testing.T) {
	ped := `FAM1 KID1 DAD MOM 1 2
FAM1 KID2 DAD MOM 2 1
FAM1 HALF DAD OTHERMOM 1 1
FAM1 DAD 0 0 1 1
FAM1 MOM 0 0 2 1
`
	p, err := Parse(strings.NewReader(ped))
	require.NoError(t, err)

	kid1 := p.Individuals["KID1"]
	assert.ElementsMatch(t, []string{"KID2"}, kid1.Siblings)
	assert.ElementsMatch(t, []string{"HALF"}, kid1.HalfSiblings)

	// Symmetry
	kid2 := p.Individuals["KID2"]
	assert.ElementsMatch(t, []string{"KID1"}, kid2.Siblings)
	half := p.Individuals["HALF"]
	assert.ElementsMatch(t, []string{"KID1", "KID2"}, half.HalfSiblings)
	assert.Empty(t, half.Siblings)

	// DAD parents all three even though OTHERMOM is not modeled.
	fam := p.Families["FAM1"]
	assert.ElementsMatch(t, []string{"KID1", "KID2", "HALF"}, fam.ChildrenOf("DAD"))
	assert.ElementsMatch(t, []string{"HALF"}, fam.ChildrenOf("OTHERMOM"))
}

func TestParse_TooFewColumns(t *testing.T) {
	_, err := Parse(strings.NewReader("FAM1 CHILD FATHER MOTHER 1\n"))
	var malformed *MalformedPedigreeError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 1, malformed.Line)
}

func TestParse_DuplicateIndividual(t *testing.T) {
	ped := `FAM1 CHILD 0 0 1 2
FAM2 CHILD 0 0 1 2
`
	_, err := Parse(strings.NewReader(ped))
	var dup *DuplicateIndividualError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "CHILD", dup.ID)
}

func TestParse_UnknownCodes(t *testing.T) {
	p, err := Parse(strings.NewReader("FAM1 X 0 0 0 -9\n"))
	require.NoError(t, err)
	x := p.Individuals["X"]
	assert.Equal(t, SexUnknown, x.Sex)
	assert.Equal(t, PhenotypeUnknown, x.Phenotype)
	assert.False(t, x.IsAffected())
	assert.False(t, x.IsUnaffected())
}

func TestPedigree_Queries(t *testing.T) {
	p, err := Parse(strings.NewReader(trioPED))
	require.NoError(t, err)

	var affected, males []string
	for ind := range p.Affected() {
		affected = append(affected, ind.ID)
	}
	for ind := range p.Males() {
		males = append(males, ind.ID)
	}
	assert.ElementsMatch(t, []string{"CHILD"}, affected)
	assert.ElementsMatch(t, []string{"CHILD", "FATHER"}, males)

	// Sequences restart cleanly.
	count := 0
	seq := p.Unaffected()
	for range seq {
		count++
	}
	for range seq {
		count++
	}
	assert.Equal(t, 4, count)
}

func TestPedigree_AddIndividual(t *testing.T) {
	p := New()
	require.NoError(t, p.AddIndividual(NewIndividual("S1", "S1", "0", "0", 0, 2)))
	require.NoError(t, p.AddIndividual(NewIndividual("S2", "S2", "0", "0", 0, 1)))

	err := p.AddIndividual(NewIndividual("S1", "S1", "0", "0", 0, 2))
	var dup *DuplicateIndividualError
	assert.True(t, errors.As(err, &dup))

	assert.True(t, p.Individuals["S1"].IsAffected())
	assert.True(t, p.Families["S2"].Contains("S2"))
}

func TestFamily_Founder(t *testing.T) {
	p, err := Parse(strings.NewReader(trioPED))
	require.NoError(t, err)
	fam := p.Families["FAM1"]

	assert.Empty(t, fam.Founder())
	require.NoError(t, fam.SetFounder("FATHER"))
	assert.Equal(t, "FATHER", fam.Founder())
	assert.Error(t, fam.SetFounder("NOBODY"))
}
