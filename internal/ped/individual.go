// Package ped models pedigrees parsed from PED files: families,
// individuals and their derived relationships.
package ped

// Sex is the coded sex of a pedigree individual.
type Sex int

// PED sex codes: 1=male, 2=female, anything else unknown.
const (
	SexUnknown Sex = 0
	SexMale    Sex = 1
	SexFemale  Sex = 2
)

// Phenotype is the coded affection status of a pedigree individual.
type Phenotype int

// PED phenotype codes: 1=unaffected, 2=affected, anything else
// (including 0 and -9) unknown.
const (
	PhenotypeUnknown    Phenotype = 0
	PhenotypeUnaffected Phenotype = 1
	PhenotypeAffected   Phenotype = 2
)

// Individual is a single member of a pedigree. FatherID/MotherID of "0"
// denote a founder with no recorded parent.
type Individual struct {
	ID       string
	FamilyID string
	FatherID string
	MotherID string
	Sex      Sex
	Phenotype Phenotype

	// Derived relationship sets, computed once per family after all
	// members are known.
	Siblings     []string // share both parents
	HalfSiblings []string // share exactly one parent
	Children     []string // individuals naming this one as a parent
}

// NewIndividual builds an individual from raw PED column values, mapping
// unrecognized sex/phenotype codes to unknown.
func NewIndividual(fid, iid, father, mother string, sex, phenotype int) *Individual {
	ind := &Individual{
		ID:       iid,
		FamilyID: fid,
		FatherID: father,
		MotherID: mother,
	}
	if sex == 1 || sex == 2 {
		ind.Sex = Sex(sex)
	}
	if phenotype == 1 || phenotype == 2 {
		ind.Phenotype = Phenotype(phenotype)
	}
	return ind
}

// IsAffected returns true for phenotype code 2.
func (i *Individual) IsAffected() bool {
	return i.Phenotype == PhenotypeAffected
}

// IsUnaffected returns true for phenotype code 1.
func (i *Individual) IsUnaffected() bool {
	return i.Phenotype == PhenotypeUnaffected
}

// IsMale returns true for sex code 1.
func (i *Individual) IsMale() bool {
	return i.Sex == SexMale
}

// IsFemale returns true for sex code 2.
func (i *Individual) IsFemale() bool {
	return i.Sex == SexFemale
}

// IsFounder returns true when neither parent is recorded.
func (i *Individual) IsFounder() bool {
	return i.FatherID == "0" && i.MotherID == "0"
}

// HasBothParents returns true when both parents are recorded in the
// pedigree (though not necessarily modeled as individuals themselves).
func (i *Individual) HasBothParents() bool {
	return i.FatherID != "0" && i.MotherID != "0"
}
