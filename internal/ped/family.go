package ped

import "fmt"

// Family stores the individuals of one family together with the
// parent-to-children index derived from their recorded parent IDs.
type Family struct {
	ID      string
	Members map[string]*Individual

	// parents maps a parent ID (modeled or not) to the IDs of that
	// parent's children within the family.
	parents map[string][]string
	founder string
}

// NewFamily creates an empty family.
func NewFamily(id string) *Family {
	return &Family{
		ID:      id,
		Members: make(map[string]*Individual),
		parents: make(map[string][]string),
	}
}

// Contains reports whether an individual with the given ID belongs to the
// family.
func (f *Family) Contains(id string) bool {
	_, ok := f.Members[id]
	return ok
}

// add inserts an individual without recomputing relationships. The family
// ID of the individual is rewritten to the family's own.
func (f *Family) add(ind *Individual) error {
	if _, ok := f.Members[ind.ID]; ok {
		return &DuplicateIndividualError{ID: ind.ID, FamilyID: f.ID}
	}
	ind.FamilyID = f.ID
	f.Members[ind.ID] = ind
	return nil
}

// computeRelationships derives sibling, half-sibling and children sets
// for every member from scratch. Run once after all members are known;
// running it again after a later insertion is safe because it rebuilds
// rather than extends.
func (f *Family) computeRelationships() {
	f.parents = make(map[string][]string)
	for _, ind := range f.Members {
		ind.Siblings = nil
		ind.HalfSiblings = nil
		ind.Children = nil
	}
	for _, ind := range f.Members {
		for _, other := range f.Members {
			if other.ID == ind.ID {
				continue
			}
			sharedMother := ind.MotherID != "0" && ind.MotherID == other.MotherID
			sharedFather := ind.FatherID != "0" && ind.FatherID == other.FatherID
			if sharedMother && sharedFather {
				ind.Siblings = append(ind.Siblings, other.ID)
			} else if sharedMother || sharedFather {
				ind.HalfSiblings = append(ind.HalfSiblings, other.ID)
			}
		}
		// Parent links are recorded whether or not the parent is itself
		// a modeled individual.
		for _, parent := range []string{ind.FatherID, ind.MotherID} {
			if parent != "0" {
				f.parents[parent] = append(f.parents[parent], ind.ID)
			}
		}
	}
	for parent, children := range f.parents {
		if ind, ok := f.Members[parent]; ok {
			ind.Children = children
		}
	}
}

// ChildrenOf returns the IDs of the recorded children of the given parent
// ID within the family.
func (f *Family) ChildrenOf(parent string) []string {
	return f.parents[parent]
}

// SetFounder designates a member as the family founder.
func (f *Family) SetFounder(id string) error {
	if !f.Contains(id) {
		return fmt.Errorf("set founder for family %s: no individual %q in family", f.ID, id)
	}
	f.founder = id
	return nil
}

// Founder returns the designated founder ID, empty if none was set.
func (f *Family) Founder() string {
	return f.founder
}
