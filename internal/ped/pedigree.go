package ped

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"
)

// Pedigree is the whole-file pedigree model: all families plus a global
// index of individuals. Built once; read-only after load except for
// programmatic addition of synthetic singleton individuals.
type Pedigree struct {
	Families    map[string]*Family
	Individuals map[string]*Individual
}

// New creates an empty pedigree for programmatic construction, used when
// samples are named directly instead of through a PED file.
func New() *Pedigree {
	return &Pedigree{
		Families:    make(map[string]*Family),
		Individuals: make(map[string]*Individual),
	}
}

// Load parses a PED file from disk.
func Load(path string) (*Pedigree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ped file: %w", err)
	}
	defer f.Close()
	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse ped file %s: %w", path, err)
	}
	return p, nil
}

// Parse reads a white-space delimited PED table. The first six columns
// are family ID, individual ID, father ID, mother ID, sex code and
// phenotype code. Comment lines starting with '#' and blank lines are
// skipped. Individuals are collected first and relationships derived once
// at the end, so row order carries no meaning.
func Parse(r io.Reader) (*Pedigree, error) {
	p := &Pedigree{
		Families:    make(map[string]*Family),
		Individuals: make(map[string]*Individual),
	}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Fields(line)
		if len(cols) < 6 {
			return nil, &MalformedPedigreeError{
				Line:    lineNum,
				Message: fmt.Sprintf("expected at least 6 columns, found %d", len(cols)),
			}
		}
		sex, _ := strconv.Atoi(cols[4])
		phenotype, _ := strconv.Atoi(cols[5])
		ind := NewIndividual(cols[0], cols[1], cols[2], cols[3], sex, phenotype)
		if err := p.insert(ind); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ped: %w", err)
	}

	for _, fam := range p.Families {
		fam.computeRelationships()
	}
	return p, nil
}

// insert places an individual into its family without deriving
// relationships.
func (p *Pedigree) insert(ind *Individual) error {
	if _, ok := p.Individuals[ind.ID]; ok {
		return &DuplicateIndividualError{ID: ind.ID, FamilyID: ind.FamilyID}
	}
	fam, ok := p.Families[ind.FamilyID]
	if !ok {
		fam = NewFamily(ind.FamilyID)
		p.Families[fam.ID] = fam
	}
	if err := fam.add(ind); err != nil {
		return err
	}
	p.Individuals[ind.ID] = ind
	return nil
}

// AddIndividual adds an individual after load, recomputing relationships
// for the affected family. Used to synthesize singleton entries when
// samples are named directly instead of through a PED file.
func (p *Pedigree) AddIndividual(ind *Individual) error {
	if err := p.insert(ind); err != nil {
		return err
	}
	p.Families[ind.FamilyID].computeRelationships()
	return nil
}

// Affected iterates over individuals with an affected phenotype.
func (p *Pedigree) Affected() iter.Seq[*Individual] {
	return p.where((*Individual).IsAffected)
}

// Unaffected iterates over individuals with an unaffected phenotype.
func (p *Pedigree) Unaffected() iter.Seq[*Individual] {
	return p.where((*Individual).IsUnaffected)
}

// Males iterates over individuals with sex code male.
func (p *Pedigree) Males() iter.Seq[*Individual] {
	return p.where((*Individual).IsMale)
}

// Females iterates over individuals with sex code female.
func (p *Pedigree) Females() iter.Seq[*Individual] {
	return p.where((*Individual).IsFemale)
}

func (p *Pedigree) where(pred func(*Individual) bool) iter.Seq[*Individual] {
	return func(yield func(*Individual) bool) {
		for _, ind := range p.Individuals {
			if pred(ind) {
				if !yield(ind) {
					return
				}
			}
		}
	}
}

// MalformedPedigreeError reports a PED line with too few columns.
type MalformedPedigreeError struct {
	Line    int
	Message string
}

func (e *MalformedPedigreeError) Error() string {
	return fmt.Sprintf("malformed ped line %d: %s", e.Line, e.Message)
}

// DuplicateIndividualError reports a repeated individual ID.
type DuplicateIndividualError struct {
	ID       string
	FamilyID string
}

func (e *DuplicateIndividualError) Error() string {
	return fmt.Sprintf("duplicate individual ID %q in family %q", e.ID, e.FamilyID)
}
