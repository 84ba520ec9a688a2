package vcf

import "strings"

// CSQAnnotation is one functional annotation entry from a VEP-style CSQ
// INFO field: the effect of one allele on one gene/transcript feature.
type CSQAnnotation struct {
	Allele      string // the alternate allele this entry describes
	Consequence string // SO consequence term(s), '&'-separated
	Symbol      string // gene symbol
	Gene        string // gene identifier
	Feature     string // transcript/feature identifier
	Fields      map[string]string
}

// ParseCSQFormat extracts the pipe-separated field names from a CSQ INFO
// header description, e.g.
// `Consequence annotations from Ensembl VEP. Format: Allele|Consequence|...`.
func ParseCSQFormat(description string) []string {
	i := strings.Index(description, "Format: ")
	if i < 0 {
		return nil
	}
	format := description[i+len("Format: "):]
	format = strings.TrimRight(format, `"`)
	return strings.Split(format, "|")
}

// ParseCSQ parses a raw CSQ INFO value into annotation entries using the
// field names declared in the header.
func ParseCSQ(value string, format []string) []CSQAnnotation {
	if value == "" || len(format) == 0 {
		return nil
	}
	entries := strings.Split(value, ",")
	anns := make([]CSQAnnotation, 0, len(entries))
	for _, entry := range entries {
		values := strings.Split(entry, "|")
		ann := CSQAnnotation{Fields: make(map[string]string, len(format))}
		for i, key := range format {
			if i >= len(values) {
				break
			}
			ann.Fields[key] = values[i]
			switch key {
			case "Allele":
				ann.Allele = values[i]
			case "Consequence":
				ann.Consequence = values[i]
			case "SYMBOL":
				ann.Symbol = values[i]
			case "Gene":
				ann.Gene = values[i]
			case "Feature":
				ann.Feature = values[i]
			}
		}
		anns = append(anns, ann)
	}
	return anns
}

// HasConsequence returns true when the entry includes the given SO term.
func (c CSQAnnotation) HasConsequence(term string) bool {
	for rest := c.Consequence; rest != ""; {
		cur := rest
		if i := strings.IndexByte(rest, '&'); i >= 0 {
			cur = rest[:i]
			rest = rest[i+1:]
		} else {
			rest = ""
		}
		if cur == term {
			return true
		}
	}
	return false
}
