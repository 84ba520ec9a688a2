package inherit

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/seqkin/seqkin/internal/vcf"
)

// Segregant is one confirmed segregation event: a variant allele whose
// presence pattern in one family matched an inheritance model. Immutable
// once created.
type Segregant struct {
	Record   *vcf.Variant
	Allele   int             // alt allele index (0-based into Alts)
	Features map[string]bool // the gene/transcript features it matched in
	Family   string
	Samples  []string // the carrying individuals the match rests on
	Model    string
}

// ReportLine renders the tab-delimited audit-trail line for this event.
func (s *Segregant) ReportLine() string {
	feats := make([]string, 0, len(s.Features))
	for f := range s.Features {
		feats = append(feats, f)
	}
	sort.Strings(feats)
	return strings.Join([]string{
		s.Record.VarID(),
		s.Model,
		s.Family,
		strings.Join(s.Samples, "|"),
		s.Record.Alts[s.Allele],
		strconv.Itoa(s.Allele + 1),
		strings.Join(feats, "|"),
	}, "\t")
}

// ReportHeader is the column header matching ReportLine.
const ReportHeader = "#var_id\tmodel\tfamily\tsamples\tallele\talt_index\tfeatures"

// reportSegregants writes the report lines of resolved segregants in
// variant-identifier order.
func reportSegregants(w io.Writer, segs map[string][]*Segregant) {
	if w == nil || len(segs) == 0 {
		return
	}
	ids := make([]string, 0, len(segs))
	for id := range segs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, seg := range segs[id] {
			fmt.Fprintln(w, seg.ReportLine())
		}
	}
}
