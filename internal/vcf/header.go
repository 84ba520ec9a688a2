package vcf

import (
	"fmt"
	"strings"
)

// MetaField describes an INFO header field: name, expected value
// cardinality (VCF Number), value type and free-text description.
type MetaField struct {
	ID          string
	Number      string
	Type        string
	Description string
}

// Header holds the metadata lines of a VCF file plus any fields added
// during processing.
type Header struct {
	lines     []string    // ## meta lines as read, without #CHROM
	chromLine string      // the #CHROM column header line
	added     []MetaField // INFO fields registered during processing
	info      map[string]MetaField
	samples   []string
	csqFormat []string
}

// Samples returns the sample names from the #CHROM header line.
func (h *Header) Samples() []string {
	return h.samples
}

// CSQFormat returns the declared CSQ field names, nil when the input has
// no CSQ INFO declaration.
func (h *Header) CSQFormat() []string {
	return h.csqFormat
}

// HasInfo reports whether an INFO field with the given ID is declared.
func (h *Header) HasInfo(id string) bool {
	_, ok := h.info[id]
	return ok
}

// AddInfoField registers a new INFO field descriptor to be emitted with
// the output header. Adding an already-declared ID is a no-op.
func (h *Header) AddInfoField(f MetaField) {
	if h.info == nil {
		h.info = make(map[string]MetaField)
	}
	if _, ok := h.info[f.ID]; ok {
		return
	}
	h.info[f.ID] = f
	h.added = append(h.added, f)
}

// String renders the full header: original meta lines, added INFO
// declarations, then the #CHROM line.
func (h *Header) String() string {
	var b strings.Builder
	for _, line := range h.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, f := range h.added {
		fmt.Fprintf(&b, "##INFO=<ID=%s,Number=%s,Type=%s,Description=\"%s\">\n",
			f.ID, f.Number, f.Type, f.Description)
	}
	b.WriteString(h.chromLine)
	b.WriteByte('\n')
	return b.String()
}

// parseMetaLine records a ## header line, extracting INFO declarations and
// the CSQ format when present.
func (h *Header) parseMetaLine(line string) {
	h.lines = append(h.lines, line)
	if !strings.HasPrefix(line, "##INFO=<") {
		return
	}
	body := strings.TrimSuffix(strings.TrimPrefix(line, "##INFO=<"), ">")
	f := MetaField{}
	for _, kv := range splitMetaFields(body) {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		val := strings.Trim(parts[1], `"`)
		switch parts[0] {
		case "ID":
			f.ID = val
		case "Number":
			f.Number = val
		case "Type":
			f.Type = val
		case "Description":
			f.Description = val
		}
	}
	if f.ID == "" {
		return
	}
	if h.info == nil {
		h.info = make(map[string]MetaField)
	}
	h.info[f.ID] = f
	if f.ID == "CSQ" {
		h.csqFormat = ParseCSQFormat(f.Description)
	}
}

// splitMetaFields splits a meta line body on commas that are not inside a
// quoted description.
func splitMetaFields(body string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	for _, r := range body {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ',' && !inQuote:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}
