// Package output provides output writers for filtered records and
// per-model audit reports.
package output

import (
	"bufio"
	"io"

	"github.com/seqkin/seqkin/internal/vcf"
)

// VCFWriter writes a VCF header followed by retained records.
type VCFWriter struct {
	w      *bufio.Writer
	header *vcf.Header
}

// NewVCFWriter creates a writer emitting the given header.
func NewVCFWriter(w io.Writer, header *vcf.Header) *VCFWriter {
	return &VCFWriter{
		w:      bufio.NewWriter(w),
		header: header,
	}
}

// WriteHeader writes the header, including any INFO fields registered
// since parsing.
func (vw *VCFWriter) WriteHeader() error {
	_, err := vw.w.WriteString(vw.header.String())
	return err
}

// Write writes a single record.
func (vw *VCFWriter) Write(rec *vcf.Variant) error {
	if _, err := vw.w.WriteString(rec.String()); err != nil {
		return err
	}
	return vw.w.WriteByte('\n')
}

// Flush flushes buffered output.
func (vw *VCFWriter) Flush() error {
	return vw.w.Flush()
}
