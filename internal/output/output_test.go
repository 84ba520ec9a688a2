package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqkin/seqkin/internal/inherit"
	"github.com/seqkin/seqkin/internal/vcf"
)

func TestVCFWriter(t *testing.T) {
	data := "##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n1\t1000\t.\tA\tG\t50\tPASS\t.\n"
	p, err := vcf.NewParserFromReader(strings.NewReader(data))
	require.NoError(t, err)

	var out strings.Builder
	w := NewVCFWriter(&out, p.Header())
	require.NoError(t, w.WriteHeader())

	rec, err := p.Next()
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Flush())

	want := "##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n1\t1000\t.\tA\tG\t50\tPASS\t.\n"
	assert.Equal(t, want, out.String())
}

func TestOpenReports(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run")
	r, err := OpenReports(prefix, true, false, true)
	require.NoError(t, err)
	defer r.Close()

	assert.NotNil(t, r.Recessive)
	assert.Nil(t, r.Dominant)
	assert.NotNil(t, r.DeNovo)

	r.Close()
	data, err := os.ReadFile(prefix + ".recessive.report.tsv")
	require.NoError(t, err)
	assert.Equal(t, inherit.ReportHeader+"\n", string(data))

	_, err = os.Stat(prefix + ".de_novo.report.tsv")
	assert.NoError(t, err)
}

func TestOpenReports_EmptyPrefix(t *testing.T) {
	r, err := OpenReports("", true, true, true)
	require.NoError(t, err)
	assert.Nil(t, r.Recessive)
	assert.Nil(t, r.Dominant)
	assert.Nil(t, r.DeNovo)
}
