package output

import (
	"fmt"
	"os"

	"github.com/seqkin/seqkin/internal/inherit"
)

// Reports holds the optional per-model audit-trail files. A nil writer
// means reporting is disabled for that model.
type Reports struct {
	Recessive *os.File
	Dominant  *os.File
	DeNovo    *os.File
}

// OpenReports creates one report file per active model using the given
// filename prefix. An empty prefix disables reporting.
func OpenReports(prefix string, recessive, dominant, deNovo bool) (*Reports, error) {
	r := &Reports{}
	if prefix == "" {
		return r, nil
	}
	open := func(model string) (*os.File, error) {
		f, err := os.Create(prefix + "." + model + ".report.tsv")
		if err != nil {
			return nil, fmt.Errorf("create %s report: %w", model, err)
		}
		if _, err := fmt.Fprintln(f, inherit.ReportHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write %s report header: %w", model, err)
		}
		return f, nil
	}
	var err error
	if recessive {
		if r.Recessive, err = open("recessive"); err != nil {
			return nil, err
		}
	}
	if dominant {
		if r.Dominant, err = open("dominant"); err != nil {
			r.Close()
			return nil, err
		}
	}
	if deNovo {
		if r.DeNovo, err = open("de_novo"); err != nil {
			r.Close()
			return nil, err
		}
	}
	return r, nil
}

// Close closes every open report file.
func (r *Reports) Close() {
	for _, f := range []*os.File{r.Recessive, r.Dominant, r.DeNovo} {
		if f != nil {
			f.Close()
		}
	}
}
