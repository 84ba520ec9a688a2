package popdb

import (
	"bufio"
	"compress/gzip"
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"
)

// Frequency is one allele-frequency row to load.
type Frequency struct {
	Chrom string
	Pos   int64
	Ref   string
	Alt   string
	AF    float64
	AC    int64
	AN    int64
}

// freqKey is the composite key for deduplicating rows before writing.
type freqKey struct {
	chrom, ref, alt string
	pos             int64
}

// WriteFrequencies batch-inserts allele frequencies using the Appender
// API. Duplicate (chrom, pos, ref, alt) entries are deduplicated before
// writing.
func (s *Store) WriteFrequencies(rows []Frequency) error {
	if len(rows) == 0 {
		return nil
	}

	seen := make(map[freqKey]bool, len(rows))
	deduped := make([]Frequency, 0, len(rows))
	for _, r := range rows {
		k := freqKey{r.Chrom, r.Ref, r.Alt, r.Pos}
		if !seen[k] {
			seen[k] = true
			deduped = append(deduped, r)
		}
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "allele_frequencies")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range deduped {
		if err := appender.AppendRow(r.Chrom, r.Pos, r.Ref, r.Alt, r.AF, r.AC, r.AN); err != nil {
			return fmt.Errorf("append frequency row: %w", err)
		}
	}

	return appender.Flush()
}

// LoadTSV loads a tab-delimited frequency export into the store. Expected
// columns: chrom, pos, ref, alt, af, and optionally ac and an. Lines
// starting with '#' are skipped. Gzipped files are detected by extension.
func (s *Store) LoadTSV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open frequency file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("open gzip frequency file: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	const batchSize = 10000
	var batch []Frequency
	total := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 5 {
			return total, fmt.Errorf("frequency file line %d: expected at least 5 columns, found %d", lineNum, len(fields))
		}
		pos, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return total, fmt.Errorf("frequency file line %d: invalid position %q", lineNum, fields[1])
		}
		af, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return total, fmt.Errorf("frequency file line %d: invalid frequency %q", lineNum, fields[4])
		}
		row := Frequency{Chrom: fields[0], Pos: pos, Ref: fields[2], Alt: fields[3], AF: af}
		if len(fields) > 5 {
			row.AC, _ = strconv.ParseInt(fields[5], 10, 64)
		}
		if len(fields) > 6 {
			row.AN, _ = strconv.ParseInt(fields[6], 10, 64)
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			if err := s.WriteFrequencies(batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return total, fmt.Errorf("read frequency file: %w", err)
	}
	if err := s.WriteFrequencies(batch); err != nil {
		return total, err
	}
	total += len(batch)
	return total, nil
}
