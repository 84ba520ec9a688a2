package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seqkin/seqkin/internal/popdb"
)

func newPopdbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "popdb",
		Short: "Manage the population frequency database",
	}
	cmd.AddCommand(newPopdbLoadCmd())
	cmd.AddCommand(newPopdbCountCmd())
	return cmd
}

func newPopdbLoadCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "load --db <file.duckdb> <frequencies.tsv[.gz]>...",
		Short: "Load allele frequency tables into a DuckDB database",
		Long: `Load one or more tab-separated allele frequency tables into a DuckDB
database for use with 'seqkin filter --popdb'. Expected columns are
chrom, pos, ref, alt, af and optionally ac and an. Lines starting with
'#' are skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPopdbLoad(dbPath, args)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Database file to create or append to")
	cmd.MarkFlagRequired("db") //nolint:errcheck
	return cmd
}

func newPopdbCountCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "count --db <file.duckdb>",
		Short: "Print the number of alleles in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := popdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.Count()
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Database file")
	cmd.MarkFlagRequired("db") //nolint:errcheck
	return cmd
}

func runPopdbLoad(dbPath string, paths []string) error {
	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	store, err := popdb.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	total := 0
	for _, p := range paths {
		n, err := store.LoadTSV(p)
		if err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		logger.Info("loaded frequency table", zap.String("path", p), zap.Int("rows", n))
		total += n
	}
	logger.Info("population database ready", zap.String("db", dbPath), zap.Int("rows", total))
	return nil
}
