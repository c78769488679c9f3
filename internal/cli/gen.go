package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"retaildw/internal/gen"
)

var (
	genOut  string
	genRows int
	genSeed uint64
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a synthetic transactions CSV",
	Long: `Gen writes a synthetic transactions CSV in the Online Retail II
column layout, including the kinds of dirty rows the pipeline is built to
handle (guest checkouts, zero-quantity noise, duplicates, cancellations).

Example:
  retaildw gen --out sample.csv --rows 5000 --seed 42`,
	RunE: runGen,
}

func init() {
	genCmd.Flags().StringVar(&genOut, "out", "sample.csv",
		"output file path")
	genCmd.Flags().IntVar(&genRows, "rows", 1000,
		"number of data rows to generate")
	genCmd.Flags().Uint64Var(&genSeed, "seed", 0,
		"random seed (0 = time-derived)")
}

func runGen(cmd *cobra.Command, args []string) error {
	f, err := os.Create(genOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", genOut, err)
	}
	defer f.Close()

	g := gen.New(gen.Options{Rows: genRows, Seed: genSeed})
	if err := g.WriteCSV(f); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", genOut, err)
	}
	cmd.Printf("wrote %d rows to %s\n", genRows, genOut)
	return nil
}
