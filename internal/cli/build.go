package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"retaildw/internal/config"
	"retaildw/internal/pipeline"
)

var (
	buildExport    bool
	buildExportDir string
	buildDedup     string
	buildBatchSize int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the warehouse from a transactions CSV",
	Long: `Build reads the raw transactions CSV, cleans it, constructs the star
schema, and atomically replaces the target warehouse contents. On success it
prints a summary of rows read, rejected, and loaded.

Example:
  retaildw build --input online_retail_II.csv --kind sqlite --dsn retail.db
  retaildw build --input data.csv --kind postgres --dsn "postgres://user:pw@host/db" --export`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildExport, "export", false,
		"export each warehouse table as CSV after loading")
	buildCmd.Flags().StringVar(&buildExportDir, "export-dir", "",
		"directory for exported CSVs (default: exports)")
	buildCmd.Flags().StringVar(&buildDedup, "dedup", "",
		"dedup policy: exact or invoice-line")
	buildCmd.Flags().IntVar(&buildBatchSize, "batch-size", 0,
		"rows per insert batch")
}

func runBuild(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if buildExport {
		cfg.Export.Enabled = true
	}
	if buildExportDir != "" {
		cfg.Export.Dir = buildExportDir
	}
	if buildDedup != "" {
		cfg.Clean.DedupPolicy = buildDedup
	}
	if buildBatchSize > 0 {
		cfg.Warehouse.BatchSize = buildBatchSize
	}

	if issues := config.Validate(cfg); config.HasErrors(issues) {
		for _, issue := range issues {
			fmt.Fprintln(os.Stderr, issue.Error())
		}
		return fmt.Errorf("invalid configuration")
	}

	// Ctrl+C aborts the run; the warehouse keeps its previous contents.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return err
	}

	cmd.Printf("Read:      %d rows (%d malformed lines skipped)\n", res.Read, res.Skipped)
	cmd.Printf("Rejected:  %d (require %d, coerce %d, filter %d, dedup %d)\n",
		res.Rejected.Total(), res.Rejected.Require, res.Rejected.Coerce,
		res.Rejected.Filter, res.Rejected.DeDup)
	cmd.Printf("Loaded:    %d fact rows\n", res.Loaded)
	cmd.Printf("Returns:   %d (%.2f%%)\n", res.Summary.Returns, res.Summary.ReturnRate()*100)
	cmd.Printf("Net sales: %s\n", res.Summary.NetSales.StringFixed(2))
	cmd.Printf("Elapsed:   %s\n", res.Elapsed.Round(time.Millisecond))
	return nil
}
