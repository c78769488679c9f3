// Package pipeline wires the stages together: read the raw transactions CSV,
// clean it, build the star schema, replace the warehouse contents, and
// optionally export per-table CSVs for the dashboard tool.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"retaildw/internal/clean"
	"retaildw/internal/config"
	"retaildw/internal/export"
	"retaildw/internal/extract"
	"retaildw/internal/logging"
	"retaildw/internal/model"
	"retaildw/internal/records"
	"retaildw/internal/report"
	"retaildw/internal/source"
	"retaildw/internal/star"
	"retaildw/internal/warehouse"
)

// StageCounts tallies rows rejected per cleaning stage.
type StageCounts struct {
	Require int
	Coerce  int
	Filter  int
	DeDup   int
}

// Total returns the sum across all stages.
func (s StageCounts) Total() int {
	return s.Require + s.Coerce + s.Filter + s.DeDup
}

// Result summarizes a completed run.
type Result struct {
	RunID    string
	Read     int
	Skipped  int
	Rejected StageCounts
	Loaded   int
	Summary  report.Summary
	Elapsed  time.Duration
}

// Run executes the full pipeline for cfg. It is a single-shot operation: the
// warehouse named by cfg.Warehouse is fully replaced on success and untouched
// on failure.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	start := time.Now()

	runID := uuid.NewString()
	logging.WithRunID(runID)
	logging.Info().
		Str("input", cfg.Source.Path).
		Str("warehouse", cfg.Warehouse.Kind).
		Msg("starting pipeline run")

	recs, stats, err := readInput(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logging.Info().
		Int("rows", stats.Read).
		Int("skipped", stats.Skipped).
		Msg("extracted raw rows")

	var counts StageCounts
	recs = cleanChain(cfg, &counts).Apply(recs)
	logging.Info().
		Int("kept", len(recs)).
		Int("rejected_require", counts.Require).
		Int("rejected_coerce", counts.Coerce).
		Int("rejected_filter", counts.Filter).
		Int("rejected_dedup", counts.DeDup).
		Msg("cleaned rows")

	lines, err := clean.Lines(recs)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	st, err := star.Build(lines)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	logging.Info().
		Int("dates", len(st.Dates)).
		Int("products", len(st.Products)).
		Int("customers", len(st.Customers)).
		Int("countries", len(st.Countries)).
		Int("facts", len(st.Facts)).
		Msg("built star schema")

	repo, err := warehouse.New(ctx, warehouse.Config{
		Kind:      cfg.Warehouse.Kind,
		DSN:       cfg.Warehouse.DSN,
		BatchSize: cfg.Warehouse.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	defer repo.Close()

	if err := repo.Replace(ctx, warehouse.StarTables(st)); err != nil {
		return nil, fmt.Errorf("pipeline: load: %w", err)
	}
	logging.Info().Msg("warehouse replaced")

	if cfg.Export.Enabled {
		if err := export.Tables(ctx, repo, cfg.Export.Dir); err != nil {
			return nil, fmt.Errorf("pipeline: export: %w", err)
		}
		logging.Info().Str("dir", cfg.Export.Dir).Msg("exported warehouse tables")
	}

	summary, err := report.Load(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("pipeline: report: %w", err)
	}

	res := &Result{
		RunID:    runID,
		Read:     stats.Read,
		Skipped:  stats.Skipped,
		Rejected: counts,
		Loaded:   len(st.Facts),
		Summary:  summary,
		Elapsed:  time.Since(start),
	}
	logging.Info().
		Int64("fact_rows", summary.FactRows).
		Int64("returns", summary.Returns).
		Str("net_sales", summary.NetSales.StringFixed(4)).
		Dur("elapsed", res.Elapsed).
		Msg("pipeline run complete")
	return res, nil
}

// readInput opens the configured source and parses it into records.
func readInput(ctx context.Context, cfg *config.Config) ([]records.Record, extract.Stats, error) {
	src := source.NewLocal(cfg.Source.Path)
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, extract.Stats{}, fmt.Errorf("pipeline: open source: %w", err)
	}
	defer rc.Close()

	var comma rune
	if cfg.Source.Delimiter != "" {
		comma = []rune(cfg.Source.Delimiter)[0]
	}
	reader := extract.NewReader(extract.Options{
		Comma:     comma,
		TrimSpace: true,
		Encoding:  cfg.Source.Encoding,
	})
	recs, stats, err := reader.Parse(rc)
	if err != nil {
		return nil, stats, fmt.Errorf("pipeline: parse: %w", err)
	}
	return recs, stats, nil
}

// requiredFields must be present for a row to be cleanable. customer_id is
// deliberately absent: a blank id is a guest checkout, which Coerce maps to
// the GUEST sentinel instead of dropping the row.
var requiredFields = []string{
	model.FieldInvoice,
	model.FieldStockCode,
	model.FieldDescription,
	model.FieldQuantity,
	model.FieldInvoiceDate,
	model.FieldUnitPrice,
	model.FieldCountry,
}

// cleanChain assembles the cleaning stages in their required order. Rejected
// rows are counted per stage and logged at debug level.
func cleanChain(cfg *config.Config, counts *StageCounts) records.Chain {
	reject := func(n *int) clean.RejectFn {
		return func(row clean.RejectedRow) {
			*n++
			logging.Debug().
				Str("stage", row.Stage).
				Str("reason", row.Reason).
				Str("invoice", row.Raw.String(model.FieldInvoice)).
				Msg("rejected row")
		}
	}

	return records.Chain{
		clean.Require{Fields: requiredFields, Reject: reject(&counts.Require)},
		clean.Coerce{DateLayouts: cfg.Clean.DateLayouts, Reject: reject(&counts.Coerce)},
		clean.Filter{Reject: reject(&counts.Filter)},
		clean.DeDup{Policy: cfg.Clean.DedupPolicy, Reject: reject(&counts.DeDup)},
	}
}
