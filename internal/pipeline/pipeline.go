// =============================================================================
// CSV Reconciler - Pipeline
// =============================================================================
//
// This module orchestrates one reconciliation, from the two input files to
// the optional report file. The CLI and the HTTP service both run it.
//
// PIPELINE:
//   1. Load the fin and spo files (CSV, XLSX or XLS)
//   2. Apply the per-dataset transformation rules
//   3. Reconcile the two tables
//   4. Write the report file (optional)
//   5. Write the row warning log (optional)
//   6. Archive the input files (optional)
//
// CONCURRENCY:
//   A Pipeline holds no per-run state and may be shared between goroutines.
//   Every run works on its own tables and result.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/csv-reconciler/internal/config"
	"github.com/ginjaninja78/csv-reconciler/internal/ingest"
	"github.com/ginjaninja78/csv-reconciler/internal/logging"
	"github.com/ginjaninja78/csv-reconciler/internal/reconciler"
	"github.com/ginjaninja78/csv-reconciler/internal/report"
	"github.com/ginjaninja78/csv-reconciler/internal/types"
	"github.com/ginjaninja78/csv-reconciler/internal/validation"
	"github.com/ginjaninja78/csv-reconciler/pkg/utils"
)

// =============================================================================
// REQUEST AND RESULT
// =============================================================================

// Request describes one reconciliation run.
type Request struct {
	// FinPath and SpoPath are the input files.
	FinPath string
	SpoPath string

	// Format selects the report file format. Empty writes no report file.
	Format report.Format

	// OutputPath overrides the generated report path in the output directory.
	OutputPath string

	// WarningLog writes dropped-row warnings next to the report.
	WarningLog bool

	// Archive moves both inputs to the archive directory after success.
	Archive bool
}

// Result represents the outcome of one run.
type Result struct {
	// Reconciliation is the discrepancy report.
	Reconciliation *reconciler.Result

	// OutputFile is the report file, if one was written.
	OutputFile string

	// WarningLogFile is the warning log, if one was written.
	WarningLogFile string

	// ArchivedFiles lists where the inputs were moved.
	ArchivedFiles []string

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the run.
type ProcessingStats struct {
	FinRows          int
	SpoRows          int
	FinDropped       int
	SpoDropped       int
	CellsTransformed int
	Discrepancies    int
	ProcessingTime   time.Duration
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline runs reconciliations with one configuration.
type Pipeline struct {
	cfg          *config.MainConfig
	files        *utils.FileManager
	reconciler   *reconciler.Reconciler
	transformers map[string]*Transformer
	logger       *zerolog.Logger
}

// New creates a Pipeline.
//
// RETURNS:
//   - The pipeline.
//   - An error if the arithmetic mode or a transformation rule is invalid.
func New(cfg *config.MainConfig, logger *zerolog.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Default()
	}

	arithmetic, err := reconciler.ParseArithmetic(cfg.Reconcile.Arithmetic)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:   cfg,
		files: utils.NewFileManager(cfg.UploadDir, cfg.OutputDir, cfg.ArchiveDir),
		reconciler: reconciler.New(
			reconciler.WithColumns(cfg.Reconcile.NameColumn, cfg.Reconcile.AmountColumn),
			reconciler.WithArithmetic(arithmetic),
			reconciler.WithLogger(logger),
		),
		transformers: make(map[string]*Transformer, 2),
		logger:       logger,
	}

	for _, label := range []string{config.DatasetFin, config.DatasetSpo} {
		t, err := NewTransformer(cfg.Datasets.For(label).TransformationRules)
		if err != nil {
			return nil, fmt.Errorf("invalid %s transformation rules: %w", label, err)
		}
		p.transformers[label] = t
	}

	return p, nil
}

// Files returns the file manager the pipeline uses.
func (p *Pipeline) Files() *utils.FileManager {
	return p.files
}

// =============================================================================
// MAIN PROCESSING FUNCTIONS
// =============================================================================

// Run reconciles the two files of the request. The context is checked
// between stages; a cancelled run writes and archives nothing.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	log := p.logger.With().
		Str("fin", filepath.Base(req.FinPath)).
		Str("spo", filepath.Base(req.SpoPath)).
		Logger()

	// =========================================================================
	// STEP 1-2: LOAD AND TRANSFORM
	// =========================================================================

	fin, spo, changed, err := p.load(ctx, req)
	if err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 3: RECONCILE
	// =========================================================================

	recon, err := p.reconciler.Reconcile(fin, spo)
	if err != nil {
		log.Error().Err(err).Msg("Reconciliation failed")
		return nil, err
	}

	result := &Result{
		Reconciliation: recon,
		Stats: ProcessingStats{
			FinRows:          recon.Diagnostics.Fin.Report.RowsRead,
			SpoRows:          recon.Diagnostics.Spo.Report.RowsRead,
			FinDropped:       recon.Diagnostics.Fin.Report.RowsDropped,
			SpoDropped:       recon.Diagnostics.Spo.Report.RowsDropped,
			CellsTransformed: changed,
			Discrepancies:    len(recon.Discrepancies),
		},
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 4-5: WRITE REPORT AND WARNING LOG
	// =========================================================================

	if req.Format != "" || req.OutputPath != "" {
		outputPath, err := p.writeReport(req, recon)
		if err != nil {
			return nil, err
		}
		result.OutputFile = outputPath
		log.Info().Str("output", outputPath).Msg("Wrote report")

		if req.WarningLog {
			logPath, err := utils.WriteWarningLog(warningEntries(fin, spo, recon), filepath.Dir(outputPath))
			if err != nil {
				log.Warn().Err(err).Msg("Failed to write warning log")
			}
			result.WarningLogFile = logPath
		}
	}

	// =========================================================================
	// STEP 6: ARCHIVE INPUTS
	// =========================================================================

	if req.Archive {
		for _, path := range []string{req.FinPath, req.SpoPath} {
			archived, err := p.files.ArchiveInputFile(path)
			if err != nil {
				// The reconciliation itself succeeded.
				log.Warn().Err(err).Str("file", path).Msg("Failed to archive input")
				continue
			}
			result.ArchivedFiles = append(result.ArchivedFiles, archived)
		}
	}

	result.Stats.ProcessingTime = time.Since(startTime)

	log.Info().
		Int("fin_rows", result.Stats.FinRows).
		Int("spo_rows", result.Stats.SpoRows).
		Int("dropped", result.Stats.FinDropped+result.Stats.SpoDropped).
		Int("discrepancies", result.Stats.Discrepancies).
		Float64("total_difference", recon.TotalDifference).
		Dur("duration", result.Stats.ProcessingTime).
		Msg("Reconciliation complete")

	return result, nil
}

// Validate loads both files and checks their structure without reconciling.
//
// RETURNS:
//   - The row-level reports of both datasets (fin first).
//   - The first structural error, or a load error.
func (p *Pipeline) Validate(ctx context.Context, req Request) ([]*validation.Report, error) {
	fin, spo, _, err := p.load(ctx, req)
	if err != nil {
		return nil, err
	}

	recon, err := p.reconciler.Reconcile(fin, spo)
	if err != nil {
		return nil, err
	}

	return []*validation.Report{recon.Diagnostics.Fin.Report, recon.Diagnostics.Spo.Report}, nil
}

// load reads both inputs and applies the transformation rules.
func (p *Pipeline) load(ctx context.Context, req Request) (fin, spo *types.Table, changed int, err error) {
	tables := make(map[string]*types.Table, 2)

	for _, in := range []struct{ label, path string }{
		{config.DatasetFin, req.FinPath},
		{config.DatasetSpo, req.SpoPath},
	} {
		if err := ctx.Err(); err != nil {
			return nil, nil, 0, err
		}

		table, err := ingest.LoadFile(in.path, in.label, p.cfg.Datasets.For(in.label).CSVSettings)
		if err != nil {
			p.logger.Error().Err(err).Str("dataset", in.label).Msg("Failed to load input")
			return nil, nil, 0, err
		}

		if t := p.transformers[in.label]; !t.Empty() {
			n := t.ApplyTable(table)
			changed += n
			p.logger.Debug().Str("dataset", in.label).Int("cells", n).Msg("Applied transformation rules")
		}

		p.logger.Debug().
			Str("dataset", in.label).
			Int("rows", table.RowCount()).
			Strs("headers", table.Headers).
			Msg("Loaded input")

		tables[in.label] = table
	}

	return tables[config.DatasetFin], tables[config.DatasetSpo], changed, nil
}

// writeReport writes the report to the requested or a generated path.
func (p *Pipeline) writeReport(req Request, recon *reconciler.Result) (string, error) {
	format := req.Format
	if format == "" {
		format = formatFromPath(req.OutputPath)
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		if err := p.files.EnsureDirectories(); err != nil {
			return "", err
		}
		name := utils.GenerateOutputFileName(p.cfg.UUIDFormat, report.Extension(format), map[string]string{
			"fin": baseName(req.FinPath),
			"spo": baseName(req.SpoPath),
		})
		outputPath = filepath.Join(p.cfg.OutputDir, name)
	}

	if err := report.WriteFile(outputPath, format, recon); err != nil {
		return "", err
	}
	return outputPath, nil
}

// formatFromPath guesses the report format from an output file extension.
func formatFromPath(path string) report.Format {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "txt" {
		return report.FormatTable
	}
	if format, err := report.ParseFormat(ext); err == nil && format != "" {
		return format
	}
	return report.FormatJSON
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// warningEntries flattens the row warnings of both datasets for the log file.
func warningEntries(fin, spo *types.Table, recon *reconciler.Result) []utils.LogEntry {
	now := time.Now()
	var entries []utils.LogEntry

	for _, ds := range []struct {
		table  *types.Table
		report *validation.Report
	}{
		{fin, recon.Diagnostics.Fin.Report},
		{spo, recon.Diagnostics.Spo.Report},
	} {
		for _, w := range ds.report.Warnings {
			entries = append(entries, utils.LogEntry{
				Timestamp:  now,
				FileName:   filepath.Base(ds.table.SourceFile),
				Dataset:    w.Dataset,
				Rule:       w.Rule,
				Message:    w.Message,
				RowNumber:  w.RowNumber,
				FieldName:  w.Field,
				FieldValue: w.Value,
			})
		}
	}

	return entries
}
