package converter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/tally-voucher-export/internal/alias"
	"github.com/ginjaninja78/tally-voucher-export/internal/config"
	"github.com/ginjaninja78/tally-voucher-export/internal/history"
	"github.com/ginjaninja78/tally-voucher-export/internal/masters"
	"github.com/ginjaninja78/tally-voucher-export/internal/source"
	"github.com/ginjaninja78/tally-voucher-export/internal/validation"
	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
	"github.com/ginjaninja78/tally-voucher-export/internal/xmlwriter"
	"github.com/ginjaninja78/tally-voucher-export/pkg/utils"
)

// Export kinds, used in file names, summaries and the history.
const (
	KindVouchers = "vouchers"
	KindLedgers  = "ledgers"
)

// ErrLedgersFailed is returned by ExportLedgers when ContinueOnError is off
// and at least one account could not be exported.
var ErrLedgersFailed = errors.New("ledgers failed")

// Recorder stores finished runs. *history.Runs implements it.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Report describes the files and figures of one export.
type Report struct {
	Summary utils.ProcessingSummary
	Status  string

	ArchiveFile string
	ErrorLog    string
	SummaryLog  string

	// Run is set for voucher exports.
	Run *RunResult
}

// Pipeline runs exports from a source to XML files.
type Pipeline struct {
	cfg      *config.MainConfig
	src      source.Source
	files    *utils.FileManager
	recorder Recorder
	logger   *zap.Logger
	aliases  voucher.TransformerOptions
}

// LoadAliases loads the configured alias tables. Any malformed table fails
// the whole run.
func LoadAliases(cfg config.AliasConfig) (voucher.TransformerOptions, error) {
	var opts voucher.TransformerOptions

	tables := []struct {
		path   string
		target *voucher.Resolver
	}{
		{cfg.Accounts, &opts.AccountAliases},
		{cfg.VoucherTypes, &opts.VoucherTypeAliases},
		{cfg.AccountTypes, &opts.AccountTypeAliases},
	}

	for _, table := range tables {
		if table.path == "" {
			continue
		}
		loaded, err := alias.Load(table.path)
		if err != nil {
			return voucher.TransformerOptions{}, err
		}
		*table.target = loaded
	}

	return opts, nil
}

// NewPipeline loads the alias tables and prepares the output directories.
// recorder and logger may be nil.
func NewPipeline(cfg *config.MainConfig, src source.Source, recorder Recorder, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	aliases, err := LoadAliases(cfg.Aliases)
	if err != nil {
		return nil, fmt.Errorf("failed to load alias tables: %w", err)
	}

	files := utils.NewFileManager(cfg.OutputDir, cfg.OutputArchiveDir)
	files.UseTimestampSubdirs = cfg.ArchiveTimestampSubdirs
	if err := files.EnsureDirectories(); err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		src:      src,
		files:    files,
		recorder: recorder,
		logger:   logger,
		aliases:  aliases,
	}, nil
}

// transformer loads the account directory and builds the run's transformer.
func (p *Pipeline) transformer(ctx context.Context) ([]voucher.Account, *voucher.Transformer, error) {
	accounts, err := p.src.Accounts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	p.logger.Debug("accounts loaded", zap.Int("accounts", len(accounts)))
	return accounts, voucher.NewTransformer(voucher.NewDirectory(accounts), p.aliases), nil
}

// =============================================================================
// VOUCHER EXPORT
// =============================================================================

// ExportVouchers exports the vouchers dated inside period.
//
// PARAMETERS:
//   - period: The inclusive date range. Empty bounds are open.
//   - dryRun: Transform and report without writing any file or history.
//
// RETURNS:
//   - The report. It is nil when the run could not start.
//   - An error wrapping ErrVouchersFailed when ContinueOnError is off and a
//     voucher failed; no XML is written in that case.
func (p *Pipeline) ExportVouchers(ctx context.Context, period source.Period, dryRun bool) (*Report, error) {
	startTime := time.Now()

	_, transformer, err := p.transformer(ctx)
	if err != nil {
		return nil, err
	}

	raws, err := p.src.Vouchers(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to load vouchers: %w", err)
	}

	validator := validation.NewValidatorWithOptions(validation.ValidationOptions{
		TreatWarningsAsErrors: p.cfg.TreatWarningsAsErrors,
	})

	conv := New(transformer, validator, Options{
		MaxConcurrency:  p.cfg.MaxConcurrency,
		ContinueOnError: p.cfg.ShouldContinueOnError(),
	}, p.logger)

	run, runErr := conv.Run(ctx, raws)
	if run == nil {
		return nil, runErr
	}

	report := &Report{
		Run:    run,
		Status: history.StatusOf(run.Failed, runErr != nil),
		Summary: utils.ProcessingSummary{
			RunID:      run.RunID,
			Kind:       KindVouchers,
			PeriodFrom: period.From,
			PeriodTo:   period.To,
			StartTime:  startTime,
			Total:      run.Total,
			Succeeded:  run.Succeeded,
			Failed:     run.Failed,
			Warnings:   run.Warnings,
			Failures:   voucherFailures(run),
		},
	}

	if dryRun {
		report.Summary.EndTime = time.Now()
		return report, runErr
	}

	if runErr == nil {
		data, err := xmlwriter.Generate(run.Document)
		if err != nil {
			return nil, fmt.Errorf("failed to generate XML: %w", err)
		}
		if err := p.writeOutput(report, data, period); err != nil {
			return nil, err
		}
	}

	report.Summary.EndTime = time.Now()
	p.finish(ctx, report, voucherLogEntries(run))

	return report, runErr
}

// ExportVouchersByMonth runs ExportVouchers once per calendar month of
// period, stopping at the first error.
func (p *Pipeline) ExportVouchersByMonth(ctx context.Context, period source.Period, dryRun bool) ([]*Report, error) {
	months, err := source.SplitMonths(period)
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, 0, len(months))
	for _, month := range months {
		report, err := p.ExportVouchers(ctx, month, dryRun)
		if report != nil {
			reports = append(reports, report)
		}
		if err != nil {
			return reports, fmt.Errorf("month %s: %w", month, err)
		}
	}
	return reports, nil
}

// =============================================================================
// LEDGER EXPORT
// =============================================================================

// ExportLedgers exports ledger masters for the account directory.
//
// PARAMETERS:
//   - names: Account names to export. Empty exports every account.
//   - dryRun: Build and report without writing any file or history.
func (p *Pipeline) ExportLedgers(ctx context.Context, names []string, dryRun bool) (*Report, error) {
	startTime := time.Now()
	runID := newRunID()

	accounts, transformer, err := p.transformer(ctx)
	if err != nil {
		return nil, err
	}

	built := masters.Build(accounts, transformer, names...)
	total := len(built.Document.Ledgers) + len(built.Failures)

	var failErr error
	if len(built.Failures) > 0 && !p.cfg.ShouldContinueOnError() {
		failErr = fmt.Errorf("%w: %d of %d", ErrLedgersFailed, len(built.Failures), total)
	}

	logger := p.logger.With(zap.String("run_id", runID))
	for _, f := range built.Failures {
		logger.Warn("ledger failed",
			zap.String("account_id", f.AccountID),
			zap.String("account", f.AccountName),
			zap.String("kind", f.Kind.String()),
			zap.Error(f.Err))
	}
	logger.Info("ledgers built",
		zap.Int("ledgers", len(built.Document.Ledgers)),
		zap.Int("failed", len(built.Failures)),
		zap.Int("skipped", built.Skipped))

	report := &Report{
		Status: history.StatusOf(len(built.Failures), failErr != nil),
		Summary: utils.ProcessingSummary{
			RunID:     runID,
			Kind:      KindLedgers,
			StartTime: startTime,
			Total:     total,
			Succeeded: len(built.Document.Ledgers),
			Failed:    len(built.Failures),
			Failures:  ledgerFailures(built.Failures),
		},
	}

	if dryRun {
		report.Summary.EndTime = time.Now()
		return report, failErr
	}

	if failErr == nil {
		data, err := xmlwriter.GenerateLedgers(built.Document)
		if err != nil {
			return nil, fmt.Errorf("failed to generate XML: %w", err)
		}
		if err := p.writeOutput(report, data, source.Period{}); err != nil {
			return nil, err
		}
	}

	report.Summary.EndTime = time.Now()
	p.finish(ctx, report, ledgerLogEntries(built.Failures))

	return report, failErr
}

// =============================================================================
// OUTPUT AND REPORTING
// =============================================================================

// writeOutput writes and archives the XML file of report.
func (p *Pipeline) writeOutput(report *Report, data []byte, period source.Period) error {
	fileName := utils.GenerateOutputFileName(p.cfg.FileNameFormat, fileNameParams(report.Summary.Kind, period))

	outputPath, err := p.files.WriteOutputFile(fileName, data)
	if err != nil {
		return err
	}
	report.Summary.OutputFile = outputPath
	p.logger.Info("output written", zap.String("file", outputPath), zap.Int("bytes", len(data)))

	archivePath, err := p.files.ArchiveOutputFile(outputPath)
	if err != nil {
		// The output itself is in place.
		p.logger.Warn("archiving failed", zap.String("file", outputPath), zap.Error(err))
		return nil
	}
	report.ArchiveFile = archivePath

	if archivePath != "" && p.cfg.ArchiveRetentionDays > 0 {
		maxAge := time.Duration(p.cfg.ArchiveRetentionDays) * 24 * time.Hour
		removed, err := utils.CleanOldArchives(p.cfg.OutputArchiveDir, maxAge)
		if err != nil {
			p.logger.Warn("archive cleanup failed", zap.Error(err))
		} else if removed > 0 {
			p.logger.Info("old archives removed", zap.Int("files", removed))
		}
	}

	return nil
}

// finish writes the error log and summary and records the run. Failures
// here are logged; the export itself has already happened.
func (p *Pipeline) finish(ctx context.Context, report *Report, entries []utils.ErrorLogEntry) {
	summary := report.Summary

	errorLog, err := utils.WriteErrorLog(entries, p.cfg.OutputDir, summary.RunID)
	if err != nil {
		p.logger.Warn("failed to write error log", zap.Error(err))
	}
	report.ErrorLog = errorLog

	summaryLog, err := utils.WriteSummaryLog(summary, p.cfg.OutputDir)
	if err != nil {
		p.logger.Warn("failed to write summary", zap.Error(err))
	}
	report.SummaryLog = summaryLog

	if p.recorder == nil {
		return
	}

	run := history.Run{
		RunID:      summary.RunID,
		Kind:       summary.Kind,
		PeriodFrom: summary.PeriodFrom,
		PeriodTo:   summary.PeriodTo,
		StartedAt:  summary.StartTime,
		FinishedAt: summary.EndTime,
		Total:      summary.Total,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Warnings:   summary.Warnings,
		OutputFile: summary.OutputFile,
		Status:     report.Status,
	}
	for _, f := range summary.Failures {
		run.Failures = append(run.Failures, history.Failure{
			Position:    f.Position,
			VoucherDate: f.Date,
			VoucherNo:   firstNonEmpty(f.VoucherNo, f.Account),
			Kind:        f.Kind,
			Message:     f.Error,
		})
	}

	if err := p.recorder.Record(ctx, run); err != nil {
		p.logger.Warn("failed to record run", zap.String("run_id", run.RunID), zap.Error(err))
	}
}

func voucherFailures(run *RunResult) []utils.FailedItemInfo {
	var failures []utils.FailedItemInfo
	for _, res := range run.Failures() {
		failures = append(failures, utils.FailedItemInfo{
			Position:  res.Position,
			Date:      res.Date,
			VoucherNo: res.VoucherNo,
			Kind:      res.KindName(),
			Error:     res.Err.Error(),
		})
	}
	return failures
}

func voucherLogEntries(run *RunResult) []utils.ErrorLogEntry {
	now := time.Now()
	var entries []utils.ErrorLogEntry
	for _, res := range run.Results {
		if !res.OK() {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp: now,
				Severity:  validation.SeverityError,
				ErrorType: res.KindName(),
				Message:   res.Err.Error(),
				Position:  res.Position,
				Date:      res.Date,
				VoucherNo: res.VoucherNo,
			})
		}
		for _, w := range res.Warnings() {
			entries = append(entries, utils.ErrorLogEntry{
				Timestamp: now,
				Severity:  validation.SeverityWarning,
				ErrorType: w.Rule,
				Message:   w.Message,
				Position:  res.Position,
				Date:      res.Date,
				VoucherNo: res.VoucherNo,
			})
		}
	}
	return entries
}

func ledgerFailures(failures []masters.Failure) []utils.FailedItemInfo {
	var out []utils.FailedItemInfo
	for i, f := range failures {
		out = append(out, utils.FailedItemInfo{
			Position: i + 1,
			Account:  f.AccountName,
			Kind:     f.Kind.String(),
			Error:    f.Err.Error(),
		})
	}
	return out
}

func ledgerLogEntries(failures []masters.Failure) []utils.ErrorLogEntry {
	now := time.Now()
	var entries []utils.ErrorLogEntry
	for i, f := range failures {
		entries = append(entries, utils.ErrorLogEntry{
			Timestamp: now,
			Severity:  validation.SeverityError,
			ErrorType: f.Kind.String(),
			Message:   f.Err.Error(),
			Position:  i + 1,
			Account:   f.AccountName,
		})
	}
	return entries
}

// fileNameParams fills the {kind}, {from} and {to} placeholders. Open
// bounds read "start" and "end".
func fileNameParams(kind string, period source.Period) map[string]string {
	from, to := period.From, period.To
	if from == "" {
		from = "start"
	}
	if to == "" {
		to = "end"
	}
	return map[string]string{"kind": kind, "from": from, "to": to}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
