// =============================================================================
// Voucher Export - Converter Module
// =============================================================================
//
// This module contains the core conversion logic. It maps the per-voucher
// pipeline over the vouchers of one run and collects the outcomes.
//
// CONVERSION PIPELINE (per voucher):
//   1. Classify the voucher type
//   2. Resolve, rename and classify every leg
//   3. Resolve the party ledger and sort the entries
//   4. Validate the transformed voucher
//
// CONCURRENCY:
//   Vouchers are transformed in parallel, bounded by MaxConcurrency. Each
//   outcome is stored at its input index, so the document keeps input order
//   whatever order the goroutines finish in.
//
// ERROR HANDLING:
//   A failing voucher never stops the others. It is left out of the
//   document and reported. With ContinueOnError off, any failure fails the
//   run after all vouchers have been tried.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/tally-voucher-export/internal/validation"
	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
)

// ErrVouchersFailed is returned by Run when ContinueOnError is off and at
// least one voucher failed.
var ErrVouchersFailed = errors.New("vouchers failed")

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// VoucherResult is the outcome of one voucher: either Voucher or Err.
type VoucherResult struct {
	// Position is the 1-indexed position of the voucher in the run input.
	Position int

	// Date and VoucherNo identify the voucher in reports.
	Date      string
	VoucherNo string

	// Voucher is the transformed voucher. Only meaningful when Err is nil.
	Voucher voucher.Voucher

	// Err is the failure, if any, and Kind its classification.
	Err  error
	Kind voucher.Kind

	// Findings holds every validation finding, warnings included.
	Findings []*validation.ValidationError
}

// OK reports whether the voucher made it into the document.
func (r VoucherResult) OK() bool {
	return r.Err == nil
}

// KindName returns the failure kind for reports. Validation rules raised
// to errors are reported under the rule name.
func (r VoucherResult) KindName() string {
	if r.Kind != voucher.KindUnknown {
		return r.Kind.String()
	}
	var verr *validation.ValidationError
	if errors.As(r.Err, &verr) {
		return verr.Rule
	}
	return r.Kind.String()
}

// Warnings returns the non-fatal findings of the voucher.
func (r VoucherResult) Warnings() []*validation.ValidationError {
	var warnings []*validation.ValidationError
	for _, f := range r.Findings {
		if f.IsWarning() {
			warnings = append(warnings, f)
		}
	}
	return warnings
}

// RunResult is the outcome of one run.
type RunResult struct {
	// RunID identifies the run in logs, reports and the history.
	RunID string

	Total     int
	Succeeded int
	Failed    int
	Warnings  int

	// Results holds one entry per input voucher, in input order.
	Results []VoucherResult

	// Document wraps the successful vouchers, in input order.
	Document voucher.ExportDocument

	Stats ProcessingStats
}

// Failures returns the failed vouchers, in input order.
func (r *RunResult) Failures() []VoucherResult {
	var failed []VoucherResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Findings merges the validation findings of every voucher, in input order.
func (r *RunResult) Findings() *validation.ValidationResult {
	checks := make([]*validation.ValidationResult, 0, len(r.Results))
	for _, res := range r.Results {
		checks = append(checks, &validation.ValidationResult{Errors: res.Findings})
	}
	return validation.Merge(checks...)
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// LegsProcessed is the number of source legs read.
	LegsProcessed int

	// EntriesCreated is the number of ledger entries in the document.
	EntriesCreated int

	// ProcessingTime is the time taken by Run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options controls a Converter.
type Options struct {
	// MaxConcurrency bounds the vouchers transformed at once. Values below
	// one mean one.
	MaxConcurrency int

	// ContinueOnError keeps a run successful when some vouchers failed.
	ContinueOnError bool
}

// Converter transforms the vouchers of a run. It holds only read-only state
// and can serve several runs.
type Converter struct {
	transformer *voucher.Transformer
	validator   *validation.Validator
	options     Options
	logger      *zap.Logger
}

// New creates a Converter.
//
// PARAMETERS:
//   - transformer: Holds the account directory and alias tables of the run.
//   - validator: Checks every transformed voucher. Nil uses the defaults.
//   - options: Concurrency and error policy.
//   - logger: Nil discards log output.
func New(transformer *voucher.Transformer, validator *validation.Validator, options Options, logger *zap.Logger) *Converter {
	if validator == nil {
		validator = validation.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.MaxConcurrency < 1 {
		options.MaxConcurrency = 1
	}
	return &Converter{
		transformer: transformer,
		validator:   validator,
		options:     options,
		logger:      logger,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run transforms raws and assembles the document.
//
// RETURNS:
//   - The run result. It is nil only when ctx was cancelled.
//   - ctx.Err() on cancellation, an error wrapping ErrVouchersFailed when
//     ContinueOnError is off and a voucher failed, nil otherwise.
func (c *Converter) Run(ctx context.Context, raws []voucher.RawVoucher) (*RunResult, error) {
	startTime := time.Now()
	result := &RunResult{
		RunID:   newRunID(),
		Total:   len(raws),
		Results: make([]VoucherResult, len(raws)),
	}

	logger := c.logger.With(zap.String("run_id", result.RunID))
	logger.Info("transforming vouchers",
		zap.Int("vouchers", len(raws)),
		zap.Int("max_concurrency", c.options.MaxConcurrency))

	// =========================================================================
	// STEP 1: TRANSFORM IN PARALLEL
	// =========================================================================
	// Workers only return context errors; voucher failures are outcomes.

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.options.MaxConcurrency)

	for i := range raws {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			result.Results[i] = c.convertOne(i+1, raws[i])
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 2: COLLECT OUTCOMES
	// =========================================================================

	vouchers := make([]voucher.Voucher, 0, len(raws))
	for i, res := range result.Results {
		result.Stats.LegsProcessed += len(raws[i].Legs)

		for _, w := range res.Warnings() {
			result.Warnings++
			logger.Warn("voucher warning",
				zap.Int("position", res.Position),
				zap.String("date", res.Date),
				zap.String("voucher_no", res.VoucherNo),
				zap.String("rule", w.Rule),
				zap.String("message", w.Message))
		}

		if !res.OK() {
			result.Failed++
			logger.Warn("voucher failed",
				zap.Int("position", res.Position),
				zap.String("date", res.Date),
				zap.String("voucher_no", res.VoucherNo),
				zap.String("kind", res.KindName()),
				zap.Error(res.Err))
			continue
		}

		result.Succeeded++
		result.Stats.EntriesCreated += len(res.Voucher.LedgerEntries)
		vouchers = append(vouchers, res.Voucher)
	}

	// =========================================================================
	// STEP 3: ASSEMBLE DOCUMENT
	// =========================================================================

	result.Document = voucher.NewDocument(vouchers)
	result.Stats.ProcessingTime = time.Since(startTime)

	logger.Info("vouchers transformed",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("warnings", result.Warnings),
		zap.Duration("elapsed", result.Stats.ProcessingTime))

	if ce := logger.Check(zap.DebugLevel, "validation findings"); ce != nil {
		if findings := result.Findings(); len(findings.Errors) > 0 {
			ce.Write(zap.String("report", validation.FormatErrors(findings.Errors)))
		}
	}

	if result.Failed > 0 && !c.options.ContinueOnError {
		return result, fmt.Errorf("%w: %d of %d", ErrVouchersFailed, result.Failed, result.Total)
	}

	return result, nil
}

// convertOne runs the per-voucher pipeline and validation.
func (c *Converter) convertOne(position int, raw voucher.RawVoucher) VoucherResult {
	res := VoucherResult{
		Position:  position,
		Date:      raw.Date,
		VoucherNo: deref(raw.VoucherNo),
	}

	v, err := c.transformer.Transform(raw)
	if err != nil {
		res.Err = err
		res.Kind = voucher.KindOf(err)
		return res
	}

	check := c.validator.ValidateVoucher(position, raw, v)
	res.Findings = check.Errors
	if first := check.FirstError(); first != nil {
		res.Err = first
		res.Kind = voucher.KindOf(first)
		return res
	}

	res.Voucher = v
	return res
}

func newRunID() string {
	return uuid.NewString()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
