// =============================================================================
// Voucher Export - Validation Engine
// =============================================================================
//
// This module checks transformed vouchers for data-quality problems.
//
// RULES:
//   balanced     - the legs of a voucher sum to zero            (warning)
//   has_legs     - the voucher has at least one leg             (warning)
//   date_format  - the date reads as YYYY-MM-DD or YYYYMMDD     (warning)
//   consistency  - the party ledger is one of the entries, and
//                  legs produced entries                       (error)
//
// ERROR HANDLING:
//   - Errors are collected, not returned one at a time
//   - Warnings never fail a voucher; they are logged and written to the
//     error log
//   - An error fails the voucher it belongs to
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
)

// Severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule names.
const (
	RuleBalanced    = "balanced"
	RuleHasLegs     = "has_legs"
	RuleDateFormat  = "date_format"
	RuleConsistency = "consistency"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Rule is the rule that was violated.
	Rule string

	// Message is a human-readable message.
	Message string

	// VoucherIndex is the 1-indexed position of the voucher in the input.
	VoucherIndex int

	// Date and VoucherNo identify the voucher in reports.
	Date      string
	VoucherNo string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] Voucher %d (%s %s), Rule '%s': %s",
		strings.ToUpper(e.Severity),
		e.VoucherIndex,
		e.Date,
		e.VoucherNo,
		e.Rule,
		e.Message,
	)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsWarning reports whether the finding is a warning.
func (e *ValidationError) IsWarning() bool {
	return e.Severity == SeverityWarning
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no fatal errors.
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors raises every warning to an error.
	// Default: false
	TreatWarningsAsErrors bool
}

// Validator checks vouchers. It holds no mutable state and is safe for
// concurrent use.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a Validator with default options.
func NewValidator() *Validator {
	return &Validator{}
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// ValidateVoucher checks one voucher against its source.
//
// PARAMETERS:
//   - index: The 1-indexed position of the voucher, for reports.
//   - raw: The source voucher.
//   - v: The transformed voucher.
//
// RETURNS:
//   - The result for this voucher.
func (val *Validator) ValidateVoucher(index int, raw voucher.RawVoucher, v voucher.Voucher) *ValidationResult {
	var findings []*ValidationError

	add := func(severity, rule, message string, err error) {
		if severity == SeverityWarning && val.options.TreatWarningsAsErrors {
			severity = SeverityError
		}
		findings = append(findings, &ValidationError{
			Severity:     severity,
			Rule:         rule,
			Message:      message,
			VoucherIndex: index,
			Date:         raw.Date,
			VoucherNo:    voucherNo(raw),
			Err:          err,
		})
	}

	if len(raw.Legs) == 0 {
		add(SeverityWarning, RuleHasLegs, "voucher has no legs", nil)
	} else if total := sumLegs(raw.Legs); !total.IsZero() {
		add(SeverityWarning, RuleBalanced, fmt.Sprintf("legs sum to %s, not zero", total.String()), nil)
	}

	if !validDate(raw.Date) {
		add(SeverityWarning, RuleDateFormat, fmt.Sprintf("date %q is not YYYY-MM-DD or YYYYMMDD", raw.Date), nil)
	}

	if err := voucher.CheckConsistency(v, len(raw.Legs)); err != nil {
		add(SeverityError, RuleConsistency, err.Error(), err)
	}

	return summarize(findings)
}

// Merge folds several results into one, keeping finding order.
func Merge(results ...*ValidationResult) *ValidationResult {
	var all []*ValidationError
	for _, r := range results {
		if r != nil {
			all = append(all, r.Errors...)
		}
	}
	return summarize(all)
}

func summarize(findings []*ValidationError) *ValidationResult {
	result := &ValidationResult{IsValid: true, Errors: findings}
	for _, f := range findings {
		if f.IsWarning() {
			result.WarningCount++
		} else {
			result.ErrorCount++
			result.IsValid = false
		}
	}
	return result
}

// FirstError returns the first fatal finding, or nil.
func (r *ValidationResult) FirstError() *ValidationError {
	for _, f := range r.Errors {
		if !f.IsWarning() {
			return f
		}
	}
	return nil
}

// Warnings returns the non-fatal findings.
func (r *ValidationResult) Warnings() []*ValidationError {
	var warnings []*ValidationError
	for _, f := range r.Errors {
		if f.IsWarning() {
			warnings = append(warnings, f)
		}
	}
	return warnings
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func sumLegs(legs []voucher.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, leg := range legs {
		total = total.Add(leg.Amount)
	}
	return total
}

func validDate(date string) bool {
	_, err := voucher.ParseDate(date)
	return err == nil
}

func voucherNo(raw voucher.RawVoucher) string {
	if raw.VoucherNo == nil {
		return ""
	}
	return *raw.VoucherNo
}

// FormatErrors formats validation findings for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	fmt.Fprintf(&builder, "Validation completed with %d finding(s):\n\n", len(errors))

	for i, err := range errors {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, err.Error())
	}

	return builder.String()
}
