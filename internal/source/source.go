// Package source defines where raw vouchers and the account directory come
// from, and the filters every source applies before transformation.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/ginjaninja78/tally-voucher-export/internal/config"
	"github.com/ginjaninja78/tally-voucher-export/internal/csvparser"
	"github.com/ginjaninja78/tally-voucher-export/internal/voucher"
)

// DateLayout is the layout of voucher dates and period bounds.
const DateLayout = "2006-01-02"

// Source supplies the account directory and the vouchers of a period.
type Source interface {
	Accounts(ctx context.Context) ([]voucher.Account, error)
	Vouchers(ctx context.Context, period Period) ([]voucher.RawVoucher, error)
	Close(ctx context.Context) error
}

// =============================================================================
// PERIODS
// =============================================================================

// Period is an inclusive date range in DateLayout. An empty bound is open.
type Period struct {
	From string
	To   string
}

// Contains reports whether date falls inside the period. date may be in any
// of voucher.DateLayouts; an unreadable date is an error unless the period
// is fully open.
func (p Period) Contains(date string) (bool, error) {
	if p.From == "" && p.To == "" {
		return true, nil
	}

	day, err := voucher.ParseDate(date)
	if err != nil {
		return false, err
	}

	if p.From != "" {
		from, err := time.Parse(DateLayout, p.From)
		if err != nil {
			return false, fmt.Errorf("invalid from date %q: %w", p.From, err)
		}
		if day.Before(from) {
			return false, nil
		}
	}
	if p.To != "" {
		to, err := time.Parse(DateLayout, p.To)
		if err != nil {
			return false, fmt.Errorf("invalid to date %q: %w", p.To, err)
		}
		if day.After(to) {
			return false, nil
		}
	}
	return true, nil
}

// String returns "from_to", used in output file names.
func (p Period) String() string {
	from, to := p.From, p.To
	if from == "" {
		from = "start"
	}
	if to == "" {
		to = "end"
	}
	return from + "_" + to
}

// ParsePeriod validates the bounds and returns the period.
func ParsePeriod(from, to string) (Period, error) {
	var fromDate, toDate time.Time
	var err error

	if from != "" {
		if fromDate, err = time.Parse(DateLayout, from); err != nil {
			return Period{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
	}
	if to != "" {
		if toDate, err = time.Parse(DateLayout, to); err != nil {
			return Period{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
	}
	if from != "" && to != "" && toDate.Before(fromDate) {
		return Period{}, fmt.Errorf("to date %s is before from date %s", to, from)
	}

	return Period{From: from, To: to}, nil
}

// SplitMonths splits a closed period into calendar-month periods. The first
// and last parts are clipped to the period bounds.
func SplitMonths(p Period) ([]Period, error) {
	if p.From == "" || p.To == "" {
		return nil, fmt.Errorf("splitting by month needs both from and to dates")
	}

	from, err := time.Parse(DateLayout, p.From)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", p.From, err)
	}
	to, err := time.Parse(DateLayout, p.To)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", p.To, err)
	}

	var periods []Period
	for start := from; !start.After(to); {
		nextMonth := time.Date(start.Year(), start.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		end := nextMonth.AddDate(0, 0, -1)
		if end.After(to) {
			end = to
		}
		periods = append(periods, Period{
			From: start.Format(DateLayout),
			To:   end.Format(DateLayout),
		})
		start = nextMonth
	}

	return periods, nil
}

// =============================================================================
// FILTERS
// =============================================================================

// FilterLegs drops legs whose account-type code is in excluded. Vouchers
// are copied; the input is not modified. A voucher left without legs is
// kept so that it is still reported.
func FilterLegs(vouchers []voucher.RawVoucher, excluded []string) []voucher.RawVoucher {
	if len(excluded) == 0 {
		return vouchers
	}

	skip := make(map[string]bool, len(excluded))
	for _, code := range excluded {
		skip[code] = true
	}

	filtered := make([]voucher.RawVoucher, len(vouchers))
	for i, raw := range vouchers {
		legs := make([]voucher.Transaction, 0, len(raw.Legs))
		for _, leg := range raw.Legs {
			if !skip[leg.AccountTypeCode] {
				legs = append(legs, leg)
			}
		}
		raw.Legs = legs
		filtered[i] = raw
	}

	return filtered
}

// =============================================================================
// CSV SOURCE
// =============================================================================

// CSV reads vouchers and accounts from the files named in the config.
type CSV struct {
	settings config.CSVSourceConfig
	exclude  []string
}

// NewCSV returns a CSV source.
func NewCSV(cfg config.SourceConfig) *CSV {
	return &CSV{settings: cfg.CSV, exclude: cfg.ExcludeAccountTypes}
}

// Accounts reads the account file.
func (s *CSV) Accounts(ctx context.Context) ([]voucher.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return csvparser.ParseAccountsFile(s.settings.AccountsFile, s.settings)
}

// Vouchers reads the leg file and keeps the vouchers dated inside period.
func (s *CSV) Vouchers(ctx context.Context, period Period) ([]voucher.RawVoucher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, err := csvparser.ParseLegsFile(s.settings.VouchersFile, s.settings)
	if err != nil {
		return nil, err
	}

	var inPeriod []voucher.RawVoucher
	for i, raw := range all {
		ok, err := period.Contains(raw.Date)
		if err != nil {
			return nil, fmt.Errorf("voucher %d: %w", i+1, err)
		}
		if ok {
			inPeriod = append(inPeriod, raw)
		}
	}

	return FilterLegs(inPeriod, s.exclude), nil
}

// Close is a no-op for files.
func (s *CSV) Close(context.Context) error { return nil }
