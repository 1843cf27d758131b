package voucher

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/tally-voucher-export/internal/alias"
)

// Kind classifies a pipeline failure for reporting.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnknownAccountType
	KindUnknownVoucherType
	KindUnknownAccount
	KindNoPartyCandidate
	KindMalformedAliasTable
	KindConsistencyViolation
)

var kindNames = map[Kind]string{
	KindUnknown:              "Unknown",
	KindUnknownAccountType:   "UnknownAccountType",
	KindUnknownVoucherType:   "UnknownVoucherType",
	KindUnknownAccount:       "UnknownAccount",
	KindNoPartyCandidate:     "NoPartyCandidate",
	KindMalformedAliasTable:  "MalformedAliasTable",
	KindConsistencyViolation: "ConsistencyViolation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinel errors. Callers wrap them with context and match with errors.Is.
var (
	ErrUnknownAccountType   = errors.New("unknown account type")
	ErrUnknownVoucherType   = errors.New("unknown voucher type")
	ErrUnknownAccount       = errors.New("unknown account")
	ErrNoPartyCandidate     = errors.New("no party ledger candidate")
	ErrMalformedAliasTable  = alias.ErrMalformedTable
	ErrConsistencyViolation = errors.New("consistency violation")
)

var sentinelKinds = []struct {
	err  error
	kind Kind
}{
	{ErrUnknownAccountType, KindUnknownAccountType},
	{ErrUnknownVoucherType, KindUnknownVoucherType},
	{ErrUnknownAccount, KindUnknownAccount},
	{ErrNoPartyCandidate, KindNoPartyCandidate},
	{ErrMalformedAliasTable, KindMalformedAliasTable},
	{ErrConsistencyViolation, KindConsistencyViolation},
}

// KindOf returns the Kind of err, or KindUnknown when err does not wrap one
// of the package sentinels.
func KindOf(err error) Kind {
	for _, sk := range sentinelKinds {
		if errors.Is(err, sk.err) {
			return sk.kind
		}
	}
	return KindUnknown
}
