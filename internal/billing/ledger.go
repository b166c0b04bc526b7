// Package billing applies tariff charges to validated interval usage and
// aggregates the per-interval ledger into billing-period results.
package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"utility-cost/internal/usage"
	"utility-cost/pkg/tariff"
)

// PreconditionError reports a calculation invoked on data that skipped the
// validation/repair pipeline, such as a missing billing-period label needed
// for monthly aggregation. It is fatal and indicates a caller bug, not a
// data problem.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "billing precondition violated: " + e.Reason
}

func preconditionErrorf(format string, args ...any) error {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// Ledger pairs a labeled interval dataset with one per-interval cost column
// per charge, keyed by the charge's stable identity. Column order carries no
// meaning in the output; ChargeIDs preserves application order only so
// iteration stays deterministic.
type Ledger struct {
	Dataset usage.Dataset

	columns map[tariff.ChargeID][]decimal.Decimal
	order   []tariff.ChargeID
}

func newLedger(ds usage.Dataset) *Ledger {
	return &Ledger{
		Dataset: ds,
		columns: make(map[tariff.ChargeID][]decimal.Decimal),
	}
}

func (l *Ledger) setColumn(id tariff.ChargeID, col []decimal.Decimal) {
	if _, exists := l.columns[id]; !exists {
		l.order = append(l.order, id)
	}
	l.columns[id] = col
}

// Column returns a copy of the per-interval cost series for a charge, so
// callers cannot alter the ledger through it.
func (l *Ledger) Column(id tariff.ChargeID) ([]decimal.Decimal, bool) {
	col, ok := l.columns[id]
	if !ok {
		return nil, false
	}
	out := make([]decimal.Decimal, len(col))
	copy(out, col)
	return out, true
}

// ChargeIDs returns the charge identities present in the ledger, in the
// order the charges were applied.
func (l *Ledger) ChargeIDs() []tariff.ChargeID {
	out := make([]tariff.ChargeID, len(l.order))
	copy(out, l.order)
	return out
}

// sumColumn adds up the column values at the given interval indices.
func (l *Ledger) sumColumn(id tariff.ChargeID, indices []int) decimal.Decimal {
	col := l.columns[id]
	total := decimal.Zero
	for _, i := range indices {
		total = total.Add(col[i])
	}
	return total
}
