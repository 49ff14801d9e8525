package ledger

import (
	"log/slog"

	"github.com/finance-tracker/insights/internal/domain/entity"
)

// Unpair returns a snapshot in which every transfer or payment leg whose
// related transaction is missing, or does not point back at it, is treated as
// a standalone entry: the leg is
// replaced by a copy with its pairing flags cleared. Broken pairs come from
// concurrent edits and are logged, not returned as errors. The input snapshot
// is left untouched and returned as is when nothing is broken.
func Unpair(l *entity.Ledger) *entity.Ledger {
	var broken int
	transactions := make([]*entity.Transaction, len(l.Transactions))
	for i, t := range l.Transactions {
		transactions[i] = t
		if !t.IsPaired() || t.RelatedTransactionID == nil {
			continue
		}
		related, ok := l.Related(t)
		if ok && pointsAt(related, t) {
			continue
		}

		reason := "missing"
		if ok {
			reason = "not pointing back"
		}
		slog.Warn("Transaction has a broken related transaction, treating it as standalone",
			"transactionID", t.ID.String(),
			"relatedTransactionID", t.RelatedTransactionID.String(),
			"reason", reason,
		)
		standalone := *t
		standalone.IsTransferOrigin = false
		standalone.IsTransferDest = false
		standalone.IsPaymentOrigin = false
		standalone.IsPaymentDest = false
		standalone.RelatedTransactionID = nil
		transactions[i] = &standalone
		broken++
	}

	if broken == 0 {
		return l
	}
	return entity.NewLedger(l.Accounts, l.Categories, l.Groups, l.Budgets, transactions, l.Location)
}

func pointsAt(related, t *entity.Transaction) bool {
	return related.RelatedTransactionID != nil && *related.RelatedTransactionID == t.ID
}
