package domain

import "github.com/shopspring/decimal"

type Bucket struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

func (b *Bucket) add(amount decimal.Decimal) {
	b.Count++
	b.Amount = b.Amount.Add(amount)
}

type ExpenseStats struct {
	Pending     Bucket          `json:"pending"`
	Approved    Bucket          `json:"approved"`
	Paid        Bucket          `json:"paid"`
	Rejected    Bucket          `json:"rejected"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// ComputeStats folds a claim snapshot into per-status buckets.
// PENDING and UNDER_REVIEW share a bucket; CANCELLED only counts toward the total.
func ComputeStats(claims []ExpenseClaim) ExpenseStats {
	var stats ExpenseStats
	for _, c := range claims {
		switch c.Status {
		case StatusPending, StatusUnderReview:
			stats.Pending.add(c.Amount)
		case StatusApproved:
			stats.Approved.add(c.Amount)
		case StatusPaid:
			stats.Paid.add(c.Amount)
		case StatusRejected:
			stats.Rejected.add(c.Amount)
		}
		stats.TotalAmount = stats.TotalAmount.Add(c.Amount)
	}
	return stats
}
