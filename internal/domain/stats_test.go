package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	d := decimal.RequireFromString
	claims := []ExpenseClaim{
		{Status: StatusPending, Amount: d("10")},
		{Status: StatusUnderReview, Amount: d("5.5")},
		{Status: StatusApproved, Amount: d("20")},
		{Status: StatusPaid, Amount: d("30")},
		{Status: StatusPaid, Amount: d("1.25")},
		{Status: StatusRejected, Amount: d("7")},
		{Status: StatusCancelled, Amount: d("3")},
	}

	stats := ComputeStats(claims)

	assert.Equal(t, 2, stats.Pending.Count)
	assert.True(t, d("15.5").Equal(stats.Pending.Amount))
	assert.Equal(t, 1, stats.Approved.Count)
	assert.Equal(t, 2, stats.Paid.Count)
	assert.True(t, d("31.25").Equal(stats.Paid.Amount))
	assert.Equal(t, 1, stats.Rejected.Count)
	assert.True(t, d("76.75").Equal(stats.TotalAmount), stats.TotalAmount.String())
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)

	assert.Zero(t, stats.Pending.Count)
	assert.True(t, stats.TotalAmount.IsZero())
}
