package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_TransitionTo(t *testing.T) {
	tests := []struct {
		name      string
		from      Status
		to        Status
		expectErr error
	}{
		{name: "pending to under review", from: StatusPending, to: StatusUnderReview},
		{name: "pending to approved", from: StatusPending, to: StatusApproved},
		{name: "pending to rejected", from: StatusPending, to: StatusRejected},
		{name: "pending to cancelled", from: StatusPending, to: StatusCancelled},
		{name: "under review to approved", from: StatusUnderReview, to: StatusApproved},
		{name: "under review to rejected", from: StatusUnderReview, to: StatusRejected},
		{name: "under review to cancelled", from: StatusUnderReview, to: StatusCancelled},
		{name: "approved to paid", from: StatusApproved, to: StatusPaid},
		{name: "approved back to pending", from: StatusApproved, to: StatusPending, expectErr: ErrInvalidTransition},
		{name: "under review back to pending", from: StatusUnderReview, to: StatusPending, expectErr: ErrInvalidTransition},
		{name: "pending straight to paid", from: StatusPending, to: StatusPaid, expectErr: ErrInvalidTransition},
		{name: "rejected to approved", from: StatusRejected, to: StatusApproved, expectErr: ErrInvalidTransition},
		{name: "paid to under review", from: StatusPaid, to: StatusUnderReview, expectErr: ErrInvalidTransition},
		{name: "cancel paid claim", from: StatusPaid, to: StatusCancelled, expectErr: ErrInvalidState},
		{name: "cancel approved claim", from: StatusApproved, to: StatusCancelled, expectErr: ErrInvalidState},
		{name: "cancel cancelled claim", from: StatusCancelled, to: StatusCancelled, expectErr: ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.from.TransitionTo(tt.to)
			if tt.expectErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expectErr)

			var te *TransitionError
			if assert.True(t, errors.As(err, &te)) {
				assert.Equal(t, tt.from, te.From)
				assert.Equal(t, tt.to, te.To)
			}
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusPaid.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusUnderReview.Terminal())
	assert.False(t, StatusApproved.Terminal())
	assert.False(t, Status("BOGUS").Terminal())
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Under review", StatusUnderReview.Label())
	assert.Equal(t, "Unknown (BOGUS)", Status("BOGUS").Label())
	assert.Equal(t, "Meals & drinks", CategoryMeals.Label())
	assert.Equal(t, "SPACE", Category("SPACE").Label())
	assert.Len(t, Categories(), 9)
	for _, c := range Categories() {
		assert.True(t, c.Valid(), c)
	}
}
