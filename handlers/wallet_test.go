package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalletCreditForAmount(t *testing.T) {
	tests := []struct {
		amount  int64
		credits int
		ok      bool
	}{
		{1000, 20, true},
		{2000, 50, true},
		{3000, 100, true},
		{4000, 200, true},
		{0, 0, false},
		{500, 0, false},
		{1500, 0, false},
		{5000, 0, false},
		{-1000, 0, false},
	}

	for _, tt := range tests {
		credits, ok := walletCreditForAmount(tt.amount)
		assert.Equal(t, tt.ok, ok, "amount %d", tt.amount)
		assert.Equal(t, tt.credits, credits, "amount %d", tt.amount)
	}
}
