package stmtparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLineAmounts(t *testing.T) {
	cases := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain amounts",
			line: "ATM WITHDRAWAL 50.00 1,200.00",
			want: []string{"50.00", "1200.00"},
		},
		{
			name: "negative and peso sign",
			line: "PAYMENT -200.00 ₱ 1,800.00",
			want: []string{"-200.00", "1800.00"},
		},
		{
			name: "parenthesised negative",
			line: "REVERSAL (1,234.56) 5,000.00",
			want: []string{"-1234.56", "5000.00"},
		},
		{
			name: "digits glued to letters are reference fragments",
			line: "REF123456789 PAYMENT 1,500.00",
			want: []string{"1500.00"},
		},
		{
			name: "bare short integers are not money",
			line: "05 CHECK 12 2,000.00",
			want: []string{"2000.00"},
		},
		{
			name: "dash date yields nothing",
			line: "01-25-2024 PAYMENT",
			want: nil,
		},
		{
			name: "empty line",
			line: "",
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractLineAmounts(tc.line))
		})
	}
}

func TestRemoveAmountSpans(t *testing.T) {
	got := removeAmountSpans("01/05 PAYMENT 1,500.00 REF123456")
	assert.NotContains(t, got, "1,500.00")
	assert.Contains(t, got, "PAYMENT")
	// Digits attached to letters stay: they are part of a reference token.
	assert.Contains(t, got, "REF123456")

	assert.Equal(t, "NO MONEY HERE", removeAmountSpans("NO MONEY HERE"))
}

func TestHasAlnumNeighbor(t *testing.T) {
	s := "REF123 45.00"
	assert.True(t, hasAlnumNeighbor(s, 3, 6))   // "123" touches REF
	assert.False(t, hasAlnumNeighbor(s, 7, 12)) // "45.00" is free-standing
}
