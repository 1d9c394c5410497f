package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Amounts must render with two fraction digits no matter how the decimal
// was produced: parsing, arithmetic and DB scans all come through here.
func TestMoneyFixedScale(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"100", "100.00"},
		{"100.00", "100.00"},
		{"99.9", "99.90"},
		{"0", "0.00"},
	}
	for _, tc := range cases {
		m := NewMoney(decimal.RequireFromString(tc.in))

		b, err := m.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `"`+tc.want+`"`, string(b))

		v, err := m.Value()
		require.NoError(t, err)
		assert.Equal(t, tc.want, v)
	}
}

func TestMoneyArithmeticKeepsScale(t *testing.T) {
	price := NewMoney(decimal.RequireFromString("100.0"))
	total := NewMoney(price.Mul(decimal.NewFromInt(2)))

	b, err := total.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"200.00"`, string(b))
}

func TestMoneyScanValueRoundTrip(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan([]byte("149.9")))

	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "149.90", v)
}
