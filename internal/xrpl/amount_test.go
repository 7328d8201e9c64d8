package xrpl

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXRPToDrops(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1", 1_000_000},
		{"0", 0},
		{"0.000001", 1},
		{"1.5", 1_500_000},
		{".5", 500_000},
		{"10.", 10_000_000},
		{"2.500000000", 2_500_000},
		{"100000000000", MaxDrops},
	}
	for _, tt := range tests {
		got, err := XRPToDrops(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestXRPToDrops_Invalid(t *testing.T) {
	for _, in := range []string{"", ".", "-1", "1e6", "abc", "1.0000001", "1,5", "100000000001"} {
		_, err := XRPToDrops(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestDropsToXRP(t *testing.T) {
	assert.Equal(t, "1", DropsToXRP(1_000_000))
	assert.Equal(t, "1.5", DropsToXRP(1_500_000))
	assert.Equal(t, "0.000001", DropsToXRP(1))
	assert.Equal(t, "0", DropsToXRP(0))
	assert.Equal(t, "-0.25", DropsToXRP(-250_000))
}

func TestEncodeCurrency(t *testing.T) {
	code, err := EncodeCurrency("USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", code)

	code, err = EncodeCurrency("GOLDX")
	require.NoError(t, err)
	assert.Equal(t, "474F4C4458"+strings.Repeat("0", 30), code)
	assert.Len(t, code, 40)

	hexCode := strings.Repeat("AB", 20)
	code, err = EncodeCurrency(strings.ToLower(hexCode))
	require.NoError(t, err)
	assert.Equal(t, hexCode, code)

	for _, bad := range []string{"", "XRP", "xrp", "A SYMBOL LONGER THAN TWENTY", "00" + strings.Repeat("AB", 19)} {
		_, err := EncodeCurrency(bad)
		assert.ErrorIs(t, err, ErrInvalidCurrency, bad)
	}
}

func TestValidateIssuedValue(t *testing.T) {
	v, err := ValidateIssuedValue(" 1000.5 ")
	require.NoError(t, err)
	assert.Equal(t, "1000.5", v)

	for _, bad := range []string{"", "0", "-3", "abc", "1/2"} {
		_, err := ValidateIssuedValue(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(XRPAmount(12))
	require.NoError(t, err)
	assert.JSONEq(t, `"12"`, string(data))

	data, err = json.Marshal(IssuedCurrencyAmount("USD", genesisAddress, "5"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"currency":"USD","issuer":"`+genesisAddress+`","value":"5"}`, string(data))

	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`"42"`), &a))
	assert.True(t, a.IsNative())
	assert.Equal(t, int64(42), a.Drops())

	require.NoError(t, json.Unmarshal([]byte(`{"currency":"EUR","issuer":"`+genesisAddress+`","value":"1.25"}`), &a))
	require.False(t, a.IsNative())
	assert.Equal(t, "EUR", a.Issued().Currency)
	assert.Equal(t, "1.25", a.Issued().Value)

	assert.Error(t, json.Unmarshal([]byte(`"x"`), &a))
}

func TestNewPaymentWithMemo(t *testing.T) {
	tx := NewPayment(genesisAddress, genesisAddress, XRPAmount(1)).WithMemo(NewMemo("prop-1"))

	data, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"TransactionType": "Payment",
		"Account": "`+genesisAddress+`",
		"Destination": "`+genesisAddress+`",
		"Amount": "1",
		"Memos": [{"Memo": {"MemoData": "70726F702D31"}}]
	}`, string(data))
}
