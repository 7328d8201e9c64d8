package xrpl

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	genesisAccountID = "B5F762798A53D543A014CAF8B297CFF8F2F937E8"
	otherAddress     = "rPT1Sjq2YGrBMTttX4GZHjKu9dyfzbpAYe"
	otherAccountID   = "F667B0CA50CC7709A220B0561B85E53A48461FA8"
)

func filledPayment(from string) *Transaction {
	tx := NewPayment(from, otherAddress, XRPAmount(1000))
	tx.Sequence = 1
	tx.Fee = "12"
	return tx
}

func upperHex(b []byte) string { return strings.ToUpper(hex.EncodeToString(b)) }

func TestFieldHeaders(t *testing.T) {
	assert.Equal(t, "12", upperHex(fieldTransactionType.header()))
	assert.Equal(t, "24", upperHex(fieldSequence.header()))
	assert.Equal(t, "201B", upperHex(fieldLastLedgerSequence.header()))
	assert.Equal(t, "68", upperHex(fieldFee.header()))
	assert.Equal(t, "7D", upperHex(fieldMemoData.header()))
	assert.Equal(t, "EA", upperHex(fieldMemo.header()))
	assert.Equal(t, "F9", upperHex(fieldMemos.header()))
	assert.Equal(t, "0110", upperHex(fieldID{16, 1}.header()))
}

func TestEncodeLength(t *testing.T) {
	cases := map[int]string{
		0:     "00",
		192:   "C0",
		193:   "C100",
		12480: "F0FF",
		12481: "F10000",
	}
	for n, want := range cases {
		got, err := encodeLength(n)
		require.NoError(t, err)
		assert.Equal(t, want, upperHex(got), "length %d", n)
	}
	_, err := encodeLength(918745)
	assert.Error(t, err)
}

func TestEncodeAmount_XRP(t *testing.T) {
	got, err := encodeAmount(XRPAmount(1000))
	require.NoError(t, err)
	assert.Equal(t, "40000000000003E8", upperHex(got))

	_, err = encodeAmount(XRPAmount(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestEncodeIssuedValue(t *testing.T) {
	cases := map[string]string{
		"1":                 "D4838D7EA4C68000",
		"100":               "D5038D7EA4C68000",
		"1.5":               "D445543DF729C000",
		"-1":                "94838D7EA4C68000",
		"0":                 "8000000000000000",
		"1234567890.123456": "D6C462D53C8ABAC0",
		"1e2":               "D5038D7EA4C68000",
	}
	for value, want := range cases {
		got, err := encodeIssuedValue(value)
		require.NoError(t, err, value)
		assert.Equal(t, want, upperHex(got), value)
	}

	for _, bad := range []string{"", "abc", "1.2.3", "12345678901234567", "1e200"} {
		_, err := encodeIssuedValue(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestEncodeAmount_Issued(t *testing.T) {
	got, err := encodeAmount(IssuedCurrencyAmount("USD", genesisAddress, "1"))
	require.NoError(t, err)
	assert.Equal(t, "D4838D7EA4C68000"+"0000000000000000000000005553440000000000"+genesisAccountID, upperHex(got))

	code, err := EncodeCurrency("GOVTOKEN")
	require.NoError(t, err)
	got, err = encodeAmount(IssuedCurrencyAmount(code, genesisAddress, "1"))
	require.NoError(t, err)
	assert.Equal(t, code, upperHex(got[8:28]))

	_, err = encodeAmount(IssuedCurrencyAmount("XRP", genesisAddress, "1"))
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestEncodeTransaction_SigningForm(t *testing.T) {
	w := genesisWallet(t)
	got, err := encodeTransaction(filledPayment(w.ClassicAddress), w.pub, nil)
	require.NoError(t, err)

	want := "120000" +
		"2400000001" +
		"6140000000000003E8" +
		"68400000000000000C" +
		"7321" + w.PublicKey +
		"8114" + genesisAccountID +
		"8314" + otherAccountID
	assert.Equal(t, want, upperHex(got))
}

func TestEncodeTransaction_OptionalFields(t *testing.T) {
	w := genesisWallet(t)
	tx := filledPayment(w.ClassicAddress).WithMemo(NewMemo("3432"))
	tx.LastLedgerSequence = 120
	tx.NetworkID = 21338

	got, err := encodeTransaction(tx, w.pub, nil)
	require.NoError(t, err)
	encoded := upperHex(got)

	assert.True(t, strings.HasPrefix(encoded, "120000"+"210000535A"+"2400000001"+"201B00000078"), encoded)
	assert.True(t, strings.HasSuffix(encoded, "F9"+"EA"+"7D04"+"33343332"+"E1"+"F1"), encoded)
}

func TestEncodeTransaction_Errors(t *testing.T) {
	w := genesisWallet(t)

	noFee := filledPayment(w.ClassicAddress)
	noFee.Fee = ""
	_, err := encodeTransaction(noFee, w.pub, nil)
	assert.Error(t, err)

	badDest := filledPayment(w.ClassicAddress)
	badDest.Destination = "rBad"
	_, err = encodeTransaction(badDest, w.pub, nil)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	other := filledPayment(w.ClassicAddress)
	other.TransactionType = "TrustSet"
	_, err = encodeTransaction(other, w.pub, nil)
	assert.Error(t, err)
}

func TestSignTransaction_Secp256k1(t *testing.T) {
	w := genesisWallet(t)
	tx := filledPayment(w.ClassicAddress)

	signed, err := SignTransaction(tx, w)
	require.NoError(t, err)

	unsigned, err := encodeTransaction(tx, w.pub, nil)
	require.NoError(t, err)
	blob, err := hex.DecodeString(signed.TxBlob)
	require.NoError(t, err)

	// The signature sits between SigningPubKey and Account.
	pubField := "7321" + w.PublicKey
	i := strings.Index(signed.TxBlob, pubField) + len(pubField)
	require.Equal(t, "74", signed.TxBlob[i:i+2])
	sigLen := int(blob[i/2+1])
	sigBytes := blob[i/2+2 : i/2+2+sigLen]

	sig, err := ecdsa.ParseDERSignature(sigBytes)
	require.NoError(t, err)
	pub, err := secp256k1.ParsePubKey(w.pub)
	require.NoError(t, err)
	assert.True(t, sig.Verify(sha512Half(hashPrefixTxSign, unsigned), pub))

	assert.Equal(t, upperHex(sha512Half(hashPrefixTxID, blob)), signed.Hash)

	again, err := SignTransaction(tx, w)
	require.NoError(t, err)
	assert.Equal(t, signed.TxBlob, again.TxBlob)
}

func TestSignTransaction_Ed25519(t *testing.T) {
	seed, err := EncodeSeed(make([]byte, seedLength), KeyTypeEd25519)
	require.NoError(t, err)
	w, err := WalletFromSeed(seed)
	require.NoError(t, err)

	tx := filledPayment(w.ClassicAddress)
	signed, err := SignTransaction(tx, w)
	require.NoError(t, err)

	unsigned, err := encodeTransaction(tx, w.pub, nil)
	require.NoError(t, err)
	blob, err := hex.DecodeString(signed.TxBlob)
	require.NoError(t, err)

	pubField := "7321" + w.PublicKey
	i := strings.Index(signed.TxBlob, pubField) + len(pubField)
	require.Equal(t, "7440", signed.TxBlob[i:i+4])
	sigBytes := blob[i/2+2 : i/2+2+ed25519.SignatureSize]

	payload := append(append([]byte(nil), hashPrefixTxSign...), unsigned...)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(w.pub[1:]), payload, sigBytes))
}

func TestSignTransaction_RequiresMatchingWallet(t *testing.T) {
	w := genesisWallet(t)

	_, err := SignTransaction(filledPayment(w.ClassicAddress), nil)
	assert.ErrorIs(t, err, ErrMissingWallet)

	_, err = SignTransaction(filledPayment(otherAddress), w)
	assert.Error(t, err)

	_, err = SignTransaction(filledPayment(w.ClassicAddress), &Wallet{ClassicAddress: w.ClassicAddress})
	assert.ErrorIs(t, err, ErrMissingWallet)
}
