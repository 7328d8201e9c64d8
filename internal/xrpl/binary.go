package xrpl

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Serialized type codes.
const (
	typeUInt16    byte = 1
	typeUInt32    byte = 2
	typeAmount    byte = 6
	typeBlob      byte = 7
	typeAccountID byte = 8
	typeObject    byte = 14
	typeArray     byte = 15
)

const (
	objectEndMarker byte = 0xE1
	arrayEndMarker  byte = 0xF1

	txTypePayment uint16 = 0

	// Issued-currency values carry 15 to 16 significant digits.
	minMantissa uint64 = 1_000_000_000_000_000
	maxMantissa uint64 = 9_999_999_999_999_999
	minExponent        = -96
	maxExponent        = 80

	amountIssuedBit   uint64 = 0x8000000000000000
	amountPositiveBit uint64 = 0x4000000000000000
)

var (
	hashPrefixTxSign = []byte{'S', 'T', 'X', 0x00}
	hashPrefixTxID   = []byte{'T', 'X', 'N', 0x00}
)

type fieldID struct {
	typeCode  byte
	fieldCode byte
}

// Fields of a Payment, declared in canonical (type, field) order.
var (
	fieldTransactionType    = fieldID{typeUInt16, 2}
	fieldNetworkID          = fieldID{typeUInt32, 1}
	fieldSequence           = fieldID{typeUInt32, 4}
	fieldLastLedgerSequence = fieldID{typeUInt32, 27}
	fieldAmount             = fieldID{typeAmount, 1}
	fieldFee                = fieldID{typeAmount, 8}
	fieldSigningPubKey      = fieldID{typeBlob, 3}
	fieldTxnSignature       = fieldID{typeBlob, 4}
	fieldMemoType           = fieldID{typeBlob, 12}
	fieldMemoData           = fieldID{typeBlob, 13}
	fieldMemoFormat         = fieldID{typeBlob, 14}
	fieldAccount            = fieldID{typeAccountID, 1}
	fieldDestination        = fieldID{typeAccountID, 3}
	fieldMemo               = fieldID{typeObject, 10}
	fieldMemos              = fieldID{typeArray, 9}
)

func (f fieldID) header() []byte {
	switch {
	case f.typeCode < 16 && f.fieldCode < 16:
		return []byte{f.typeCode<<4 | f.fieldCode}
	case f.typeCode < 16:
		return []byte{f.typeCode << 4, f.fieldCode}
	case f.fieldCode < 16:
		return []byte{f.fieldCode, f.typeCode}
	default:
		return []byte{0, f.typeCode, f.fieldCode}
	}
}

// SignTransaction signs tx with the wallet's private key and returns the
// serialized blob and its transaction hash. Nothing leaves the process.
func SignTransaction(tx *Transaction, wallet *Wallet) (*SignedTransaction, error) {
	if wallet == nil || len(wallet.pub) == 0 {
		return nil, ErrMissingWallet
	}
	if tx == nil {
		return nil, fmt.Errorf("xrpl: nil transaction")
	}
	if tx.Account != wallet.ClassicAddress {
		return nil, fmt.Errorf("xrpl: transaction account %s does not match wallet %s", tx.Account, wallet.ClassicAddress)
	}

	unsigned, err := encodeTransaction(tx, wallet.pub, nil)
	if err != nil {
		return nil, err
	}
	signature, err := wallet.sign(append(append([]byte(nil), hashPrefixTxSign...), unsigned...))
	if err != nil {
		return nil, fmt.Errorf("xrpl: sign: %w", err)
	}
	blob, err := encodeTransaction(tx, wallet.pub, signature)
	if err != nil {
		return nil, err
	}

	return &SignedTransaction{
		TxBlob:             strings.ToUpper(hex.EncodeToString(blob)),
		Hash:               strings.ToUpper(hex.EncodeToString(sha512Half(hashPrefixTxID, blob))),
		LastLedgerSequence: tx.LastLedgerSequence,
	}, nil
}

// encodeTransaction serializes a Payment in canonical field order. A nil
// signature produces the signing form.
func encodeTransaction(tx *Transaction, signingPubKey, signature []byte) ([]byte, error) {
	if tx.TransactionType != TransactionTypePayment {
		return nil, fmt.Errorf("xrpl: cannot serialize %q transactions", tx.TransactionType)
	}
	if tx.Fee == "" {
		return nil, fmt.Errorf("xrpl: transaction fee not set")
	}
	fee, err := strconv.ParseInt(tx.Fee, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: fee %q", ErrInvalidAmount, tx.Fee)
	}

	var buf bytes.Buffer
	buf.Write(fieldTransactionType.header())
	buf.Write(binary.BigEndian.AppendUint16(nil, txTypePayment))

	if tx.NetworkID != 0 {
		writeUint32(&buf, fieldNetworkID, tx.NetworkID)
	}
	writeUint32(&buf, fieldSequence, tx.Sequence)
	if tx.LastLedgerSequence != 0 {
		writeUint32(&buf, fieldLastLedgerSequence, tx.LastLedgerSequence)
	}

	amount, err := encodeAmount(tx.Amount)
	if err != nil {
		return nil, err
	}
	buf.Write(fieldAmount.header())
	buf.Write(amount)

	feeBytes, err := encodeAmount(XRPAmount(fee))
	if err != nil {
		return nil, err
	}
	buf.Write(fieldFee.header())
	buf.Write(feeBytes)

	if err := writeBlob(&buf, fieldSigningPubKey, signingPubKey); err != nil {
		return nil, err
	}
	if signature != nil {
		if err := writeBlob(&buf, fieldTxnSignature, signature); err != nil {
			return nil, err
		}
	}

	if err := writeAccount(&buf, fieldAccount, tx.Account); err != nil {
		return nil, err
	}
	if tx.Destination != "" {
		if err := writeAccount(&buf, fieldDestination, tx.Destination); err != nil {
			return nil, err
		}
	}

	if len(tx.Memos) > 0 {
		buf.Write(fieldMemos.header())
		for _, m := range tx.Memos {
			buf.Write(fieldMemo.header())
			for _, part := range []struct {
				field fieldID
				value string
			}{
				{fieldMemoType, m.Memo.MemoType},
				{fieldMemoData, m.Memo.MemoData},
				{fieldMemoFormat, m.Memo.MemoFormat},
			} {
				if part.value == "" {
					continue
				}
				data, err := hex.DecodeString(part.value)
				if err != nil {
					return nil, fmt.Errorf("xrpl: memo field is not hex: %w", err)
				}
				if err := writeBlob(&buf, part.field, data); err != nil {
					return nil, err
				}
			}
			buf.WriteByte(objectEndMarker)
		}
		buf.WriteByte(arrayEndMarker)
	}
	return buf.Bytes(), nil
}

func writeUint32(buf *bytes.Buffer, f fieldID, v uint32) {
	buf.Write(f.header())
	buf.Write(uint32Bytes(v))
}

func writeBlob(buf *bytes.Buffer, f fieldID, data []byte) error {
	prefix, err := encodeLength(len(data))
	if err != nil {
		return err
	}
	buf.Write(f.header())
	buf.Write(prefix)
	buf.Write(data)
	return nil
}

func writeAccount(buf *bytes.Buffer, f fieldID, address string) error {
	id, err := DecodeClassicAddress(address)
	if err != nil {
		return fmt.Errorf("%w: %s", err, address)
	}
	return writeBlob(buf, f, id)
}

// encodeLength is the variable-length prefix of blobs and account ids.
func encodeLength(n int) ([]byte, error) {
	switch {
	case n < 0:
		return nil, fmt.Errorf("xrpl: negative length")
	case n <= 192:
		return []byte{byte(n)}, nil
	case n <= 12480:
		n -= 193
		return []byte{byte(193 + (n >> 8)), byte(n)}, nil
	case n <= 918744:
		n -= 12481
		return []byte{byte(241 + (n >> 16)), byte(n >> 8), byte(n)}, nil
	default:
		return nil, fmt.Errorf("xrpl: length %d too large", n)
	}
}

func encodeAmount(a Amount) ([]byte, error) {
	if a.IsNative() {
		if a.drops < 0 || a.drops > MaxDrops {
			return nil, fmt.Errorf("%w: %d drops", ErrInvalidAmount, a.drops)
		}
		return binary.BigEndian.AppendUint64(nil, amountPositiveBit|uint64(a.drops)), nil
	}

	value, err := encodeIssuedValue(a.issued.Value)
	if err != nil {
		return nil, err
	}
	currency, err := encodeCurrencyCode(a.issued.Currency)
	if err != nil {
		return nil, err
	}
	issuer, err := DecodeClassicAddress(a.issued.Issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: issuer %s", err, a.issued.Issuer)
	}

	out := make([]byte, 0, 48)
	out = append(out, value...)
	out = append(out, currency...)
	return append(out, issuer...), nil
}

func encodeCurrencyCode(code string) ([]byte, error) {
	out := make([]byte, 20)
	switch len(code) {
	case 3:
		if strings.EqualFold(code, "XRP") {
			return nil, fmt.Errorf("%w: XRP is not an issued currency", ErrInvalidCurrency)
		}
		copy(out[12:15], code)
		return out, nil
	case 40:
		raw, err := hex.DecodeString(code)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
}

// encodeIssuedValue packs a decimal string into the 64-bit issued amount
// form: issued bit, sign bit, 8-bit exponent (+97) and 54-bit mantissa.
func encodeIssuedValue(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	negative := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(strings.TrimPrefix(value, "-"), "+")

	exponent := 0
	if mant, exp, ok := strings.Cut(strings.ToLower(value), "e"); ok {
		e, err := strconv.Atoi(exp)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
		}
		value, exponent = mant, e
	}
	whole, frac, _ := strings.Cut(value, ".")
	if (whole == "" && frac == "") || !isDigits(whole) || !isDigits(frac) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	exponent -= len(frac)

	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		return binary.BigEndian.AppendUint64(nil, amountIssuedBit), nil
	}
	for strings.HasSuffix(digits, "0") {
		digits = digits[:len(digits)-1]
		exponent++
	}
	if len(digits) > 16 {
		return nil, fmt.Errorf("%w: %q has more than 16 significant digits", ErrInvalidAmount, value)
	}

	mantissa, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	for mantissa < minMantissa {
		mantissa *= 10
		exponent--
	}
	if mantissa > maxMantissa || exponent < minExponent || exponent > maxExponent {
		return nil, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, value)
	}

	v := amountIssuedBit | uint64(exponent+97)<<54 | mantissa
	if !negative {
		v |= amountPositiveBit
	}
	return binary.BigEndian.AppendUint64(nil, v), nil
}
