package xrpl

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const (
	// DropsPerXRP is the number of drops in one XRP.
	DropsPerXRP int64 = 1_000_000
	// MaxDrops is the total XRP supply expressed in drops.
	MaxDrops int64 = 100_000_000_000 * DropsPerXRP

	xrpDecimals = 6
)

var (
	ErrInvalidAmount   = errors.New("xrpl: invalid amount")
	ErrInvalidCurrency = errors.New("xrpl: invalid currency code")
)

// XRPToDrops converts a decimal XRP value to drops. At most six fractional
// digits are accepted; exponents and fractions are rejected.
func XRPToDrops(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	if strings.HasPrefix(value, "-") {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, value)
	}

	whole, frac, hasDot := strings.Cut(value, ".")
	if whole == "" && (!hasDot || frac == "") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, value)
	}
	frac = strings.TrimRight(frac, "0")
	if len(frac) > xrpDecimals {
		return 0, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, value, xrpDecimals)
	}

	digits := strings.TrimLeft(whole+frac+strings.Repeat("0", xrpDecimals-len(frac)), "0")
	if digits == "" {
		return 0, nil
	}
	if len(digits) > 18 {
		return 0, fmt.Errorf("%w: %q exceeds the XRP supply", ErrInvalidAmount, value)
	}
	drops, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || drops > MaxDrops {
		return 0, fmt.Errorf("%w: %q exceeds the XRP supply", ErrInvalidAmount, value)
	}
	return drops, nil
}

// DropsToXRP renders drops as a decimal XRP string without trailing zeros.
func DropsToXRP(drops int64) string {
	sign := ""
	if drops < 0 {
		sign = "-"
		drops = -drops
	}
	whole := drops / DropsPerXRP
	frac := drops % DropsPerXRP
	if frac == 0 {
		return sign + strconv.FormatInt(whole, 10)
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%06d", frac), "0")
	return sign + strconv.FormatInt(whole, 10) + "." + fracStr
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// EncodeCurrency maps a token symbol to an XRPL currency code. Three-character
// symbols are used as-is; longer symbols (up to 20 bytes) become the 40-hex
// nonstandard form. A 40-hex input passes through upper-cased.
func EncodeCurrency(symbol string) (string, error) {
	symbol = strings.TrimSpace(symbol)
	switch {
	case symbol == "":
		return "", fmt.Errorf("%w: empty symbol", ErrInvalidCurrency)
	case strings.EqualFold(symbol, "XRP"):
		return "", fmt.Errorf("%w: XRP is reserved for the native asset", ErrInvalidCurrency)
	case len(symbol) == 40:
		if _, err := hex.DecodeString(symbol); err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, symbol)
		}
		if strings.HasPrefix(symbol, "00") {
			return "", fmt.Errorf("%w: hex code must not start with 0x00", ErrInvalidCurrency)
		}
		return strings.ToUpper(symbol), nil
	case len(symbol) == 3:
		for _, r := range symbol {
			if r < 0x21 || r > 0x7e {
				return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, symbol)
			}
		}
		return symbol, nil
	case len(symbol) <= 20:
		var buf [20]byte
		copy(buf[:], symbol)
		return strings.ToUpper(hex.EncodeToString(buf[:])), nil
	default:
		return "", fmt.Errorf("%w: %q is longer than 20 bytes", ErrInvalidCurrency, symbol)
	}
}

// ValidateIssuedValue checks that value is a positive decimal number.
func ValidateIssuedValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.ContainsAny(value, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	r, ok := new(big.Rat).SetString(value)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, value)
	}
	if r.Sign() <= 0 {
		return "", fmt.Errorf("%w: %q must be positive", ErrInvalidAmount, value)
	}
	return value, nil
}

// IssuedAmount is a token amount held on a trust line.
type IssuedAmount struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
	Value    string `json:"value"`
}

// Amount is either XRP in drops or an issued-currency amount.
type Amount struct {
	drops  int64
	issued *IssuedAmount
}

// XRPAmount returns an amount of drops.
func XRPAmount(drops int64) Amount { return Amount{drops: drops} }

// IssuedCurrencyAmount returns an issued-currency amount.
func IssuedCurrencyAmount(currency, issuer, value string) Amount {
	return Amount{issued: &IssuedAmount{Currency: currency, Issuer: issuer, Value: value}}
}

// IsNative reports whether the amount is XRP.
func (a Amount) IsNative() bool { return a.issued == nil }

// Drops returns the XRP amount in drops; zero for issued amounts.
func (a Amount) Drops() int64 { return a.drops }

// Issued returns the issued amount, or nil for XRP.
func (a Amount) Issued() *IssuedAmount { return a.issued }

func (a Amount) MarshalJSON() ([]byte, error) {
	if a.issued != nil {
		return json.Marshal(a.issued)
	}
	return json.Marshal(strconv.FormatInt(a.drops, 10))
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var drops string
	if err := json.Unmarshal(data, &drops); err == nil {
		v, err := strconv.ParseInt(drops, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: drops %q", ErrInvalidAmount, drops)
		}
		*a = Amount{drops: v}
		return nil
	}
	var issued IssuedAmount
	if err := json.Unmarshal(data, &issued); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	*a = Amount{issued: &issued}
	return nil
}
