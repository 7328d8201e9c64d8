package xrpl

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// rippleAlphabet is the base58 dictionary used by every XRPL encoding.
var rippleAlphabet = base58.NewAlphabet("rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz")

var (
	accountIDPrefix   = []byte{0x00}
	familySeedPrefix  = []byte{0x21}
	ed25519SeedPrefix = []byte{0x01, 0xE1, 0x4B}
)

const (
	accountIDLength = 20
	seedLength      = 16
	checksumLength  = 4
)

var (
	ErrInvalidChecksum = errors.New("xrpl: invalid base58 checksum")
	ErrInvalidAddress  = errors.New("xrpl: invalid classic address")
	ErrInvalidSeed     = errors.New("xrpl: invalid seed")
)

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}

func encodeCheck(prefix, payload []byte) string {
	buf := make([]byte, 0, len(prefix)+len(payload)+checksumLength)
	buf = append(buf, prefix...)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf)...)
	return base58.EncodeAlphabet(buf, rippleAlphabet)
}

// decodeCheck returns the versioned payload with the checksum stripped.
func decodeCheck(s string) ([]byte, error) {
	raw, err := base58.DecodeAlphabet(s, rippleAlphabet)
	if err != nil {
		return nil, fmt.Errorf("xrpl: base58 decode: %w", err)
	}
	if len(raw) <= checksumLength {
		return nil, ErrInvalidChecksum
	}
	body, sum := raw[:len(raw)-checksumLength], raw[len(raw)-checksumLength:]
	if !bytes.Equal(checksum(body), sum) {
		return nil, ErrInvalidChecksum
	}
	return body, nil
}

// EncodeClassicAddress encodes a 20-byte account ID as an r-address.
func EncodeClassicAddress(accountID []byte) (string, error) {
	if len(accountID) != accountIDLength {
		return "", fmt.Errorf("%w: account id must be %d bytes, got %d", ErrInvalidAddress, accountIDLength, len(accountID))
	}
	return encodeCheck(accountIDPrefix, accountID), nil
}

// DecodeClassicAddress returns the 20-byte account ID behind an r-address.
func DecodeClassicAddress(address string) ([]byte, error) {
	body, err := decodeCheck(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(body) != len(accountIDPrefix)+accountIDLength || !bytes.HasPrefix(body, accountIDPrefix) {
		return nil, ErrInvalidAddress
	}
	return body[len(accountIDPrefix):], nil
}

// IsValidClassicAddress reports whether address is a well-formed r-address.
func IsValidClassicAddress(address string) bool {
	_, err := DecodeClassicAddress(address)
	return err == nil
}

// EncodeSeed encodes 16 bytes of entropy as a family seed of the given key type.
func EncodeSeed(entropy []byte, keyType KeyType) (string, error) {
	if len(entropy) != seedLength {
		return "", fmt.Errorf("%w: entropy must be %d bytes", ErrInvalidSeed, seedLength)
	}
	switch keyType {
	case KeyTypeEd25519:
		return encodeCheck(ed25519SeedPrefix, entropy), nil
	case KeyTypeSecp256k1, "":
		return encodeCheck(familySeedPrefix, entropy), nil
	default:
		return "", fmt.Errorf("%w: unknown key type %q", ErrInvalidSeed, keyType)
	}
}

// DecodeSeed returns the seed entropy and the key type its prefix selects.
func DecodeSeed(seed string) ([]byte, KeyType, error) {
	body, err := decodeCheck(seed)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	switch {
	case len(body) == len(ed25519SeedPrefix)+seedLength && bytes.HasPrefix(body, ed25519SeedPrefix):
		return body[len(ed25519SeedPrefix):], KeyTypeEd25519, nil
	case len(body) == len(familySeedPrefix)+seedLength && bytes.HasPrefix(body, familySeedPrefix):
		return body[len(familySeedPrefix):], KeyTypeSecp256k1, nil
	default:
		return nil, "", ErrInvalidSeed
	}
}
