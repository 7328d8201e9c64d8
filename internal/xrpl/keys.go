package xrpl

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/ripemd160"
)

// KeyType selects the signing algorithm of a seed.
type KeyType string

const (
	KeyTypeSecp256k1 KeyType = "secp256k1"
	KeyTypeEd25519   KeyType = "ed25519"
)

// Wallet is the key pair of a seed and the account it controls. The private
// key stays in the process; only signatures are sent to the node.
type Wallet struct {
	ClassicAddress string  `json:"classic_address"`
	PublicKey      string  `json:"public_key"`
	KeyType        KeyType `json:"key_type"`

	secpKey *secp256k1.PrivateKey
	edKey   ed25519.PrivateKey
	pub     []byte
}

// String never includes the seed.
func (w *Wallet) String() string { return w.ClassicAddress }

// WalletFromSeed derives the master key pair of a family seed and its classic address.
func WalletFromSeed(seed string) (*Wallet, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return nil, fmt.Errorf("%w: empty seed", ErrInvalidSeed)
	}
	entropy, keyType, err := DecodeSeed(seed)
	if err != nil {
		return nil, err
	}

	w := &Wallet{KeyType: keyType}
	switch keyType {
	case KeyTypeEd25519:
		w.edKey = ed25519.NewKeyFromSeed(sha512Half(entropy))
		w.pub = append([]byte{0xED}, w.edKey.Public().(ed25519.PublicKey)...)
	default:
		w.secpKey, err = secp256k1PrivateKey(entropy)
		if err != nil {
			return nil, err
		}
		w.pub = w.secpKey.PubKey().SerializeCompressed()
	}

	w.ClassicAddress, err = EncodeClassicAddress(accountID(w.pub))
	if err != nil {
		return nil, err
	}
	w.PublicKey = strings.ToUpper(hex.EncodeToString(w.pub))
	return w, nil
}

// sign signs a prefixed signing payload. ed25519 signs the payload itself,
// secp256k1 signs its SHA-512Half with a canonical (low-S) DER signature.
func (w *Wallet) sign(payload []byte) ([]byte, error) {
	switch {
	case w == nil:
		return nil, ErrMissingWallet
	case w.edKey != nil:
		return ed25519.Sign(w.edKey, payload), nil
	case w.secpKey != nil:
		return ecdsa.Sign(w.secpKey, sha512Half(payload)).Serialize(), nil
	default:
		return nil, ErrMissingWallet
	}
}

// SeedFromPassphrase derives a secp256k1 family seed from a passphrase, the same way
// wallet_propose does.
func SeedFromPassphrase(passphrase string) string {
	sum := sha512.Sum512([]byte(passphrase))
	seed, _ := EncodeSeed(sum[:seedLength], KeyTypeSecp256k1)
	return seed
}

func sha512Half(parts ...[]byte) []byte {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)[:32]
}

func uint32Bytes(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}

func accountID(pub []byte) []byte {
	sha := sha256.Sum256(pub)
	r := ripemd160.New()
	r.Write(sha[:])
	return r.Sum(nil)
}

// deriveScalar hashes data (and optional discriminators) with an increasing
// counter until the result is a valid secp256k1 private scalar.
func deriveScalar(data []byte, discriminators ...uint32) (*big.Int, error) {
	order := secp256k1.S256().Params().N
	for i := uint64(0); i <= 0xFFFFFFFF; i++ {
		parts := [][]byte{data}
		for _, d := range discriminators {
			parts = append(parts, uint32Bytes(d))
		}
		parts = append(parts, uint32Bytes(uint32(i)))
		k := new(big.Int).SetBytes(sha512Half(parts...))
		if k.Sign() > 0 && k.Cmp(order) < 0 {
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w: no valid scalar", ErrInvalidSeed)
}

func compressedPublicKey(k *big.Int) []byte {
	priv := secp256k1.PrivKeyFromBytes(k.FillBytes(make([]byte, 32)))
	return priv.PubKey().SerializeCompressed()
}

// secp256k1PrivateKey follows the family-seed derivation: a root generator from
// the seed, then the account-index-0 key added to it modulo the curve order.
func secp256k1PrivateKey(entropy []byte) (*secp256k1.PrivateKey, error) {
	root, err := deriveScalar(entropy)
	if err != nil {
		return nil, err
	}
	rootPub := compressedPublicKey(root)

	tweak, err := deriveScalar(rootPub, 0)
	if err != nil {
		return nil, err
	}
	priv := new(big.Int).Add(root, tweak)
	priv.Mod(priv, secp256k1.S256().Params().N)
	return secp256k1.PrivKeyFromBytes(priv.FillBytes(make([]byte, 32))), nil
}
