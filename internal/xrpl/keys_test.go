package xrpl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	genesisSeed    = "snoPBrXtMeMyMHUVTgbuqAfg1SUTb"
	genesisAddress = "rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTh"
)

func TestSeedFromPassphrase(t *testing.T) {
	assert.Equal(t, genesisSeed, SeedFromPassphrase("masterpassphrase"))
}

func TestWalletFromSeed_Secp256k1(t *testing.T) {
	w, err := WalletFromSeed(genesisSeed)
	require.NoError(t, err)

	assert.Equal(t, genesisAddress, w.ClassicAddress)
	assert.Equal(t, KeyTypeSecp256k1, w.KeyType)
	assert.Len(t, w.PublicKey, 66)
	assert.True(t, strings.HasPrefix(w.PublicKey, "02") || strings.HasPrefix(w.PublicKey, "03"))
	assert.Equal(t, genesisAddress, w.String())
}

func TestWalletFromSeed_Ed25519(t *testing.T) {
	entropy := make([]byte, seedLength)
	for i := range entropy {
		entropy[i] = byte(i + 1)
	}
	seed, err := EncodeSeed(entropy, KeyTypeEd25519)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(seed, "sEd"), seed)

	w, err := WalletFromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, KeyTypeEd25519, w.KeyType)
	assert.True(t, strings.HasPrefix(w.PublicKey, "ED"))
	assert.Len(t, w.PublicKey, 66)
	assert.True(t, IsValidClassicAddress(w.ClassicAddress))

	again, err := WalletFromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, w.ClassicAddress, again.ClassicAddress)
}

func TestWalletFromSeed_Invalid(t *testing.T) {
	for _, seed := range []string{"", "   ", "not-a-seed", genesisAddress, genesisSeed[:len(genesisSeed)-1] + "c"} {
		_, err := WalletFromSeed(seed)
		assert.ErrorIs(t, err, ErrInvalidSeed, "seed %q", seed)
	}
}

func TestClassicAddressRoundTrip(t *testing.T) {
	id, err := DecodeClassicAddress(genesisAddress)
	require.NoError(t, err)
	require.Len(t, id, accountIDLength)

	addr, err := EncodeClassicAddress(id)
	require.NoError(t, err)
	assert.Equal(t, genesisAddress, addr)

	assert.False(t, IsValidClassicAddress("rHb9CJAWyB4rj91VRWn96DkukG4bwdtyTi"))
	assert.False(t, IsValidClassicAddress(genesisSeed))

	_, err = EncodeClassicAddress([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
