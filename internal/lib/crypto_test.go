package lib

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestSignRecoverPersonal(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	msg := []byte("hello")
	sig, err := SignPersonal(msg, key)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.GreaterOrEqual(t, sig[64], byte(27))

	signer, err := RecoverPersonal(msg, sig)
	require.NoError(t, err)
	require.Equal(t, MustPrivKeyToAddr(key), signer)
}

func TestRecoverPersonalOtherMessage(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := SignPersonal([]byte("hello"), key)
	require.NoError(t, err)

	signer, err := RecoverPersonal([]byte("hellO"), sig)
	if err == nil {
		require.NotEqual(t, MustPrivKeyToAddr(key), signer)
	}
}

func TestRecoverPersonalBadLength(t *testing.T) {
	_, err := RecoverPersonal([]byte("hello"), []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidSignatureLength)
}
