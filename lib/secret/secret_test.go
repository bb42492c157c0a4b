package secret

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	sealed, err := Encrypt("hunter2", "HOST]y6P41L[ALICE")
	require.NoError(t, err)
	require.NotContains(t, sealed, "hunter2")

	opened, err := Decrypt(sealed, "HOST]y6P41L[ALICE")
	require.NoError(t, err)
	require.Equal(t, "hunter2", opened)

	again, err := Encrypt("hunter2", "HOST]y6P41L[ALICE")
	require.NoError(t, err)
	require.NotEqual(t, sealed, again, "salt and nonce are random")
}

func TestDecryptFailures(t *testing.T) {
	sealed, err := Encrypt("hunter2", "right")
	require.NoError(t, err)

	_, err = Decrypt(sealed, "wrong")
	require.ErrorIs(t, err, ErrDecrypt)

	_, err = Decrypt("not base64!", "right")
	require.ErrorIs(t, err, ErrDecrypt)

	_, err = Decrypt("c2hvcnQ=", "right")
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestMachinePassphrase(t *testing.T) {
	passphrase := MachinePassphrase()
	require.Contains(t, passphrase, "]y6P41L[")
	require.Equal(t, passphrase, MachinePassphrase())
}
