package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptorRoundTrip(t *testing.T) {
	enc, err := NewEncryptor([]byte("pass1"), []byte("salt1"))
	require.NoError(t, err)

	ct, err := enc.Encrypt([]byte("hello archival"))
	require.NoError(t, err)
	assert.NotEqual(t, "hello archival", string(ct))

	pt, err := enc.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "hello archival", string(pt))
}

func TestEncryptorWrongKeyFails(t *testing.T) {
	enc1, err := NewEncryptor([]byte("pass1"), []byte("salt1"))
	require.NoError(t, err)
	enc2, err := NewEncryptor([]byte("pass2"), []byte("salt1"))
	require.NoError(t, err)

	ct, err := enc1.Encrypt([]byte("secret"))
	require.NoError(t, err)

	_, err = enc2.Decrypt(ct)
	require.Error(t, err)
}

func TestEncryptorRejectsTruncatedCiphertext(t *testing.T) {
	enc, err := NewEncryptor([]byte("pass"), []byte("salt"))
	require.NoError(t, err)

	_, err = enc.Decrypt([]byte("x"))
	require.Error(t, err)
}
