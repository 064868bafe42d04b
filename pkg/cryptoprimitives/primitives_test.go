package cryptoprimitives

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/elliptic"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToBytesRoundTrip(t *testing.T) {
	n := big.NewInt(123456789)
	b := IntToBytes(n, 28)
	assert.Len(t, b, 28)
	assert.Equal(t, n, BytesToInt(b))
}

func TestDerivePublicXDeterministic(t *testing.T) {
	priv := make([]byte, 28)
	priv[27] = 7

	x1, err := DerivePublicX(priv)
	require.NoError(t, err)
	x2, err := DerivePublicX(priv)
	require.NoError(t, err)

	assert.Equal(t, x1, x2)
	assert.Len(t, x1, 28)
}

func TestDerivePublicXRejectsZeroScalar(t *testing.T) {
	priv := make([]byte, 28)
	_, err := DerivePublicX(priv)
	assert.Error(t, err)
}

func TestECDHMatchesBothSides(t *testing.T) {
	curve := curve224()

	privA := make([]byte, 28)
	privA[27] = 9
	privB := make([]byte, 28)
	privB[27] = 42

	ax, ay := curve.ScalarBaseMult(privA)
	bx, by := curve.ScalarBaseMult(privB)

	pointA := elliptic.Marshal(curve, ax, ay)
	pointB := elliptic.Marshal(curve, bx, by)

	sharedFromA, err := ECDH(privA, pointB)
	require.NoError(t, err)
	sharedFromB, err := ECDH(privB, pointA)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(sharedFromA, sharedFromB))
}

func TestECDHRejectsInvalidPoint(t *testing.T) {
	priv := make([]byte, 28)
	priv[27] = 1

	_, err := ECDH(priv, make([]byte, 57))
	assert.Error(t, err)
}

func TestAESGCMDecryptRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, 16)
	iv := bytes.Repeat([]byte{0x02}, 16)
	plaintext := []byte("0123456789")

	ciphertext, tag := aesGCMEncryptForTest(t, key, iv, plaintext)

	got, err := AESGCMDecrypt(key, iv, ciphertext, tag)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestAESGCMDecryptRejectsBadTag(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, 16)
	iv := bytes.Repeat([]byte{0x02}, 16)
	plaintext := []byte("0123456789")

	ciphertext, tag := aesGCMEncryptForTest(t, key, iv, plaintext)
	tag[0] ^= 0xFF

	_, err := AESGCMDecrypt(key, iv, ciphertext, tag)
	assert.Error(t, err)
}

func TestPKCS7UnpadRoundTrip(t *testing.T) {
	padded := append([]byte("hello123"), bytes.Repeat([]byte{8}, 8)...)
	got, err := PKCS7Unpad(padded, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello123"), got)
}

func TestPKCS7UnpadRejectsBadPadding(t *testing.T) {
	padded := append([]byte("hello1234567890"), byte(0))
	_, err := PKCS7Unpad(padded, 16)
	assert.Error(t, err)
}

func TestHMACMD5(t *testing.T) {
	got := HMACMD5([]byte("key"), []byte("data"))
	assert.Len(t, got, 16)
}

// aesGCMEncryptForTest mirrors the wire layout AESGCMDecrypt consumes:
// ciphertext and tag returned separately.
func aesGCMEncryptForTest(t *testing.T, key, iv, plaintext []byte) (ciphertext, tag []byte) {
	t.Helper()

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	require.NoError(t, err)

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	return sealed[:len(sealed)-gcm.Overhead()], sealed[len(sealed)-gcm.Overhead():]
}
