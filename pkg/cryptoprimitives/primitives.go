// Package cryptoprimitives provides the low-level byte, hash and cipher
// operations component B (the payload codec) is built on: big-endian
// integer codecs, SHA-256, HMAC-MD5, AES-GCM/CBC, PKCS7 padding, and
// SECP224R1 key derivation/ECDH. All failures are surfaced as
// *helpers.Error wrapping helpers.ErrCryptoFailure.
package cryptoprimitives

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"math/big"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/helpers"
)

// BytesToInt decodes a big-endian byte slice into a big.Int.
func BytesToInt(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// IntToBytes encodes n as a big-endian byte slice of exactly length bytes,
// left-padding with zeroes as needed.
func IntToBytes(n *big.Int, length int) []byte {
	out := make([]byte, length)
	n.FillBytes(out)
	return out
}

// SHA256 hashes data with SHA-256.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// HMACMD5 computes HMAC-MD5(key, data). Used only by the (out-of-scope)
// keychain-extraction path on the minting host; exposed here because it is
// one of the primitives component A names.
func HMACMD5(key, data []byte) []byte {
	mac := hmac.New(md5.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// AESGCMDecrypt decrypts ciphertext with AES-128-GCM under key/iv, verifying
// tag. tag must be appended to ciphertext per Go's cipher.AEAD convention;
// callers pass them separately here to mirror the wire layout.
func AESGCMDecrypt(key, iv, ciphertext, tag []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, helpers.ErrCryptoFailure.WithDetails(err.Error())
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, helpers.ErrCryptoFailure.WithDetails(err.Error())
	}

	sealed := append(append([]byte{}, ciphertext...), tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, helpers.ErrCryptoFailure.WithDetails(err.Error())
	}

	return plaintext, nil
}

// AESCBCDecrypt decrypts ciphertext with AES-CBC under key/iv. The result is
// still PKCS7-padded; callers must call PKCS7Unpad. Used only by the
// (out-of-scope) keychain-extraction path; exposed because component A
// names it explicitly.
func AESCBCDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, helpers.ErrCryptoFailure.WithDetails(err.Error())
	}

	if len(ciphertext)%block.BlockSize() != 0 {
		return nil, helpers.ErrCryptoFailure.WithDetails("ciphertext is not a multiple of the block size")
	}

	plaintext := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plaintext, ciphertext)

	return plaintext, nil
}

// PKCS7Unpad strips PKCS7 padding assuming the given block size.
func PKCS7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, helpers.ErrCryptoFailure.WithDetails("pad error: not a multiple of block size")
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, helpers.ErrCryptoFailure.WithDetails("pad error: invalid padding length")
	}

	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, helpers.ErrCryptoFailure.WithDetails("pad error: invalid padding bytes")
		}
	}

	return data[:len(data)-padLen], nil
}

// curve224 returns the SECP224R1 curve (NIST P-224).
func curve224() elliptic.Curve {
	return elliptic.P224()
}

// DerivePublicX computes the 28-byte big-endian X coordinate of priv*G on
// SECP224R1, given priv as a 28-byte big-endian scalar.
func DerivePublicX(priv []byte) ([]byte, error) {
	curve := curve224()
	d := new(big.Int).SetBytes(priv)
	if d.Sign() == 0 || d.Cmp(curve.Params().N) >= 0 {
		return nil, helpers.ErrCryptoFailure.WithDetails("private scalar out of range")
	}

	x, _ := curve.ScalarBaseMult(priv)
	return IntToBytes(x, 28), nil
}

// ECDH computes the SECP224R1 ECDH shared secret (the 28-byte big-endian X
// coordinate of priv*peerPoint) between priv (28-byte big-endian scalar) and
// peerPointEncoded (57-octet SEC1 uncompressed point: 0x04 || X || Y).
func ECDH(priv []byte, peerPointEncoded []byte) ([]byte, error) {
	curve := curve224()

	x, y := elliptic.Unmarshal(curve, peerPointEncoded)
	if x == nil {
		return nil, helpers.ErrCryptoFailure.WithDetails("invalid or off-curve ephemeral point")
	}

	sharedX, _ := curve.ScalarMult(x, y, priv)
	return IntToBytes(sharedX, 28), nil
}
