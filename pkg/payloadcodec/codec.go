// Package payloadcodec implements component B: deriving a tracker's Apple
// lookup identifier from its private key, and decoding the encrypted
// location record Apple returns into a plaintext Report.
package payloadcodec

import (
	"encoding/base64"

	"github.com/SpaceInvaderTech/AppleCollector/pkg/cryptoprimitives"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/helpers"
	"github.com/SpaceInvaderTech/AppleCollector/pkg/model"
)

// minPayloadLength is the minimum total length, in octets, of a decodable
// acsnservice payload (see spec §3 invariants).
const minPayloadLength = 88

// kdfContext is the literal single-counter KDF context appended after the
// ECDH shared secret when deriving the AES key/IV (spec §4.B step 3). It
// MUST appear in this exact position.
var kdfContext = [4]byte{0x00, 0x00, 0x00, 0x01}

// epochDiff is the number of seconds between 1970-01-01 (Unix epoch) and
// 2001-01-01 (the epoch Apple's acsnservice payload timestamps use).
const epochDiff = 978307200

// NewTracker constructs a Tracker from its id, name and 28-byte big-endian
// private scalar, deriving and freezing PublicKeyX, HashedPublicKey and
// HashedPublicKeyB64. Returns an error wrapping ErrCryptoFailure if the
// private scalar is invalid.
func NewTracker(id, name string, privateKey [model.PrivateKeyLength]byte) (*model.Tracker, error) {
	pubX, err := cryptoprimitives.DerivePublicX(privateKey[:])
	if err != nil {
		return nil, err
	}

	hashed := cryptoprimitives.SHA256(pubX)

	t := &model.Tracker{
		ID:         id,
		Name:       name,
		PrivateKey: privateKey,
	}
	copy(t.PublicKeyX[:], pubX)
	copy(t.HashedPublicKey[:], hashed)
	t.HashedPublicKeyB64 = base64.StdEncoding.EncodeToString(hashed)

	return t, nil
}

// layout describes the offsets of a parsed acsnservice payload, accounting
// for the variable adj shift (spec §4.B).
type layout struct {
	ephemeralPoint []byte
	ciphertext     []byte
	tag            []byte
}

// parseLayout splits data (the decoded `payload` field) into its ephemeral
// point, ciphertext and GCM tag, per the variable-offset layout in spec
// §4.B. Returns ErrCryptoFailure if data is shorter than minPayloadLength.
func parseLayout(data []byte) (*layout, error) {
	if len(data) < minPayloadLength {
		return nil, helpers.ErrCryptoFailure.WithDetails("payload shorter than minimum wire length")
	}

	adj := len(data) - minPayloadLength

	return &layout{
		ephemeralPoint: data[5+adj : 62+adj],
		ciphertext:     data[62+adj : 72+adj],
		tag:            data[72+adj:],
	}, nil
}

// DecodeTimestamp extracts the seconds-since-2001 timestamp embedded in the
// first 4 octets of data and converts it to Unix epoch seconds.
func DecodeTimestamp(data []byte) (int64, error) {
	if len(data) < 4 {
		return 0, helpers.ErrCryptoFailure.WithDetails("payload shorter than timestamp field")
	}
	return cryptoprimitives.BytesToInt(data[0:4]).Int64() + epochDiff, nil
}

// DecodeRecord decrypts the encrypted location record in data (the decoded
// bytes of the `payload` field) under the tracker's private key and
// returns the plaintext Report. Any failure is an ErrCryptoFailure.
func DecodeRecord(priv [model.PrivateKeyLength]byte, data []byte) (*model.Report, error) {
	l, err := parseLayout(data)
	if err != nil {
		return nil, err
	}

	shared, err := cryptoprimitives.ECDH(priv[:], l.ephemeralPoint)
	if err != nil {
		return nil, err
	}

	kdfInput := make([]byte, 0, len(shared)+len(kdfContext)+len(l.ephemeralPoint))
	kdfInput = append(kdfInput, shared...)
	kdfInput = append(kdfInput, kdfContext[:]...)
	kdfInput = append(kdfInput, l.ephemeralPoint...)
	symmetric := cryptoprimitives.SHA256(kdfInput)

	aesKey := symmetric[:16]
	iv := symmetric[16:]

	plaintext, err := cryptoprimitives.AESGCMDecrypt(aesKey, iv, l.ciphertext, l.tag)
	if err != nil {
		return nil, err
	}

	return decodePlaintext(plaintext)
}

// decodePlaintext decodes the 10-octet decrypted record (spec §4.B step 6):
// signed big-endian int32 lat/lon at precision 1e-7 degree, then conf/status
// bytes.
func decodePlaintext(plaintext []byte) (*model.Report, error) {
	if len(plaintext) != 10 {
		return nil, helpers.ErrCryptoFailure.WithDetails("decrypted record is not 10 octets")
	}

	lat := float64(int32(cryptoprimitives.BytesToInt(plaintext[0:4]).Uint64())) / 10_000_000.0
	lon := float64(int32(cryptoprimitives.BytesToInt(plaintext[4:8]).Uint64())) / 10_000_000.0

	return &model.Report{
		Lat:    lat,
		Lon:    lon,
		Conf:   plaintext[8],
		Status: plaintext[9],
	}, nil
}
