package model

// PrivateKeyLength is the length in octets of a tracker's SECP224R1 private
// scalar (224 bits, big-endian).
const PrivateKeyLength = 28

// Tracker is a Bluetooth beacon advertising Find My-compatible payloads.
// Immutable after construction by payloadcodec.NewTracker: the derived
// fields (PublicKeyX, HashedPublicKey, HashedPublicKeyB64) are computed once
// from PrivateKey and must never be recomputed or mutated in place.
type Tracker struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`

	// PrivateKey is the 28-octet big-endian SECP224R1 scalar.
	PrivateKey [PrivateKeyLength]byte `json:"-"`

	// PublicKeyX is the 28-octet big-endian X coordinate of PrivateKey*G.
	PublicKeyX [PrivateKeyLength]byte `json:"-"`

	// HashedPublicKey is SHA-256(PublicKeyX).
	HashedPublicKey [32]byte `json:"-"`

	// HashedPublicKeyB64 is the base64 ASCII form of HashedPublicKey; this is
	// the identifier Apple's acsnservice looks sightings up by.
	HashedPublicKeyB64 string `json:"hashed_public_key_b64"`

	// Report is the most recently decrypted, enriched sighting for this
	// tracker, or nil if none was found in the last fetch.
	Report *EnrichedReport `json:"report,omitempty"`
}

// RawLocation is a single sighting as returned by Apple's acsnservice,
// treated as immutable input.
type RawLocation struct {
	ID            string `json:"id"`
	Payload       string `json:"payload"`
	DatePublished int64  `json:"datePublished"`
	Description   string `json:"description"`
	StatusCode    int    `json:"statusCode"`
}

// Report is a decrypted plaintext fix.
type Report struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Conf   uint8   `json:"conf"`
	Status uint8   `json:"status"`
}

// EnrichedReport is a Report extended with the sighting's provenance.
type EnrichedReport struct {
	Report

	DeviceID      string `json:"device_id"`
	Timestamp     int64  `json:"timestamp"`
	DatePublished int64  `json:"date_published"`
	Description   string `json:"description"`
}

// CredentialBlob is the complete HTTP header set Apple's acsnservice
// requires; no other headers are sent. Field names preserve the wire
// (header) names exactly.
type CredentialBlob struct {
	UserAgent          string `json:"User-Agent"`
	Accept             string `json:"Accept"`
	Authorization      string `json:"Authorization"`
	XAppleIMD          string `json:"X-Apple-I-MD"`
	XAppleIMDRINFO     string `json:"X-Apple-I-MD-RINFO"`
	XAppleIMDM         string `json:"X-Apple-I-MD-M"`
	XAppleITimeZone    string `json:"X-Apple-I-TimeZone"`
	XAppleIClientTime  string `json:"X-Apple-I-Client-Time"`
	XBAClientTimestamp string `json:"X-BA-CLIENT-TIMESTAMP"`
}

// Headers renders the blob as an HTTP header map suitable for
// http.Header.Set-by-key iteration.
func (c CredentialBlob) Headers() map[string]string {
	return map[string]string{
		"User-Agent":            c.UserAgent,
		"Accept":                c.Accept,
		"Authorization":         c.Authorization,
		"X-Apple-I-MD":          c.XAppleIMD,
		"X-Apple-I-MD-RINFO":    c.XAppleIMDRINFO,
		"X-Apple-I-MD-M":        c.XAppleIMDM,
		"X-Apple-I-TimeZone":    c.XAppleITimeZone,
		"X-Apple-I-Client-Time": c.XAppleIClientTime,
		"X-BA-CLIENT-TIMESTAMP": c.XBAClientTimestamp,
	}
}
