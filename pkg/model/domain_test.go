package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialBlobHeaders(t *testing.T) {
	blob := CredentialBlob{
		UserAgent:          "FindMy/1.0",
		Accept:             "application/json",
		Authorization:      "Bearer token",
		XAppleIMD:          "md",
		XAppleIMDRINFO:     "rinfo",
		XAppleIMDM:         "mdm",
		XAppleITimeZone:    "UTC",
		XAppleIClientTime:  "2024-01-01T00:00:00Z",
		XBAClientTimestamp: "1700000000",
	}

	want := map[string]string{
		"User-Agent":            "FindMy/1.0",
		"Accept":                "application/json",
		"Authorization":         "Bearer token",
		"X-Apple-I-MD":          "md",
		"X-Apple-I-MD-RINFO":    "rinfo",
		"X-Apple-I-MD-M":        "mdm",
		"X-Apple-I-TimeZone":    "UTC",
		"X-Apple-I-Client-Time": "2024-01-01T00:00:00Z",
		"X-BA-CLIENT-TIMESTAMP": "1700000000",
	}

	assert.Equal(t, want, blob.Headers())
}
