// Package codec reconciles the representations an on-chain value can take:
// raw bytes, base64 text, UTF-8 text and checksummed Algorand addresses.
package codec

import (
	"bytes"
	"encoding/base64"
	"math"

	"github.com/algorand/go-algorand-sdk/v2/types"
)

// Kind selects the comparison strategy for an expected value.
type Kind int

const (
	// Scalar compares directly, then falls back to Address, Utf8Text and
	// Base64 in that order.
	Scalar Kind = iota
	// RawBytes compares byte for byte against the actual's byte form.
	RawBytes
	// Base64 compares against the base64 encoding of the actual's bytes.
	Base64
	// Utf8Text compares against the actual's bytes read as UTF-8 text.
	Utf8Text
	// Address compares against the checksummed address of the actual's bytes.
	Address
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case RawBytes:
		return "bytes"
	case Base64:
		return "base64"
	case Utf8Text:
		return "text"
	case Address:
		return "address"
	default:
		return "unknown"
	}
}

// BytesOf returns the byte form of an actual value. Strings are treated as
// base64, which is how algod's JSON endpoints carry byte slices.
func BytesOf(actual any) ([]byte, bool) {
	switch v := actual.(type) {
	case []byte:
		return v, true
	case string:
		b, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		return nil, false
	}
}

// AddressOf returns the checksummed address for a 32 byte public key.
func AddressOf(b []byte) (string, bool) {
	var addr types.Address
	if len(b) != len(addr) {
		return "", false
	}
	copy(addr[:], b)
	return addr.String(), true
}

// EncodeBase64 returns the standard base64 encoding of b.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Equivalent reports whether actual represents the expected string. The
// checks run in a fixed order and the first success wins:
// direct equality, address decoding, UTF-8 text, base64 encoding.
func Equivalent(actual any, expected string) bool {
	for _, k := range []Kind{Address, Utf8Text, Base64} {
		if EquivalentAs(k, actual, expected) {
			return true
		}
	}
	return false
}

// EquivalentAs reports whether actual represents expected using direct
// equality or the single strategy k. Scalar runs the full chain.
func EquivalentAs(k Kind, actual any, expected string) bool {
	if s, ok := actual.(string); ok && s == expected {
		return true
	}

	switch k {
	case Scalar:
		return Equivalent(actual, expected)
	case Address:
		b, ok := BytesOf(actual)
		if !ok {
			return false
		}
		addr, ok := AddressOf(b)
		return ok && addr == expected
	case Utf8Text:
		b, ok := actual.([]byte)
		return ok && string(b) == expected
	case Base64:
		b, ok := actual.([]byte)
		return ok && EncodeBase64(b) == expected
	case RawBytes:
		want, err := base64.StdEncoding.DecodeString(expected)
		if err != nil {
			return false
		}
		return BytesEqual(actual, want)
	default:
		return false
	}
}

// BytesEqual compares expected byte for byte against actual's byte form.
func BytesEqual(actual any, expected []byte) bool {
	b, ok := BytesOf(actual)
	return ok && bytes.Equal(b, expected)
}

// NumberOf normalizes integer and JSON number representations to uint64.
func NumberOf(actual any) (uint64, bool) {
	switch v := actual.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case int64:
		return signed(v)
	case int:
		return signed(int64(v))
	case int32:
		return signed(int64(v))
	case int16:
		return signed(int64(v))
	case int8:
		return signed(int64(v))
	case float64:
		if v < 0 || v != math.Trunc(v) || v >= 1<<64 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// SignedOf normalizes integer and JSON number representations to int64.
func SignedOf(actual any) (int64, bool) {
	switch v := actual.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= 1<<63 {
			return 0, false
		}
		return int64(v), true
	default:
		u, ok := NumberOf(actual)
		if !ok || u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
}

func signed(v int64) (uint64, bool) {
	if v < 0 {
		return 0, false
	}
	return uint64(v), true
}
