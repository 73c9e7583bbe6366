package codec

import (
	"encoding/base64"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/stretchr/testify/assert"
)

func TestEquivalent(t *testing.T) {
	acct := crypto.GenerateAccount()
	addrBytes := acct.Address[:]
	addr := acct.Address.String()

	text := "increment"
	textBytes := []byte(text)
	textB64 := base64.StdEncoding.EncodeToString(textBytes)

	cases := []struct {
		name     string
		actual   any
		expected string
		want     bool
	}{
		{name: "direct string", actual: "appl", expected: "appl", want: true},
		{name: "address from raw bytes", actual: addrBytes, expected: addr, want: true},
		{name: "address from base64 string", actual: base64.StdEncoding.EncodeToString(addrBytes), expected: addr, want: true},
		{name: "utf8 text", actual: textBytes, expected: text, want: true},
		{name: "base64 text", actual: textBytes, expected: textB64, want: true},
		{name: "different text", actual: textBytes, expected: "decrement", want: false},
		{name: "string is not re-read as text", actual: textB64, expected: text, want: false},
		{name: "number never equals string", actual: uint64(15), expected: "15", want: false},
		{name: "nil", actual: nil, expected: "", want: false},
		{name: "short bytes are not an address", actual: addrBytes[:31], expected: addr, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Equivalent(tc.actual, tc.expected))
		})
	}
}

func TestEquivalentAs(t *testing.T) {
	acct := crypto.GenerateAccount()
	text := []byte("decrement")

	assert.True(t, EquivalentAs(Address, acct.Address[:], acct.Address.String()))
	assert.False(t, EquivalentAs(Utf8Text, acct.Address[:], acct.Address.String()))

	assert.True(t, EquivalentAs(Utf8Text, text, "decrement"))
	assert.False(t, EquivalentAs(Base64, text, "decrement"))

	assert.True(t, EquivalentAs(Base64, text, EncodeBase64(text)))
	assert.False(t, EquivalentAs(Address, text, EncodeBase64(text)))

	assert.True(t, EquivalentAs(RawBytes, text, EncodeBase64(text)))
	assert.False(t, EquivalentAs(RawBytes, text, "not base64!"))

	assert.True(t, EquivalentAs(Scalar, text, "decrement"))
}

func TestBytesOf(t *testing.T) {
	b, ok := BytesOf([]byte{1, 2})
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2}, b)

	b, ok = BytesOf("AQI=")
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2}, b)

	_, ok = BytesOf("%%%")
	assert.False(t, ok)

	_, ok = BytesOf(uint64(1))
	assert.False(t, ok)
}

func TestNumberOf(t *testing.T) {
	cases := []struct {
		name   string
		actual any
		want   uint64
		ok     bool
	}{
		{name: "uint64", actual: uint64(15), want: 15, ok: true},
		{name: "int64", actual: int64(15), want: 15, ok: true},
		{name: "int", actual: 7, want: 7, ok: true},
		{name: "json float", actual: float64(16), want: 16, ok: true},
		{name: "negative", actual: int64(-1), ok: false},
		{name: "fraction", actual: 1.5, ok: false},
		{name: "string", actual: "15", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NumberOf(tc.actual)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}

	n, ok := SignedOf(int64(-3))
	assert.True(t, ok)
	assert.Equal(t, int64(-3), n)
}
