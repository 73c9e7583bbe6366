package matcher

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifest-network/tealcounter/internal/codec"
)

// Fields is a partial pattern of expected fields keyed by wire field name.
type Fields map[string]Value

type valueType int

const (
	scalarString valueType = iota
	scalarUint
	scalarInt
	scalarBool
	encodedString
	rawBytes
	nestedMap
	nestedList
)

// Value is an expected field value. Construct it with Uint, Int, Bool, Str,
// Bytes, Address, Base64, Text, Map or List.
type Value struct {
	typ    valueType
	kind   codec.Kind
	str    string
	num    uint64
	inum   int64
	flag   bool
	bytes  []byte
	fields Fields
	list   []Value
}

// Uint expects an unsigned integer.
func Uint(n uint64) Value { return Value{typ: scalarUint, num: n} }

// Int expects a signed integer.
func Int(n int64) Value { return Value{typ: scalarInt, inum: n} }

// Bool expects a boolean.
func Bool(b bool) Value { return Value{typ: scalarBool, flag: b} }

// Str expects a string, reconciled against bytes and addresses in the
// fixed fallback order of codec.Equivalent.
func Str(s string) Value { return Value{typ: scalarString, kind: codec.Scalar, str: s} }

// Address expects the checksummed address of a 32 byte public key.
func Address(addr string) Value { return Value{typ: encodedString, kind: codec.Address, str: addr} }

// Base64 expects bytes whose base64 encoding is s.
func Base64(s string) Value { return Value{typ: encodedString, kind: codec.Base64, str: s} }

// Text expects bytes that read as the UTF-8 text s.
func Text(s string) Value { return Value{typ: encodedString, kind: codec.Utf8Text, str: s} }

// Bytes expects exactly b.
func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{typ: rawBytes, kind: codec.RawBytes, bytes: cp}
}

// Map expects a nested object containing fields.
func Map(fields Fields) Value { return Value{typ: nestedMap, fields: fields} }

// List expects a list whose leading elements match values.
func List(values ...Value) Value { return Value{typ: nestedList, list: values} }

// Kind is the comparison strategy used for the value.
func (v Value) Kind() codec.Kind { return v.kind }

func (v Value) String() string {
	switch v.typ {
	case scalarUint:
		return fmt.Sprintf("%d", v.num)
	case scalarInt:
		return fmt.Sprintf("%d", v.inum)
	case scalarBool:
		return fmt.Sprintf("%t", v.flag)
	case scalarString:
		return fmt.Sprintf("%q", v.str)
	case encodedString:
		return fmt.Sprintf("%s(%q)", v.kind, v.str)
	case rawBytes:
		return fmt.Sprintf("bytes(%s)", codec.EncodeBase64(v.bytes))
	case nestedMap:
		return "{...}"
	case nestedList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "?"
	}
}

// Parse builds a value from command line text. Prefixes select a strategy:
// "uint:", "int:", "bool:", "addr:", "b64:", "text:", "hex:". Without a
// prefix, decimal digits become Uint and anything else Str.
func Parse(s string) (Value, error) {
	prefix, rest, found := strings.Cut(s, ":")
	if found {
		switch prefix {
		case "uint":
			n, err := strconv.ParseUint(rest, 10, 64)
			if err != nil {
				return Value{}, fmt.Errorf("invalid uint %q: %w", rest, err)
			}
			return Uint(n), nil
		case "int":
			n, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				return Value{}, fmt.Errorf("invalid int %q: %w", rest, err)
			}
			return Int(n), nil
		case "bool":
			switch rest {
			case "true":
				return Bool(true), nil
			case "false":
				return Bool(false), nil
			}
			return Value{}, fmt.Errorf("invalid bool %q", rest)
		case "addr":
			return Address(rest), nil
		case "b64":
			return Base64(rest), nil
		case "text":
			return Text(rest), nil
		case "hex":
			b, err := hex.DecodeString(rest)
			if err != nil {
				return Value{}, fmt.Errorf("invalid hex %q: %w", rest, err)
			}
			return Bytes(b), nil
		}
	}

	if s != "" && strings.Trim(s, "0123456789") == "" {
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return Uint(n), nil
		}
	}
	return Str(s), nil
}

// Set assigns v at a dotted path, creating nested maps as needed.
func (f Fields) Set(path string, v Value) {
	keys := strings.Split(path, ".")
	cur := f
	for _, k := range keys[:len(keys)-1] {
		next, ok := cur[k]
		if !ok || next.typ != nestedMap {
			next = Map(Fields{})
			cur[k] = next
		}
		cur = next.fields
	}
	cur[keys[len(keys)-1]] = v
}
