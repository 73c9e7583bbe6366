// Package matcher checks that a decoded on-chain object contains a partial
// pattern of expected fields, reconciling the differing encodings a value
// can have on the wire.
package matcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/manifest-network/tealcounter/internal/codec"
)

// Match requires every field in expected to be satisfied by actual. Extra
// fields in actual are ignored. Keys are visited in sorted order and the
// first unsatisfied key is returned as a *MismatchError. A nil actual is a
// *MalformedActualError.
func Match(actual map[string]any, expected Fields) error {
	if actual == nil {
		return &MalformedActualError{}
	}
	return matchFields("", actual, expected)
}

func matchFields(parent string, actual map[string]any, expected Fields) error {
	for _, key := range sortedKeys(expected) {
		if err := matchValue(joinPath(parent, key), actual, actual[key], expected[key]); err != nil {
			return err
		}
	}
	return nil
}

func matchList(parent string, actual []any, expected []Value) error {
	for i, want := range expected {
		var got any
		if i < len(actual) {
			got = actual[i]
		}
		if err := matchValue(joinPath(parent, strconv.Itoa(i)), actual, got, want); err != nil {
			return err
		}
	}
	return nil
}

// matchIndexed matches a map keyed by decimal indexes against a list, so
// dotted paths like txn.apaa.0 can address list elements.
func matchIndexed(parent string, holder any, actual []any, want Value) error {
	for _, key := range sortedKeys(want.fields) {
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 {
			return mismatch(parent, holder, actual, want)
		}
		var got any
		if i < len(actual) {
			got = actual[i]
		}
		if err := matchValue(joinPath(parent, key), actual, got, want.fields[key]); err != nil {
			return err
		}
	}
	return nil
}

// matchValue compares one expected value. holder is the object containing
// the field and is only used for error reporting.
func matchValue(path string, holder, got any, want Value) error {
	switch want.typ {
	case nestedMap:
		if list, ok := got.([]any); ok {
			return matchIndexed(path, holder, list, want)
		}
		sub, ok := got.(map[string]any)
		if !ok || sub == nil {
			return mismatch(path, holder, got, want)
		}
		return matchFields(path, sub, want.fields)

	case nestedList:
		sub, ok := got.([]any)
		if !ok || sub == nil {
			return mismatch(path, holder, got, want)
		}
		return matchList(path, sub, want.list)

	case rawBytes:
		if got != nil && bytesMatch(got, want.bytes) {
			return nil
		}
		return mismatch(path, holder, got, want)

	default:
		if got != nil && scalarMatch(got, want) {
			return nil
		}
		return mismatch(path, holder, got, want)
	}
}

func bytesMatch(got any, want []byte) bool {
	switch v := got.(type) {
	case []any:
		// JSON style byte arrays.
		if len(v) != len(want) {
			return false
		}
		for i, e := range v {
			n, ok := codec.NumberOf(e)
			if !ok || n != uint64(want[i]) {
				return false
			}
		}
		return true
	default:
		b, ok := codec.BytesOf(got)
		return ok && bytes.Equal(b, want)
	}
}

func scalarMatch(got any, want Value) bool {
	switch want.typ {
	case scalarUint:
		n, ok := codec.NumberOf(got)
		return ok && n == want.num
	case scalarInt:
		n, ok := codec.SignedOf(got)
		return ok && n == want.inum
	case scalarBool:
		b, ok := got.(bool)
		return ok && b == want.flag
	case scalarString, encodedString:
		return codec.EquivalentAs(want.kind, got, want.str)
	default:
		return false
	}
}

func mismatch(path string, holder, got any, want Value) error {
	return &MismatchError{
		Path:         path,
		Expected:     want,
		Actual:       got,
		ActualObject: serialize(holder),
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func sortedKeys(f Fields) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func serialize(v any) string {
	out, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

func describe(v any) string {
	switch t := v.(type) {
	case nil:
		return "undefined"
	case []byte:
		return fmt.Sprintf("bytes(%s)", codec.EncodeBase64(t))
	case string:
		return strconv.Quote(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
