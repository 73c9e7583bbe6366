package models

import (
	"fmt"
	"reflect"

	"github.com/algorand/go-codec/codec"
)

// recordHandle decodes msgpack into generic records: str becomes string,
// bin becomes []byte and maps become map[string]any.
var recordHandle = newRecordHandle(false)

var canonicalHandle = newRecordHandle(true)

func newRecordHandle(canonical bool) *codec.MsgpackHandle {
	h := new(codec.MsgpackHandle)
	h.MapType = reflect.TypeOf(map[string]any(nil))
	h.WriteExt = true
	h.RawToString = true
	h.Canonical = canonical
	return h
}

// DecodeRecord decodes a msgpack encoded map into a Record.
func DecodeRecord(data []byte) (Record, error) {
	var rec map[string]any
	if err := codec.NewDecoderBytes(data, recordHandle).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode msgpack record: %w", err)
	}
	return rec, nil
}

// EncodeRecord encodes a Record as msgpack with sorted keys.
func EncodeRecord(rec Record) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, canonicalHandle).Encode(rec); err != nil {
		return nil, fmt.Errorf("failed to encode msgpack record: %w", err)
	}
	return out, nil
}

// DecodeBlock decodes algod's msgpack block response ({"block": ..., "cert": ...}).
func DecodeBlock(round uint64, data []byte) (*Block, error) {
	resp, err := DecodeRecord(data)
	if err != nil {
		return nil, err
	}

	body, ok := resp["block"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("block %d: response has no block object", round)
	}

	block := &Block{
		Round: round,
		Data:  data,
	}
	if gen, ok := body["gen"].(string); ok {
		block.GenesisID = gen
	}
	if gh, ok := body["gh"].([]byte); ok {
		block.GenesisHash = gh
	}

	if raw, ok := body["txns"]; ok && raw != nil {
		txns, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("block %d: txns is %T, not a list", round, raw)
		}
		block.Txns = make([]Record, 0, len(txns))
		for i, t := range txns {
			stib, ok := t.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("block %d: txn %d is %T, not a map", round, i, t)
			}
			block.Txns = append(block.Txns, stib)
		}
	}

	return block, nil
}
