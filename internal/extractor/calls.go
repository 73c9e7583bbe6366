package extractor

import (
	"unicode/utf8"

	"github.com/manifest-network/tealcounter/internal/codec"
	"github.com/manifest-network/tealcounter/internal/models"
)

// On-completion actions as encoded in the apan field.
var onCompletionNames = map[uint64]string{
	1: "optin",
	2: "closeout",
	3: "clear",
	4: "update",
	5: "delete",
}

// appCall reports whether tx is a call to appID and describes it.
func appCall(tx models.Transaction, appID uint64) (models.Call, bool) {
	body, ok := tx.Record["txn"].(map[string]any)
	if !ok || stringOf(body["type"]) != "appl" {
		return models.Call{}, false
	}

	target, _ := codec.NumberOf(body["apid"])
	created := false
	if target == 0 {
		// Creation: the new id is in the apply data next to the body.
		target, _ = codec.NumberOf(tx.Record["apid"])
		created = true
	}
	if target != appID {
		return models.Call{}, false
	}

	call := models.Call{
		AppID:          appID,
		TxID:           tx.ID,
		ConfirmedRound: tx.Round,
		Method:         method(body, created),
	}
	if snd, ok := body["snd"].([]byte); ok {
		call.Sender, _ = codec.AddressOf(snd)
	}
	return call, true
}

func method(body map[string]any, created bool) string {
	if created {
		return "create"
	}
	if oc, _ := codec.NumberOf(body["apan"]); oc != 0 {
		if name, ok := onCompletionNames[oc]; ok {
			return name
		}
		return "unknown"
	}

	args, _ := body["apaa"].([]any)
	if len(args) == 0 {
		return "noop"
	}
	arg, ok := args[0].([]byte)
	if !ok {
		return stringOf(args[0])
	}
	if utf8.Valid(arg) {
		return string(arg)
	}
	return codec.EncodeBase64(arg)
}

func stringOf(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}
