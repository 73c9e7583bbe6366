package models

// Record is a decoded on-chain object keyed by its wire field names.
// Values are uint64, int64, float64, bool, string, []byte, Record-shaped maps
// (map[string]any) or []any.
type Record = map[string]any

// Block represents a blockchain block.
type Block struct {
	Round       uint64
	GenesisID   string
	GenesisHash []byte
	// Txns holds the signed-transaction-in-block records in block order.
	Txns []Record
	Data []byte
}

// Transaction represents a confirmed transaction located in a block.
type Transaction struct {
	ID     string
	Round  uint64
	Record Record
}

// Account is the subset of algod's account information used here.
type Account struct {
	Address     string        `json:"address"`
	Amount      uint64        `json:"amount"`
	CreatedApps []Application `json:"created-apps"`
}

// Application is an application created by an account.
type Application struct {
	ID     uint64            `json:"id"`
	Params ApplicationParams `json:"params"`
}

// ApplicationParams holds the parameters and global state of an application.
type ApplicationParams struct {
	Creator     string         `json:"creator"`
	GlobalState []TealKeyValue `json:"global-state"`
}

// TealKeyValue is a global-state entry. Key is base64 encoded.
type TealKeyValue struct {
	Key   string    `json:"key"`
	Value TealValue `json:"value"`
}

// TealValue types as reported by algod.
const (
	TealBytesType uint64 = 1
	TealUintType  uint64 = 2
)

// TealValue is a typed global-state value. Bytes is base64 encoded.
type TealValue struct {
	Type  uint64 `json:"type"`
	Bytes string `json:"bytes"`
	Uint  uint64 `json:"uint"`
}

// Kind returns "uint" or "bytes".
func (v TealValue) Kind() string {
	if v.Type == TealUintType {
		return "uint"
	}
	return "bytes"
}

// PendingTransaction is algod's view of a submitted transaction.
type PendingTransaction struct {
	ConfirmedRound   uint64 `json:"confirmed-round"`
	PoolError        string `json:"pool-error"`
	ApplicationIndex uint64 `json:"application-index"`
	Txn              struct {
		Txn struct {
			ApplicationID uint64 `json:"apid"`
			Type          string `json:"type"`
		} `json:"txn"`
	} `json:"txn"`
}

// TxnParams are the suggested parameters for building a transaction.
type TxnParams struct {
	ConsensusVersion string `json:"consensus-version"`
	Fee              uint64 `json:"fee"`
	GenesisHash      []byte `json:"genesis-hash"`
	GenesisID        string `json:"genesis-id"`
	LastRound        uint64 `json:"last-round"`
	MinFee           uint64 `json:"min-fee"`
}

// Deployment records an application created by this tool.
type Deployment struct {
	AppID          uint64
	AppAddress     string
	Creator        string
	TxID           string
	ConfirmedRound uint64
	InitialValue   uint64
	Deleted        bool
}

// Call records an application call made by this tool.
type Call struct {
	AppID          uint64
	Sender         string
	Method         string
	TxID           string
	ConfirmedRound uint64
}

// Verification records the outcome of a verification.
type Verification struct {
	Kind   string
	Target string
	OK     bool
	Detail string
}

// NodeStatus is the subset of algod's node status used here.
type NodeStatus struct {
	LastRound uint64 `json:"last-round"`
}
