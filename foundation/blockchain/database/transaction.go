package database

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tx is the transactional information between two parties. Transactions are
// opaque to the ledger; the contract engine interprets ContractID once the
// block holding the transaction is appended.
type Tx struct {
	Sender          string  `json:"sender"`
	Recipient       string  `json:"recipient"`
	ContractID      string  `json:"contract_id,omitempty"`
	ContractPayload Payload `json:"contract_payload,omitempty"`
	RequestedUserID *int64  `json:"requested_user_id,omitempty"`
	RequestInfo     string  `json:"request_info,omitempty"`
}

// NewTx constructs a transaction that carries no contract.
func NewTx(sender string, recipient string) Tx {
	return Tx{
		Sender:    sender,
		Recipient: recipient,
	}
}

// NewContractTx constructs a transaction that triggers the named contract
// when its block is appended. The payload is stored in its decoded form so
// the sealing node hashes the same values its peers decode.
func NewContractTx(sender string, recipient string, contractID string, payload map[string]any) Tx {
	return Tx{
		Sender:          sender,
		Recipient:       recipient,
		ContractID:      contractID,
		ContractPayload: NewPayload(payload),
	}
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	if tx.ContractID == "" {
		return fmt.Sprintf("%s->%s", tx.Sender, tx.Recipient)
	}
	return fmt.Sprintf("%s->%s:%s", tx.Sender, tx.Recipient, tx.ContractID)
}

// =============================================================================

// Payload is the dynamic document carried by a contract transaction. Numbers
// are held as json.Number so a decoded payload marshals back to the digits
// it was decoded from.
type Payload map[string]any

// NewPayload converts the values of m into their decoded JSON form. A value
// that can't be marshaled leaves m as is.
func NewPayload(m map[string]any) Payload {
	if m == nil {
		return Payload{}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return Payload(m)
	}

	var p Payload
	if err := p.UnmarshalJSON(data); err != nil {
		return Payload(m)
	}

	return p
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *Payload) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}

	*p = m
	return nil
}
