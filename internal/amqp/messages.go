package amqp

import (
	"encoding/json"
	"time"
)

// Message types, carried in the envelope so a single queue serves both the
// spreadsheet mirror and the price refresher.
const (
	TypeLedgerEntry  = "ledger_entry"
	TypePriceRefresh = "price_refresh"
)

// Envelope wraps every queued message with its type. Payloads are
// lightweight: consumers fetch current state from the database by ID.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// LedgerEntryMessage announces a new ledger transaction to mirror.
type LedgerEntryMessage struct {
	ID    int64  `json:"id"`
	Owner string `json:"owner"`
}

// PriceRefreshMessage asks the worker to refetch one holding's unit price.
type PriceRefreshMessage struct {
	HoldingID int64  `json:"holding_id"`
	Owner     string `json:"owner"`
}

func newEnvelope(msgType string, payload any) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		Type:      msgType,
		Payload:   body,
		Timestamp: time.Now(),
	}, nil
}

// ToJSON converts the envelope to JSON bytes
func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EnvelopeFromJSON creates an envelope from JSON bytes
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// LedgerEntry decodes the payload as a ledger entry message.
func (e *Envelope) LedgerEntry() (*LedgerEntryMessage, error) {
	var msg LedgerEntryMessage
	if err := json.Unmarshal(e.Payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// PriceRefresh decodes the payload as a price refresh message.
func (e *Envelope) PriceRefresh() (*PriceRefreshMessage, error) {
	var msg PriceRefreshMessage
	if err := json.Unmarshal(e.Payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
