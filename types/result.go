package types

import (
	"encoding/json"
	"time"

	abci "github.com/tendermint/tendermint/abci/types"
)

// Attribute is a single event key/value pair.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event mirrors an ABCI event with string attributes.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute returns the first value stored under key.
func (e Event) Attribute(key string) (string, bool) {
	for _, attr := range e.Attributes {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return "", false
}

// TxResult is the committed outcome of a transaction.
type TxResult struct {
	Hash      string          `json:"hash"`
	Height    int64           `json:"height"`
	Time      time.Time       `json:"time"`
	Type      string          `json:"type"`
	Signer    string          `json:"signer"`
	Code      uint32          `json:"code"`
	Codespace string          `json:"codespace,omitempty"`
	Log       string          `json:"log,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Events    []Event         `json:"events,omitempty"`
}

// IsOK reports whether the transaction succeeded.
func (r TxResult) IsOK() bool {
	return r.Code == 0
}

// FindEvent returns the first event of the given type.
func (r TxResult) FindEvent(eventType string) (Event, bool) {
	for _, ev := range r.Events {
		if ev.Type == eventType {
			return ev, true
		}
	}
	return Event{}, false
}

// EventsFromABCI converts ABCI events to their string form.
func EventsFromABCI(events []abci.Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		e := Event{Type: ev.Type, Attributes: make([]Attribute, 0, len(ev.Attributes))}
		for _, attr := range ev.Attributes {
			e.Attributes = append(e.Attributes, Attribute{Key: string(attr.Key), Value: string(attr.Value)})
		}
		out = append(out, e)
	}
	return out
}
