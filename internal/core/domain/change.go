package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// EventType is the kind of row change carried by a change event.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// Tables that publish change events.
const (
	TableBalances = "balances"
	TablePayouts  = "payouts"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMissingRecord    = errors.New("change event has no row payload")
	ErrMissingMerchant  = errors.New("change event row has no merchant_id")
)

// RawChangeEvent is the wire envelope of a row change, as posted by the
// platform and published on the realtime channel.
type RawChangeEvent struct {
	Type      EventType       `json:"type"`
	Table     string          `json:"table"`
	Record    json.RawMessage `json:"record,omitempty"`
	OldRecord json.RawMessage `json:"old_record,omitempty"`
}

// ChangeEvent is a change event decoded for one entity type.
type ChangeEvent[T any] struct {
	Type  EventType
	Table string
	New   *T
	Old   *T
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Row returns the payload that identifies the changed row: the new record,
// or the old one for deletes.
func (e RawChangeEvent) Row() json.RawMessage {
	if e.Type == EventDelete {
		return e.OldRecord
	}
	return e.Record
}

// Validate checks the envelope shape.
func (e RawChangeEvent) Validate() error {
	switch e.Type {
	case EventInsert, EventUpdate, EventDelete:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, e.Type)
	}
	if e.Table == "" {
		return errors.New("change event has no table")
	}
	if !present(e.Row()) {
		return ErrMissingRecord
	}
	return nil
}

// MerchantID extracts merchant_id from the identifying row.
func (e RawChangeEvent) MerchantID() (uuid.UUID, error) {
	row := e.Row()
	if !present(row) {
		return uuid.Nil, ErrMissingRecord
	}
	var owner struct {
		MerchantID *uuid.UUID `json:"merchant_id"`
	}
	if err := json.Unmarshal(row, &owner); err != nil {
		return uuid.Nil, fmt.Errorf("decoding merchant_id: %w", err)
	}
	if owner.MerchantID == nil || *owner.MerchantID == uuid.Nil {
		return uuid.Nil, ErrMissingMerchant
	}
	return *owner.MerchantID, nil
}

// DecodeChange decodes the row payloads of e into T.
func DecodeChange[T any](e RawChangeEvent) (ChangeEvent[T], error) {
	if err := e.Validate(); err != nil {
		return ChangeEvent[T]{}, err
	}
	out := ChangeEvent[T]{Type: e.Type, Table: e.Table}
	if present(e.Record) {
		var v T
		if err := json.Unmarshal(e.Record, &v); err != nil {
			return ChangeEvent[T]{}, fmt.Errorf("decoding %s record: %w", e.Table, err)
		}
		out.New = &v
	}
	if present(e.OldRecord) {
		var v T
		if err := json.Unmarshal(e.OldRecord, &v); err != nil {
			return ChangeEvent[T]{}, fmt.Errorf("decoding %s old_record: %w", e.Table, err)
		}
		out.Old = &v
	}
	return out, nil
}

// ChangeFilter selects the events of one table for one merchant.
type ChangeFilter struct {
	Table      string
	MerchantID uuid.UUID
}

// Matches reports whether e belongs to the filter's table and merchant.
// Malformed events never match.
func (f ChangeFilter) Matches(e RawChangeEvent) bool {
	if e.Table != f.Table || f.MerchantID == uuid.Nil {
		return false
	}
	if e.Validate() != nil {
		return false
	}
	id, err := e.MerchantID()
	if err != nil {
		return false
	}
	return id == f.MerchantID
}
