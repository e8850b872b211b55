package service

import (
	"slices"

	"github.com/fezola/global-pay-connect-sub002/internal/core/domain"

	"github.com/google/uuid"
)

// ReduceResult tells what a reducer did with an event.
type ReduceResult int

const (
	// Applied means the event changed the state.
	Applied ReduceResult = iota
	// Ignored means the event did not apply: an unseen id on UPDATE or
	// DELETE, or a kind of event the entity never honors.
	Ignored
	// Rejected means the event would break an invariant of the entity.
	Rejected
)

func (r ReduceResult) String() string {
	switch r {
	case Applied:
		return "applied"
	case Ignored:
		return "ignored"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// reducer folds one change event into a state. It must not modify state.
type reducer[T any] func(state []T, ev domain.ChangeEvent[T]) ([]T, ReduceResult)

// LoadTicket identifies one load. Only the most recently begun load of the
// current merchant may commit.
type LoadTicket struct {
	gen        uint64
	MerchantID uuid.UUID
}

// recordStore holds the ordered rows of one merchant and one table.
// It is not safe for concurrent use; the owner serializes every call.
//
// Events applied while a load is in flight are journaled and replayed over
// the loaded snapshot, so the latest event for an id survives a load that
// was read before the event was applied.
type recordStore[T any] struct {
	reduce     reducer[T]
	merchantID uuid.UUID
	items      []T
	gen        uint64
	loading    bool
	journal    []domain.ChangeEvent[T]
}

func newRecordStore[T any](reduce reducer[T]) recordStore[T] {
	return recordStore[T]{reduce: reduce}
}

// reset discards all state and pending loads and scopes the store to merchantID.
func (s *recordStore[T]) reset(merchantID uuid.UUID) {
	s.gen++
	s.merchantID = merchantID
	s.items = nil
	s.loading = false
	s.journal = nil
}

func (s *recordStore[T]) beginLoad() LoadTicket {
	s.gen++
	s.loading = true
	s.journal = nil
	return LoadTicket{gen: s.gen, MerchantID: s.merchantID}
}

// commitLoad installs rows fetched under t. It reports false when t is stale.
// A failed load keeps the current rows.
func (s *recordStore[T]) commitLoad(t LoadTicket, rows []T, err error) bool {
	if t.gen != s.gen {
		return false
	}
	journal := s.journal
	s.loading = false
	s.journal = nil
	if err != nil {
		return true
	}

	state := slices.Clone(rows)
	for _, ev := range journal {
		state, _ = s.reduce(state, ev)
	}
	s.items = state
	return true
}

func (s *recordStore[T]) apply(ev domain.ChangeEvent[T]) ReduceResult {
	next, res := s.reduce(s.items, ev)
	if s.loading {
		s.journal = append(s.journal, ev)
	}
	if res == Applied {
		s.items = next
	}
	return res
}

func (s *recordStore[T]) snapshot() []T {
	return slices.Clone(s.items)
}
