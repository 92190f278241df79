package groups

import (
	"github.com/jaydenbeard/e2ee-core/protocolerr"
	"github.com/jaydenbeard/e2ee-core/wire"
)

// maxSenderKeyStates bounds how many SenderKeyStates a Record keeps,
// newest first, oldest dropped (spec §4.7: "no SenderKeyRecord for name...
// oldest dropped beyond 5").
const maxSenderKeyStates = 5

// Record is the persisted unit the SenderKeyStore keys by (group id,
// sender address): a bounded, newest-first list of SenderKeyStates, one
// per chain rotation the group has seen.
type Record struct {
	states []*SenderKeyState
}

// NewRecord starts a fresh, empty record.
func NewRecord() *Record {
	return &Record{}
}

// NewRecordFromStructure rebuilds a Record from its persisted form.
func NewRecordFromStructure(r wire.SenderKeyRecordStructure) *Record {
	rec := &Record{}
	for _, s := range r.SenderKeyStates {
		rec.states = append(rec.states, NewSenderKeyStateFromStructure(s))
	}
	return rec
}

// Structure serializes the record back to its persisted form.
func (r *Record) Structure() wire.SenderKeyRecordStructure {
	out := wire.SenderKeyRecordStructure{}
	for _, s := range r.states {
		out.SenderKeyStates = append(out.SenderKeyStates, s.Structure())
	}
	return out
}

// IsEmpty reports whether the record holds no state at all.
func (r *Record) IsEmpty() bool {
	return len(r.states) == 0
}

// NewestState returns the most recently added state, failing
// ErrNoSenderKeyState if the record is empty.
func (r *Record) NewestState() (*SenderKeyState, error) {
	if len(r.states) == 0 {
		return nil, protocolerr.ErrNoSenderKeyState
	}
	return r.states[0], nil
}

// StateForKeyID returns the state matching keyID, failing
// ErrNoSenderKeyState if none matches.
func (r *Record) StateForKeyID(keyID uint32) (*SenderKeyState, error) {
	for _, s := range r.states {
		if s.KeyID() == keyID {
			return s, nil
		}
	}
	return nil, protocolerr.ErrNoSenderKeyState
}

// AddState pushes a new state to the front (most recent), dropping the
// oldest once more than maxSenderKeyStates are held.
func (r *Record) AddState(s *SenderKeyState) {
	r.states = append([]*SenderKeyState{s}, r.states...)
	if len(r.states) > maxSenderKeyStates {
		r.states = r.states[:maxSenderKeyStates]
	}
}

// SetState replaces the record's entire state list with just s, discarding
// every other state.
func (r *Record) SetState(s *SenderKeyState) {
	r.states = []*SenderKeyState{s}
}
