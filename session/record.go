package session

import "github.com/jaydenbeard/e2ee-core/wire"

// maxArchivedStates bounds how many previous SessionStates a Record keeps
// once archived, oldest dropped first (spec data model, §4.6).
const maxArchivedStates = 40

// Record is the persisted unit the SessionStore keys by address: the
// current state plus its bounded archive of previous states, newest
// first.
type Record struct {
	current  *State
	previous []*State
}

// NewRecord starts a fresh, empty record.
func NewRecord() *Record {
	return &Record{current: NewState()}
}

// NewRecordFromStructure rebuilds a Record from its persisted form.
func NewRecordFromStructure(r wire.RecordStructure) *Record {
	rec := &Record{current: NewState()}
	if r.CurrentSession != nil {
		rec.current = NewStateFromStructure(*r.CurrentSession)
	}
	for _, p := range r.PreviousSessions {
		rec.previous = append(rec.previous, NewStateFromStructure(p))
	}
	return rec
}

// Structure serializes the record back to its persisted form.
func (r *Record) Structure() wire.RecordStructure {
	current := r.current.Structure()
	out := wire.RecordStructure{CurrentSession: &current}
	for _, p := range r.previous {
		out.PreviousSessions = append(out.PreviousSessions, p.Structure())
	}
	return out
}

// SessionState returns the current (most recently established) state.
func (r *Record) SessionState() *State {
	return r.current
}

// IsFresh reports whether the current state has never been initialized
// (no session version negotiated yet).
func (r *Record) IsFresh() bool {
	return r.current.structure.SessionVersion == 0 && !r.current.HasSenderChain() && len(r.current.structure.ReceiverChains) == 0
}

// ArchiveCurrentState pushes the current state to the front of previous
// (most recent first) and resets current to empty, dropping the oldest
// archived state once more than maxArchivedStates are held.
func (r *Record) ArchiveCurrentState() {
	r.previous = append([]*State{r.current}, r.previous...)
	if len(r.previous) > maxArchivedStates {
		r.previous = r.previous[:maxArchivedStates]
	}
	r.current = NewState()
}

// PromoteState makes promoted the current state, archiving whatever was
// current beforehand.
func (r *Record) PromoteState(promoted *State) {
	old := r.current
	r.current = promoted
	r.previous = append([]*State{old}, r.previous...)
	if len(r.previous) > maxArchivedStates {
		r.previous = r.previous[:maxArchivedStates]
	}
}

// promoteFromPrevious removes the state at index i of previous and makes
// it current, archiving the old current in its place — used when decrypt
// succeeds against an archived state.
func (r *Record) promoteFromPrevious(i int) {
	promoted := r.previous[i]
	r.previous = append(r.previous[:i], r.previous[i+1:]...)
	r.PromoteState(promoted)
}

// States returns {current} ∪ previous in the try-order decrypt uses: the
// current state first, then previous states newest-to-oldest.
func (r *Record) States() []*State {
	out := make([]*State, 0, 1+len(r.previous))
	out = append(out, r.current)
	out = append(out, r.previous...)
	return out
}

// HasSessionState reports whether any state (current or archived) already
// negotiated this exact (version, aliceBaseKey) pair, used by the builder
// to detect a PreKeySignalMessage it has already processed.
func (r *Record) HasSessionState(version int, aliceBaseKey []byte) bool {
	for _, s := range r.States() {
		if s.SessionVersion() == version && bytesEqual(s.AliceBaseKey(), aliceBaseKey) {
			return true
		}
	}
	return false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
