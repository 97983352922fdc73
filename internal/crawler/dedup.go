package crawler

import (
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/dirharvest/internal/checkpoint"
)

// Dedup decides whether a listing entry is new.
//
// Admission is two-phase. Admit reserves an identity as pending, Commit
// marks it known in the checkpoint state once its record is extracted, and
// Forget releases the reservation when extraction failed. Pending
// identities are never persisted.
type Dedup struct {
	mu      sync.Mutex
	state   *checkpoint.State
	pending map[string]struct{}
}

// NewDedup creates a Dedup over state.
func NewDedup(state *checkpoint.State) *Dedup {
	return &Dedup{
		state:   state,
		pending: make(map[string]struct{}),
	}
}

// Normalize returns the canonical form of an identity: Unicode NFC with
// surrounding whitespace removed and inner whitespace runs collapsed.
func Normalize(identity string) string {
	return strings.Join(strings.Fields(norm.NFC.String(identity)), " ")
}

// Admit reports whether identity is new. A new identity becomes pending
// and later calls for it return false until it is forgotten. Blank
// identities are never admitted.
func (d *Dedup) Admit(identity string) bool {
	id := Normalize(identity)
	if id == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state.IsKnown(id) || d.state.IsKnown(strings.TrimSpace(identity)) {
		return false
	}
	if _, ok := d.pending[id]; ok {
		return false
	}
	d.pending[id] = struct{}{}
	return true
}

// Commit marks a pending identity as known.
func (d *Dedup) Commit(identity string) {
	id := Normalize(identity)
	if id == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.pending, id)
	d.state.MarkKnown(id)
}

// Forget releases a pending identity without marking it known.
func (d *Dedup) Forget(identity string) {
	id := Normalize(identity)

	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.pending, id)
}

// Pending returns the number of identities admitted but not yet committed
// or forgotten.
func (d *Dedup) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
