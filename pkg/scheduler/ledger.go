package scheduler

import "github.com/hyperctl/hypervisor/pkg/types"

// transition is the (original, current) status pair the Ledger tracks for
// one deployment across a single scheduling pass.
type transition struct {
	original types.DeploymentStatus
	current  types.DeploymentStatus
}

// Ledger accumulates effective status changes during one scheduling pass
// (one call to Scheduler.NewDeploy or Scheduler.CompleteDeploy) and
// collapses any deployment that ends the pass in the status it started
// with -- a preempt-then-backfill round trip within the same pass is a
// no-op. It is not persisted between passes; Flush drains it into a slice
// the Transport Adapter can write to the Store in a single batch.
type Ledger struct {
	entries map[string]transition
}

// NewLedger returns an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]transition)}
}

// Record notes that deployment id moved to newStatus. entryStatus is the
// status the deployment held when it first entered this pass; it is only
// used the first time id is seen, so later calls may pass the deployment's
// current in-memory status without disturbing the original baseline.
func (l *Ledger) Record(id string, entryStatus, newStatus types.DeploymentStatus) {
	t, ok := l.entries[id]
	if !ok {
		t = transition{original: entryStatus, current: entryStatus}
	}
	t.current = newStatus
	if t.original == t.current {
		delete(l.entries, id)
		return
	}
	l.entries[id] = t
}

// StatusUpdate is one (id, status) pair ready to be written to the Store.
type StatusUpdate struct {
	DeploymentID string
	Status       types.DeploymentStatus
}

// Flush returns the accumulated status updates. The Ledger is left empty
// (passes don't span flushes).
func (l *Ledger) Flush() []StatusUpdate {
	updates := make([]StatusUpdate, 0, len(l.entries))
	for id, t := range l.entries {
		updates = append(updates, StatusUpdate{DeploymentID: id, Status: t.current})
	}
	l.entries = make(map[string]transition)
	return updates
}

// Empty reports whether the ledger currently holds no net transitions.
func (l *Ledger) Empty() bool {
	return len(l.entries) == 0
}

// Len reports the number of net transitions currently recorded.
func (l *Ledger) Len() int {
	return len(l.entries)
}
