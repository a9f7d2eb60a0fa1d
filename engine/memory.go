package engine

import (
	"github.com/KeSeaman/deep-causality/types"
)

// historyCapacity bounds per-patient history to the most recent 24 updates
// (one day at hourly cadence). Eviction is strictly FIFO on overflow; there
// is no time-based eviction.
const historyCapacity = 24

// patientMemory is the per-patient state owned exclusively by the engine.
// It is created on the first update for a patient identifier and lives for
// the lifetime of the engine instance. All access happens synchronously
// inside Process, so no locking is needed.
type patientMemory struct {
	lastUpdate  int64
	lastAlert   int64
	hasAlerted  bool
	history     *updateRing
	currentRisk float64
}

func newPatientMemory() *patientMemory {
	return &patientMemory{
		history: newUpdateRing(historyCapacity),
	}
}

// updateRing is a fixed-capacity ring of vital updates. Appending beyond
// capacity evicts the oldest entry.
type updateRing struct {
	items    []types.VitalUpdate
	capacity int
	size     int
	head     int // next write position
	tail     int // oldest entry
}

func newUpdateRing(capacity int) *updateRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &updateRing{
		items:    make([]types.VitalUpdate, capacity),
		capacity: capacity,
	}
}

// Append adds an update, evicting the oldest entry when full.
func (r *updateRing) Append(update types.VitalUpdate) {
	if r.size == r.capacity {
		r.tail = (r.tail + 1) % r.capacity
		r.size--
	}
	r.items[r.head] = update
	r.head = (r.head + 1) % r.capacity
	r.size++
}

// Len returns the current number of retained updates.
func (r *updateRing) Len() int {
	return r.size
}

// Entries returns the retained updates oldest-first.
func (r *updateRing) Entries() []types.VitalUpdate {
	entries := make([]types.VitalUpdate, r.size)
	for i := 0; i < r.size; i++ {
		entries[i] = r.items[(r.tail+i)%r.capacity]
	}
	return entries
}
