package scheduler

import "github.com/oshokin/rtc-alarm/internal/domain/alarm"

// registry is a fixed-size arena of alarm records indexed by handle.
// Slots are never compacted; a disabled slot is reused by the next allocation.
type registry struct {
	slots []alarm.Record
}

func newRegistry(capacity int) registry {
	return registry{
		slots: make([]alarm.Record, capacity),
	}
}

// allocate returns the first free slot.
func (r *registry) allocate() (alarm.Handle, bool) {
	for i := range r.slots {
		if r.slots[i].Free() {
			return alarm.Handle(i), true
		}
	}

	return alarm.InvalidHandle, false
}

// nextFrom returns the enabled slot with the smallest epoch not before threshold.
// Equal epochs resolve to the lowest slot: a later slot only wins when strictly earlier.
func (r *registry) nextFrom(threshold int64) (alarm.Handle, int64, bool) {
	best := alarm.InvalidHandle

	var bestEpoch int64

	for i := range r.slots {
		rec := &r.slots[i]
		if !rec.Enabled || rec.Epoch < threshold {
			continue
		}

		if best == alarm.InvalidHandle || rec.Epoch < bestEpoch {
			best, bestEpoch = alarm.Handle(i), rec.Epoch
		}
	}

	return best, bestEpoch, best != alarm.InvalidHandle
}

// findAt returns the lowest enabled slot whose epoch equals epoch.
func (r *registry) findAt(epoch int64) (alarm.Handle, bool) {
	for i := range r.slots {
		if r.slots[i].Enabled && r.slots[i].Epoch == epoch {
			return alarm.Handle(i), true
		}
	}

	return alarm.InvalidHandle, false
}

// clearBefore disables every enabled slot with an epoch before threshold and returns how many it disabled.
func (r *registry) clearBefore(threshold int64) int {
	n := 0

	for i := range r.slots {
		if r.slots[i].Epoch >= threshold {
			continue
		}

		if r.slots[i].Enabled {
			n++
		}

		r.slots[i].Enabled = false
	}

	return n
}

// snapshots lists enabled slots in slot order.
func (r *registry) snapshots() []alarm.Snapshot {
	result := make([]alarm.Snapshot, 0, len(r.slots))

	for i := range r.slots {
		if r.slots[i].Enabled {
			result = append(result, r.slots[i].Snapshot(alarm.Handle(i)))
		}
	}

	return result
}
