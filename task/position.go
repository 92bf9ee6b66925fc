package task

import (
	"sort"

	"github.com/mirror520/taskboard/model"
)

// Spacing is the gap between keys after a partition is re-indexed.
const Spacing = 1000.0

// Between returns the key for a slot between two neighbours; a nil
// neighbour means the slot is at that end of the column. It reports
// false when the key would collide with a neighbour, which happens
// once repeated insertions exhaust float64 precision.
func Between(before, after *float64) (float64, bool) {
	switch {
	case before == nil && after == nil:
		return 0, true

	case before == nil:
		key := *after - 1
		return key, key < *after

	case after == nil:
		key := *before + 1
		return key, key > *before
	}

	key := *before + (*after-*before)/2
	return key, key > *before && key < *after
}

// SortPartition orders a Kanban partition by key, breaking ties by id so
// repairs are deterministic.
func SortPartition(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Position != tasks[j].Position {
			return tasks[i].Position < tasks[j].Position
		}

		return tasks[i].ID.Compare(tasks[j].ID) < 0
	})
}

// HasCollisions reports whether the sorted partition has keys that are
// not strictly increasing.
func HasCollisions(partition []*Task) bool {
	for i := 1; i < len(partition); i++ {
		if partition[i].Position <= partition[i-1].Position {
			return true
		}
	}

	return false
}

// Place assigns t a key for slot index of the sorted partition, which
// must not contain t. It returns every task whose key changed. With
// reindex set, or when no key fits between the neighbours, the whole
// partition is renumbered.
func Place(partition []*Task, t *Task, index int, reindex bool) []*Task {
	if index < 0 || index > len(partition) {
		index = len(partition)
	}

	if !reindex {
		var before, after *float64
		if index > 0 {
			before = &partition[index-1].Position
		}
		if index < len(partition) {
			after = &partition[index].Position
		}

		if key, ok := Between(before, after); ok {
			t.Position = key
			return []*Task{t}
		}
	}

	ordered := make([]*Task, 0, len(partition)+1)
	ordered = append(ordered, partition[:index]...)
	ordered = append(ordered, t)
	ordered = append(ordered, partition[index:]...)

	changed := Reindex(ordered)
	for _, c := range changed {
		if c == t {
			return changed
		}
	}

	return append(changed, t)
}

// Reindex assigns evenly spaced keys (0, 1000, 2000, ...) in the given
// order and returns the tasks whose key changed.
func Reindex(ordered []*Task) []*Task {
	changed := make([]*Task, 0)
	for i, t := range ordered {
		key := float64(i) * Spacing
		if t.Position != key {
			t.Position = key
			changed = append(changed, t)
		}
	}

	return changed
}

// Repair renumbers a partition that holds colliding keys and returns the
// tasks it changed. A healthy partition is left untouched.
func Repair(partition []*Task) []*Task {
	SortPartition(partition)
	if !HasCollisions(partition) {
		return nil
	}

	return Reindex(partition)
}

// Without returns the partition minus the task with the given id.
func Without(partition []*Task, id model.ID) []*Task {
	out := make([]*Task, 0, len(partition))
	for _, t := range partition {
		if t.ID != id {
			out = append(out, t)
		}
	}

	return out
}
