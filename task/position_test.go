package task

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirror520/taskboard/model"
)

func column(keys ...float64) []*Task {
	tasks := make([]*Task, len(keys))
	for i, k := range keys {
		tasks[i] = &Task{ID: model.NewID(), Position: k}
	}

	return tasks
}

func keys(tasks []*Task) []float64 {
	ks := make([]float64, len(tasks))
	for i, t := range tasks {
		ks[i] = t.Position
	}

	return ks
}

func ptr(f float64) *float64 {
	return &f
}

func TestBetween(t *testing.T) {
	assert := assert.New(t)

	key, ok := Between(nil, nil)
	assert.True(ok)
	assert.Equal(0.0, key)

	key, ok = Between(nil, ptr(1000))
	assert.True(ok)
	assert.Equal(999.0, key)

	key, ok = Between(ptr(1000), nil)
	assert.True(ok)
	assert.Equal(1001.0, key)

	key, ok = Between(ptr(1000), ptr(2000))
	assert.True(ok)
	assert.Equal(1500.0, key)

	_, ok = Between(ptr(1000), ptr(1000))
	assert.False(ok)
}

func TestBetweenExhaustsPrecision(t *testing.T) {
	assert := assert.New(t)

	lo, hi := 0.0, 1.0
	for i := 0; i < 2000; i++ {
		key, ok := Between(&lo, &hi)
		if !ok {
			return
		}

		hi = key
	}

	assert.Fail("precision never exhausted")
}

func TestPlaceMidpoint(t *testing.T) {
	assert := assert.New(t)

	partition := column(0, 1000, 2000)
	moved := &Task{ID: model.NewID()}

	changed := Place(partition, moved, 1, false)
	assert.Len(changed, 1)
	assert.Equal(500.0, moved.Position)
}

func TestPlaceEnds(t *testing.T) {
	assert := assert.New(t)

	partition := column(0, 1000)

	first := &Task{ID: model.NewID()}
	Place(partition, first, 0, false)
	assert.Equal(-1.0, first.Position)

	last := &Task{ID: model.NewID()}
	Place(partition, last, -1, false)
	assert.Equal(1001.0, last.Position)

	empty := &Task{ID: model.NewID()}
	Place(nil, empty, 0, false)
	assert.Equal(0.0, empty.Position)
}

func TestPlaceReindexesOnCollision(t *testing.T) {
	assert := assert.New(t)

	partition := column(0, 0, 0)
	moved := &Task{ID: model.NewID()}

	changed := Place(partition, moved, 1, false)
	assert.NotEmpty(changed)

	ordered := []*Task{partition[0], moved, partition[1], partition[2]}
	assert.Equal([]float64{0, 1000, 2000, 3000}, keys(ordered))
}

func TestPlaceForcedReindex(t *testing.T) {
	assert := assert.New(t)

	partition := column(3, 7)
	moved := &Task{ID: model.NewID()}

	Place(partition, moved, 2, true)
	assert.Equal([]float64{0, 1000}, keys(partition))
	assert.Equal(2000.0, moved.Position)
}

func TestRepeatedInsertionsStayOrdered(t *testing.T) {
	assert := assert.New(t)

	partition := column(0, 1000)
	for i := 0; i < 200; i++ {
		moved := &Task{ID: model.NewID()}
		Place(partition, moved, 1, false)

		partition = append(partition, moved)
		SortPartition(partition)
		assert.False(HasCollisions(partition))
	}
}

func TestRepair(t *testing.T) {
	assert := assert.New(t)

	healthy := column(0, 1, 2)
	assert.Nil(Repair(healthy))

	broken := column(5, 5, 1)
	changed := Repair(broken)
	assert.NotEmpty(changed)
	assert.False(HasCollisions(broken))
	assert.Equal([]float64{0, 1000, 2000}, keys(broken))

	// idempotent
	assert.Nil(Repair(broken))
}

func TestWithout(t *testing.T) {
	partition := column(0, 1, 2)
	rest := Without(partition, partition[1].ID)

	assert.Len(t, rest, 2)
	assert.Equal(t, []float64{0, 2}, keys(rest))
}
