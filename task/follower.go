package task

import (
	"sort"

	"github.com/mirror520/taskboard/model"
)

// FollowerSet is the sorted, duplicate-free set of users following a
// task. It only answers membership questions; it enforces nothing.
type FollowerSet []model.ID

func NewFollowerSet(ids ...model.ID) FollowerSet {
	set := make(FollowerSet, 0, len(ids))
	for _, id := range ids {
		set.Add(id)
	}

	return set
}

func (set FollowerSet) search(id model.ID) (int, bool) {
	i := sort.Search(len(set), func(i int) bool {
		return set[i].Compare(id) >= 0
	})

	return i, i < len(set) && set[i] == id
}

func (set FollowerSet) Contains(id model.ID) bool {
	_, ok := set.search(id)
	return ok
}

func (set *FollowerSet) Add(id model.ID) bool {
	if id.IsZero() {
		return false
	}

	i, ok := set.search(id)
	if ok {
		return false
	}

	s := *set
	s = append(s, model.ID{})
	copy(s[i+1:], s[i:])
	s[i] = id

	*set = s
	return true
}

func (set *FollowerSet) Remove(id model.ID) bool {
	i, ok := set.search(id)
	if !ok {
		return false
	}

	s := *set
	*set = append(s[:i], s[i+1:]...)
	return true
}

func (set FollowerSet) List() []model.ID {
	return []model.ID(set.Clone())
}

func (set FollowerSet) Clone() FollowerSet {
	c := make(FollowerSet, len(set))
	copy(c, set)
	return c
}
