package scheduler

import (
	"context"
	"sort"

	"github.com/hyperctl/hypervisor/pkg/types"
)

// fakeQueue is an in-memory Queue used to exercise the admission and
// completion algorithms without a live Redis.
type fakeQueue struct {
	sets map[string]map[SetName]map[string]int64 // clusterID -> set -> key -> score
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{sets: make(map[string]map[SetName]map[string]int64)}
}

func (f *fakeQueue) set(clusterID string, set SetName) map[string]int64 {
	cluster, ok := f.sets[clusterID]
	if !ok {
		cluster = make(map[SetName]map[string]int64)
		f.sets[clusterID] = cluster
	}
	members, ok := cluster[set]
	if !ok {
		members = make(map[string]int64)
		cluster[set] = members
	}
	return members
}

func (f *fakeQueue) Size(ctx context.Context, clusterID string, set SetName) (int64, error) {
	return int64(len(f.set(clusterID, set))), nil
}

func (f *fakeQueue) Add(ctx context.Context, clusterID string, set SetName, key string, score int64) error {
	f.set(clusterID, set)[key] = score
	return nil
}

func (f *fakeQueue) Remove(ctx context.Context, clusterID string, set SetName, key string) error {
	delete(f.set(clusterID, set), key)
	return nil
}

func (f *fakeQueue) popExtreme(clusterID string, set SetName, max bool) (Entry, bool, error) {
	members := f.set(clusterID, set)
	if len(members) == 0 {
		return Entry{}, false, nil
	}

	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if members[keys[i]] != members[keys[j]] {
			if max {
				return members[keys[i]] > members[keys[j]]
			}
			return members[keys[i]] < members[keys[j]]
		}
		return keys[i] < keys[j]
	})

	key := keys[0]
	score := members[key]
	delete(members, key)
	return Entry{Key: key, Priority: score}, true, nil
}

// find returns the set holding deployment id in clusterID and the
// deployment parsed from its queue key, or ("", nil) if no set holds it.
func (f *fakeQueue) find(clusterID, id string) (SetName, *types.Deployment) {
	for set, members := range f.sets[clusterID] {
		for key := range members {
			if d, err := ParseKey(key); err == nil && d.ID == id {
				return set, d
			}
		}
	}
	return "", nil
}

func (f *fakeQueue) PopMax(ctx context.Context, clusterID string, set SetName) (Entry, bool, error) {
	return f.popExtreme(clusterID, set, true)
}

func (f *fakeQueue) PopMin(ctx context.Context, clusterID string, set SetName) (Entry, bool, error) {
	return f.popExtreme(clusterID, set, false)
}
