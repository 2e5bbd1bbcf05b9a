package indexing

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ntons/log-go"
	"github.com/vmihailenco/msgpack/v4"

	"github.com/ntons/mutant/mutantd/internal/redis"
	"github.com/ntons/mutant/mutantd/internal/suffixtree"
	"github.com/ntons/mutant/mutantd/internal/util"
)

type entry struct {
	Key   string `json:"key" msgpack:"k"`
	Value string `json:"value" msgpack:"v"`
}

type searchResult struct {
	Entries []*entry `json:"entries"`
	Total   int      `json:"total"`
}

type substrIndex struct {
	// name of the index, part of the redis key
	id string
	// guards everything below, the tree is built under the write lock
	mu sync.RWMutex
	// key->entry, nil until loaded
	entries map[string]*entry
	// entries ordered by key, a tag in tree is a position here
	sorted []*entry
	// suffix tree over values, nil when stale
	tree *suffixtree.Tree
}

func newSubstrIndex(id string) *substrIndex {
	return &substrIndex{id: id}
}

func (idx *substrIndex) getRedisKey() string {
	return fmt.Sprintf("substrindex:{%s}", idx.id)
}

func (idx *substrIndex) tryLoad(ctx context.Context, cli redis.Client) (err error) {
	if idx.entries != nil {
		return
	}
	d, err := cli.HGetAll(ctx, idx.getRedisKey()).Result()
	if err != nil {
		log.Warnf("failed to load index %s: %v", idx.id, err)
		return newUnavailableError("db error")
	}
	entries := make(map[string]*entry, len(d))
	for k, v := range d {
		e := &entry{}
		if err = msgpack.Unmarshal(util.StringToBytes(v), e); err != nil {
			log.Warnf("failed to unmarshal index entry data: %v", err)
			return newInternalError("data error")
		}
		if e.Key != k {
			log.Warnf("mismatched entry key: %s, %s", k, e.Key)
			continue
		}
		entries[k] = e
	}
	idx.entries = entries
	idx.tree = nil
	return
}

func (idx *substrIndex) tryBuild() (err error) {
	if idx.tree != nil {
		return
	}
	sorted := make([]*entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	tree := suffixtree.New()
	for i, e := range sorted {
		if err = tree.Insert(e.Value, i); err != nil {
			return newInternalError("index error")
		}
	}
	idx.sorted, idx.tree = sorted, tree
	return
}

func (idx *substrIndex) Update(ctx context.Context, cli redis.Client, e *entry) (err error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err = idx.tryLoad(ctx, cli); err != nil {
		return
	}

	b, err := msgpack.Marshal(e)
	if err != nil {
		log.Warnf("failed to marshal entry data: %v", err)
		return newInternalError("data error")
	}
	if err = cli.HSet(ctx, idx.getRedisKey(), e.Key, util.BytesToString(b)).Err(); err != nil {
		log.Warnf("failed to set entry data: %v", err)
		return newUnavailableError("db error")
	}
	if prev, ok := idx.entries[e.Key]; ok && prev.Value == e.Value {
		return
	}
	idx.entries[e.Key] = e
	idx.tree = nil
	return
}

func (idx *substrIndex) Remove(ctx context.Context, cli redis.Client, keys []string) (n int64, err error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if err = idx.tryLoad(ctx, cli); err != nil {
		return
	}
	if n, err = cli.HDel(ctx, idx.getRedisKey(), keys...).Result(); err != nil {
		log.Warnf("failed to delete entry data: %v", err)
		// deleted or not is unknown, reload on next access
		idx.entries, idx.tree = nil, nil
		return 0, newUnavailableError("db error")
	}
	for _, k := range keys {
		if _, ok := idx.entries[k]; ok {
			delete(idx.entries, k)
			idx.tree = nil
		}
	}
	return
}

func (idx *substrIndex) search(value string, limit int) *searchResult {
	tags := idx.tree.Search(value, -1)
	r := &searchResult{Entries: []*entry{}, Total: len(tags)}
	if limit >= 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	for _, tag := range tags {
		r.Entries = append(r.Entries, idx.sorted[tag])
	}
	return r
}

// Search returns the entries whose value contains value, ordered by key.
// A negative limit means no limit.
func (idx *substrIndex) Search(ctx context.Context, cli redis.Client, value string, limit int) (_ *searchResult, err error) {
	idx.mu.RLock()
	if idx.tree != nil {
		defer idx.mu.RUnlock()
		return idx.search(value, limit), nil
	}
	idx.mu.RUnlock()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err = idx.tryLoad(ctx, cli); err != nil {
		return
	}
	if err = idx.tryBuild(); err != nil {
		return
	}
	return idx.search(value, limit), nil
}
