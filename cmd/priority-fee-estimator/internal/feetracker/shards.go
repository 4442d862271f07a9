package feetracker

import (
	"encoding/binary"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/dyxushuai/atlas-priority-fee-estimator/protocol"
)

// shardCount is a power of two so shard selection is a mask.
const shardCount = 64

// hashSlot and hashAccount pick map shards. xxh3 is a performance choice
// (not cryptographic); no HashDoS-adversarial input reaches these maps.
func hashSlot(slot uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], slot)
	return xxh3.Hash(buf[:])
}

func hashAccount(account protocol.Account) uint64 {
	return xxh3.Hash(account[:])
}

type mapShard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// shardedMap is a concurrent map sharded by key hash. Reads take a shard
// read lock, writes a shard write lock; keys never block each other across
// shards.
type shardedMap[K comparable, V any] struct {
	hash   func(K) uint64
	shards [shardCount]mapShard[K, V]
}

func newShardedMap[K comparable, V any](hash func(K) uint64) *shardedMap[K, V] {
	s := &shardedMap[K, V]{hash: hash}
	for i := range s.shards {
		s.shards[i].m = make(map[K]V)
	}
	return s
}

func (s *shardedMap[K, V]) shard(key K) *mapShard[K, V] {
	return &s.shards[s.hash(key)&(shardCount-1)]
}

func (s *shardedMap[K, V]) get(key K) (V, bool) {
	shard := s.shard(key)
	shard.mu.RLock()
	v, ok := shard.m[key]
	shard.mu.RUnlock()
	return v, ok
}

func (s *shardedMap[K, V]) contains(key K) bool {
	_, ok := s.get(key)
	return ok
}

// getOrInsert returns the value under key, inserting create() if absent.
// create runs under the shard write lock and must not touch the map.
func (s *shardedMap[K, V]) getOrInsert(key K, create func() V) V {
	shard := s.shard(key)
	shard.mu.RLock()
	v, ok := shard.m[key]
	shard.mu.RUnlock()
	if ok {
		return v
	}
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if v, ok := shard.m[key]; ok {
		return v
	}
	v = create()
	shard.m[key] = v
	return v
}

func (s *shardedMap[K, V]) insert(key K, v V) {
	shard := s.shard(key)
	shard.mu.Lock()
	shard.m[key] = v
	shard.mu.Unlock()
}

func (s *shardedMap[K, V]) delete(key K) {
	shard := s.shard(key)
	shard.mu.Lock()
	delete(shard.m, key)
	shard.mu.Unlock()
}

func (s *shardedMap[K, V]) len() int {
	n := 0
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.RLock()
		n += len(shard.m)
		shard.mu.RUnlock()
	}
	return n
}

// keys lists current keys shard by shard; the view is weakly consistent
// under concurrent writers.
func (s *shardedMap[K, V]) keys() []K {
	out := make([]K, 0, s.len())
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.RLock()
		for k := range shard.m {
			out = append(out, k)
		}
		shard.mu.RUnlock()
	}
	return out
}
