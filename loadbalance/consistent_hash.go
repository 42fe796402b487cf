package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"

	"result-rpc/registry"
)

// ConsistentHashBalancer maps keys to instances with a hash ring: the same
// key reaches the same instance until the ring changes, giving cache
// affinity for stateful services.
//
// Each real instance is placed on the ring as N virtual nodes. With only a
// handful of real nodes the raw hashes cluster and load skews; ~100
// virtual nodes per instance spreads them statistically evenly.
type ConsistentHashBalancer struct {
	replicas int                                  // Virtual nodes per real instance
	ring     []uint32                             // Sorted hash values on the ring
	nodes    map[uint32]*registry.ServiceInstance // Hash value → instance
}

// NewConsistentHashBalancer creates a ring with 100 virtual nodes per
// instance.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		ring:     []uint32{},
		nodes:    make(map[uint32]*registry.ServiceInstance),
	}
}

// Add places an instance onto the ring as N virtual nodes, each hashed
// from "{addr}#{i}".
func (b *ConsistentHashBalancer) Add(instance *registry.ServiceInstance) {
	for i := 0; i < b.replicas; i++ {
		key := fmt.Sprintf("%s#%d", instance.Addr, i)
		hash := crc32.ChecksumIEEE([]byte(key))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = instance
	}
	// Ring stays sorted so Pick can binary-search.
	sort.Slice(b.ring, func(i, j int) bool {
		return b.ring[i] < b.ring[j]
	})
}

// Pick hashes the key and finds the first node clockwise from it, wrapping
// to the start of the ring when the key hashes past the last node.
//
// Pick is key-based rather than list-based, so this type does not satisfy
// the Balancer interface; callers use it directly when they need affinity.
func (b *ConsistentHashBalancer) Pick(key string) (*registry.ServiceInstance, error) {
	if len(b.ring) == 0 {
		return nil, fmt.Errorf("no instances on the ring")
	}
	hash := crc32.ChecksumIEEE([]byte(key))

	idx := sort.Search(len(b.ring), func(i int) bool {
		return b.ring[i] >= hash
	})
	if idx == len(b.ring) {
		idx = 0
	}

	return b.nodes[b.ring[idx]], nil
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
