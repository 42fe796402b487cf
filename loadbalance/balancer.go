// Package loadbalance selects a target instance for each outgoing call
// from the set the registry discovered.
//
// Strategies:
//   - RoundRobin:      stateless services, equal-capacity instances
//   - WeightedRandom:  heterogeneous instances (different CPU/memory)
//   - ConsistentHash:  stateful services that want per-key affinity
package loadbalance

import "result-rpc/registry"

// Balancer picks one instance per call. Implementations must be
// goroutine-safe; Pick runs on every call.
type Balancer interface {
	Pick(instances []registry.ServiceInstance) (*registry.ServiceInstance, error)

	// Name identifies the strategy in logs.
	Name() string
}
