package loadbalance

import (
	"fmt"
	"sync/atomic"

	"result-rpc/registry"
)

// RoundRobinBalancer walks the instance list in order. The atomic counter
// keeps Pick lock-free and goroutine-safe.
type RoundRobinBalancer struct {
	counter int64
}

func (b *RoundRobinBalancer) Pick(instances []registry.ServiceInstance) (*registry.ServiceInstance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("no instances available")
	}
	index := atomic.AddInt64(&b.counter, 1) % int64(len(instances))
	return &instances[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
