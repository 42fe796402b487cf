package registry

import (
	"fmt"
	"sync"
)

// StaticRegistry is an in-memory Registry for tests and single-node
// deployments where no etcd cluster is available. TTLs are ignored;
// entries live until deregistered.
type StaticRegistry struct {
	mu       sync.RWMutex
	services map[string][]ServiceInstance
	watchers map[string][]chan []ServiceInstance
}

// NewStaticRegistry returns an empty in-memory registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		services: make(map[string][]ServiceInstance),
		watchers: make(map[string][]chan []ServiceInstance),
	}
}

func (r *StaticRegistry) Register(serviceName string, instance ServiceInstance, ttl int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.services[serviceName] {
		if existing.Addr == instance.Addr {
			return fmt.Errorf("instance %s already registered for %s", instance.Addr, serviceName)
		}
	}
	r.services[serviceName] = append(r.services[serviceName], instance)
	r.notifyLocked(serviceName)
	return nil
}

func (r *StaticRegistry) Deregister(serviceName string, addr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	instances := r.services[serviceName]
	for i, instance := range instances {
		if instance.Addr == addr {
			r.services[serviceName] = append(instances[:i:i], instances[i+1:]...)
			r.notifyLocked(serviceName)
			return nil
		}
	}
	return fmt.Errorf("instance %s not registered for %s", addr, serviceName)
}

func (r *StaticRegistry) Discover(serviceName string) ([]ServiceInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	instances := make([]ServiceInstance, len(r.services[serviceName]))
	copy(instances, r.services[serviceName])
	return instances, nil
}

func (r *StaticRegistry) Watch(serviceName string) <-chan []ServiceInstance {
	ch := make(chan []ServiceInstance, 1)
	r.mu.Lock()
	r.watchers[serviceName] = append(r.watchers[serviceName], ch)
	r.mu.Unlock()
	return ch
}

func (r *StaticRegistry) notifyLocked(serviceName string) {
	instances := make([]ServiceInstance, len(r.services[serviceName]))
	copy(instances, r.services[serviceName])
	for _, ch := range r.watchers[serviceName] {
		select {
		case ch <- instances:
		default: // Watcher not keeping up; it will see the next update.
		}
	}
}
