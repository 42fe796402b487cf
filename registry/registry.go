// Package registry provides service discovery for the envelope transport:
// servers register the address they accept frames on, clients discover the
// current instance set before dialing.
package registry

// ServiceInstance describes one reachable server for a service.
type ServiceInstance struct {
	Addr    string
	Weight  int // Weight for load balancing
	Version string
}

// Registry is the discovery interface. Implementations must be safe for
// concurrent use.
type Registry interface {
	Register(serviceName string, instance ServiceInstance, ttl int64) error
	Deregister(serviceName string, addr string) error
	Discover(serviceName string) ([]ServiceInstance, error)
	Watch(serviceName string) <-chan []ServiceInstance
}
