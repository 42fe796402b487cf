// Package client implements the calling side: discover instances, pick one
// through the balancer, ship the request envelope over a pooled transport,
// and decode the result document that comes back.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"result-rpc/codec"
	"result-rpc/envelope"
	"result-rpc/fault"
	"result-rpc/loadbalance"
	"result-rpc/middleware"
	"result-rpc/registry"
	"result-rpc/transport"
)

// RemoteError carries a decoded failure from the server. The concrete
// fault type survives the wire, so callers can type-assert it.
type RemoteError struct {
	Fault fault.Fault
}

func (e *RemoteError) Error() string {
	if msg := e.Fault.FaultMessage(); msg != "" {
		return fmt.Sprintf("remote fault %s: %s", e.Fault.FaultCode(), msg)
	}
	return fmt.Sprintf("remote fault %s", e.Fault.FaultCode())
}

// Client calls one service by name. Safe for concurrent use; transports
// are pooled per instance address.
type Client struct {
	serviceName string
	registry    registry.Registry // Instance discovery
	balancer    loadbalance.Balancer
	transports  map[string]chan *transport.ClientTransport // Transport pool per instance address
	wireType    codec.WireType
	opts        *codec.Options // Composed configuration (caller + middleware resolvers)
	marshaler   *envelope.Marshaler
	mu          sync.Mutex
	poolSize    int
}

// NewClient builds a client. The caller's options are composed with the
// middleware fault resolver so server-injected transport faults decode to
// their concrete types.
func NewClient(serviceName string, reg registry.Registry, bal loadbalance.Balancer,
	types *envelope.TypeRegistry, opts *codec.Options, wireType codec.WireType, poolSize int) (*Client, error) {
	composed, err := opts.Compose(middleware.Resolver())
	if err != nil {
		return nil, err
	}
	return &Client{
		serviceName: serviceName,
		registry:    reg,
		balancer:    bal,
		transports:  make(map[string]chan *transport.ClientTransport),
		wireType:    wireType,
		opts:        composed,
		marshaler:   envelope.NewMarshaler(types, composed),
		poolSize:    poolSize,
	}, nil
}

func (c *Client) getTransport(addr string) (*transport.ClientTransport, error) {
	c.mu.Lock()
	pool, ok := c.transports[addr]
	if !ok {
		pool = make(chan *transport.ClientTransport, c.poolSize)
		c.transports[addr] = pool
	}
	c.mu.Unlock()

	if !ok {
		// First caller for this address fills the pool.
		for i := 0; i < c.poolSize; i++ {
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				return nil, err
			}
			pool <- transport.NewClientTransport(conn, c.wireType)
		}
	}

	return <-pool, nil
}

func (c *Client) putTransport(addr string, t *transport.ClientTransport) {
	c.transports[addr] <- t
}

// Call sends request to one discovered instance and decodes the result
// document from the response. A Success body decodes into reply (which may
// be nil when no data is expected); a Failure body returns a *RemoteError
// carrying the decoded fault. Cancel ctx to stop waiting for the response;
// the request itself is not recalled once written.
func (c *Client) Call(ctx context.Context, request any, reply any) error {
	env, err := c.marshaler.Serialize(request)
	if err != nil {
		return err
	}

	instances, err := c.registry.Discover(c.serviceName)
	if err != nil {
		return err
	}
	instance, err := c.balancer.Pick(instances)
	if err != nil {
		return err
	}

	t, err := c.getTransport(instance.Addr)
	if err != nil {
		return err
	}
	defer c.putTransport(instance.Addr, t)

	_, ch, err := t.Send(env)
	if err != nil {
		return err
	}
	var resp *transport.Response
	select {
	case resp = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}
	if resp.Err != nil {
		return resp.Err
	}

	// The response body is always a result document.
	res, err := codec.DecodeResult[json.RawMessage](c.opts, resp.Envelope.Body)
	if err != nil {
		return err
	}
	if f, failed := res.Fault(); failed {
		return &RemoteError{Fault: f}
	}
	if reply == nil {
		return nil
	}
	raw, _ := res.Value()
	return c.opts.UnmarshalValue(raw, reply)
}
