package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"result-rpc/codec"
	"result-rpc/envelope"
	"result-rpc/fault"
	"result-rpc/loadbalance"
	"result-rpc/middleware"
	"result-rpc/registry"
	"result-rpc/server"
)

type greetRequest struct {
	Name string `json:"name"`
}

type greetReply struct {
	Greeting string `json:"greeting"`
}

type unhandledRequest struct {
	X int `json:"x"`
}

// startTestServer runs a greeter server on a random local port and returns
// the registry it registered with plus a shutdown func.
func startTestServer(t *testing.T, types *envelope.TypeRegistry, opts *codec.Options) (registry.Registry, func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	svr, err := server.NewServer("greeter", types, opts, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	err = svr.Handle(greetRequest{}, func(ctx context.Context, payload any) (any, fault.Fault) {
		req := payload.(greetRequest)
		if req.Name == "" {
			return nil, fault.NewValidationFailure(fault.Issue{
				Identifier: "name",
				Message:    "Name must not be empty.",
				Severity:   fault.SeverityError,
			})
		}
		return greetReply{Greeting: "Hello, " + req.Name + "!"}, nil
	})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	reg := registry.NewStaticRegistry()
	go func() {
		if err := svr.Serve("tcp", addr, addr, reg); err != nil {
			t.Errorf("Serve failed: %v", err)
		}
	}()

	// Wait for the accept loop to come up.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	return reg, func() {
		if err := svr.Shutdown(2 * time.Second); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	}
}

func newTestClient(t *testing.T, reg registry.Registry, types *envelope.TypeRegistry, opts *codec.Options) *Client {
	t.Helper()
	c, err := NewClient("greeter", reg, &loadbalance.RoundRobinBalancer{}, types, opts, codec.WireTypeJSON, 2)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestCallRoundTrip(t *testing.T) {
	types := envelope.NewTypeRegistry()
	if err := types.RegisterAll(greetRequest{}, greetReply{}); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	opts, err := codec.NewOptions()
	if err != nil {
		t.Fatalf("NewOptions failed: %v", err)
	}

	reg, stop := startTestServer(t, types, opts)
	defer stop()
	c := newTestClient(t, reg, types, opts)

	var reply greetReply
	if err := c.Call(context.Background(), greetRequest{Name: "World"}, &reply); err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if reply.Greeting != "Hello, World!" {
		t.Errorf("Wrong greeting: %q", reply.Greeting)
	}
}

func TestCallRemoteValidationFailure(t *testing.T) {
	types := envelope.NewTypeRegistry()
	if err := types.RegisterAll(greetRequest{}, greetReply{}); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	opts, err := codec.NewOptions()
	if err != nil {
		t.Fatalf("NewOptions failed: %v", err)
	}

	reg, stop := startTestServer(t, types, opts)
	defer stop()
	c := newTestClient(t, reg, types, opts)

	var reply greetReply
	err = c.Call(context.Background(), greetRequest{Name: ""}, &reply)
	if err == nil {
		t.Fatal("Expected a remote failure")
	}
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("Expected *RemoteError, got %T: %v", err, err)
	}
	vf, ok := remote.Fault.(*fault.ValidationFailure)
	if !ok {
		t.Fatalf("Expected *fault.ValidationFailure, got %T", remote.Fault)
	}
	if len(vf.Issues) != 1 || vf.Issues[0].Identifier != "name" {
		t.Errorf("Issues did not survive the wire: %+v", vf.Issues)
	}
}

func TestCallUnhandledType(t *testing.T) {
	types := envelope.NewTypeRegistry()
	if err := types.RegisterAll(greetRequest{}, greetReply{}, unhandledRequest{}); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	opts, err := codec.NewOptions()
	if err != nil {
		t.Fatalf("NewOptions failed: %v", err)
	}

	reg, stop := startTestServer(t, types, opts)
	defer stop()
	c := newTestClient(t, reg, types, opts)

	err = c.Call(context.Background(), unhandledRequest{X: 1}, nil)
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("Expected *RemoteError, got %T: %v", err, err)
	}
	if _, ok := remote.Fault.(*middleware.DispatchFailure); !ok {
		t.Fatalf("Expected *middleware.DispatchFailure, got %T", remote.Fault)
	}
}

func TestCallConcurrent(t *testing.T) {
	types := envelope.NewTypeRegistry()
	if err := types.RegisterAll(greetRequest{}, greetReply{}); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	opts, err := codec.NewOptions()
	if err != nil {
		t.Fatalf("NewOptions failed: %v", err)
	}

	reg, stop := startTestServer(t, types, opts)
	defer stop()
	c := newTestClient(t, reg, types, opts)

	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			var reply greetReply
			errs <- c.Call(context.Background(), greetRequest{Name: "World"}, &reply)
		}()
	}
	for i := 0; i < 20; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Concurrent call failed: %v", err)
		}
	}
}
