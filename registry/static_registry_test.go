package registry

import (
	"testing"
	"time"
)

func TestStaticRegisterDiscover(t *testing.T) {
	r := NewStaticRegistry()
	if err := r.Register("greeter", ServiceInstance{Addr: "127.0.0.1:9000", Weight: 1}, 10); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register("greeter", ServiceInstance{Addr: "127.0.0.1:9001", Weight: 2}, 10); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	instances, err := r.Discover("greeter")
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(instances) != 2 {
		t.Fatalf("Expected 2 instances, got %d", len(instances))
	}
}

func TestStaticDuplicateRegister(t *testing.T) {
	r := NewStaticRegistry()
	instance := ServiceInstance{Addr: "127.0.0.1:9000"}
	if err := r.Register("greeter", instance, 10); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register("greeter", instance, 10); err == nil {
		t.Error("Expected error for duplicate address")
	}
}

func TestStaticDeregister(t *testing.T) {
	r := NewStaticRegistry()
	if err := r.Register("greeter", ServiceInstance{Addr: "127.0.0.1:9000"}, 10); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Deregister("greeter", "127.0.0.1:9000"); err != nil {
		t.Fatalf("Deregister failed: %v", err)
	}
	instances, _ := r.Discover("greeter")
	if len(instances) != 0 {
		t.Fatalf("Expected no instances after deregister, got %d", len(instances))
	}

	if err := r.Deregister("greeter", "127.0.0.1:9000"); err == nil {
		t.Error("Expected error deregistering unknown address")
	}
}

func TestStaticDiscoverIsIsolated(t *testing.T) {
	r := NewStaticRegistry()
	if err := r.Register("greeter", ServiceInstance{Addr: "127.0.0.1:9000"}, 10); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	instances, _ := r.Discover("greeter")
	instances[0].Addr = "mutated"

	again, _ := r.Discover("greeter")
	if again[0].Addr != "127.0.0.1:9000" {
		t.Error("Discover returned a shared slice")
	}
}

func TestStaticWatch(t *testing.T) {
	r := NewStaticRegistry()
	ch := r.Watch("greeter")

	if err := r.Register("greeter", ServiceInstance{Addr: "127.0.0.1:9000"}, 10); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	select {
	case instances := <-ch:
		if len(instances) != 1 || instances[0].Addr != "127.0.0.1:9000" {
			t.Fatalf("Unexpected watch update: %+v", instances)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch update not delivered")
	}

	if err := r.Deregister("greeter", "127.0.0.1:9000"); err != nil {
		t.Fatalf("Deregister failed: %v", err)
	}
	select {
	case instances := <-ch:
		if len(instances) != 0 {
			t.Fatalf("Expected empty set after deregister, got %+v", instances)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch update not delivered")
	}
}
