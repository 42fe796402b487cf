// Package server implements the envelope dispatch server: handler
// registration by payload type, middleware chain, parallel request
// processing, and graceful shutdown.
//
// Request processing pipeline:
//
//	Accept conn → handleConn (single goroutine reads frames)
//	  → for each request: go handleRequest (parallel processing)
//	    → wire codec → Marshaler.Deserialize → Middleware Chain → Handler
//	    → EncodeResult → wire codec → write response frame
//
// Every response body is a result document: Success with the handler's
// reply, or Failure with a cataloged fault. Transport-level problems
// (unknown payload type, undecodable body, timeouts, rate limits) travel
// the same way as domain faults.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"result-rpc/codec"
	"result-rpc/envelope"
	"result-rpc/fault"
	"result-rpc/middleware"
	"result-rpc/protocol"
	"result-rpc/registry"
	"result-rpc/result"
)

// Handler processes one decoded request payload. Returning a non-nil fault
// produces a Failure response; otherwise the reply is wrapped in Success.
type Handler func(ctx context.Context, payload any) (any, fault.Fault)

// Server accepts framed envelopes and dispatches them to handlers keyed by
// the payload's registered type name.
type Server struct {
	serviceName   string
	handlers      map[string]Handler // Registered handlers: type name → Handler
	types         *envelope.TypeRegistry
	opts          *codec.Options // Composed configuration (caller + middleware resolvers)
	marshaler     *envelope.Marshaler
	logger        *zap.Logger
	listener      net.Listener
	wg            sync.WaitGroup          // Tracks in-flight requests for graceful shutdown
	shutdown      atomic.Bool             // Set during shutdown to suppress Accept errors
	middlewares   []middleware.Middleware // Applied in registration order
	handler       middleware.HandlerFunc  // middleware(middleware(...(dispatch)))
	registry      registry.Registry       // Service registry, nil if not using discovery
	advertiseAddr string                  // Address registered for discovery (a routable IP,
	// unlike the listen address ":8080" which resolves to "[::]:8080")
}

// NewServer builds a server for one service name. The caller's options are
// composed with the middleware fault resolver so transport faults encode
// alongside the caller's own fault types.
func NewServer(serviceName string, types *envelope.TypeRegistry, opts *codec.Options, logger *zap.Logger) (*Server, error) {
	composed, err := opts.Compose(middleware.Resolver())
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		serviceName: serviceName,
		handlers:    make(map[string]Handler),
		types:       types,
		opts:        composed,
		marshaler:   envelope.NewMarshaler(types, composed),
		logger:      logger,
	}, nil
}

// Options returns the composed serialization configuration.
func (svr *Server) Options() *codec.Options { return svr.opts }

// Handle registers a handler for the prototype's payload type, registering
// the type itself when the registry does not know it yet.
func (svr *Server) Handle(prototype any, h Handler) error {
	name, err := svr.types.NameOf(prototype)
	if err != nil {
		if err := svr.types.Register(prototype); err != nil {
			return err
		}
		name, _ = svr.types.NameOf(prototype)
	}
	if _, ok := svr.handlers[name]; ok {
		return fmt.Errorf("server: handler already registered for %q", name)
	}
	svr.handlers[name] = h
	return nil
}

// Use registers a middleware. Middlewares are applied in the order they
// are added.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.middlewares = append(svr.middlewares, mw)
}

// Serve listens on the given address, optionally registers with the
// service registry, and runs the accept loop. advertiseAddr is the address
// written to the registry; pass reg nil to skip discovery.
func (svr *Server) Serve(network, address string, advertiseAddr string, reg registry.Registry) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	svr.listener = listener

	// Build the middleware chain once at startup, not per request.
	// Chain(A, B, C)(dispatch) runs A.before → B.before → C.before →
	// dispatch → C.after → B.after → A.after.
	svr.handler = middleware.Chain(svr.middlewares...)(svr.dispatch)

	svr.advertiseAddr = advertiseAddr
	if reg != nil {
		svr.registry = reg
		if err := reg.Register(svr.serviceName, registry.ServiceInstance{
			Addr: advertiseAddr,
		}, 10); err != nil { // TTL = 10 seconds, KeepAlive renews automatically
			return err
		}
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			// listener.Close during shutdown makes Accept fail; the flag
			// distinguishes that from a real error.
			if svr.shutdown.Load() {
				return nil
			}
			return err
		}
		go svr.handleConn(conn)
	}
}

// handleConn reads frames sequentially (frame boundaries require a single
// reader) and processes each request in its own goroutine. The per-
// connection write mutex keeps concurrently written response frames from
// interleaving.
func (svr *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	writeMu := &sync.Mutex{}
	for {
		header, body, err := protocol.Decode(conn)
		if err != nil {
			return // Connection closed or protocol error
		}

		// Heartbeats only keep the connection alive.
		if header.MsgType == protocol.MsgTypeHeartbeat {
			continue
		}

		// Without the goroutine, a slow handler on request 1 would stall
		// every later request on the same connection.
		go svr.handleRequest(header, body, conn, writeMu)
	}
}

// handleRequest processes one request: unwrap → middleware chain →
// dispatch → result encode → write response frame.
func (svr *Server) handleRequest(header *protocol.Header, body []byte, conn net.Conn, writeMu *sync.Mutex) {
	svr.wg.Add(1)
	defer svr.wg.Done()

	wire := codec.GetCodec(codec.WireType(header.WireType))

	env := &envelope.Envelope{}
	var res result.Result[any]
	if err := wire.Decode(body, env); err != nil {
		res = result.Failure[any](middleware.NewDispatchFailure("", "undecodable request envelope"))
	} else {
		res = svr.process(env)
	}

	encoded, err := codec.EncodeResult(svr.opts, res)
	if err != nil {
		// A fault type the catalog does not know. Report the dispatch
		// failure instead of dropping the response.
		svr.logger.Error("response encoding failed", zap.String("type", env.Type), zap.Error(err))
		encoded, err = codec.EncodeResult(svr.opts,
			result.Failure[any](middleware.NewDispatchFailure(env.Type, "response encoding failed")))
		if err != nil {
			return
		}
	}

	reply := &envelope.Envelope{Type: env.Type, Body: encoded}
	replyBody, err := wire.Encode(reply)
	if err != nil {
		svr.logger.Error("response envelope encoding failed", zap.Error(err))
		return
	}

	writeMu.Lock()
	defer writeMu.Unlock()

	replyHeader := protocol.Header{
		WireType: header.WireType,
		MsgType:  protocol.MsgTypeResponse,
		Seq:      header.Seq, // Same seq as the request, so the client can match it
		BodyLen:  uint32(len(replyBody)),
	}
	if err := protocol.Encode(conn, &replyHeader, replyBody); err != nil {
		svr.logger.Error("response write failed", zap.Error(err))
	}
}

// process unwraps the envelope and runs the middleware chain. Unwrap
// problems become dispatch failures rather than dropped requests.
func (svr *Server) process(env *envelope.Envelope) result.Result[any] {
	payload, err := svr.marshaler.Deserialize(env)
	if err != nil {
		return result.Failure[any](middleware.NewDispatchFailure(env.Type, err.Error()))
	}
	return svr.handler(context.Background(), &middleware.Call{
		TypeName: env.Type,
		Payload:  payload,
	})
}

// dispatch is the innermost handler: look up the payload type's handler
// and wrap its outcome in a result.
func (svr *Server) dispatch(ctx context.Context, call *middleware.Call) result.Result[any] {
	h, ok := svr.handlers[call.TypeName]
	if !ok {
		return result.Failure[any](middleware.NewDispatchFailure(call.TypeName, "no handler registered"))
	}
	reply, f := h(ctx, call.Payload)
	if f != nil {
		return result.Failure[any](f)
	}
	return result.Success(reply)
}

// Shutdown performs graceful shutdown:
//  1. Deregister from the service registry (clients stop routing here)
//  2. Set the shutdown flag, then close the listener
//  3. Wait for in-flight requests, bounded by the timeout
func (svr *Server) Shutdown(timeout time.Duration) error {
	if svr.registry != nil {
		if err := svr.registry.Deregister(svr.serviceName, svr.advertiseAddr); err != nil {
			svr.logger.Warn("deregister failed", zap.String("service", svr.serviceName), zap.Error(err))
		}
	}

	// Flag before close: otherwise the Accept error races ahead of the
	// flag and Serve returns a spurious error.
	svr.shutdown.Store(true)
	if svr.listener != nil {
		svr.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for ongoing requests to finish")
	}
}
