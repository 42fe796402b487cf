// Package transport implements the client-side transport layer with
// multiplexing and heartbeat.
//
// ClientTransport runs many concurrent calls over one TCP connection: each
// request gets a unique sequence ID, and a single background goroutine
// (recvLoop) reads responses and routes them to the right caller through
// per-request channels.
//
//	goroutine-1 ──Send(seq=1)──┐
//	goroutine-2 ──Send(seq=2)──┼──→ single TCP conn ──→ Server
//	goroutine-3 ──Send(seq=3)──┘
//
//	recvLoop:  ←── response(seq=2) → pending[2] chan → goroutine-2 wakes up
package transport

import (
	"net"
	"sync"
	"time"

	"result-rpc/codec"
	"result-rpc/envelope"
	"result-rpc/protocol"
)

// Response is what a caller receives for one request: the response
// envelope, or the transport error that ended the connection.
type Response struct {
	Envelope *envelope.Envelope
	Err      error
}

// ClientTransport manages a single multiplexed TCP connection.
type ClientTransport struct {
	conn     net.Conn       // Underlying TCP connection
	wireType codec.WireType // Envelope serialization format for this transport
	seq      uint32         // Monotonically increasing sequence number (protected by sending mutex)
	pending  sync.Map       // map[uint32]chan *Response, one channel per in-flight request
	sending  sync.Mutex     // Serializes writes; interleaved frames from two goroutines would corrupt the stream
}

// NewClientTransport wraps a connection and starts the two background
// goroutines: recvLoop routes responses to pending callers, heartbeatLoop
// keeps the connection alive.
func NewClientTransport(conn net.Conn, wireType codec.WireType) *ClientTransport {
	t := &ClientTransport{
		conn:     conn,
		wireType: wireType,
	}
	go t.recvLoop()
	go t.heartbeatLoop(30 * time.Second)
	return t
}

// Send encodes env into a request frame and writes it. It returns the
// assigned sequence number and the channel the response will arrive on.
//
// The sending mutex covers both the seq assignment and the frame write, so
// each frame reaches the wire whole.
func (t *ClientTransport) Send(env *envelope.Envelope) (uint32, <-chan *Response, error) {
	t.sending.Lock()
	defer t.sending.Unlock()

	t.seq++
	seq := t.seq

	body, err := codec.GetCodec(t.wireType).Encode(env)
	if err != nil {
		return 0, nil, err
	}

	header := protocol.Header{
		WireType: byte(t.wireType),
		MsgType:  protocol.MsgTypeRequest,
		Seq:      seq,
		BodyLen:  uint32(len(body)),
	}

	// Register the response channel before writing so recvLoop can never
	// see a response for an unknown seq. Buffered so recvLoop never blocks.
	respChan := make(chan *Response, 1)
	t.pending.Store(seq, respChan)

	if err := protocol.Encode(t.conn, &header, body); err != nil {
		t.pending.Delete(seq)
		return 0, nil, err
	}

	return seq, respChan, nil
}

// recvLoop is the sole reader of the connection. TCP is a byte stream, so
// reads must be sequential to keep frame boundaries intact; responses can
// arrive in any order and are routed to callers by sequence number.
func (t *ClientTransport) recvLoop() {
	for {
		header, body, err := protocol.Decode(t.conn)
		if err != nil {
			t.closeAllPending(err)
			return
		}

		env := &envelope.Envelope{}
		if err := codec.GetCodec(codec.WireType(header.WireType)).Decode(body, env); err != nil {
			if channel, ok := t.pending.LoadAndDelete(header.Seq); ok {
				channel.(chan *Response) <- &Response{Err: err}
			}
			continue
		}

		if channel, ok := t.pending.LoadAndDelete(header.Seq); ok {
			channel.(chan *Response) <- &Response{Envelope: env}
		}
	}
}

// closeAllPending wakes every waiting caller with the connection error so
// nobody blocks forever on a dead connection.
func (t *ClientTransport) closeAllPending(err error) {
	t.pending.Range(func(key, value any) bool {
		value.(chan *Response) <- &Response{Err: err}
		return true
	})
	t.pending.Clear()
}

// Conn returns the underlying TCP connection.
func (t *ClientTransport) Conn() net.Conn {
	return t.conn
}

// heartbeatLoop sends periodic empty heartbeat frames so idle connections
// are not closed by the server or intermediaries.
func (t *ClientTransport) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		header := &protocol.Header{
			WireType: byte(t.wireType),
			MsgType:  protocol.MsgTypeHeartbeat,
			BodyLen:  0,
		}
		t.sending.Lock()
		err := protocol.Encode(t.conn, header, nil)
		t.sending.Unlock()
		if err != nil {
			return // Connection broken, exit heartbeat loop
		}
	}
}
