package transport

import (
	"net"
	"testing"
	"time"

	"result-rpc/codec"
	"result-rpc/envelope"
	"result-rpc/protocol"
)

// echoServer reads count request frames and answers them in reverse order,
// so responses come back out of order relative to the requests.
func echoServer(t *testing.T, conn net.Conn, count int) {
	t.Helper()
	type frame struct {
		header *protocol.Header
		body   []byte
	}
	frames := make([]frame, 0, count)
	for len(frames) < count {
		header, body, err := protocol.Decode(conn)
		if err != nil {
			t.Errorf("Server decode failed: %v", err)
			return
		}
		if header.MsgType == protocol.MsgTypeHeartbeat {
			continue
		}
		frames = append(frames, frame{header, body})
	}
	for i := len(frames) - 1; i >= 0; i-- {
		reply := protocol.Header{
			WireType: frames[i].header.WireType,
			MsgType:  protocol.MsgTypeResponse,
			Seq:      frames[i].header.Seq,
			BodyLen:  frames[i].header.BodyLen,
		}
		if err := protocol.Encode(conn, &reply, frames[i].body); err != nil {
			t.Errorf("Server encode failed: %v", err)
			return
		}
	}
}

func TestMultiplexedResponsesRouteBySeq(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	go echoServer(t, serverConn, 3)
	tr := NewClientTransport(clientConn, codec.WireTypeJSON)

	envs := []*envelope.Envelope{
		{Type: "a", Body: []byte(`{"n":1}`)},
		{Type: "b", Body: []byte(`{"n":2}`)},
		{Type: "c", Body: []byte(`{"n":3}`)},
	}
	chans := make([]<-chan *Response, len(envs))
	for i, env := range envs {
		_, ch, err := tr.Send(env)
		if err != nil {
			t.Fatalf("Send failed: %v", err)
		}
		chans[i] = ch
	}

	for i, ch := range chans {
		select {
		case resp := <-ch:
			if resp.Err != nil {
				t.Fatalf("Response %d errored: %v", i, resp.Err)
			}
			if resp.Envelope.Type != envs[i].Type {
				t.Errorf("Response %d routed to wrong caller: got type %q, want %q",
					i, resp.Envelope.Type, envs[i].Type)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("Response %d never arrived", i)
		}
	}
}

func TestConnectionErrorWakesPendingCallers(t *testing.T) {
	clientConn, serverConn := net.Pipe()

	tr := NewClientTransport(clientConn, codec.WireTypeJSON)

	// Drain the request so Send does not block on the unbuffered pipe.
	go func() {
		if _, _, err := protocol.Decode(serverConn); err != nil {
			return
		}
		serverConn.Close()
	}()

	_, ch, err := tr.Send(&envelope.Envelope{Type: "a", Body: []byte(`{}`)})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case resp := <-ch:
		if resp.Err == nil {
			t.Fatal("Expected an error response after the connection dropped")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pending caller never woken")
	}
}
