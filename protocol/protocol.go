// Package protocol implements the framed TCP wire format carrying encoded
// envelopes.
//
// TCP delivers a byte stream with no message boundaries, so every message
// is prefixed with a fixed 14-byte header. The receiver reads the header
// first to learn the body length, then reads exactly that many bytes.
//
// Frame format:
//
//	0      3  4  5  6         10        14
//	┌──────┬──┬──┬──┬─────────┬─────────┬───────────────┐
//	│magic │v │wt│mt│   seq   │ bodyLen │    body ...    │
//	│ rrp  │01│  │  │ uint32  │ uint32  │ bodyLen bytes  │
//	└──────┴──┴──┴──┴─────────┴─────────┴───────────────┘
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Magic bytes "rrp" identify a frame as ours, rejecting stray connections
// (e.g. an HTTP client hitting the wrong port) before any body is read.
const (
	MagicByte1 byte = 0x72 // 'r'
	MagicByte2 byte = 0x72 // 'r'
	MagicByte3 byte = 0x70 // 'p'
	Version    byte = 0x01
	HeaderSize int  = 14 // 3 (magic) + 1 (version) + 1 (wire type) + 1 (msgType) + 4 (seq) + 4 (bodyLen)
)

// MsgType distinguishes request, response, and heartbeat frames.
type MsgType byte

const (
	MsgTypeRequest   MsgType = 0 // Client → Server envelope
	MsgTypeResponse  MsgType = 1 // Server → Client result envelope
	MsgTypeHeartbeat MsgType = 2 // KeepAlive probe (no body)
)

// Wire type constants, mirrored from the codec package to avoid a circular
// import.
const (
	WireTypeJSON   byte = 0
	WireTypeBinary byte = 1
)

// Header is the fixed 14-byte frame header.
type Header struct {
	WireType byte    // Envelope serialization format: 0=JSON, 1=Binary
	MsgType  MsgType // Request, Response, or Heartbeat
	Seq      uint32  // Sequence ID matching a request to its response
	BodyLen  uint32  // Body length in bytes
}

// Encode writes a complete frame (header + body) to w. Callers sharing a
// writer across goroutines must hold a write lock around the call, or
// frames from different requests will interleave and corrupt the stream.
func Encode(w io.Writer, h *Header, body []byte) error {
	buf := make([]byte, HeaderSize)

	copy(buf[0:3], []byte{MagicByte1, MagicByte2, MagicByte3})
	buf[3] = Version
	buf[4] = h.WireType
	buf[5] = byte(h.MsgType)
	binary.BigEndian.PutUint32(buf[6:10], h.Seq)
	binary.BigEndian.PutUint32(buf[10:14], h.BodyLen)

	if _, err := w.Write(buf); err != nil {
		return err
	}
	// Body may be nil for heartbeat frames.
	if _, err := w.Write(body); err != nil {
		return err
	}
	return nil
}

// Decode reads a complete frame (header + body) from r, validating magic,
// version, wire type, and message type. io.ReadFull guarantees exactly N
// bytes per read, so partial TCP reads never split a frame.
func Decode(r io.Reader) (*Header, []byte, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, nil, err
	}

	if headerBuf[0] != MagicByte1 || headerBuf[1] != MagicByte2 || headerBuf[2] != MagicByte3 {
		return nil, nil, fmt.Errorf("invalid magic number: %x", headerBuf[0:3])
	}
	if headerBuf[3] != Version {
		return nil, nil, fmt.Errorf("unsupported version: %d", headerBuf[3])
	}
	if headerBuf[4] != WireTypeJSON && headerBuf[4] != WireTypeBinary {
		return nil, nil, fmt.Errorf("unsupported wire type: %d", headerBuf[4])
	}
	msgType := headerBuf[5]
	if msgType != byte(MsgTypeRequest) && msgType != byte(MsgTypeResponse) && msgType != byte(MsgTypeHeartbeat) {
		return nil, nil, fmt.Errorf("unsupported message type: %d", msgType)
	}

	seq := binary.BigEndian.Uint32(headerBuf[6:10])
	bodyLen := binary.BigEndian.Uint32(headerBuf[10:14])

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, err
	}

	return &Header{
		WireType: headerBuf[4],
		MsgType:  MsgType(msgType),
		Seq:      seq,
		BodyLen:  bodyLen,
	}, body, nil
}
