package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"result-rpc/envelope"
)

// BinaryCodec serializes envelopes as length-prefixed fields:
//
//	2 bytes  type name length (big-endian)
//	n bytes  type name
//	4 bytes  body length (big-endian)
//	n bytes  body
//
// A body length of 0xFFFFFFFF marks an absent body (nil), keeping the
// distinction between "no body" and an empty-but-present body across the
// wire.
type BinaryCodec struct{}

const absentBody = ^uint32(0)

func (c *BinaryCodec) Encode(v any) ([]byte, error) {
	env, ok := v.(*envelope.Envelope)
	if !ok {
		return nil, errors.New("BinaryCodec: v must be *envelope.Envelope")
	}
	if len(env.Type) > 0xFFFF {
		return nil, fmt.Errorf("BinaryCodec: type name too long: %d bytes", len(env.Type))
	}
	total := 2 + len(env.Type) + 4 + len(env.Body)
	buf := make([]byte, total)

	offset := 0
	binary.BigEndian.PutUint16(buf[offset:offset+2], uint16(len(env.Type)))
	offset += 2

	copy(buf[offset:offset+len(env.Type)], env.Type)
	offset += len(env.Type)

	if env.Body == nil {
		binary.BigEndian.PutUint32(buf[offset:offset+4], absentBody)
		return buf, nil
	}
	binary.BigEndian.PutUint32(buf[offset:offset+4], uint32(len(env.Body)))
	offset += 4

	copy(buf[offset:], env.Body)
	return buf, nil
}

func (c *BinaryCodec) Decode(data []byte, v any) error {
	env, ok := v.(*envelope.Envelope)
	if !ok {
		return errors.New("BinaryCodec: v must be *envelope.Envelope")
	}

	offset := 0
	if len(data) < 2 {
		return errors.New("BinaryCodec: truncated type length")
	}
	nameLen := int(binary.BigEndian.Uint16(data[offset : offset+2]))
	offset += 2

	if len(data) < offset+nameLen+4 {
		return errors.New("BinaryCodec: truncated frame")
	}
	env.Type = string(data[offset : offset+nameLen])
	offset += nameLen

	bodyLen := binary.BigEndian.Uint32(data[offset : offset+4])
	offset += 4

	if bodyLen == absentBody {
		env.Body = nil
		return nil
	}
	if uint32(len(data)-offset) < bodyLen {
		return errors.New("BinaryCodec: truncated body")
	}
	env.Body = make([]byte, bodyLen)
	copy(env.Body, data[offset:offset+int(bodyLen)])
	return nil
}

func (c *BinaryCodec) Type() WireType {
	return WireTypeBinary
}
