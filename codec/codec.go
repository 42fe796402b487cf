package codec

// WireType identifies the envelope serialization format carried in a frame
// header.
type WireType byte

const (
	WireTypeJSON   WireType = 0
	WireTypeBinary WireType = 1
)

// WireCodec serializes envelopes for the framed transport.
type WireCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Type() WireType
}

// GetCodec returns the wire codec for a frame header's wire type byte.
func GetCodec(wireType WireType) WireCodec {
	if wireType == WireTypeJSON {
		return &JSONCodec{}
	}
	return &BinaryCodec{}
}
