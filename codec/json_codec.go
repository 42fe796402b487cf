package codec

import (
	"encoding/json"
)

// JSONCodec serializes envelopes with encoding/json. Human-readable and
// cross-language; larger and slower than the binary form.
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (c *JSONCodec) Type() WireType {
	return WireTypeJSON
}
