package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"result-rpc/fault"
)

// ErrUnregisteredFault is returned when encoding a fault whose concrete
// type has no catalog entry.
var ErrUnregisteredFault = errors.New("codec: fault type not in catalog")

const discriminatorField = "$type"

// EncodeFault serializes f as a single JSON object with the catalog's tag
// for f's exact concrete type in a leading "$type" field, followed by the
// type's own fields in declaration order.
func EncodeFault(o *Options, f fault.Fault) ([]byte, error) {
	if f == nil {
		return nil, errors.New("codec: cannot encode nil fault")
	}
	tag, ok := o.catalog.TagFor(f)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnregisteredFault, f)
	}
	fields, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	if len(fields) < 2 || fields[0] != '{' {
		return nil, fmt.Errorf("codec: fault %T did not encode as an object", f)
	}
	var buf bytes.Buffer
	buf.Grow(len(fields) + len(tag) + 16)
	fmt.Fprintf(&buf, `{%q:%q`, discriminatorField, tag)
	if !bytes.Equal(fields, []byte("{}")) {
		buf.WriteByte(',')
		buf.Write(fields[1:]) // drop the opening brace, keep fields + closing brace
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// DecodeFault reads the "$type" discriminator, resolves it through the
// catalog, and decodes the remaining fields as that concrete type. A
// missing or unknown discriminator fails immediately; there is no fallback
// to an abstract shape.
func DecodeFault(o *Options, data []byte) (fault.Fault, error) {
	var probe struct {
		Tag *string `json:"$type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if probe.Tag == nil {
		return nil, fmt.Errorf("%w: missing %q field", fault.ErrUnknownTag, discriminatorField)
	}
	entry, ok := o.catalog.Resolve(*probe.Tag)
	if !ok {
		return nil, fmt.Errorf("%w: %q", fault.ErrUnknownTag, *probe.Tag)
	}
	f := entry.New()
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("%w: decoding %q: %v", ErrSchema, *probe.Tag, err)
	}
	return f, nil
}
