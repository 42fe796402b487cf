package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"result-rpc/result"
)

// ErrSchema is the single failure kind for malformed result documents:
// wrong structure, wrong or missing "kind", a missing "value"/"error"
// property, or trailing properties. Decoding never returns a partial
// result.
var ErrSchema = errors.New("codec: result schema violation")

const (
	kindField    = "kind"
	successField = "value"
	failureField = "error"

	kindSuccess = "Success"
	kindFailure = "Failure"
)

// EncodeResult serializes r under the fixed schema. Property order is part
// of the contract: "kind" is always first and "value"/"error" always
// second; none of them is ever omitted.
func EncodeResult[T any](o *Options, r result.Result[T]) ([]byte, error) {
	var buf bytes.Buffer
	if f, failed := r.Fault(); failed {
		encoded, err := EncodeFault(o, f)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, `{%q:%q,%q:`, kindField, kindFailure, failureField)
		buf.Write(encoded)
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	v, _ := r.Value()
	payload, err := o.MarshalValue(v)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&buf, `{%q:%q,%q:`, kindField, kindSuccess, successField)
	buf.Write(payload)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeResult parses data under the fixed schema in a single forward pass:
// object start, then "kind", then exactly "value" or "error" as the second
// property, then end of object. Any deviation (a different first property,
// an unrecognized kind, a missing payload property, trailing properties)
// is an ErrSchema failure.
func DecodeResult[T any](o *Options, data []byte) (result.Result[T], error) {
	var zero result.Result[T]
	kind, raw, err := decodeStrict(data)
	if err != nil {
		return zero, err
	}
	if kind == kindFailure {
		f, err := DecodeFault(o, raw)
		if err != nil {
			return zero, err
		}
		return result.Failure[T](f), nil
	}
	var v T
	if err := o.UnmarshalValue(raw, &v); err != nil {
		return zero, fmt.Errorf("%w: decoding %q: %v", ErrSchema, successField, err)
	}
	return result.Success(v), nil
}

// decodeStrict walks the token stream and returns the kind plus the raw
// bytes of the second property's value.
func decodeStrict(data []byte) (string, json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return "", nil, fmt.Errorf("%w: expected object start", ErrSchema)
	}

	tok, err = dec.Token()
	if err != nil {
		return "", nil, fmt.Errorf("%w: expected %q property", ErrSchema, kindField)
	}
	if name, ok := tok.(string); !ok || name != kindField {
		return "", nil, fmt.Errorf("%w: first property must be %q, got %v", ErrSchema, kindField, tok)
	}

	tok, err = dec.Token()
	if err != nil {
		return "", nil, fmt.Errorf("%w: unreadable %q value", ErrSchema, kindField)
	}
	kind, ok := tok.(string)
	if !ok || (kind != kindSuccess && kind != kindFailure) {
		return "", nil, fmt.Errorf("%w: unrecognized kind %v", ErrSchema, tok)
	}

	want := successField
	if kind == kindFailure {
		want = failureField
	}
	tok, err = dec.Token()
	if err != nil {
		return "", nil, fmt.Errorf("%w: missing %q property", ErrSchema, want)
	}
	if name, ok := tok.(string); !ok || name != want {
		return "", nil, fmt.Errorf("%w: second property must be %q, got %v", ErrSchema, want, tok)
	}

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return "", nil, fmt.Errorf("%w: unreadable %q value", ErrSchema, want)
	}

	tok, err = dec.Token()
	if err != nil || tok != json.Delim('}') {
		return "", nil, fmt.Errorf("%w: trailing properties after %q", ErrSchema, want)
	}
	if _, err := dec.Token(); err != io.EOF {
		return "", nil, fmt.Errorf("%w: data after end of object", ErrSchema)
	}

	return kind, raw, nil
}
