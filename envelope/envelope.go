// Package envelope wraps named payloads into a {type, body} structure for
// wire transmission. The envelope is what the protocol layer frames and the
// transport ships; the concrete payload type is resolved through a name
// registry rather than embedded type metadata.
package envelope

import "encoding/json"

// Envelope carries one encoded payload plus the registry name of its
// concrete type. Created per outgoing message, consumed once per incoming
// message; never persisted.
//
//   - On request:  Body holds the encoded request payload.
//   - On response: Body holds the encoded result document (success or failure).
type Envelope struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}
