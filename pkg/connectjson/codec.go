// Package connectjson is a Connect codec for plain Go structs encoded as
// JSON. It registers under the "json" name, replacing the protobuf JSON
// codec, so handlers and clients exchange application/json bodies.
package connectjson

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Name is the codec name negotiated in the Content-Type header.
const Name = "json"

// Codec implements connect.Codec.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return Name }

func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}

// HandlerOption installs the codec on a handler.
func HandlerOption() connect.HandlerOption {
	return connect.WithCodec(Codec{})
}

// ClientOption makes a client send and accept JSON bodies.
func ClientOption() connect.ClientOption {
	return connect.WithCodec(Codec{})
}
