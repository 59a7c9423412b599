package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// Result is the reply envelope of every action. On the wire it is one flat
// JSON object: "success", an optional "error", and the payload's own fields.
type Result[T any] struct {
	Success bool
	Error   string
	Data    T
}

// Failure builds the failure envelope returned whenever the gateway itself
// could not complete a call.
func Failure[T any](msg string) Result[T] {
	if msg == "" {
		msg = "request failed"
	}
	return Result[T]{Success: false, Error: msg}
}

// RemoteError carries the message of a failed [Result].
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "request failed"
	}
	return e.Message
}

// Err returns nil for a successful result and a *RemoteError otherwise.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &RemoteError{Message: r.Error}
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// MarshalJSON writes the flat wire form. Zero payloads and payloads that do
// not encode to a JSON object contribute no fields, so every failure built by
// [Failure] encodes as {"success":false,"error":...}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}

	if !reflect.ValueOf(&r.Data).Elem().IsZero() {
		data, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		if len(data) > 0 && data[0] == '{' {
			if err := json.Unmarshal(data, &fields); err != nil {
				return nil, err
			}
		}
	}

	success, _ := json.Marshal(r.Success)
	fields["success"] = success
	delete(fields, "error")
	if r.Error != "" {
		msg, _ := json.Marshal(r.Error)
		fields["error"] = msg
	}
	return json.Marshal(fields)
}

var (
	errNotObject         = errors.New("response is not a JSON object")
	errMalformedEnvelope = errors.New("malformed envelope")
)

// UnmarshalJSON reads the flat wire form into the envelope and the payload.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	fields, err := readEnvelope(data)
	if err != nil {
		return err
	}
	var env envelope
	if raw, ok := fields["success"]; ok {
		if err := json.Unmarshal(raw, &env.Success); err != nil {
			return fmt.Errorf("%w: \"success\" is not a boolean", errMalformedEnvelope)
		}
	}
	if raw, ok := fields["error"]; ok {
		if err := json.Unmarshal(raw, &env.Error); err != nil {
			return fmt.Errorf("%w: \"error\" is not a string", errMalformedEnvelope)
		}
	}

	var payload T
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	r.Success = env.Success
	r.Error = env.Error
	r.Data = payload
	return nil
}

func readEnvelope(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errNotObject
	}
	return fields, nil
}
