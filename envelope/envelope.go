package envelope

import (
	"encoding/json"
	"fmt"
)

// Envelope defines a public type used by MaxiTaxi client APIs.
//
// Envelope instances are intended to be produced by Encrypt or decoded from
// the wire and then treated as immutable unless documented otherwise.
type Envelope struct {
	IV   []byte
	Data []byte
}

// wireEnvelope is the JSON shape the server speaks: numeric byte arrays,
// never base64 strings.
type wireEnvelope struct {
	IV   []int `json:"iv"`
	Data []int `json:"data"`
}

// MarshalJSON describes the marshaljson operation and its observable behavior.
//
// MarshalJSON may return an error when the underlying JSON encoder fails.
// MarshalJSON does not mutate shared global state and can be used concurrently.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEnvelope{
		IV:   bytesToInts(e.IV),
		Data: bytesToInts(e.Data),
	})
}

// UnmarshalJSON describes the unmarshaljson operation and its observable behavior.
//
// UnmarshalJSON may return an error when the body is not valid JSON or when a
// byte value falls outside 0-255.
// UnmarshalJSON only mutates the receiver and can be used concurrently on
// distinct receivers.
func (e *Envelope) UnmarshalJSON(raw []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	iv, err := intsToBytes(w.IV)
	if err != nil {
		return err
	}
	data, err := intsToBytes(w.Data)
	if err != nil {
		return err
	}
	e.IV = iv
	e.Data = data
	return nil
}

// Detect describes the detect operation and its observable behavior.
//
// Detect reports whether raw is a JSON object carrying both "iv" and "data"
// as arrays, i.e. whether a response body should be routed through Decrypt.
// Detect does not mutate shared global state and can be used concurrently.
func Detect(raw []byte) bool {
	var probe struct {
		IV   json.RawMessage `json:"iv"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	return isJSONArray(probe.IV) && isJSONArray(probe.Data)
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return b == '['
		}
	}
	return false
}

func bytesToInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func intsToBytes(in []int) ([]byte, error) {
	out := make([]byte, len(in))
	for i, v := range in {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("envelope: byte value %d at index %d out of range", v, i)
		}
		out[i] = byte(v)
	}
	return out, nil
}
