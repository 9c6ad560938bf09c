// Package channel carries the parent's instructions to a re-executed child.
//
// The parent encodes a Request into a single environment variable of the child
// process. A process without the variable is the top-level (parent) role.
package channel

import (
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// EnvVar names the environment variable holding the encoded request.
const EnvVar = "AUTOIMPORT_CHANNEL"

// SchemaVersion is bumped whenever the wire layout of Request changes.
const SchemaVersion uint16 = 1

var (
	// ErrSchema reports a request written by an incompatible build.
	ErrSchema = errors.New("channel: schema mismatch")
	// ErrMalformed reports an undecodable request.
	ErrMalformed = errors.New("channel: malformed request")
)

// Mode tells the child how to treat units the request says nothing about.
type Mode uint8

const (
	// ModeObserve: the parent reads diagnostics; units without an entry pass
	// through with the marker removed.
	ModeObserve Mode = iota + 1
	// ModeFinal: the last compile; output goes to the user as is.
	ModeFinal
)

func (m Mode) String() string {
	switch m {
	case ModeObserve:
		return "observe"
	case ModeFinal:
		return "final"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Request is what the parent hands to a child.
type Request struct {
	RunID uuid.UUID
	Mode  Mode
	// Units maps a unit key to the rendered declarations spliced at its marker.
	Units map[string]string
}

// NewRequest starts a request for a fresh run.
func NewRequest(mode Mode) Request {
	return Request{RunID: uuid.New(), Mode: mode, Units: map[string]string{}}
}

// Rendered returns the declarations for key, if the request carries any.
func (r Request) Rendered(key string) (string, bool) {
	text, ok := r.Units[key]
	return text, ok
}

// With returns a copy of r where key renders to text. r is not modified.
func (r Request) With(key, text string) Request {
	units := make(map[string]string, len(r.Units)+1)
	maps.Copy(units, r.Units)
	units[key] = text
	r.Units = units
	return r
}

// Keys returns the unit keys in sorted order.
func (r Request) Keys() []string {
	return slices.Sorted(maps.Keys(r.Units))
}

// wire is the msgpack layout. RunID travels as text so the payload stays
// readable when dumped.
type wire struct {
	Schema uint16            `msgpack:"schema"`
	RunID  string            `msgpack:"run_id"`
	Mode   uint8             `msgpack:"mode"`
	Units  map[string]string `msgpack:"units"`
}

// Encode serialises r into an environment-safe string.
func Encode(r Request) (string, error) {
	w := wire{
		Schema: SchemaVersion,
		RunID:  r.RunID.String(),
		Mode:   uint8(r.Mode),
		Units:  r.Units,
	}
	raw, err := msgpack.Marshal(&w)
	if err != nil {
		return "", fmt.Errorf("channel: encode: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode is the inverse of Encode.
func Decode(s string) (Request, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	var w wire
	if err := msgpack.Unmarshal(raw, &w); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if w.Schema != SchemaVersion {
		return Request{}, fmt.Errorf("%w: got %d, want %d", ErrSchema, w.Schema, SchemaVersion)
	}
	id, err := uuid.Parse(w.RunID)
	if err != nil {
		return Request{}, fmt.Errorf("%w: run id: %w", ErrMalformed, err)
	}
	mode := Mode(w.Mode)
	if mode != ModeObserve && mode != ModeFinal {
		return Request{}, fmt.Errorf("%w: unknown mode %d", ErrMalformed, w.Mode)
	}
	units := w.Units
	if units == nil {
		units = map[string]string{}
	}
	return Request{RunID: id, Mode: mode, Units: units}, nil
}

// FromEnviron looks the request up through lookup (os.LookupEnv in
// production). ok is false in the parent role.
func FromEnviron(lookup func(string) (string, bool)) (req Request, ok bool, err error) {
	raw, present := lookup(EnvVar)
	if !present || raw == "" {
		return Request{}, false, nil
	}
	req, err = Decode(raw)
	if err != nil {
		return Request{}, true, err
	}
	return req, true, nil
}

// FromProcess reads the request of the running process.
func FromProcess() (Request, bool, error) {
	return FromEnviron(os.LookupEnv)
}

// Environ returns base with the channel variable set to r. Any previous value
// is dropped; base itself is not modified.
func Environ(base []string, r Request) ([]string, error) {
	enc, err := Encode(r)
	if err != nil {
		return nil, err
	}
	prefix := EnvVar + "="
	out := make([]string, 0, len(base)+1)
	for _, kv := range base {
		if strings.HasPrefix(kv, prefix) {
			continue
		}
		out = append(out, kv)
	}
	return append(out, prefix+enc), nil
}
