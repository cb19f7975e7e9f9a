package store

import (
	"encoding/json"

	"github.com/ggoodman/http-sessions-go/internal/dotpath"
)

// Store is the per-request session value container. Keys are dotted paths
// into arbitrarily nested maps; values round-trip through a flat,
// type-tagged payload (see Pair) between requests.
//
// A Store is created, mutated and serialized entirely within one request's
// control flow and is not safe for concurrent use.
type Store struct {
	values map[string]any
}

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[string]any)}
}

// NewFromPayload builds a store from a previously serialized payload. An
// empty payload yields an empty store. A payload that is not valid JSON
// fails with a StoreInitError; an entry whose pair is structurally broken
// fails with a MalformedPairError.
func NewFromPayload(payload string) (*Store, error) {
	s := New()
	if payload == "" {
		return s, nil
	}

	var raw map[string]struct {
		Data *string `json:"d"`
		Kind *Kind   `json:"t"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, &StoreInitError{Payload: payload, Err: err}
	}

	for key, rp := range raw {
		if rp.Data == nil {
			return nil, &MalformedPairError{Reason: "missing data for key " + quoteKey(key)}
		}
		if rp.Kind == nil {
			return nil, &MalformedPairError{Reason: "missing type tag for key " + quoteKey(key)}
		}
		v, err := Unguard(Pair{Data: *rp.Data, Kind: *rp.Kind})
		if err != nil {
			return nil, err
		}
		s.values[key] = v
	}
	return s, nil
}

// Put sets the value at the given dotted path, creating intermediate maps
// as needed. The value must be representable by the six storable kinds.
func (s *Store) Put(path string, value any) error {
	v, err := normalize(value)
	if err != nil {
		return err
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	dotpath.Set(s.values, path, v)
	return nil
}

// Get returns the value at path, or nil if any segment is absent.
func (s *Store) Get(path string) any {
	return s.GetOr(path, nil)
}

// GetOr returns the value at path, or fallback if any segment is absent.
func (s *Store) GetOr(path string, fallback any) any {
	v, ok := dotpath.Get(s.values, path)
	if !ok {
		return fallback
	}
	return v
}

// Increment adds steps to the numeric value at path. It fails with a
// NotANumberError when the current value is not numeric; an absent path
// counts as not numeric.
func (s *Store) Increment(path string, steps int) error {
	cur := s.Get(path)
	f, ok := cur.(float64)
	if !ok {
		return &NotANumberError{Key: path, Value: cur}
	}
	return s.Put(path, f+float64(steps))
}

// Decrement subtracts steps from the numeric value at path.
func (s *Store) Decrement(path string, steps int) error {
	return s.Increment(path, -steps)
}

// Forget removes the value at path. An absent path is a no-op. Parents
// emptied by the removal stay in place.
func (s *Store) Forget(path string) {
	dotpath.Unset(s.values, path)
}

// Pull returns the value at path and removes it, or nil if absent.
func (s *Store) Pull(path string) any {
	return s.PullOr(path, nil)
}

// PullOr returns the value at path and removes it, or fallback if absent.
func (s *Store) PullOr(path string, fallback any) any {
	v := s.GetOr(path, fallback)
	s.Forget(path)
	return v
}

// All returns a deep copy of the full value mapping. Mutating the result
// never affects the store.
func (s *Store) All() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = deepCopy(v)
	}
	return out
}

// Clear resets the store to empty.
func (s *Store) Clear() {
	s.values = make(map[string]any)
}

// Len reports the number of top-level keys.
func (s *Store) Len() int {
	return len(s.values)
}

// MarshalJSON serializes the store into the flat tagged-pair mapping.
// Top-level entries whose value is empty (nil, empty map, empty slice)
// are pruned from the output.
func (s *Store) MarshalJSON() ([]byte, error) {
	out := make(map[string]Pair, len(s.values))
	for k, v := range s.values {
		if isEmptyValue(v) {
			continue
		}
		p, err := Guard(v)
		if err != nil {
			return nil, err
		}
		out[k] = p
	}
	return json.Marshal(out)
}

// Payload returns the serialized payload handed to drivers. An empty or
// fully pruned store yields "{}".
func (s *Store) Payload() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	return false
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return x
	}
}

func quoteKey(key string) string {
	b, _ := json.Marshal(key)
	return string(b)
}
