package store

import "fmt"

// UnsupportedTypeError is returned when a value outside the six storable
// kinds is put into a store or guarded directly.
type UnsupportedTypeError struct {
	// Type is the rejected Go type, e.g. "func()" or "chan int".
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("session store: unsupported value type %s", e.Type)
}

// MalformedPairError is returned when a serialized pair is structurally
// unusable: a field is missing, the type tag is unknown, or a Number data
// string does not parse.
type MalformedPairError struct {
	Reason string
}

func (e *MalformedPairError) Error() string {
	return fmt.Sprintf("session store: malformed pair: %s", e.Reason)
}

// StoreInitError is returned when the top-level session payload is not
// valid JSON. It carries the raw payload for diagnostics.
type StoreInitError struct {
	Payload string
	Err     error
}

func (e *StoreInitError) Error() string {
	return fmt.Sprintf("session store: cannot parse payload %q: %v", e.Payload, e.Err)
}

func (e *StoreInitError) Unwrap() error { return e.Err }

// NotANumberError is returned by Increment and Decrement when the value at
// the addressed key is not numeric.
type NotANumberError struct {
	Key   string
	Value any
}

func (e *NotANumberError) Error() string {
	return fmt.Sprintf("session store: cannot step %q: value %v is not a number", e.Key, e.Value)
}
