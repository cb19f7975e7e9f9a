// Package driver defines the contract between the session manager and
// the backing stores that persist serialized session payloads.
package driver

import "context"

// Driver persists serialized session payloads keyed by session id.
//
// An absent session is reported via ok=false from Load, never as an
// error; errors are reserved for real backend failures. Implementations
// must guarantee that a read-then-write sequence for one session id
// within a request never corrupts a concurrently written payload for the
// same id: last-write-wins is acceptable, partial interleaving is not.
type Driver interface {
	// Load fetches the payload stored under sessionID.
	Load(ctx context.Context, sessionID string) (payload string, ok bool, err error)

	// Save stores payload under sessionID, replacing any previous payload.
	// Implementations may skip writing an empty payload ("{}").
	Save(ctx context.Context, sessionID string, payload string) error

	// Remove deletes the payload stored under sessionID. Removing an
	// absent session is a no-op.
	Remove(ctx context.Context, sessionID string) error
}

// EmptyPayload is the serialized form of a store with no surviving keys.
// Drivers use it to decide whether a write can be skipped.
const EmptyPayload = "{}"
