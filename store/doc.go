// Package store implements the session value store: a nested key-value
// container addressed by dotted paths, serialized between requests as a
// flat mapping of type-tagged string pairs.
//
// Values are restricted to six kinds — Number, Boolean, String, Date,
// Object, Array — so that arbitrary JSON-representable data survives a
// round trip through the payload without losing its original type. Only
// the top-level key boundary is preserved structurally; nested structure
// round-trips through JSON text inside the pair.
//
// # Failure asymmetry
//
// A top-level payload that is not valid JSON is a hard failure
// (StoreInitError), as is a structurally broken pair (MalformedPairError).
// A pair whose nested Object/Array JSON is corrupted instead degrades to
// an empty value. Existing deployments depend on this partial-payload
// tolerance, so both behaviors are contractual.
package store
