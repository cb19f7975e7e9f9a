package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Kind identifies the original type of a stored value. The string values
// are part of the persisted payload format and must not change.
type Kind string

const (
	KindNumber  Kind = "Number"
	KindBoolean Kind = "Boolean"
	KindString  Kind = "String"
	KindDate    Kind = "Date"
	KindObject  Kind = "Object"
	KindArray   Kind = "Array"
)

func (k Kind) valid() bool {
	switch k {
	case KindNumber, KindBoolean, KindString, KindDate, KindObject, KindArray:
		return true
	}
	return false
}

// Pair is the serialized form of a single top-level value: its string
// encoding plus the Kind needed to restore the original type. The short
// field names are the wire contract shared with other implementations.
type Pair struct {
	Data string `json:"d"`
	Kind Kind   `json:"t"`
}

// dateLayout matches the human-readable date rendering used by existing
// deployments of this payload format.
const dateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

// dateParseLayouts are accepted on the way in. The wire layout comes
// first; the rest tolerate payloads written by other tooling.
var dateParseLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123,
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

// Guard serializes a single value into a Pair. The value must be one of
// the six storable kinds (after normalization); anything else fails with
// an UnsupportedTypeError naming the Go type.
func Guard(value any) (Pair, error) {
	v, err := normalize(value)
	if err != nil {
		return Pair{}, err
	}
	switch x := v.(type) {
	case nil:
		return Pair{Data: "null", Kind: KindObject}, nil
	case float64:
		return Pair{Data: formatNumber(x), Kind: KindNumber}, nil
	case bool:
		return Pair{Data: strconv.FormatBool(x), Kind: KindBoolean}, nil
	case string:
		return Pair{Data: x, Kind: KindString}, nil
	case time.Time:
		return Pair{Data: x.Format(dateLayout), Kind: KindDate}, nil
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return Pair{}, fmt.Errorf("encode object: %w", err)
		}
		return Pair{Data: string(b), Kind: KindObject}, nil
	case []any:
		b, err := json.Marshal(x)
		if err != nil {
			return Pair{}, fmt.Errorf("encode array: %w", err)
		}
		return Pair{Data: string(b), Kind: KindArray}, nil
	}
	return Pair{}, &UnsupportedTypeError{Type: fmt.Sprintf("%T", v)}
}

// Unguard restores a value from its serialized Pair. Unknown type tags and
// unparseable Number data are hard failures; corrupted Object/Array JSON
// and unparseable Date strings degrade to an empty value instead, so a
// single damaged entry cannot take down the whole session.
func Unguard(p Pair) (any, error) {
	if p.Kind == "" {
		return nil, &MalformedPairError{Reason: "missing type tag"}
	}
	if !p.Kind.valid() {
		return nil, &MalformedPairError{Reason: fmt.Sprintf("unknown type tag %q", p.Kind)}
	}
	switch p.Kind {
	case KindNumber:
		f, err := strconv.ParseFloat(p.Data, 64)
		if err != nil {
			return nil, &MalformedPairError{Reason: fmt.Sprintf("number %q does not parse", p.Data)}
		}
		return f, nil
	case KindBoolean:
		return p.Data == "true" || p.Data == "1", nil
	case KindString:
		return p.Data, nil
	case KindDate:
		return parseDate(p.Data), nil
	case KindObject:
		var m map[string]any
		if err := json.Unmarshal([]byte(p.Data), &m); err != nil {
			return nil, nil
		}
		return m, nil
	case KindArray:
		var a []any
		if err := json.Unmarshal([]byte(p.Data), &a); err != nil {
			return nil, nil
		}
		return a, nil
	}
	return nil, &MalformedPairError{Reason: fmt.Sprintf("unknown type tag %q", p.Kind)}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseDate(s string) time.Time {
	for _, layout := range dateParseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// normalize deep-copies value into the canonical in-memory representation:
// all numbers become float64, all sequences []any, all string-keyed maps
// map[string]any. It rejects anything that cannot be represented by the
// six storable kinds.
func normalize(value any) (any, error) {
	switch x := value.(type) {
	case nil:
		return nil, nil
	case bool, string, float64, time.Time:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, &UnsupportedTypeError{Type: "json.Number"}
		}
		return f, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			nv, err := normalize(v)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, v := range x {
			nv, err := normalize(v)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			nv, err := normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				nv, err := normalize(iter.Value().Interface())
				if err != nil {
					return nil, err
				}
				out[iter.Key().String()] = nv
			}
			return out, nil
		}
	}
	return nil, &UnsupportedTypeError{Type: fmt.Sprintf("%T", value)}
}
