package value

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Normalize converts a driver-level value into its printable form.
func Normalize(v any) any {
	switch v := v.(type) {
	case pgtype.Hstore:
		return hstoreToMap(v)
	case map[string]*string:
		return hstoreToMap(pgtype.Hstore(v))
	case [16]byte:
		return uuid.UUID(v).String()
	case pgtype.UUID:
		if !v.Valid {
			return nil
		}
		return uuid.UUID(v.Bytes).String()
	case pgtype.Numeric:
		return numericToNumber(v)
	default:
		return v
	}
}

// DecodeColumn decodes a value from a database/sql cursor using the column's
// database type name. Types the toolkit layer leaves as bytes or text
// (json, jsonb, hstore) are decoded; everything else goes through Normalize.
func DecodeColumn(typeName string, v any) any {
	typeName = strings.ToUpper(typeName)

	switch src := v.(type) {
	case []byte:
		if out, ok := decodeText(typeName, string(src)); ok {
			return out
		}
		return src
	case string:
		if out, ok := decodeText(typeName, src); ok {
			return out
		}
		return src
	}

	return Normalize(v)
}

func decodeText(typeName, s string) (any, bool) {
	switch {
	case typeName == "JSON" || typeName == "JSONB":
		return DecodeJSON([]byte(s)), true
	case typeName == "HSTORE":
		return DecodeHstore(s)
	case IsUnregisteredType(typeName) && strings.Contains(s, "=>"):
		return DecodeHstore(s)
	}
	return nil, false
}

// DecodeJSON decodes a JSON document keeping numbers exact. Invalid JSON is
// returned unchanged as a string.
func DecodeJSON(b []byte) any {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return string(b)
	}
	return out
}

// DecodeHstore parses the hstore text form ("k"=>"v", "n"=>NULL).
func DecodeHstore(s string) (map[string]any, bool) {
	// An empty hstore prints as the empty string; anything else has an arrow.
	if s != "" && !strings.Contains(s, "=>") {
		return nil, false
	}

	var h pgtype.Hstore
	if err := h.Scan(s); err != nil {
		return nil, false
	}
	return hstoreToMap(h), true
}

// IsUnregisteredType reports whether typeName is a bare OID, which is how
// pgx names extension types (such as hstore) it has no codec for.
func IsUnregisteredType(typeName string) bool {
	if typeName == "" {
		return false
	}
	for _, r := range typeName {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func hstoreToMap(h pgtype.Hstore) map[string]any {
	if h == nil {
		return nil
	}
	m := make(map[string]any, len(h))
	for k, v := range h {
		if v == nil {
			m[k] = nil
			continue
		}
		m[k] = *v
	}
	return m
}

func numericToNumber(n pgtype.Numeric) any {
	if !n.Valid {
		return nil
	}
	v, err := n.Value()
	if err != nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	if !json.Valid([]byte(s)) {
		// NaN and infinities have no JSON number form.
		return s
	}
	return json.Number(s)
}
