package adapters

import (
	"fmt"
	"strings"
	"time"
)

// NormalizeValue converts a fetched value into a transport-safe primitive:
// timestamps become RFC 3339 strings, binary blobs become text with
// undecodable bytes replaced, and any other non-primitive value becomes its
// string representation.
func NormalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case []byte:
		return strings.ToValidUTF8(string(val), "�")
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = NormalizeValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = NormalizeValue(item)
		}
		return out
	default:
		return fmt.Sprintf("%v", val)
	}
}
