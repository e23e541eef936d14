package db

import (
	"maps"

	"github.com/Laky-64/gologging"
	"github.com/disgoorg/snowflake/v2"
)

// toKey converts a guild id into a cache key.
func toKey(id snowflake.ID) string {
	return id.String()
}

// boolField reads a boolean out of a decoded document.
// Numbers are accepted because older documents may store flags as 0/1.
func boolField(doc map[string]interface{}, key string) (bool, bool) {
	v, ok := doc[key]
	if !ok || v == nil {
		return false, false
	}

	switch val := v.(type) {
	case bool:
		return val, true
	case int32:
		return val != 0, true
	case int64:
		return val != 0, true
	case int:
		return val != 0, true
	case float64:
		return val != 0, true
	default:
		gologging.WarnF("[DB] Unexpected type for %s: %T", key, v)
		return false, false
	}
}

// withField returns a copy of doc with key set to value. Cached documents are shared between
// goroutines and are never written in place.
func withField(doc map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc)+1)
	maps.Copy(out, doc)
	out[key] = value
	return out
}
