package core

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Object is a decoded API object. Keys prefixed with "_" are local bookkeeping.
type Object = map[string]any

// MergeObjects shallow-merges src over dst into a new object.
func MergeObjects(dst, src Object) Object {
	out := make(Object, len(dst)+len(src))
	maps.Copy(out, dst)
	maps.Copy(out, src)
	return out
}

// DecodeObject decodes a JSON object body.
func DecodeObject(data []byte) (Object, error) {
	var obj Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode object: %w", err)
	}
	if obj == nil {
		obj = Object{}
	}
	return obj, nil
}

// IsLocalKey reports whether key is a local bookkeeping key.
func IsLocalKey(key string) bool {
	return strings.HasPrefix(key, "_")
}
