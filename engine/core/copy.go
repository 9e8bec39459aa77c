package core

import (
	"fmt"

	"github.com/mohae/deepcopy"
)

// deepCopyObject returns a deep copy of the provided object.
func deepCopyObject(m Object) (Object, error) {
	copiedInterface := deepcopy.Copy(m)
	copied, ok := copiedInterface.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to copy object")
	}
	return copied, nil
}

// DeepCopy creates a deep copy of the supplied value.
// Objects keep their map type; nil objects stay nil.
// Every other value goes through deepcopy.Copy.
func DeepCopy[T any](v T) (T, error) {
	var zero T
	if src, ok := any(v).(map[string]any); ok {
		if src == nil {
			return zero, nil
		}
		copied, err := deepCopyObject(src)
		if err != nil {
			return zero, err
		}
		result, ok := any(copied).(T)
		if !ok {
			return zero, fmt.Errorf("failed to cast object to type %T", zero)
		}
		return result, nil
	}
	copied := deepcopy.Copy(v)
	result, ok := copied.(T)
	if !ok {
		return zero, fmt.Errorf("failed to cast copied value to type %T", zero)
	}
	return result, nil
}

// MustDeepCopy is DeepCopy for values whose type is known to be copyable.
func MustDeepCopy[T any](v T) T {
	out, err := DeepCopy(v)
	if err != nil {
		panic(err)
	}
	return out
}
