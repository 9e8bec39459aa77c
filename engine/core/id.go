package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID identifies a resource item within its collection.
// Numeric ids are kept in canonical decimal form so "23" and 23 address the same item.
type ID string

// IDKind declares how ids of a resource are typed.
type IDKind string

const (
	IDKindInt    IDKind = "int"
	IDKindString IDKind = "string"
)

func (id ID) String() string {
	return string(id)
}

// Int returns the numeric value of id when it is an integer id.
func (id ID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (id ID) IsZero() bool {
	return id == ""
}

// IntID builds an ID from an integer.
func IntID(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// ParseIntIfActualInt canonicalizes raw when it parses as an integer and
// returns it unchanged otherwise, so slugs such as "us-east-1" pass through.
func ParseIntIfActualInt(raw string) ID {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return ID(raw)
	}
	return IntID(n)
}

// NormalizeID coerces id according to kind. String ids are never rewritten.
func NormalizeID(kind IDKind, id ID) ID {
	if kind == IDKindString {
		return id
	}
	return ParseIntIfActualInt(string(id))
}

// IDFromValue converts a decoded JSON value into an ID.
func IDFromValue(kind IDKind, v any) (ID, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case ID:
		return NormalizeID(kind, t), t != ""
	case string:
		return NormalizeID(kind, ID(t)), t != ""
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return ID(strconv.FormatFloat(t, 'f', -1, 64)), true
		}
		return IntID(int64(t)), true
	case float32:
		return IDFromValue(kind, float64(t))
	case int:
		return IntID(int64(t)), true
	case int32:
		return IntID(int64(t)), true
	case int64:
		return IntID(t), true
	case uint:
		return ID(strconv.FormatUint(uint64(t), 10)), true
	case uint64:
		return ID(strconv.FormatUint(t, 10)), true
	case json.Number:
		return NormalizeID(kind, ID(t.String())), true
	default:
		return ID(fmt.Sprint(t)), true
	}
}

// CompareIDs orders ids numerically when both are integers and lexically otherwise.
func CompareIDs(a, b ID) int {
	an, aok := a.Int()
	bn, bok := b.Int()
	switch {
	case aok && bok:
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	case aok:
		return -1
	case bok:
		return 1
	}
	return strings.Compare(string(a), string(b))
}
