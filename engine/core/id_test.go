package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntIfActualInt(t *testing.T) {
	t.Run("Should return unmodified arg if arg is not a number", func(t *testing.T) {
		assert.Equal(t, ID("self"), ParseIntIfActualInt("self"))
		assert.Equal(t, ID("Andrew is number 1"), ParseIntIfActualInt("Andrew is number 1"))
	})
	t.Run("Should canonicalize integer strings", func(t *testing.T) {
		assert.Equal(t, ID("1"), ParseIntIfActualInt("1"))
		assert.Equal(t, ID("23"), ParseIntIfActualInt("023"))
	})
}

func TestNormalizeID(t *testing.T) {
	t.Run("Should leave string ids untouched", func(t *testing.T) {
		assert.Equal(t, ID("007"), NormalizeID(IDKindString, "007"))
	})
	t.Run("Should coerce int ids", func(t *testing.T) {
		assert.Equal(t, ID("7"), NormalizeID(IDKindInt, "007"))
	})
}

func TestIDFromValue(t *testing.T) {
	testCases := []struct {
		name  string
		kind  IDKind
		value any
		want  ID
		ok    bool
	}{
		{"float64 from JSON", IDKindInt, float64(23), "23", true},
		{"json number", IDKindInt, json.Number("42"), "42", true},
		{"string slug", IDKindString, "us-east-1", "us-east-1", true},
		{"int", IDKindInt, 5, "5", true},
		{"nil", IDKindInt, nil, "", false},
		{"empty string", IDKindInt, "", "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := IDFromValue(tc.kind, tc.value)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompareIDs(t *testing.T) {
	t.Run("Should order numeric ids numerically", func(t *testing.T) {
		assert.Equal(t, -1, CompareIDs("9", "10"))
		assert.Equal(t, 1, CompareIDs("10", "9"))
		assert.Equal(t, 0, CompareIDs("10", "10"))
	})
	t.Run("Should place numeric ids before slugs", func(t *testing.T) {
		assert.Equal(t, -1, CompareIDs("1", "a"))
		assert.Equal(t, -1, CompareIDs("a", "b"))
	})
}
