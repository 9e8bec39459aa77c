package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/linode/cloudmanager/engine/core"
	"github.com/linode/cloudmanager/engine/resource"
)

// printJSON writes v as indented JSON, colored when requested.
func printJSON(w io.Writer, v any, color bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	data = pretty.Pretty(data)
	if color {
		data = pretty.Color(data, nil)
	}
	_, err = w.Write(data)
	return err
}

// fieldFilter projects objects onto gjson paths such as "id" or "specs.memory".
// Objects without any of the fields are dropped.
func fieldFilter(fields []string) resource.Filter {
	if len(fields) == 0 {
		return nil
	}
	return func(obj core.Object) core.Object {
		data, err := json.Marshal(obj)
		if err != nil {
			return nil
		}
		out := core.Object{}
		for _, f := range fields {
			r := gjson.GetBytes(data, f)
			if r.Exists() {
				out[f] = r.Value()
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
}

// fieldEquals reports whether the gjson path of obj renders as want.
func fieldEquals(obj core.Object, path, want string) bool {
	data, err := json.Marshal(obj)
	if err != nil {
		return false
	}
	r := gjson.GetBytes(data, path)
	return r.Exists() && r.String() == want
}

// readBody parses a JSON object given inline or as @file.
func readBody(raw string) (core.Object, error) {
	if raw == "" {
		return core.Object{}, nil
	}
	data := []byte(raw)
	if strings.HasPrefix(raw, "@") {
		var err error
		if data, err = os.ReadFile(raw[1:]); err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, NewCliError("INVALID_BODY", "Body must be a JSON object")
	}
	return core.DecodeObject(data)
}
