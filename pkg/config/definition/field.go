package definition

import (
	"reflect"
	"slices"
)

// FieldDef declares one configuration field once for defaults, flags and env.
type FieldDef struct {
	Path      string       // config path like "api.base_url"
	Default   any          // default value
	CLIFlag   string       // CLI flag name like "base-url"
	Shorthand string       // single character shorthand like "u"
	EnvVar    string       // environment variable like "CLOUDMANAGER_API_BASE_URL"
	Type      reflect.Type // field type
	Help      string       // CLI help text
}

// Registry holds all configuration field definitions.
type Registry struct {
	fields map[string]FieldDef
}

func NewRegistry() *Registry {
	return &Registry{fields: make(map[string]FieldDef)}
}

func (r *Registry) Register(field *FieldDef) {
	r.fields[field.Path] = *field
}

func (r *Registry) GetField(path string) (FieldDef, bool) {
	field, ok := r.fields[path]
	return field, ok
}

// GetDefault returns the default value for path, or nil.
func (r *Registry) GetDefault(path string) any {
	if field, ok := r.fields[path]; ok {
		return field.Default
	}
	return nil
}

// Fields returns every field ordered by path.
func (r *Registry) Fields() []FieldDef {
	out := make([]FieldDef, 0, len(r.fields))
	for _, f := range r.fields {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b FieldDef) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return out
}

// GetCLIFlagMapping maps CLI flag names to config paths.
func (r *Registry) GetCLIFlagMapping() map[string]string {
	mapping := make(map[string]string)
	for path, field := range r.fields {
		if field.CLIFlag != "" {
			mapping[field.CLIFlag] = path
		}
	}
	return mapping
}
