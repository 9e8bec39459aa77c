// Package catalog declares the resources of the Linode API as YAML and loads
// them into a resource tree.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/linode/cloudmanager/engine/resource"
)

//go:embed linode.yaml
var linodeYAML []byte

// File is the document layout of a catalog.
type File struct {
	Resources []*resource.Schema `yaml:"resources" validate:"required,min=1,dive,required"`
}

var resourceNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func newValidator() *validator.Validate {
	v := validator.New()
	// registering a fixed, valid tag cannot fail
	_ = v.RegisterValidation("resource_name", func(fl validator.FieldLevel) bool {
		return resourceNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// Load returns the tree of the built-in Linode catalog.
func Load() (*resource.Tree, error) {
	return Parse(linodeYAML)
}

// MustLoad is Load for program initialization.
func MustLoad() *resource.Tree {
	tree, err := Load()
	if err != nil {
		panic(err)
	}
	return tree
}

// LoadFile parses the catalog at path.
func LoadFile(path string) (*resource.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes, validates and builds a catalog. Unknown fields are rejected.
func Parse(data []byte) (*resource.Tree, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(f); err != nil {
		return nil, err
	}
	tree, err := resource.NewTree(f.Resources...)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	return tree, nil
}

// Decode parses data without validating it.
func Decode(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &f, nil
}

func Validate(f *File) error {
	if err := newValidator().Struct(f); err != nil {
		return fmt.Errorf("%w: %w", resource.ErrInvalidSchema, err)
	}
	return nil
}

// Source returns the embedded catalog document.
func Source() []byte {
	return bytes.Clone(linodeYAML)
}
