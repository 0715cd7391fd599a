// Package catalog loads model definitions from YAML and builds a registry
// of models from them.
//
// A catalog file looks like:
//
//	eventBus: entries
//	models:
//	  - name: user
//	    table: users
//	    indexes: [email-index]
//	  - name: organization
//	    table: organizations
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jacentio/entrymodel/model"
)

// File is the root of a catalog file.
type File struct {
	// EventBus, when set, is the EventBridge bus model events are published to.
	EventBus string       `yaml:"eventBus"`
	Models   []Definition `yaml:"models" validate:"required,min=1,dive"`
}

// Definition describes one model.
type Definition struct {
	Name    string   `yaml:"name" validate:"required"`
	Table   string   `yaml:"table" validate:"required,min=3,max=255"`
	Indexes []string `yaml:"indexes" validate:"dive,required"`
}

var validate = validator.New()

// Load reads and validates a catalog file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks field rules and that model names and tables are unique.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			msgs := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid catalog: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid catalog: %w", err)
	}

	names := make(map[string]bool, len(f.Models))
	tables := make(map[string]bool, len(f.Models))
	for _, d := range f.Models {
		if names[d.Name] {
			return fmt.Errorf("invalid catalog: duplicate model %q", d.Name)
		}
		if tables[d.Table] {
			return fmt.Errorf("invalid catalog: table %q used by more than one model", d.Table)
		}
		names[d.Name] = true
		tables[d.Table] = true
	}
	return nil
}

// Build creates one model per definition, all sharing client and callback.
func (f *File) Build(client model.Client, callback model.Callback) (*model.Registry, error) {
	r := model.NewRegistry()
	for _, d := range f.Models {
		m := model.New(client, model.Config{
			ModelName: d.Name,
			TableName: d.Table,
			Callback:  callback,
		})
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Lookup returns the definition with the given model name.
func (f *File) Lookup(name string) (Definition, bool) {
	for _, d := range f.Models {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}
