package model

import "fmt"

// Registry holds the models known to a process, indexed by model name and
// by table name.
type Registry struct {
	models  []*EntryModel
	byName  map[string]*EntryModel
	byTable map[string]*EntryModel
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		models:  []*EntryModel{},
		byName:  make(map[string]*EntryModel),
		byTable: make(map[string]*EntryModel),
	}
}

// Register adds a model to the registry.
// Model names and table names must be unique within a registry.
func (r *Registry) Register(m *EntryModel) error {
	if err := m.config.validate(); err != nil {
		return err
	}
	if _, ok := r.byName[m.ModelName()]; ok {
		return fmt.Errorf("entrymodel: model %q already registered", m.ModelName())
	}
	if other, ok := r.byTable[m.TableName()]; ok {
		return fmt.Errorf("entrymodel: table %q already bound to model %q", m.TableName(), other.ModelName())
	}

	r.models = append(r.models, m)
	r.byName[m.ModelName()] = m
	r.byTable[m.TableName()] = m
	return nil
}

// Lookup returns the model registered under name.
func (r *Registry) Lookup(name string) (*EntryModel, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// ByTable returns the model bound to the given table.
func (r *Registry) ByTable(table string) (*EntryModel, bool) {
	m, ok := r.byTable[table]
	return m, ok
}

// Models returns all registered models in registration order.
func (r *Registry) Models() []*EntryModel {
	return r.models
}
