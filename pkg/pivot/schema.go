package pivot

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Hidden column suffixes. Field ids may not contain "__".
const (
	RefIDSuffix  = "__id"
	WeightSuffix = "__n"

	defaultRefKeyColumn = "id"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// FieldDef is one reportable column of a data source
type FieldDef struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Type             ValueType `json:"value_type"`
	DBColumn         string    `json:"db_column"`
	SourceTable      string    `json:"source_table"`
	RefTable         string    `json:"ref_table,omitempty"`
	RefKeyColumn     string    `json:"ref_key_column,omitempty"`
	RefDisplayColumn string    `json:"ref_display_column,omitempty"`
	CanGroup         bool      `json:"can_group"`
	CanAggregate     bool      `json:"can_aggregate"`
}

// IsRef reports whether the field is a foreign key displayed through a joined label
func (f *FieldDef) IsRef() bool {
	return f.RefTable != ""
}

// DataSourceSchema is an ordered, named set of fields over one source table
type DataSourceSchema struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Table  string     `json:"table"`
	Fields []FieldDef `json:"fields"`
}

// Field looks up a field by id
func (s *DataSourceSchema) Field(id string) (*FieldDef, bool) {
	for i := range s.Fields {
		if s.Fields[i].ID == id {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// normalized returns a validated copy with defaults filled in
func (s DataSourceSchema) normalized() (*DataSourceSchema, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("schema id is required")
	}
	if !identRe.MatchString(s.Table) {
		return nil, fmt.Errorf("schema %s: invalid table name %q", s.ID, s.Table)
	}
	if len(s.Fields) == 0 {
		return nil, fmt.Errorf("schema %s: at least one field is required", s.ID)
	}

	out := s
	if out.Name == "" {
		out.Name = humanize(out.ID)
	}
	out.Fields = make([]FieldDef, len(s.Fields))
	seen := make(map[string]bool, len(s.Fields))

	for i, f := range s.Fields {
		if !identRe.MatchString(f.ID) || strings.Contains(f.ID, "__") {
			return nil, fmt.Errorf("schema %s: invalid field id %q", s.ID, f.ID)
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("schema %s: duplicate field id %q", s.ID, f.ID)
		}
		seen[f.ID] = true

		if f.DBColumn == "" {
			f.DBColumn = f.ID
		}
		if !identRe.MatchString(f.DBColumn) {
			return nil, fmt.Errorf("schema %s: field %s: invalid column %q", s.ID, f.ID, f.DBColumn)
		}
		if f.SourceTable == "" {
			f.SourceTable = s.Table
		}
		// Multi-table sources are not supported yet; every field lives on the schema table.
		if f.SourceTable != s.Table {
			return nil, fmt.Errorf("schema %s: field %s: source table %q differs from %q", s.ID, f.ID, f.SourceTable, s.Table)
		}
		if f.Name == "" {
			f.Name = humanize(f.ID)
		}

		if f.Type.Kind == KindRef && f.RefTable == "" {
			f.RefTable = f.Type.RefTable
		}
		if f.RefTable != "" {
			if f.Type.Kind != KindRef || f.Type.RefTable != f.RefTable {
				return nil, fmt.Errorf("schema %s: field %s: ref table %q requires value type ref(%s)", s.ID, f.ID, f.RefTable, f.RefTable)
			}
			if f.RefKeyColumn == "" {
				f.RefKeyColumn = defaultRefKeyColumn
			}
			if !identRe.MatchString(f.RefTable) || !identRe.MatchString(f.RefKeyColumn) || !identRe.MatchString(f.RefDisplayColumn) {
				return nil, fmt.Errorf("schema %s: field %s: invalid reference %s.%s/%s", s.ID, f.ID, f.RefTable, f.RefKeyColumn, f.RefDisplayColumn)
			}
		}
		if !f.Type.Valid() {
			return nil, fmt.Errorf("schema %s: field %s: invalid value type %s", s.ID, f.ID, f.Type)
		}
		out.Fields[i] = f
	}
	return &out, nil
}

func humanize(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}

// Registry holds the data sources known to the application.
// Schemas are registered at startup and only read afterwards.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*DataSourceSchema
	order   []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*DataSourceSchema)}
}

// Register validates a schema and adds it to the registry
func (r *Registry) Register(schema DataSourceSchema) error {
	normalized, err := schema.normalized()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[normalized.ID]; exists {
		return fmt.Errorf("data source %s is already registered", normalized.ID)
	}
	r.schemas[normalized.ID] = normalized
	r.order = append(r.order, normalized.ID)
	return nil
}

// Get returns a registered schema by id
func (r *Registry) Get(id string) (*DataSourceSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[id]
	return s, ok
}

// List returns all schemas in registration order
func (r *Registry) List() []*DataSourceSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*DataSourceSchema, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.schemas[id])
	}
	return out
}
