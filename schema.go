package askql

// Column is a single column definition inside a table snapshot.
type Column struct {
	Name         string `json:"name" yaml:"name"`                           // Column name
	DataType     string `json:"dataType" yaml:"dataType"`                   // Engine-reported type
	Nullable     bool   `json:"nullable" yaml:"nullable"`                   // Is nullable
	DefaultValue string `json:"defaultValue,omitempty" yaml:"defaultValue"` // Default value (optional)
	IsPrimaryKey bool   `json:"isPrimaryKey" yaml:"isPrimaryKey"`           // Is part of the primary key
}

// ForeignKey is a directed single-column foreign-key edge. Multi-column keys
// are not modeled; only the first constrained/referred column pair is kept.
type ForeignKey struct {
	FromTable  string `json:"fromTable" yaml:"fromTable"`
	FromColumn string `json:"fromColumn" yaml:"fromColumn"`
	ToTable    string `json:"toTable" yaml:"toTable"`
	ToColumn   string `json:"toColumn" yaml:"toColumn"`
}

// Index is a single index definition.
type Index struct {
	Name     string   `json:"name" yaml:"name"`
	Columns  []string `json:"columns" yaml:"columns"`
	IsUnique bool     `json:"isUnique" yaml:"isUnique"`
}

// Table is one table inside a snapshot. Columns keep catalog order.
type Table struct {
	Name        string       `json:"name" yaml:"name"`
	Columns     []Column     `json:"columns" yaml:"columns"`
	PrimaryKeys []string     `json:"primaryKeys,omitempty" yaml:"primaryKeys"`
	ForeignKeys []ForeignKey `json:"foreignKeys,omitempty" yaml:"foreignKeys"`
	Indexes     []Index      `json:"indexes,omitempty" yaml:"indexes"`
}

// ColumnNames returns the column names in catalog order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	for _, col := range t.Columns {
		if col.Name == name {
			return true
		}
	}
	return false
}

// DatabaseInfo describes the engine a snapshot was taken from.
type DatabaseInfo struct {
	Type    string `json:"type" yaml:"type"`
	Version string `json:"version" yaml:"version"`
	Name    string `json:"name" yaml:"name"`
}

// Snapshot is a read-only copy of the database metadata catalog taken at
// startup: tables, ordered columns, primary keys, single-column foreign-key
// edges, and indexes. It is built once per pipeline instance and must not be
// mutated afterwards.
type Snapshot struct {
	DatabaseInfo DatabaseInfo `json:"databaseInfo" yaml:"databaseInfo"`
	Tables       []*Table     `json:"tables" yaml:"tables"`

	byName map[string]*Table
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot(info DatabaseInfo) *Snapshot {
	return &Snapshot{
		DatabaseInfo: info,
		byName:       make(map[string]*Table),
	}
}

// AddTable appends a table. Only used while the snapshot is being built.
func (s *Snapshot) AddTable(t *Table) {
	if s.byName == nil {
		s.byName = make(map[string]*Table)
	}
	if _, exists := s.byName[t.Name]; exists {
		return
	}
	s.Tables = append(s.Tables, t)
	s.byName[t.Name] = t
}

// TableNames returns table names in catalog order.
func (s *Snapshot) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// Table looks up a table by name.
func (s *Snapshot) Table(name string) (*Table, bool) {
	s.reindex()
	t, ok := s.byName[name]
	return t, ok
}

// HasTable reports whether the snapshot contains the table.
func (s *Snapshot) HasTable(name string) bool {
	_, ok := s.Table(name)
	return ok
}

// HasColumn reports whether table.column exists in the snapshot.
func (s *Snapshot) HasColumn(table, column string) bool {
	t, ok := s.Table(table)
	if !ok {
		return false
	}
	return t.HasColumn(column)
}

// QualifyingTable returns the first table in candidate order whose schema
// contains the column. When the column name exists in two candidate tables the
// first one wins; the ambiguity is deliberate and follows candidate order.
func (s *Snapshot) QualifyingTable(column string, candidates []string) (string, bool) {
	for _, name := range candidates {
		if s.HasColumn(name, column) {
			return name, true
		}
	}
	return "", false
}

// reindex rebuilds the lookup map after YAML/JSON deserialization.
func (s *Snapshot) reindex() {
	if s.byName != nil && len(s.byName) == len(s.Tables) {
		return
	}
	s.byName = make(map[string]*Table, len(s.Tables))
	for _, t := range s.Tables {
		s.byName[t.Name] = t
	}
}
