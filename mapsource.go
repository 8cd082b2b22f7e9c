package confbind

import (
	"fmt"
	"sort"
)

var (
	_ PropertySource = (*MapSource)(nil)
	_ IterableSource = (*MapSource)(nil)
)

// MapSource is the canonical in-memory IterableSource. All the document
// and environment backed sources (JSON, YAML, dotenv, env) flatten into
// one of these.
type MapSource struct {
	name    string
	entries map[string]*ConfigurationProperty // canonical key -> property
	names   []Name                            // stable enumeration order
}

// NewMapSource builds a source from a flat key-value map. Keys are dotted
// property names and may use bracketed indices ("hosts[0].name"). Keys are
// iterated in sorted order so enumeration is deterministic.
func NewMapSource(name string, values map[string]string) (*MapSource, error) {
	src := newMapSource(name)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		pn, err := ParseName(k)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", name, err)
		}
		src.add(pn, values[k])
	}
	return src, nil
}

func newMapSource(name string) *MapSource {
	return &MapSource{
		name:    name,
		entries: make(map[string]*ConfigurationProperty),
	}
}

// add records one property. Later additions of the same logical name
// overwrite earlier ones.
func (s *MapSource) add(name Name, value string) {
	key := name.canonicalKey()
	if _, exists := s.entries[key]; !exists {
		s.names = append(s.names, name)
	}
	s.entries[key] = &ConfigurationProperty{
		Name:   name,
		Value:  value,
		Origin: fmt.Sprintf("%s:%s", s.name, name.String()),
	}
}

// Name implements PropertySource.
func (s *MapSource) Name() string {
	return s.name
}

// Property implements PropertySource.
func (s *MapSource) Property(name Name) *ConfigurationProperty {
	return s.entries[name.canonicalKey()]
}

// ContainsDescendantOf implements PropertySource.
func (s *MapSource) ContainsDescendantOf(name Name) SourceState {
	for _, pn := range s.names {
		if name.IsAncestorOf(pn) {
			return StatePresent
		}
	}
	return StateAbsent
}

// PropertyNames implements IterableSource.
func (s *MapSource) PropertyNames() []Name {
	names := make([]Name, len(s.names))
	copy(names, s.names)
	return names
}

// Len returns the number of properties in the source.
func (s *MapSource) Len() int {
	return len(s.entries)
}
