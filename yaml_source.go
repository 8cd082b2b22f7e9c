package confbind

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// NewYAMLSource flattens a YAML document into a property source using the
// same naming scheme as NewJSONSource: mapping keys become dotted
// elements, sequence entries become bracketed indices.
func NewYAMLSource(name string, data []byte) (*MapSource, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("source %s: %w", name, err)
	}
	src := newMapSource(name)
	if err := flattenYAML(src, RootName, root); err != nil {
		return nil, fmt.Errorf("source %s: %w", name, err)
	}
	return src, nil
}

func flattenYAML(src *MapSource, name Name, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		for _, key := range sortedKeys(v) {
			if err := flattenYAML(src, name.Append(key), v[key]); err != nil {
				return err
			}
		}
		return nil
	case map[any]any:
		byKey := make(map[string]any, len(v))
		for key, child := range v {
			byKey[fmt.Sprint(key)] = child
		}
		for _, key := range sortedKeys(byKey) {
			if err := flattenYAML(src, name.Append(key), byKey[key]); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, child := range v {
			if err := flattenYAML(src, name.AppendIndex(i), child); err != nil {
				return err
			}
		}
		return nil
	default:
		src.add(name, fmt.Sprint(v))
		return nil
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
