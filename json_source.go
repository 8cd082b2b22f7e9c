package confbind

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	ErrInvalidJSONDocument = errors.New("invalid JSON document")
)

// NewJSONSource flattens a JSON document into a property source. Object
// members become dotted elements, array entries become bracketed indices
// and every scalar is stored in its string form:
//
//	{"server": {"port": 8080, "hosts": ["a", "b"]}}
//
// yields server.port=8080, server.hosts[0]=a, server.hosts[1]=b.
// JSON nulls are skipped.
func NewJSONSource(name string, data []byte) (*MapSource, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("source %s: %w", name, ErrInvalidJSONDocument)
	}
	src := newMapSource(name)
	flattenJSON(src, RootName, gjson.ParseBytes(data))
	return src, nil
}

func flattenJSON(src *MapSource, name Name, value gjson.Result) {
	switch {
	case value.IsObject():
		value.ForEach(func(key, child gjson.Result) bool {
			flattenJSON(src, name.Append(key.String()), child)
			return true
		})
	case value.IsArray():
		index := 0
		value.ForEach(func(_, child gjson.Result) bool {
			flattenJSON(src, name.AppendIndex(index), child)
			index++
			return true
		})
	case value.Type == gjson.Null:
		// nothing to bind
	default:
		src.add(name, value.String())
	}
}
