package confbind

import (
	"encoding"
	"fmt"
	"reflect"
	"time"
)

// Flatten serializes a bound object back into the flat key-value form the
// binder consumes: nested structs become dotted elements, slices and
// arrays become bracketed indices, map entries keep their raw keys. Struct
// fields honor the same `conf` tags as binding, and zero-valued fields are
// omitted, so binding a flattened map reproduces the object.
func Flatten(prefix string, value any) (map[string]string, error) {
	name, err := ParseName(prefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	if err := flattenValue(name, reflect.ValueOf(value), out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenValue(name Name, v reflect.Value, out map[string]string) error {
	v = derefValue(v)
	if !v.IsValid() {
		return nil
	}

	switch v.Type() {
	case timeType:
		out[name.String()] = v.Interface().(time.Time).Format(time.RFC3339)
		return nil
	case durationType:
		out[name.String()] = v.Interface().(time.Duration).String()
		return nil
	case byteSliceType:
		out[name.String()] = string(v.Bytes())
		return nil
	}
	if v.Type().Implements(textMarshalerType) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return fmt.Errorf("flattening %q: %w", name.String(), err)
		}
		out[name.String()] = string(text)
		return nil
	}

	switch v.Kind() {
	case reflect.Struct:
		plan := planFor(v.Type())
		for _, field := range plan.fields {
			fv := v.Field(field.index)
			if fv.IsZero() {
				continue
			}
			if err := flattenValue(name.Append(field.name), fv, out); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			if err := flattenValue(name.Append(key), iter.Value(), out); err != nil {
				return err
			}
		}
		return nil
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := flattenValue(name.AppendIndex(i), v.Index(i), out); err != nil {
				return err
			}
		}
		return nil
	case reflect.Interface:
		return flattenValue(name, v.Elem(), out)
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		out[name.String()] = fmt.Sprint(v.Interface())
		return nil
	default:
		return fmt.Errorf("cannot flatten %s at %q", v.Type(), name.String())
	}
}
