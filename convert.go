package confbind

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrConverterNotFound marks a value that no converter can handle. The
	// binder treats it specially: a direct property whose conversion fails
	// with this sentinel is retried as a structured object. Any other
	// conversion failure is final.
	ErrConverterNotFound = errors.New("no converter found for target type")
)

// ConversionError is the failure to convert one raw value to one target
// type. It wraps its cause, so errors.Is(err, ErrConverterNotFound)
// distinguishes "nobody can do this" from "the value is malformed".
type ConversionError struct {
	Value  any
	Target reflect.Type
	Cause  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %q to %s: %v", fmt.Sprint(e.Value), e.Target, e.Cause)
}

func (e *ConversionError) Unwrap() error {
	return e.Cause
}

func newConversionError(value any, target reflect.Type, cause error) error {
	return &ConversionError{Value: value, Target: target, Cause: cause}
}

///////////////////////////////////////////////////////////////////////////////
// Converter
///////////////////////////////////////////////////////////////////////////////

// ConverterFunc converts a raw string value to the given target type.
type ConverterFunc func(value string, target reflect.Type) (any, error)

// Converter turns raw property values into typed Go values.
//
// Currently supports:
//   - string, bool, all int/uint widths (with overflow checking), floats,
//     complex values
//   - time.Duration, time.Time (RFC 3339), uuid.UUID
//   - encoding.TextUnmarshaler implementations (value or pointer receiver)
//   - []byte (raw bytes) and comma-delimited slices/arrays of any
//     convertible element type
//   - pointer and interface{} targets
//   - caller-registered ConverterFuncs, which take precedence
//
// A Converter is safe for concurrent use: registration takes the write
// lock, conversion only ever reads.
type Converter struct {
	mu     sync.RWMutex
	custom map[reflect.Type]ConverterFunc
}

// sharedConverter is the process-wide default used by binders constructed
// without their own. Read-only after init unless a caller registers into
// it, which the RWMutex makes safe.
var sharedConverter = NewConverter()

func NewConverter() *Converter {
	return &Converter{custom: make(map[reflect.Type]ConverterFunc)}
}

// Register installs a custom conversion for an exact target type. Custom
// conversions win over the built-in ones.
func (c *Converter) Register(target reflect.Type, fn ConverterFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.custom[target] = fn
}

// Convert converts value to the target type. Values already assignable to
// the target pass through untouched; strings go through the built-in (or
// registered) conversions; anything else fails with ErrConverterNotFound
// as the cause.
func (c *Converter) Convert(value any, target reflect.Type) (any, error) {
	if value == nil {
		return nil, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(target) {
		return value, nil
	}
	if target.Kind() == reflect.Pointer && rv.Type().AssignableTo(target.Elem()) {
		pv := reflect.New(target.Elem())
		pv.Elem().Set(rv)
		return pv.Interface(), nil
	}

	if s, ok := value.(string); ok {
		return c.convertString(s, target)
	}

	// Numeric widening and similar kind-level conversions, for values that
	// arrive already typed (handler recovery values, existing instances).
	if rv.Type().ConvertibleTo(target) && isKindConvertible(rv.Kind(), target.Kind()) {
		return rv.Convert(target).Interface(), nil
	}

	return nil, newConversionError(value, target, ErrConverterNotFound)
}

func (c *Converter) convertString(s string, target reflect.Type) (any, error) {
	c.mu.RLock()
	fn, ok := c.custom[target]
	c.mu.RUnlock()
	if ok {
		converted, err := fn(s, target)
		if err != nil {
			return nil, newConversionError(s, target, err)
		}
		return converted, nil
	}

	switch target {
	case durationType:
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, newConversionError(s, target, err)
		}
		return d, nil
	case timeType:
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, newConversionError(s, target, err)
		}
		return t, nil
	case uuidType:
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, newConversionError(s, target, err)
		}
		return id, nil
	case byteSliceType:
		return []byte(s), nil
	}

	if unmarshaled, ok, err := convertTextUnmarshaler(s, target); ok {
		if err != nil {
			return nil, newConversionError(s, target, err)
		}
		return unmarshaled, nil
	}

	switch target.Kind() {
	case reflect.Pointer:
		elem, err := c.convertString(s, target.Elem())
		if err != nil {
			return nil, err
		}
		pv := reflect.New(target.Elem())
		pv.Elem().Set(reflect.ValueOf(elem))
		return pv.Interface(), nil
	case reflect.String:
		return reflect.ValueOf(s).Convert(target).Interface(), nil
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, newConversionError(s, target, err)
		}
		return reflect.ValueOf(b).Convert(target).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return convertInt(s, target)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return convertUint(s, target)
	case reflect.Float32, reflect.Float64:
		return convertFloat(s, target)
	case reflect.Complex64, reflect.Complex128:
		return convertComplex(s, target)
	case reflect.Slice:
		return c.convertSlice(s, target)
	case reflect.Array:
		return c.convertArray(s, target)
	case reflect.Interface:
		if target.NumMethod() == 0 {
			return s, nil
		}
		return nil, newConversionError(s, target, ErrConverterNotFound)
	default:
		// structs without TextUnmarshaler land here; the binder retries
		// them through object binding
		return nil, newConversionError(s, target, ErrConverterNotFound)
	}
}

func convertInt(s string, target reflect.Type) (any, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, newConversionError(s, target, err)
	}
	out := reflect.New(target).Elem()
	if out.OverflowInt(i) {
		return nil, newConversionError(s, target, fmt.Errorf("value %d overflows %s", i, target))
	}
	out.SetInt(i)
	return out.Interface(), nil
}

func convertUint(s string, target reflect.Type) (any, error) {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, newConversionError(s, target, err)
	}
	out := reflect.New(target).Elem()
	if out.OverflowUint(u) {
		return nil, newConversionError(s, target, fmt.Errorf("value %d overflows %s", u, target))
	}
	out.SetUint(u)
	return out.Interface(), nil
}

func convertFloat(s string, target reflect.Type) (any, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, newConversionError(s, target, err)
	}
	out := reflect.New(target).Elem()
	if out.OverflowFloat(f) {
		return nil, newConversionError(s, target, fmt.Errorf("value %g overflows %s", f, target))
	}
	out.SetFloat(f)
	return out.Interface(), nil
}

func convertComplex(s string, target reflect.Type) (any, error) {
	bits := 128
	if target.Kind() == reflect.Complex64 {
		bits = 64
	}
	cv, err := strconv.ParseComplex(s, bits)
	if err != nil {
		return nil, newConversionError(s, target, err)
	}
	out := reflect.New(target).Elem()
	out.SetComplex(cv)
	return out.Interface(), nil
}

// convertSlice converts a comma-delimited scalar into a slice.
func (c *Converter) convertSlice(s string, target reflect.Type) (any, error) {
	parts := splitCommaList(s)
	out := reflect.MakeSlice(target, len(parts), len(parts))
	for i, part := range parts {
		elem, err := c.convertString(part, target.Elem())
		if err != nil {
			return nil, err
		}
		out.Index(i).Set(reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}

func (c *Converter) convertArray(s string, target reflect.Type) (any, error) {
	parts := splitCommaList(s)
	if len(parts) > target.Len() {
		return nil, newConversionError(s, target,
			fmt.Errorf("%d elements exceed array length %d", len(parts), target.Len()))
	}
	out := reflect.New(target).Elem()
	for i, part := range parts {
		elem, err := c.convertString(part, target.Elem())
		if err != nil {
			return nil, err
		}
		out.Index(i).Set(reflect.ValueOf(elem))
	}
	return out.Interface(), nil
}

// convertTextUnmarshaler reports whether the target implements
// encoding.TextUnmarshaler and, if so, converts through it.
func convertTextUnmarshaler(s string, target reflect.Type) (any, bool, error) {
	if !reflect.PointerTo(target).Implements(textUnmarshalerType) {
		return nil, false, nil
	}
	pv := reflect.New(target)
	if err := pv.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return nil, true, err
	}
	return pv.Elem().Interface(), true, nil
}

func splitCommaList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		parts = append(parts, strings.TrimSpace(p))
	}
	return parts
}

// isKindConvertible limits reflect's ConvertibleTo to the numeric and
// string conversions that never lose meaning silently.
func isKindConvertible(from, to reflect.Kind) bool {
	numeric := func(k reflect.Kind) bool {
		return k >= reflect.Int && k <= reflect.Float64
	}
	if numeric(from) && numeric(to) {
		return true
	}
	return from == reflect.String && to == reflect.String
}

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	timeType            = reflect.TypeOf(time.Time{})
	uuidType            = reflect.TypeOf(uuid.UUID{})
	byteSliceType       = reflect.TypeOf([]byte(nil))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)
