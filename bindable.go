package confbind

import (
	"reflect"
)

///////////////////////////////////////////////////////////////////////////////
// Shape
///////////////////////////////////////////////////////////////////////////////

// Shape classifies a bind target by structure. The binder computes the
// shape once per type (cached) and routes each shape to a dedicated
// binding path; new shapes extend this tag set rather than adding type
// switches at the call sites.
type Shape uint8

const (
	ShapeScalar Shape = iota
	ShapeMapping
	ShapeSequence
	ShapeArray
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeMapping:
		return "mapping"
	case ShapeSequence:
		return "sequence"
	case ShapeArray:
		return "array"
	case ShapeObject:
		return "object"
	default:
		return "invalid"
	}
}

///////////////////////////////////////////////////////////////////////////////
// Bindable
///////////////////////////////////////////////////////////////////////////////

// Bindable describes one bind target: the type to construct, an optional
// existing value to start from, and the policy flags the handler list is
// built from. Immutable per bind call; the With* methods return copies.
//
// Struct fields bind by their Go name (element folding makes FieldName
// match field-name and field_name keys); a `conf:"..."` tag overrides the
// element and `conf:"-"` skips the field.
type Bindable struct {
	// Type is the target type.
	Type reflect.Type
	// Value optionally holds an existing instance whose fields act as
	// defaults. Invalid (zero) when binding starts from scratch.
	Value reflect.Value
	// IgnoreUnknownFields tolerates source keys under the prefix that no
	// target field consumes. On by default.
	IgnoreUnknownFields bool
	// IgnoreInvalidFields swallows per-field conversion failures instead
	// of failing the whole object. Off by default.
	IgnoreInvalidFields bool
	// Validators run against the bound object at the end of a successful
	// top-level bind. Violations always fail the bind.
	Validators []Validator
}

// BindableOf describes a target of the given type with default policy.
func BindableOf(t reflect.Type) Bindable {
	return Bindable{Type: t, IgnoreUnknownFields: true}
}

// BindableFor is BindableOf for a compile-time type.
func BindableFor[T any]() Bindable {
	return BindableOf(reflect.TypeOf((*T)(nil)).Elem())
}

// WithExisting returns a copy whose bind starts from the given instance
// instead of a zero value. Pass the instance itself or a pointer to it.
func (b Bindable) WithExisting(instance any) Bindable {
	b.Value = reflect.ValueOf(instance)
	return b
}

// WithIgnoreUnknownFields returns a copy with unknown-key tolerance set.
func (b Bindable) WithIgnoreUnknownFields(ignore bool) Bindable {
	b.IgnoreUnknownFields = ignore
	return b
}

// WithIgnoreInvalidFields returns a copy with per-field conversion-error
// tolerance set.
func (b Bindable) WithIgnoreInvalidFields(ignore bool) Bindable {
	b.IgnoreInvalidFields = ignore
	return b
}

// WithValidators returns a copy with additional validators.
func (b Bindable) WithValidators(validators ...Validator) Bindable {
	combined := make([]Validator, 0, len(b.Validators)+len(validators))
	combined = append(combined, b.Validators...)
	combined = append(combined, validators...)
	b.Validators = combined
	return b
}

// Shape returns the cached shape classification of the target type.
func (b Bindable) Shape() Shape {
	return planFor(b.Type).shape
}
