package confbind

import (
	"errors"
	"fmt"
	"reflect"
)

///////////////////////////////////////////////////////////////////////////////
// Errors
///////////////////////////////////////////////////////////////////////////////

// BindError is the terminal failure of one top-level bind. It carries the
// name being bound, the target description, the last property resolved
// before the failure (nil when none was) and the root cause.
type BindError struct {
	Name     Name
	Target   Bindable
	Property *ConfigurationProperty
	Cause    error
}

func (e *BindError) Error() string {
	if e.Property != nil {
		return fmt.Sprintf("failed to bind %q (from %s) to %s: %v",
			e.Name.String(), e.Property.Origin, e.Target.Type, e.Cause)
	}
	return fmt.Sprintf("failed to bind %q to %s: %v", e.Name.String(), e.Target.Type, e.Cause)
}

func (e *BindError) Unwrap() error {
	return e.Cause
}

///////////////////////////////////////////////////////////////////////////////
// Binder
///////////////////////////////////////////////////////////////////////////////

// Binder binds values from an ordered chain of property sources. The
// chain, the placeholder resolver and the converter are read-only once the
// Binder is built, so a single Binder may serve concurrent top-level binds;
// each call constructs its own BindContext.
type Binder struct {
	sources   []PropertySource
	resolver  PlaceholderResolver
	converter *Converter
}

// Option configures a Binder.
type Option func(*Binder)

// WithPlaceholderResolver replaces the default resolver, which substitutes
// ${...} references against the binder's own source chain.
func WithPlaceholderResolver(r PlaceholderResolver) Option {
	return func(b *Binder) { b.resolver = r }
}

// WithConverter replaces the shared process-wide converter.
func WithConverter(c *Converter) Option {
	return func(b *Binder) { b.converter = c }
}

// New creates a Binder over the given source chain. Sources are searched
// in order and the first source defining a key wins.
func New(sources []PropertySource, opts ...Option) *Binder {
	b := &Binder{
		sources:   sources,
		converter: sharedConverter,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.resolver == nil {
		b.resolver = NewSourcePlaceholderResolver(sources...)
	}
	return b
}

// BindResult is the outcome of a top-level bind. Bound is false when the
// namespace held nothing to bind, which is not an error.
type BindResult struct {
	Value any
	Bound bool
}

// Bind binds the named configuration subsection onto the target. Extra
// handlers, if any, run before the policy handlers derived from the
// target's flags.
func (b *Binder) Bind(name string, target Bindable, extra ...BindHandler) (BindResult, error) {
	n, err := ParseName(name)
	if err != nil {
		return BindResult{}, err
	}
	return b.BindName(n, target, extra...)
}

// BindName is Bind for an already-parsed name.
func (b *Binder) BindName(name Name, target Bindable, extra ...BindHandler) (BindResult, error) {
	ctx := newBindContext(b)
	chain := newHandlerList(target, extra)
	value, err := b.bind(name, target, chain, ctx, false)
	if err != nil {
		return BindResult{}, err
	}
	return BindResult{Value: value, Bound: value != nil}, nil
}

// Bind is the generic convenience entry: it binds the named subsection to
// a fresh T. The second return reports whether anything was bound.
func Bind[T any](b *Binder, name string, extra ...BindHandler) (T, bool, error) {
	var zero T
	result, err := b.Bind(name, BindableFor[T](), extra...)
	if err != nil || !result.Bound {
		return zero, result.Bound, err
	}
	value, ok := result.Value.(T)
	if !ok {
		return zero, false, &BindError{
			Name:   MustParseName(name),
			Target: BindableFor[T](),
			Cause:  fmt.Errorf("bound value has type %T", result.Value),
		}
	}
	return value, true, nil
}

// BindInto binds the named subsection into an existing instance, whose
// current field values act as defaults.
func BindInto[T any](b *Binder, name string, into *T, extra ...BindHandler) (bool, error) {
	result, err := b.Bind(name, BindableFor[T]().WithExisting(*into), extra...)
	if err != nil || !result.Bound {
		return result.Bound, err
	}
	value, ok := result.Value.(T)
	if !ok {
		return false, &BindError{
			Name:   MustParseName(name),
			Target: BindableFor[T](),
			Cause:  fmt.Errorf("bound value has type %T", result.Value),
		}
	}
	*into = value
	return true, nil
}

///////////////////////////////////////////////////////////////////////////////
// Recursive bind
///////////////////////////////////////////////////////////////////////////////

// bind is one step of the recursive descent. Every step ends in the
// handler list's OnFinish unless it fails terminally.
func (b *Binder) bind(name Name, target Bindable, chain handlerList, ctx *BindContext, allowRecursive bool) (any, error) {
	ctx.clearProperty()

	value, err := b.tryBind(name, target, chain, ctx, allowRecursive)
	if err != nil {
		recovered, ferr := chain.onFailure(name, target, ctx, err)
		if ferr != nil {
			return nil, b.bindError(name, target, ctx, ferr)
		}
		value = recovered
		if recovered != nil {
			converted, cerr := b.converter.Convert(recovered, target.Type)
			if cerr != nil {
				return nil, b.bindError(name, target, ctx, cerr)
			}
			value = converted
		}
	}

	if ferr := chain.onFinish(name, target, ctx, value); ferr != nil {
		return nil, b.bindError(name, target, ctx, ferr)
	}
	return value, nil
}

func (b *Binder) tryBind(name Name, target Bindable, chain handlerList, ctx *BindContext, allowRecursive bool) (any, error) {
	replaced, err := chain.onStart(name, target, ctx)
	if err != nil {
		return nil, err
	}
	if replaced == nil {
		// vetoed: absent, not an error
		return nil, nil
	}
	target = *replaced

	bound, err := b.bindValue(name, target, chain, ctx, allowRecursive)
	if err != nil || bound == nil {
		return nil, err
	}

	bound, err = chain.onSuccess(name, target, ctx, bound)
	if err != nil || bound == nil {
		return nil, err
	}
	return b.converter.Convert(bound, target.Type)
}

// bindValue resolves one name as exactly one of scalar, aggregate or
// object.
func (b *Binder) bindValue(name Name, target Bindable, chain handlerList, ctx *BindContext, allowRecursive bool) (any, error) {
	property := b.findProperty(name, ctx)
	if property == nil && b.containsNoDescendantOf(ctx.Sources(), name) {
		return nil, nil
	}

	switch target.Shape() {
	case ShapeMapping:
		return b.bindAggregate(name, target, chain, ctx, &mapBinder{ctx: ctx})
	case ShapeSequence:
		return b.bindAggregate(name, target, chain, ctx, &sliceBinder{ctx: ctx})
	case ShapeArray:
		return b.bindAggregate(name, target, chain, ctx, &arrayBinder{ctx: ctx})
	}

	if property != nil {
		value, err := b.bindProperty(target, ctx, property)
		if err == nil {
			return value, nil
		}
		if errors.Is(err, ErrConverterNotFound) {
			// the type may still bind as a structured object; only this
			// specific failure triggers the retry
			object, oerr := b.bindObject(name, target, chain, ctx, allowRecursive)
			if oerr == nil && object != nil {
				return object, nil
			}
			return nil, err
		}
		return nil, err
	}

	return b.bindObject(name, target, chain, ctx, allowRecursive)
}

// bindProperty is the scalar path: placeholder substitution, then type
// conversion.
func (b *Binder) bindProperty(target Bindable, ctx *BindContext, property *ConfigurationProperty) (any, error) {
	ctx.setProperty(property)
	resolved, err := b.resolver.Resolve(property.Value)
	if err != nil {
		return nil, err
	}
	return b.converter.Convert(resolved, target.Type)
}

// bindObject is the structured path: every field of the target binds
// recursively at name.Append(field).
func (b *Binder) bindObject(name Name, target Bindable, chain handlerList, ctx *BindContext, allowRecursive bool) (any, error) {
	if b.containsNoDescendantOf(ctx.Sources(), name) {
		return nil, nil
	}
	if target.Shape() != ShapeObject {
		return nil, nil
	}
	bean := derefType(target.Type)
	if !allowRecursive && ctx.hasBean(bean) {
		// the type is already being bound higher in this call stack;
		// yielding absent breaks the cycle
		return nil, nil
	}
	return ctx.withBean(bean, func() (any, error) {
		return b.bindFields(name, target, chain, ctx)
	})
}

func (b *Binder) bindFields(name Name, target Bindable, chain handlerList, ctx *BindContext) (any, error) {
	bean := derefType(target.Type)
	plan := planFor(target.Type)

	instance := reflect.New(bean).Elem()
	if existing := derefValue(target.Value); existing.IsValid() && existing.Type() == bean {
		instance.Set(existing)
	}

	anyBound := false
	for _, field := range plan.fields {
		value, err := b.bind(name.Append(field.name), BindableOf(field.typ), chain, ctx, false)
		if err != nil {
			return nil, err
		}
		if value == nil {
			continue
		}
		if err := setReflectValue(instance.Field(field.index), value, b.converter); err != nil {
			return nil, err
		}
		anyBound = true
	}
	if !anyBound {
		return nil, nil
	}

	if target.Type.Kind() == reflect.Pointer {
		pv := reflect.New(bean)
		pv.Elem().Set(instance)
		return pv.Interface(), nil
	}
	return instance.Interface(), nil
}

// bindAggregate wraps an aggregate binder with the element-binder
// callback: each element binds recursively under increased depth, pinned
// to the source that produced its key.
func (b *Binder) bindAggregate(name Name, target Bindable, chain handlerList, ctx *BindContext, agg aggregateBinder) (any, error) {
	element := func(itemName Name, itemTarget Bindable, source PropertySource) (any, error) {
		allowRecursive := agg.allowRecursive(source)
		return ctx.withSource(source, func() (any, error) {
			return b.bind(itemName, itemTarget, chain, ctx, allowRecursive)
		})
	}
	return ctx.withIncreasedDepth(func() (any, error) {
		return agg.bind(name, target, element)
	})
}

///////////////////////////////////////////////////////////////////////////////
// Lookups
///////////////////////////////////////////////////////////////////////////////

func (b *Binder) findProperty(name Name, ctx *BindContext) *ConfigurationProperty {
	if name.IsEmpty() {
		return nil
	}
	for _, source := range ctx.Sources() {
		if property := source.Property(name); property != nil {
			return property
		}
	}
	return nil
}

func (b *Binder) containsNoDescendantOf(sources []PropertySource, name Name) bool {
	for _, source := range sources {
		if source.ContainsDescendantOf(name) != StateAbsent {
			return false
		}
	}
	return true
}

// bindError wraps a failure with the bind site, unless it is already a
// *BindError from a deeper step.
func (b *Binder) bindError(name Name, target Bindable, ctx *BindContext, cause error) error {
	var be *BindError
	if errors.As(cause, &be) {
		return cause
	}
	return &BindError{Name: name, Target: target, Property: ctx.Property(), Cause: cause}
}

// setReflectValue assigns a bound value to a destination, converting when
// the dynamic type is not directly assignable.
func setReflectValue(dst reflect.Value, value any, converter *Converter) error {
	rv := reflect.ValueOf(value)
	if !rv.Type().AssignableTo(dst.Type()) {
		converted, err := converter.Convert(value, dst.Type())
		if err != nil {
			return err
		}
		rv = reflect.ValueOf(converted)
	}
	dst.Set(rv)
	return nil
}

func derefValue(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
