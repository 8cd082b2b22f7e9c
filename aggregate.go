package confbind

import (
	"fmt"
	"reflect"
)

///////////////////////////////////////////////////////////////////////////////
// Aggregate binders
///////////////////////////////////////////////////////////////////////////////

// elementBinder performs a fresh recursive bind for one aggregate element,
// pinned to the source that produced the element's key so that nested
// lookups resolve against that source rather than the full chain.
type elementBinder func(name Name, target Bindable, source PropertySource) (any, error)

// aggregateBinder binds one aggregate shape. allowRecursive reports
// whether elements bound through the given source may re-enter a bean
// type already on the in-progress stack.
type aggregateBinder interface {
	bind(name Name, target Bindable, element elementBinder) (any, error)
	allowRecursive(source PropertySource) bool
}

///////////////////////////////////////////////////////////////////////////////
// Mapping
///////////////////////////////////////////////////////////////////////////////

// mapBinder binds map-shaped targets by enumerating the distinct child
// elements under the prefix across every iterable source; the first source
// defining a child wins it. The raw child text becomes the map key, so
// keys round-trip without folding.
type mapBinder struct {
	ctx *BindContext
}

func (mb *mapBinder) bind(name Name, target Bindable, element elementBinder) (any, error) {
	t := derefType(target.Type)
	keyType := t.Key()
	valueType := t.Elem()

	var out reflect.Value
	claimed := make(map[string]struct{})

	for _, source := range mb.ctx.Sources() {
		iterable, ok := source.(IterableSource)
		if !ok {
			continue
		}
		if source.ContainsDescendantOf(name) == StateAbsent {
			continue
		}
		for _, pn := range iterable.PropertyNames() {
			if !name.IsAncestorOf(pn) {
				continue
			}
			childText := pn.Element(name.Length())
			childKey := foldElement(childText)
			if _, dup := claimed[childKey]; dup {
				continue
			}
			claimed[childKey] = struct{}{}

			key, err := mb.ctx.binder.converter.Convert(childText, keyType)
			if err != nil {
				return nil, err
			}
			value, err := element(name.Append(childText), BindableOf(valueType), source)
			if err != nil {
				return nil, err
			}
			if value == nil {
				continue
			}
			if !out.IsValid() {
				out = reflect.MakeMap(t)
			}
			out.SetMapIndex(reflect.ValueOf(key), reflect.ValueOf(value))
		}
	}

	if !out.IsValid() {
		return nil, nil
	}
	return out.Interface(), nil
}

// Map keys keep elements apart, so re-entering a bean type through a map
// entry cannot loop.
func (mb *mapBinder) allowRecursive(PropertySource) bool {
	return true
}

///////////////////////////////////////////////////////////////////////////////
// Sequence
///////////////////////////////////////////////////////////////////////////////

// sliceBinder binds slice-shaped targets from contiguous indexed children
// (prefix[0], prefix[1], ...); when no indexed child exists it falls back
// to a direct comma-delimited scalar at the prefix itself.
type sliceBinder struct {
	ctx *BindContext
}

func (sb *sliceBinder) bind(name Name, target Bindable, element elementBinder) (any, error) {
	t := derefType(target.Type)

	values, err := bindIndexed(sb.ctx, name, t.Elem(), element)
	if err != nil {
		return nil, err
	}
	if values == nil {
		return bindDirectAggregate(sb.ctx, name, t)
	}

	out := reflect.MakeSlice(t, len(values), len(values))
	for i, v := range values {
		if err := setReflectValue(out.Index(i), v, sb.ctx.binder.converter); err != nil {
			return nil, err
		}
	}
	return out.Interface(), nil
}

func (sb *sliceBinder) allowRecursive(source PropertySource) bool {
	return source == nil
}

///////////////////////////////////////////////////////////////////////////////
// Array
///////////////////////////////////////////////////////////////////////////////

// arrayBinder is sequence binding into a fixed length; excess elements
// fail rather than truncate.
type arrayBinder struct {
	ctx *BindContext
}

func (ab *arrayBinder) bind(name Name, target Bindable, element elementBinder) (any, error) {
	t := derefType(target.Type)

	values, err := bindIndexed(ab.ctx, name, t.Elem(), element)
	if err != nil {
		return nil, err
	}
	if values == nil {
		return bindDirectAggregate(ab.ctx, name, t)
	}
	if len(values) > t.Len() {
		return nil, fmt.Errorf("%d elements under %q exceed array length %d",
			len(values), name.String(), t.Len())
	}

	out := reflect.New(t).Elem()
	for i, v := range values {
		if err := setReflectValue(out.Index(i), v, ab.ctx.binder.converter); err != nil {
			return nil, err
		}
	}
	return out.Interface(), nil
}

func (ab *arrayBinder) allowRecursive(source PropertySource) bool {
	return source == nil
}

///////////////////////////////////////////////////////////////////////////////
// Shared machinery
///////////////////////////////////////////////////////////////////////////////

// bindIndexed binds prefix[0], prefix[1], ... until the first missing
// index. A nil result means no indexed child existed at all, which is
// distinct from an empty aggregate.
func bindIndexed(ctx *BindContext, name Name, elemType reflect.Type, element elementBinder) ([]any, error) {
	var values []any
	for i := 0; ; i++ {
		itemName := name.AppendIndex(i)
		source := sourceWith(ctx, itemName)
		if source == nil {
			break
		}
		value, err := element(itemName, BindableOf(elemType), source)
		if err != nil {
			return nil, err
		}
		if value == nil {
			break
		}
		values = append(values, value)
	}
	return values, nil
}

// sourceWith returns the first source defining the name directly or
// holding a descendant of it.
func sourceWith(ctx *BindContext, name Name) PropertySource {
	for _, source := range ctx.Sources() {
		if source.Property(name) != nil {
			return source
		}
		if source.ContainsDescendantOf(name) == StatePresent {
			return source
		}
	}
	return nil
}

// bindDirectAggregate converts a single scalar property at the aggregate's
// own name (a comma-delimited list) into the aggregate type.
func bindDirectAggregate(ctx *BindContext, name Name, t reflect.Type) (any, error) {
	for _, source := range ctx.Sources() {
		property := source.Property(name)
		if property == nil {
			continue
		}
		ctx.setProperty(property)
		resolved, err := ctx.binder.resolver.Resolve(property.Value)
		if err != nil {
			return nil, err
		}
		return ctx.binder.converter.Convert(resolved, t)
	}
	return nil, nil
}
