package confbind

import (
	"reflect"
	"sync"
)

// typePlan is everything the binder needs to know about one target type:
// its shape classification and, for object shapes, the bindable fields.
// Plans are immutable once built and cached process-wide; binding is keyed
// by type, so the cache is shared read-only across all binders and
// concurrent top-level binds.
type typePlan struct {
	shape  Shape
	fields []fieldPlan
}

type fieldPlan struct {
	name  string // property element, from the conf tag or the field name
	index int
	typ   reflect.Type
}

// planCache caches typePlans per target type. Reads vastly outnumber
// writes, so a RWMutex-guarded map beats sync.Map's interface boxing here.
var planCache = struct {
	sync.RWMutex
	plans map[reflect.Type]*typePlan
}{plans: make(map[reflect.Type]*typePlan)}

// planFor returns the cached plan for a type, building it on first use.
func planFor(t reflect.Type) *typePlan {
	planCache.RLock()
	plan, ok := planCache.plans[t]
	planCache.RUnlock()
	if ok {
		return plan
	}

	plan = buildPlan(t)

	planCache.Lock()
	planCache.plans[t] = plan
	planCache.Unlock()
	return plan
}

func buildPlan(t reflect.Type) *typePlan {
	plan := &typePlan{shape: classify(t)}
	if plan.shape != ShapeObject {
		return plan
	}

	st := derefType(t)
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup(confTag); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		plan.fields = append(plan.fields, fieldPlan{
			name:  name,
			index: i,
			typ:   field.Type,
		})
	}
	return plan
}

// confTag is the struct tag overriding the property element derived from a
// field name. `conf:"-"` excludes the field from binding entirely.
const confTag = "conf"

// classify assigns the shape tag routing a type to its binder. Pointer
// targets classify as their element type.
func classify(t reflect.Type) Shape {
	t = derefType(t)

	// whole-value conversions trump structural kinds
	switch t {
	case timeType, durationType, uuidType, byteSliceType:
		return ShapeScalar
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return ShapeScalar
	}

	switch t.Kind() {
	case reflect.Map:
		return ShapeMapping
	case reflect.Slice:
		return ShapeSequence
	case reflect.Array:
		return ShapeArray
	case reflect.Struct:
		return ShapeObject
	default:
		return ShapeScalar
	}
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
