package confbind

import (
	"fmt"
	"reflect"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// Validation
///////////////////////////////////////////////////////////////////////////////

// Validatable is implemented by bound types that carry their own
// constraint checks. Validate is called on the fully bound object at the
// end of a successful top-level bind; a non-nil error fails the bind.
type Validatable interface {
	Validate() error
}

// Validator checks an externally supplied constraint against a bound
// object. Validators attach to a Bindable via WithValidators.
type Validator interface {
	Validate(obj any) error
}

// ValidatorFunc adapts a plain function to Validator.
type ValidatorFunc func(obj any) error

func (f ValidatorFunc) Validate(obj any) error {
	return f(obj)
}

// ValidationError aggregates every constraint violation found on a bound
// object. Violations are never tolerated; a ValidationError always
// surfaces as a bind failure.
type ValidationError struct {
	Name       Name
	Violations []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("validation of %q failed: %s", e.Name.String(), strings.Join(msgs, "; "))
}

// validationHandler applies the target's validators, plus the bound
// value's own Validate method when it has one, at the end of the top-level
// bind.
type validationHandler struct {
	BaseHandler
	validators []Validator
}

func (h *validationHandler) OnFinish(name Name, _ Bindable, ctx *BindContext, value any) error {
	if ctx.Depth() != 0 || value == nil {
		return nil
	}

	var violations []error
	if v, ok := asValidatable(value); ok {
		if err := v.Validate(); err != nil {
			violations = append(violations, err)
		}
	}
	for _, validator := range h.validators {
		if err := validator.Validate(value); err != nil {
			violations = append(violations, err)
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Name: name, Violations: violations}
	}
	return nil
}

var validatableType = reflect.TypeOf((*Validatable)(nil)).Elem()

func implementsValidatable(t reflect.Type) bool {
	return t.Implements(validatableType) ||
		reflect.PointerTo(t).Implements(validatableType)
}

// asValidatable returns the value's Validatable view, taking an
// addressable copy when Validate has a pointer receiver.
func asValidatable(value any) (Validatable, bool) {
	if v, ok := value.(Validatable); ok {
		return v, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || !reflect.PointerTo(rv.Type()).Implements(validatableType) {
		return nil, false
	}
	pv := reflect.New(rv.Type())
	pv.Elem().Set(rv)
	return pv.Interface().(Validatable), true
}
