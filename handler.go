package confbind

import (
	"errors"
	"fmt"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// BindHandler
///////////////////////////////////////////////////////////////////////////////

// BindHandler observes and steers the lifecycle of every bind in one call
// tree. Handlers run as an ordered list built once per top-level bind from
// the Bindable's policy flags (plus any caller-supplied extras, which run
// first); the list is never mutated after construction and never shared
// across binds.
//
// Embed BaseHandler to implement only the hooks you need.
type BindHandler interface {
	// OnStart runs before a name is bound. Returning nil vetoes the bind:
	// the whole step yields absent, not an error. A non-nil return may
	// substitute a different target.
	OnStart(name Name, target Bindable, ctx *BindContext) (*Bindable, error)
	// OnSuccess runs after a value was bound and may replace it. Returning
	// nil discards the value, making the step absent.
	OnSuccess(name Name, target Bindable, ctx *BindContext, value any) (any, error)
	// OnFailure runs when binding failed. Returning a nil error recovers:
	// the returned value (which may be nil, meaning absent) is used in
	// place of the failure. Returning an error re-raises, possibly
	// transformed.
	OnFailure(name Name, target Bindable, ctx *BindContext, err error) (any, error)
	// OnFinish runs at the end of every non-failed bind step, whether a
	// value was bound or not.
	OnFinish(name Name, target Bindable, ctx *BindContext, value any) error
}

// BaseHandler is the no-op BindHandler, for embedding.
type BaseHandler struct{}

var _ BindHandler = BaseHandler{}

func (BaseHandler) OnStart(_ Name, target Bindable, _ *BindContext) (*Bindable, error) {
	return &target, nil
}

func (BaseHandler) OnSuccess(_ Name, _ Bindable, _ *BindContext, value any) (any, error) {
	return value, nil
}

func (BaseHandler) OnFailure(_ Name, _ Bindable, _ *BindContext, err error) (any, error) {
	return nil, err
}

func (BaseHandler) OnFinish(_ Name, _ Bindable, _ *BindContext, _ any) error {
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// Handler list
///////////////////////////////////////////////////////////////////////////////

// handlerList applies a fixed sequence of handlers in registration order.
type handlerList []BindHandler

// newHandlerList builds the per-call handler list from the target's policy
// flags. Caller extras run first, then invalid-field tolerance, unknown
// key detection, and validation.
func newHandlerList(target Bindable, extra []BindHandler) handlerList {
	list := make(handlerList, 0, len(extra)+3)
	list = append(list, extra...)
	if target.IgnoreInvalidFields {
		list = append(list, ignoreErrorsHandler{})
	}
	if !target.IgnoreUnknownFields {
		list = append(list, newNoUnboundElementsHandler())
	}
	if len(target.Validators) > 0 || implementsValidatable(target.Type) {
		list = append(list, &validationHandler{validators: target.Validators})
	}
	return list
}

func (hl handlerList) onStart(name Name, target Bindable, ctx *BindContext) (*Bindable, error) {
	current := target
	for _, h := range hl {
		replaced, err := h.OnStart(name, current, ctx)
		if err != nil {
			return nil, err
		}
		if replaced == nil {
			return nil, nil
		}
		current = *replaced
	}
	return &current, nil
}

func (hl handlerList) onSuccess(name Name, target Bindable, ctx *BindContext, value any) (any, error) {
	for _, h := range hl {
		replaced, err := h.OnSuccess(name, target, ctx, value)
		if err != nil {
			return nil, err
		}
		value = replaced
	}
	return value, nil
}

// onFailure offers the error to each handler in order. The first handler
// answering without an error recovers the bind with its value; otherwise
// the (possibly transformed) error comes back.
func (hl handlerList) onFailure(name Name, target Bindable, ctx *BindContext, bindErr error) (any, error) {
	err := bindErr
	for _, h := range hl {
		value, herr := h.OnFailure(name, target, ctx, err)
		if herr == nil {
			return value, nil
		}
		err = herr
	}
	return nil, err
}

func (hl handlerList) onFinish(name Name, target Bindable, ctx *BindContext, value any) error {
	var first error
	for _, h := range hl {
		if err := h.OnFinish(name, target, ctx, value); err != nil && first == nil {
			first = err
		}
	}
	return first
}

///////////////////////////////////////////////////////////////////////////////
// Policy handlers
///////////////////////////////////////////////////////////////////////////////

// ignoreErrorsHandler implements invalid-field tolerance: a conversion
// failure on one field recovers as absent instead of failing the object.
// Other failures still propagate.
type ignoreErrorsHandler struct {
	BaseHandler
}

func (ignoreErrorsHandler) OnFailure(_ Name, _ Bindable, _ *BindContext, err error) (any, error) {
	var cerr *ConversionError
	if errors.As(err, &cerr) {
		return nil, nil
	}
	return nil, err
}

// UnboundElementsError reports source keys under the bound prefix that no
// binding step consumed.
type UnboundElementsError struct {
	Name    Name
	Unbound []Name
}

func (e *UnboundElementsError) Error() string {
	keys := make([]string, len(e.Unbound))
	for i, n := range e.Unbound {
		keys[i] = "'" + n.String() + "'"
	}
	return fmt.Sprintf("unbound configuration keys under %q: %s",
		e.Name.String(), strings.Join(keys, ", "))
}

// noUnboundElementsHandler records every successfully bound name and, when
// the top-level bind finishes, fails if any iterable source still holds an
// unconsumed key under the prefix.
type noUnboundElementsHandler struct {
	BaseHandler
	bound map[string]struct{}
}

func newNoUnboundElementsHandler() *noUnboundElementsHandler {
	return &noUnboundElementsHandler{bound: make(map[string]struct{})}
}

func (h *noUnboundElementsHandler) OnSuccess(name Name, _ Bindable, _ *BindContext, value any) (any, error) {
	h.bound[name.canonicalKey()] = struct{}{}
	return value, nil
}

func (h *noUnboundElementsHandler) OnFinish(name Name, _ Bindable, ctx *BindContext, _ any) error {
	if ctx.Depth() != 0 {
		return nil
	}
	var unbound []Name
	seen := make(map[string]struct{})
	for _, source := range ctx.Sources() {
		iterable, ok := source.(IterableSource)
		if !ok {
			continue
		}
		for _, pn := range iterable.PropertyNames() {
			if !name.IsEmpty() && !name.IsAncestorOf(pn) && !name.Equal(pn) {
				continue
			}
			key := pn.canonicalKey()
			if _, ok := h.bound[key]; ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			unbound = append(unbound, pn)
		}
	}
	if len(unbound) > 0 {
		return &UnboundElementsError{Name: name, Unbound: unbound}
	}
	return nil
}
