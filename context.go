package confbind

import (
	"reflect"
)

// BindContext is the call-scoped state of one top-level bind: recursion
// depth, the bean types currently being bound (cycle guard), an optional
// pinned property source and the last property resolved (for error
// reporting). It is created at the start of a top-level bind, discarded at
// its end, and never shared across goroutines; concurrent top-level binds
// each own their own context.
type BindContext struct {
	binder   *Binder
	depth    int
	pinned   PropertySource
	beans    []reflect.Type
	property *ConfigurationProperty
}

func newBindContext(b *Binder) *BindContext {
	return &BindContext{binder: b}
}

// Depth returns the current recursion depth; 0 at the top-level name.
func (c *BindContext) Depth() int {
	return c.depth
}

// Property returns the most recently resolved property, or nil when the
// current step resolved none.
func (c *BindContext) Property() *ConfigurationProperty {
	return c.property
}

// Sources returns the property sources in effect: the full chain, or the
// single pinned source while binding an aggregate element discovered in
// it.
func (c *BindContext) Sources() []PropertySource {
	if c.pinned != nil {
		return []PropertySource{c.pinned}
	}
	return c.binder.sources
}

func (c *BindContext) setProperty(p *ConfigurationProperty) {
	c.property = p
}

func (c *BindContext) clearProperty() {
	c.property = nil
}

// withSource runs fn with lookups pinned to a single source, restoring the
// previous pin afterwards. A nil source runs fn without changing the pin.
func (c *BindContext) withSource(source PropertySource, fn func() (any, error)) (any, error) {
	if source == nil {
		return fn()
	}
	previous := c.pinned
	c.pinned = source
	defer func() { c.pinned = previous }()
	return fn()
}

// withBean runs fn with the given bean type pushed onto the in-progress
// stack and the depth increased, restoring both afterwards.
func (c *BindContext) withBean(bean reflect.Type, fn func() (any, error)) (any, error) {
	c.beans = append(c.beans, bean)
	defer func() { c.beans = c.beans[:len(c.beans)-1] }()
	return c.withIncreasedDepth(fn)
}

// hasBean reports whether the type is already being bound higher in this
// call stack.
func (c *BindContext) hasBean(bean reflect.Type) bool {
	for _, b := range c.beans {
		if b == bean {
			return true
		}
	}
	return false
}

func (c *BindContext) withIncreasedDepth(fn func() (any, error)) (any, error) {
	c.depth++
	defer func() { c.depth-- }()
	return fn()
}
