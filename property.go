package confbind

///////////////////////////////////////////////////////////////////////////////
// Properties
///////////////////////////////////////////////////////////////////////////////

// ConfigurationProperty is a single resolved (name, value, origin) triple
// produced by a property source. Immutable once created.
type ConfigurationProperty struct {
	Name   Name
	Value  string
	Origin string // where the value came from, for error reporting
}

// SourceState is the answer a source gives when asked whether it holds any
// key underneath a given name.
type SourceState uint8

const (
	// StateAbsent means the source definitely holds no descendant key.
	StateAbsent SourceState = iota
	// StatePresent means the source holds at least one descendant key.
	StatePresent
	// StateUnknown means the source cannot enumerate its keys and cannot
	// answer either way.
	StateUnknown
)

func (s SourceState) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePresent:
		return "present"
	case StateUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

///////////////////////////////////////////////////////////////////////////////
// Sources
///////////////////////////////////////////////////////////////////////////////

// PropertySource is an ordered provider of configuration properties. The
// binder consults a chain of sources in order; the first source defining a
// key wins and values are never merged across sources.
//
// Implementations must be safe for concurrent reads: many top-level binds
// may share one chain.
type PropertySource interface {
	// Name identifies the source in origins and error messages.
	Name() string
	// Property returns the property stored at exactly the given name, or
	// nil when the source does not define it.
	Property(name Name) *ConfigurationProperty
	// ContainsDescendantOf reports whether the source holds any key
	// strictly underneath the given name.
	ContainsDescendantOf(name Name) SourceState
}

// IterableSource is a PropertySource that can enumerate every name it
// defines. Enumeration powers aggregate binding (discovering map keys and
// collection indices) and unknown-key detection; sources that cannot
// enumerate still work for direct lookups but contribute nothing to
// either.
type IterableSource interface {
	PropertySource
	// PropertyNames returns every name defined by the source, in a stable
	// order.
	PropertyNames() []Name
}
