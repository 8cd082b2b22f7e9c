// Package confbind provides the two pieces of machinery that decide which
// optional components of an application activate and how their configuration
// is populated: a condition evaluator and a configuration binder.
//
// The condition evaluator takes a batch of component descriptors and a
// class-presence oracle and decides, for each component, whether the classes
// it requires are available at runtime. Evaluation is split across exactly
// two concurrent partitions (one spawned, one on the caller) because the
// probes dominate the cost and two partitions empirically outperform both a
// single thread and a worker pool.
//
// The configuration binder maps a hierarchical property namespace (dotted
// keys such as "server.port", from any ordered chain of property sources)
// onto strongly-typed Go values. It handles scalars, maps, slices, arrays
// and nested structs recursively, resolves ${...} placeholders, converts
// raw string values through a pluggable converter registry, and applies a
// per-call list of bind handlers for validation, unknown-key detection and
// per-field error tolerance.
//
// Property sources are provided for plain maps, JSON documents, YAML
// documents, .env/properties files and the process environment. Sources are
// consulted in order and the first source defining a key wins; values are
// never merged across sources.
//
// A minimal bind looks like:
//
//	src, _ := confbind.NewMapSource("app", map[string]string{
//	    "server.port": "8080",
//	    "server.host": "localhost",
//	})
//	binder := confbind.New([]confbind.PropertySource{src})
//
//	type Server struct {
//	    Host string
//	    Port int
//	}
//	server, bound, err := confbind.Bind[Server](binder, "server")
//
// Unset configuration subsections yield an unbound result, never an error;
// only conversion, validation and unknown-key failures surface, each as a
// structured *BindError.
package confbind
