package confbind

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// NewDotenvSource loads a .env or Java-style properties file into a
// property source. Keys containing a '.' are taken verbatim as property
// names ("server.port=8080"); keys without one are treated as environment
// style and mapped with envKeyToName ("SERVER_PORT=8080" becomes
// "server.port").
func NewDotenvSource(name, path string) (*MapSource, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("source %s: reading %s: %w", name, path, err)
	}
	return envStyleSource(name, values)
}

// ParseDotenv is NewDotenvSource for in-memory content.
func ParseDotenv(name, content string) (*MapSource, error) {
	values, err := godotenv.Unmarshal(content)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", name, err)
	}
	return envStyleSource(name, values)
}

// NewEnvSource builds a source from the process environment. When prefix
// is non-empty only variables starting with it are included and the prefix
// is stripped: NewEnvSource("env", "APP_") maps APP_SERVER_PORT to
// "server.port".
func NewEnvSource(name, prefix string) (*MapSource, error) {
	values := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			k = k[len(prefix):]
		}
		values[k] = v
	}
	return envStyleSource(name, values)
}

func envStyleSource(name string, values map[string]string) (*MapSource, error) {
	mapped := make(map[string]string, len(values))
	for k, v := range values {
		if strings.ContainsRune(k, '.') {
			mapped[k] = v
			continue
		}
		mapped[envKeyToName(k)] = v
	}
	return NewMapSource(name, mapped)
}

// envKeyToName maps an environment variable name onto a property name:
// underscores become hierarchy separators and the key is lowercased, so
// SERVER_PORT maps to server.port. Multi-word leaf names must be written
// without a separator (SERVER_MAXCONNECTIONS); element folding makes them
// match maxConnections anyway.
func envKeyToName(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", "."))
}
