package confbind

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPlaceholderUnresolved   = errors.New("placeholder could not be resolved")
	ErrPlaceholderCycle        = errors.New("placeholder resolution exceeded maximum depth")
	ErrPlaceholderUnterminated = errors.New("unterminated placeholder")
)

// maxPlaceholderDepth bounds recursive substitution so circular references
// fail instead of looping.
const maxPlaceholderDepth = 8

///////////////////////////////////////////////////////////////////////////////
// PlaceholderResolver
///////////////////////////////////////////////////////////////////////////////

// PlaceholderResolver substitutes ${...} references inside raw property
// values before type conversion.
type PlaceholderResolver interface {
	Resolve(value string) (string, error)
}

// noopResolver leaves values untouched. Used when a Binder is built
// without a resolver.
type noopResolver struct{}

func (noopResolver) Resolve(value string) (string, error) {
	return value, nil
}

// SourcePlaceholderResolver resolves ${key} and ${key:default} references
// against an ordered property-source chain, the same first-source-wins
// chain the binder itself searches. Referenced values are resolved
// recursively, so a placeholder may expand to text containing further
// placeholders.
type SourcePlaceholderResolver struct {
	sources []PropertySource
}

var _ PlaceholderResolver = (*SourcePlaceholderResolver)(nil)

func NewSourcePlaceholderResolver(sources ...PropertySource) *SourcePlaceholderResolver {
	return &SourcePlaceholderResolver{sources: sources}
}

// Resolve implements PlaceholderResolver.
func (r *SourcePlaceholderResolver) Resolve(value string) (string, error) {
	return r.resolve(value, 0)
}

func (r *SourcePlaceholderResolver) resolve(value string, depth int) (string, error) {
	if depth > maxPlaceholderDepth {
		return "", fmt.Errorf("%w: %q", ErrPlaceholderCycle, value)
	}

	var b strings.Builder
	i := 0
	for i < len(value) {
		start := strings.Index(value[i:], "${")
		if start == -1 {
			b.WriteString(value[i:])
			break
		}
		start += i
		b.WriteString(value[i:start])

		end, err := matchingBrace(value, start+2)
		if err != nil {
			return "", err
		}

		// the reference itself may contain nested placeholders
		content, err := r.resolve(value[start+2:end], depth+1)
		if err != nil {
			return "", err
		}

		replacement, err := r.lookup(content, depth)
		if err != nil {
			return "", err
		}
		b.WriteString(replacement)
		i = end + 1
	}
	return b.String(), nil
}

// lookup resolves one placeholder body of the form "key" or "key:default".
func (r *SourcePlaceholderResolver) lookup(content string, depth int) (string, error) {
	key, fallback, hasFallback := strings.Cut(content, ":")

	name, err := ParseName(key)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrPlaceholderUnresolved, key, err)
	}
	for _, source := range r.sources {
		if property := source.Property(name); property != nil {
			return r.resolve(property.Value, depth+1)
		}
	}
	if hasFallback {
		return fallback, nil
	}
	return "", fmt.Errorf("%w: %q", ErrPlaceholderUnresolved, key)
}

// matchingBrace returns the index of the '}' closing the placeholder whose
// body starts at from, skipping over nested "${" openings.
func matchingBrace(value string, from int) (int, error) {
	level := 0
	for i := from; i < len(value); i++ {
		switch {
		case strings.HasPrefix(value[i:], "${"):
			level++
			i++
		case value[i] == '}':
			if level == 0 {
				return i, nil
			}
			level--
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrPlaceholderUnterminated, value)
}
