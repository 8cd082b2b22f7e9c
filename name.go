package confbind

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyNameElement   = errors.New("property name contains an empty element")
	ErrUnbalancedBrackets = errors.New("property name contains unbalanced brackets")
)

///////////////////////////////////////////////////////////////////////////////
// Name
///////////////////////////////////////////////////////////////////////////////

// Name is a hierarchical configuration property name such as "server.port"
// or "hosts[0].name". It is an immutable value: every mutating-looking
// method returns a new Name.
//
// Two names are equal when their elements match after folding, which
// lowercases and strips '-' and '_'. "max-connections", "MAX_CONNECTIONS"
// and "maxConnections" are all the same logical name. The raw element text
// is preserved for display and for map keys.
type Name struct {
	elements []nameElement
}

type nameElement struct {
	value   string
	indexed bool // rendered as [value] rather than .value
}

// RootName is the empty name: the ancestor of every other name.
var RootName = Name{}

// ParseName parses a dotted property name. Numeric collection indices may
// be written either in brackets ("hosts[0].name") or as plain elements
// ("hosts.0.name"); both parse to the same logical name. An empty string
// parses to the root name.
func ParseName(s string) (Name, error) {
	if s == "" {
		return Name{}, nil
	}

	var elements []nameElement
	i := 0
	for i < len(s) {
		switch s[i] {
		case '.':
			return Name{}, fmt.Errorf("%w: %q", ErrEmptyNameElement, s)
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end == -1 {
				return Name{}, fmt.Errorf("%w: %q", ErrUnbalancedBrackets, s)
			}
			end += i
			if end == i+1 {
				return Name{}, fmt.Errorf("%w: %q", ErrEmptyNameElement, s)
			}
			elements = append(elements, nameElement{value: s[i+1 : end], indexed: true})
			i = end + 1
			// a bracket may be followed by '.', another '[', or the end
			if i < len(s) && s[i] == '.' {
				i++
				if i == len(s) {
					return Name{}, fmt.Errorf("%w: %q", ErrEmptyNameElement, s)
				}
			}
		case ']':
			return Name{}, fmt.Errorf("%w: %q", ErrUnbalancedBrackets, s)
		default:
			end := i
			for end < len(s) && s[end] != '.' && s[end] != '[' && s[end] != ']' {
				end++
			}
			elements = append(elements, nameElement{value: s[i:end]})
			i = end
			if i < len(s) && s[i] == '.' {
				i++
				if i == len(s) {
					return Name{}, fmt.Errorf("%w: %q", ErrEmptyNameElement, s)
				}
			}
		}
	}
	return Name{elements: elements}, nil
}

// MustParseName is ParseName for names known to be well-formed. It panics
// on a malformed name.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Append returns a new Name with one additional trailing element.
func (n Name) Append(element string) Name {
	return n.append(nameElement{value: element})
}

// AppendIndex returns a new Name with a trailing collection index element.
func (n Name) AppendIndex(index int) Name {
	return n.append(nameElement{value: strconv.Itoa(index), indexed: true})
}

func (n Name) append(e nameElement) Name {
	elements := make([]nameElement, len(n.elements)+1)
	copy(elements, n.elements)
	elements[len(n.elements)] = e
	return Name{elements: elements}
}

// Parent returns the name with the last element removed. The parent of the
// root name is the root name.
func (n Name) Parent() Name {
	if len(n.elements) == 0 {
		return Name{}
	}
	return Name{elements: n.elements[:len(n.elements)-1]}
}

// Length returns the number of elements in the name.
func (n Name) Length() int {
	return len(n.elements)
}

// IsEmpty reports whether this is the root name.
func (n Name) IsEmpty() bool {
	return len(n.elements) == 0
}

// Element returns the raw text of the i'th element.
func (n Name) Element(i int) string {
	return n.elements[i].value
}

// Equal reports whether two names refer to the same logical property,
// folding case and separator characters per element.
func (n Name) Equal(other Name) bool {
	if len(n.elements) != len(other.elements) {
		return false
	}
	for i := range n.elements {
		if foldElement(n.elements[i].value) != foldElement(other.elements[i].value) {
			return false
		}
	}
	return true
}

// IsAncestorOf reports whether other sits strictly below this name. The
// root name is an ancestor of every non-root name.
func (n Name) IsAncestorOf(other Name) bool {
	if len(n.elements) >= len(other.elements) {
		return false
	}
	for i := range n.elements {
		if foldElement(n.elements[i].value) != foldElement(other.elements[i].value) {
			return false
		}
	}
	return true
}

// IsParentOf reports whether other is exactly one element below this name.
func (n Name) IsParentOf(other Name) bool {
	return len(n.elements)+1 == len(other.elements) && n.IsAncestorOf(other)
}

// String renders the name in its surface form, with collection indices in
// brackets: "hosts[0].name".
func (n Name) String() string {
	var b strings.Builder
	for i, e := range n.elements {
		if e.indexed {
			b.WriteByte('[')
			b.WriteString(e.value)
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(e.value)
	}
	return b.String()
}

// canonicalKey is the folded, dot-joined form used as a lookup key. Unique
// per logical name.
func (n Name) canonicalKey() string {
	var b strings.Builder
	for i, e := range n.elements {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(foldElement(e.value))
	}
	return b.String()
}

// foldElement normalizes one element for comparison: lowercase, with '-'
// and '_' removed.
func foldElement(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '-' || c == '_':
			// dropped
		case c >= 'A' && c <= 'Z':
			b.WriteByte(c + ('a' - 'A'))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
