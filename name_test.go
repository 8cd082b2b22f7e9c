package confbind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	t.Run("SimpleDotted", func(t *testing.T) {
		n, err := ParseName("server.port")
		require.NoError(t, err)
		assert.Equal(t, 2, n.Length())
		assert.Equal(t, "server", n.Element(0))
		assert.Equal(t, "port", n.Element(1))
		assert.Equal(t, "server.port", n.String())
	})

	t.Run("Empty", func(t *testing.T) {
		n, err := ParseName("")
		require.NoError(t, err)
		assert.True(t, n.IsEmpty())
		assert.Equal(t, "", n.String())
	})

	t.Run("BracketedIndex", func(t *testing.T) {
		n, err := ParseName("hosts[0].name")
		require.NoError(t, err)
		assert.Equal(t, 3, n.Length())
		assert.Equal(t, "0", n.Element(1))
		assert.Equal(t, "hosts[0].name", n.String())
	})

	t.Run("AdjacentBrackets", func(t *testing.T) {
		n, err := ParseName("grid[1][2]")
		require.NoError(t, err)
		assert.Equal(t, 3, n.Length())
		assert.Equal(t, "grid[1][2]", n.String())
	})

	t.Run("Malformed", func(t *testing.T) {
		cases := map[string]error{
			"server..port": ErrEmptyNameElement,
			".port":        ErrEmptyNameElement,
			"server.":      ErrEmptyNameElement,
			"hosts[]":      ErrEmptyNameElement,
			"hosts[0":      ErrUnbalancedBrackets,
			"hosts]0[":     ErrUnbalancedBrackets,
		}
		for input, want := range cases {
			_, err := ParseName(input)
			assert.ErrorIs(t, err, want, "input %q", input)
		}
	})

	t.Run("MustParsePanics", func(t *testing.T) {
		assert.Panics(t, func() { MustParseName("bad..name") })
	})
}

func TestNameEquality(t *testing.T) {
	t.Run("FoldsCaseAndSeparators", func(t *testing.T) {
		a := MustParseName("server.max-connections")
		b := MustParseName("server.MAX_CONNECTIONS")
		c := MustParseName("server.maxConnections")
		assert.True(t, a.Equal(b))
		assert.True(t, b.Equal(c))
		assert.True(t, a.Equal(c))
	})

	t.Run("DifferentNames", func(t *testing.T) {
		a := MustParseName("server.port")
		assert.False(t, a.Equal(MustParseName("server.host")))
		assert.False(t, a.Equal(MustParseName("server")))
	})

	t.Run("FoldingDoesNotCrossElements", func(t *testing.T) {
		// one element "ab" is not the same as two elements "a.b"
		assert.False(t, MustParseName("ab").Equal(MustParseName("a.b")))
	})
}

func TestNameHierarchy(t *testing.T) {
	t.Run("Ancestry", func(t *testing.T) {
		root := RootName
		server := MustParseName("server")
		port := MustParseName("server.port")

		assert.True(t, root.IsAncestorOf(port))
		assert.True(t, server.IsAncestorOf(port))
		assert.False(t, port.IsAncestorOf(server))
		assert.False(t, port.IsAncestorOf(port))
	})

	t.Run("Parent", func(t *testing.T) {
		assert.True(t, MustParseName("server").IsParentOf(MustParseName("server.port")))
		assert.False(t, MustParseName("server").IsParentOf(MustParseName("server.tls.cert")))
		assert.True(t, MustParseName("server.port").Parent().Equal(MustParseName("server")))
		assert.True(t, RootName.Parent().IsEmpty())
	})

	t.Run("AppendAndIndex", func(t *testing.T) {
		n := MustParseName("server").Append("hosts").AppendIndex(2)
		assert.Equal(t, "server.hosts[2]", n.String())
		assert.True(t, n.Equal(MustParseName("server.hosts[2]")))
	})

	t.Run("AppendDoesNotMutate", func(t *testing.T) {
		base := MustParseName("a")
		one := base.Append("b")
		two := base.Append("c")
		assert.Equal(t, "a.b", one.String())
		assert.Equal(t, "a.c", two.String())
		assert.Equal(t, "a", base.String())
	})
}

func TestNameCanonicalKey(t *testing.T) {
	a := MustParseName("Server.Max-Connections")
	b := MustParseName("server.maxconnections")
	assert.Equal(t, b.canonicalKey(), a.canonicalKey())

	// indexed elements keep their position in the key
	assert.Equal(t,
		MustParseName("hosts[0]").canonicalKey(),
		MustParseName("hosts.0").canonicalKey())
}
