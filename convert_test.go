package confbind

import (
	"errors"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convert[T any](t *testing.T, c *Converter, value any) (T, error) {
	t.Helper()
	out, err := c.Convert(value, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := out.(T)
	require.True(t, ok, "converted value has type %T", out)
	return typed, nil
}

func TestConvertScalars(t *testing.T) {
	c := NewConverter()

	t.Run("String", func(t *testing.T) {
		v, err := convert[string](t, c, "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", v)
	})

	t.Run("Bool", func(t *testing.T) {
		v, err := convert[bool](t, c, "true")
		require.NoError(t, err)
		assert.True(t, v)

		_, err = convert[bool](t, c, "maybe")
		assert.Error(t, err)
	})

	t.Run("IntWidths", func(t *testing.T) {
		v, err := convert[int](t, c, "8080")
		require.NoError(t, err)
		assert.Equal(t, 8080, v)

		v8, err := convert[int8](t, c, "127")
		require.NoError(t, err)
		assert.Equal(t, int8(127), v8)
	})

	t.Run("IntOverflow", func(t *testing.T) {
		_, err := convert[int8](t, c, "300")
		require.Error(t, err)
		var cerr *ConversionError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "300", cerr.Value)
	})

	t.Run("UintRejectsNegative", func(t *testing.T) {
		_, err := convert[uint16](t, c, "-1")
		assert.Error(t, err)
	})

	t.Run("Float", func(t *testing.T) {
		v, err := convert[float64](t, c, "3.25")
		require.NoError(t, err)
		assert.Equal(t, 3.25, v)
	})

	t.Run("Duration", func(t *testing.T) {
		v, err := convert[time.Duration](t, c, "1m30s")
		require.NoError(t, err)
		assert.Equal(t, 90*time.Second, v)
	})

	t.Run("Time", func(t *testing.T) {
		v, err := convert[time.Time](t, c, "2024-06-01T12:00:00Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), v)
	})

	t.Run("UUID", func(t *testing.T) {
		id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
		v, err := convert[uuid.UUID](t, c, id.String())
		require.NoError(t, err)
		assert.Equal(t, id, v)
	})

	t.Run("ByteSlice", func(t *testing.T) {
		v, err := convert[[]byte](t, c, "raw bytes")
		require.NoError(t, err)
		assert.Equal(t, []byte("raw bytes"), v)
	})

	t.Run("TextUnmarshaler", func(t *testing.T) {
		v, err := convert[net.IP](t, c, "192.168.0.1")
		require.NoError(t, err)
		assert.Equal(t, net.ParseIP("192.168.0.1"), v)
	})

	t.Run("Pointer", func(t *testing.T) {
		v, err := convert[*int](t, c, "42")
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, 42, *v)
	})

	t.Run("EmptyInterface", func(t *testing.T) {
		v, err := convert[any](t, c, "as-is")
		require.NoError(t, err)
		assert.Equal(t, "as-is", v)
	})
}

func TestConvertLists(t *testing.T) {
	c := NewConverter()

	t.Run("CommaSlice", func(t *testing.T) {
		v, err := convert[[]string](t, c, "a, b ,c")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, v)
	})

	t.Run("CommaSliceTyped", func(t *testing.T) {
		v, err := convert[[]int](t, c, "1,2,3")
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, v)
	})

	t.Run("BlankSliceIsEmpty", func(t *testing.T) {
		v, err := convert[[]string](t, c, "  ")
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("ArrayFits", func(t *testing.T) {
		v, err := convert[[3]int](t, c, "1,2")
		require.NoError(t, err)
		assert.Equal(t, [3]int{1, 2, 0}, v)
	})

	t.Run("ArrayOverflow", func(t *testing.T) {
		_, err := convert[[2]int](t, c, "1,2,3")
		assert.Error(t, err)
	})
}

func TestConvertPassthrough(t *testing.T) {
	c := NewConverter()

	t.Run("Nil", func(t *testing.T) {
		out, err := c.Convert(nil, reflect.TypeOf(0))
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("AlreadyAssignable", func(t *testing.T) {
		v, err := convert[int](t, c, 7)
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})

	t.Run("BoxesIntoPointerTarget", func(t *testing.T) {
		v, err := convert[*string](t, c, "boxed")
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, "boxed", *v)
	})

	t.Run("NumericWidening", func(t *testing.T) {
		v, err := convert[int64](t, c, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(7), v)
	})
}

func TestConvertNotFound(t *testing.T) {
	c := NewConverter()

	type opaque struct {
		A int
	}

	t.Run("StringToStruct", func(t *testing.T) {
		_, err := convert[opaque](t, c, "not a struct")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConverterNotFound)
	})

	t.Run("MalformedValueIsNotNotFound", func(t *testing.T) {
		_, err := convert[int](t, c, "abc")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrConverterNotFound)
	})

	t.Run("TypedValueNoPath", func(t *testing.T) {
		_, err := c.Convert(struct{ X int }{1}, reflect.TypeOf(0))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConverterNotFound)
	})
}

func TestConverterRegister(t *testing.T) {
	c := NewConverter()

	type level int
	levelType := reflect.TypeOf(level(0))

	c.Register(levelType, func(value string, _ reflect.Type) (any, error) {
		switch value {
		case "low":
			return level(1), nil
		case "high":
			return level(2), nil
		}
		return nil, errors.New("unknown level")
	})

	t.Run("CustomWins", func(t *testing.T) {
		out, err := c.Convert("high", levelType)
		require.NoError(t, err)
		assert.Equal(t, level(2), out)
	})

	t.Run("CustomFailureWrapped", func(t *testing.T) {
		_, err := c.Convert("medium", levelType)
		require.Error(t, err)
		var cerr *ConversionError
		assert.ErrorAs(t, err, &cerr)
	})
}
