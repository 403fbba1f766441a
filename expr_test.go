package construct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThis(t *testing.T) {
	outer := NewContext(nil)
	outer.Set("length", 3)
	inner := NewContext(outer)
	inner.Set("n", 4)

	t.Run("sibling lookup", func(t *testing.T) {
		v, err := This("n")(inner)
		require.NoError(t, err)
		assert.Equal(t, 4, v)
	})

	t.Run("scope hop", func(t *testing.T) {
		v, err := This("_", "length")(inner)
		require.NoError(t, err)
		assert.Equal(t, 3, v)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := This("absent")(inner)
		assert.ErrorIs(t, err, ErrField)
	})

	t.Run("descends into containers", func(t *testing.T) {
		ctx := NewContext(nil)
		ctx.Set("header", C("size", 7))
		v, err := This("header", "size")(ctx)
		require.NoError(t, err)
		assert.Equal(t, 7, v)
	})
}

func TestThisInt(t *testing.T) {
	ctx := NewContext(nil)
	ctx.Set("n", 4)
	ctx.Set("name", "x")

	n, err := ThisInt("n")(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = ThisInt("name")(ctx)
	assert.ErrorIs(t, err, ErrField)
}

func TestSumOf(t *testing.T) {
	ctx := NewContext(nil)
	ctx.Set("a", 3)
	ctx.Set("b", 4)

	n, err := SumOf(ThisInt("a"), ThisInt("b"), Lit(1))(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	_, err = SumOf(ThisInt("a"), ThisInt("missing"))(ctx)
	assert.Error(t, err)
}

func TestObjEquals(t *testing.T) {
	pred := ObjEquals(9)

	done, err := pred(9, nil)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = pred(8, nil)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestContextCopySemantics(t *testing.T) {
	ctx := NewContext(nil)
	ctx.Set("a", 1)

	clone := ctx.Copy()
	clone.Set("a", 2)
	clone.Set("b", 3)

	v, _ := ctx.Get("a")
	assert.Equal(t, 1, v)
	assert.False(t, func() bool { _, ok := ctx.Get("b"); return ok }())

	ctx.absorb(clone)
	v, _ = ctx.Get("a")
	assert.Equal(t, 2, v)
}
