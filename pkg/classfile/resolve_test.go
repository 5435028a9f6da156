package classfile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveRejectsZero(t *testing.T) {
	pools := map[string]ConstantPool{
		"nil":   nil,
		"empty": {},
		"one":   {&ConstantUtf8{Value: "A"}},
		"long":  {&ConstantLong{Value: 1}, &ConstantUnusable{}},
	}
	for name, cp := range pools {
		t.Run(name, func(t *testing.T) {
			_, err := cp.Resolve(0)
			require.ErrorIs(t, err, ErrIndexOutOfRange)
		})
	}
}

func TestResolve(t *testing.T) {
	cp := ConstantPool{
		&ConstantUtf8{Value: "Foo"},
		&ConstantClass{NameIndex: 1},
		&ConstantDouble{Value: 1},
		&ConstantUnusable{},
	}

	t.Run("valid", func(t *testing.T) {
		e, err := cp.Resolve(2)
		require.NoError(t, err)
		require.Equal(t, &ConstantClass{NameIndex: 1}, e)
	})

	t.Run("beyond end", func(t *testing.T) {
		_, err := cp.Resolve(5)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
		var ie *IndexError
		require.True(t, errors.As(err, &ie))
		require.Equal(t, uint16(5), ie.Index)
		require.Equal(t, 4, ie.Size)
	})

	t.Run("unusable slot", func(t *testing.T) {
		_, err := cp.Resolve(4)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
	})

	t.Run("typed lookups", func(t *testing.T) {
		name, err := cp.ClassName(2)
		require.NoError(t, err)
		require.Equal(t, "Foo", name)

		_, err = cp.Utf8(2)
		require.ErrorIs(t, err, ErrConstantKind)
		var ke *KindError
		require.True(t, errors.As(err, &ke))
		require.Equal(t, TagUtf8, ke.Want)
		require.Equal(t, TagClass, ke.Got)

		_, err = cp.ResolveMethodref(2)
		require.ErrorIs(t, err, ErrConstantKind)
		_, _, err = cp.NameAndType(0)
		require.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

func TestResolveMemberRefErrorsCarryContext(t *testing.T) {
	cp := ConstantPool{
		&ConstantMethodref{ClassIndex: 2, NameAndTypeIndex: 9},
		&ConstantClass{NameIndex: 3},
		&ConstantUtf8{Value: "p/A"},
	}
	_, err := cp.ResolveMethodref(1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	require.Contains(t, err.Error(), "Methodref name and type")

	_, err = cp.ResolveInterfaceMethodref(1)
	require.ErrorIs(t, err, ErrConstantKind)
}
