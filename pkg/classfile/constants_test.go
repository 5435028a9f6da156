package classfile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccessFlagsFormat(t *testing.T) {
	tests := []struct {
		flags AccessFlags
		ctx   FlagContext
		want  string
	}{
		{0x0021, ClassFlags, "0x0021 (ACC_PUBLIC, ACC_SUPER)"},
		{0x0021, MethodFlags, "0x0021 (ACC_PUBLIC, ACC_SYNCHRONIZED)"},
		{0x0040, FieldFlags, "0x0040 (ACC_VOLATILE)"},
		{0x0040, MethodFlags, "0x0040 (ACC_BRIDGE)"},
		{0x0000, ClassFlags, "0x0000 ()"},
		{0x4019, FieldFlags, "0x4019 (ACC_PUBLIC, ACC_STATIC, ACC_FINAL, ACC_ENUM)"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.flags.Format(tt.ctx))
	}
}

func TestTagNames(t *testing.T) {
	require.Equal(t, "Utf8", TagUtf8.String())
	require.Equal(t, "InvokeDynamic", TagInvokeDynamic.String())
	require.Equal(t, "MethodHandle", TagMethodHandle.String())
	require.Equal(t, "REF_invokeStatic", RefInvokeStatic.String())
}
