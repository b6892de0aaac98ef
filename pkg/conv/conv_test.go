package conv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int64
		wantOK bool
	}{
		{"int", 3, 3, true},
		{"json float", float64(7), 7, true},
		{"fractional float", 7.5, 0, false},
		{"numeric string", " 42 ", 42, true},
		{"garbage string", "abc", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt64(tt.in)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSliceAnyToInt64DropsMalformed(t *testing.T) {
	got := SliceAnyToInt64([]any{1.0, "2", "x", 3.5, nil, int64(4)})
	require.Equal(t, []int64{1, 2, 4}, got)

	require.Equal(t, []int64{9}, SliceAnyToInt64("9"))
	require.Nil(t, SliceAnyToInt64(nil))
}

func TestSliceAnyToString(t *testing.T) {
	got := SliceAnyToString([]any{"farmer", 3, "  ", " student "})
	require.Equal(t, []string{"farmer", "student"}, got)
}

func TestConfigGet(t *testing.T) {
	m := map[string]any{"name": "x", "n": "12", "f": 3.0}
	require.Equal(t, "x", ConfigGet(m, "name", "d"))
	require.Equal(t, "d", ConfigGet(m, "missing", "d"))
	require.Equal(t, "d", ConfigGet(m, "f", "d"))
	require.Equal(t, int64(12), ConfigGetInt64(m, "n", 0))
	require.Equal(t, int64(3), ConfigGetInt64(m, "f", 0))
	require.Equal(t, int64(5), ConfigGetInt64(nil, "n", 5))
}
