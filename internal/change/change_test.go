package change

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_NewDelete_Rejects_Invalid_Input(t *testing.T) {
	t.Parallel()

	_, err := NewDelete(1, 0, 0, false)
	require.Error(t, err)

	_, err = NewDelete(1, -1, 5, false)
	require.Error(t, err)
}

func Test_NewDelete_Has_No_Payload(t *testing.T) {
	t.Parallel()

	c, err := NewDelete(1, 4, 10, false)
	require.NoError(t, err)

	require.Equal(t, Delete, c.Kind())
	require.Equal(t, int64(4), c.Offset())
	require.Equal(t, int64(10), c.Length())
	require.Nil(t, c.Bytes())
	require.Equal(t, byte('D'), c.KindChar())
}

func Test_NewInsert_Copies_Payload(t *testing.T) {
	t.Parallel()

	payload := []byte("hello")

	c, err := NewInsert(1, 0, payload, false)
	require.NoError(t, err)

	payload[0] = 'X'

	require.Equal(t, []byte("hello"), c.Bytes(), "Change must own a copy, not alias the caller's slice")
	require.Equal(t, byte('I'), c.KindChar())
}

func Test_NewInsert_Rejects_Empty_Payload(t *testing.T) {
	t.Parallel()

	_, err := NewInsert(1, 0, nil, false)
	require.Error(t, err)
}

func Test_NewOverwrite_Reports_Kind_O(t *testing.T) {
	t.Parallel()

	c, err := NewOverwrite(1, 0, []byte("zzz"), false)
	require.NoError(t, err)

	require.Equal(t, Overwrite, c.Kind())
	require.Equal(t, byte('O'), c.KindChar())
}

func Test_NewOrigin_Has_No_Payload_But_Records_Length(t *testing.T) {
	t.Parallel()

	c := NewOrigin(1 << 40)

	require.Equal(t, int64(0), c.Serial())
	require.Equal(t, int64(1<<40), c.Length())
	require.Nil(t, c.Bytes())
}

func Test_FlipSerialSign_Toggles_IsUndone(t *testing.T) {
	t.Parallel()

	c, err := NewInsert(5, 0, []byte("a"), false)
	require.NoError(t, err)
	require.False(t, c.IsUndone())

	c.FlipSerialSign()
	require.True(t, c.IsUndone())
	require.Equal(t, int64(-5), c.Serial())

	c.FlipSerialSign()
	require.False(t, c.IsUndone())
	require.Equal(t, int64(5), c.Serial())
}

func Test_IsInline_Matches_Threshold(t *testing.T) {
	t.Parallel()

	require.True(t, IsInline(0))
	require.True(t, IsInline(7))
	require.False(t, IsInline(8))
	require.False(t, IsInline(100))
}

func Test_String_Includes_Undone_Suffix(t *testing.T) {
	t.Parallel()

	c, err := NewInsert(3, 10, []byte("x"), false)
	require.NoError(t, err)
	require.NotContains(t, c.String(), "undone")

	c.FlipSerialSign()
	require.Contains(t, c.String(), "undone")
}
