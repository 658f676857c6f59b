package omegaedit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/omegaedit"
)

func readAll(t *testing.T, s *omegaedit.Session) []byte {
	t.Helper()

	v, err := s.CreateViewport(0, s.ComputedSize(), false, omegaedit.ViewportEvtNone, nil, nil)
	require.NoError(t, err)
	defer v.Destroy()

	data, err := v.GetData()
	require.NoError(t, err)

	return data
}

func Test_ApplyTransform_Uppercases_Range_Leaves_Rest_Untouched(t *testing.T) {
	t.Parallel()

	s := openSession(t, "abcdefghij")

	upper := func(b byte, _ any) byte {
		if b >= 'a' && b <= 'z' {
			return b - ('a' - 'A')
		}

		return b
	}

	require.NoError(t, s.ApplyTransform(upper, nil, 2, 4))
	require.Equal(t, "abCDEFghij", string(readAll(t, s)))

	// the transform checkpoints first, so it is undoable as a checkpoint.
	require.Equal(t, int64(1), s.CheckpointCount())
}

func Test_ApplyMaskTransform_Xor_Round_Trips(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	mask := []byte{0xFF}

	require.NoError(t, s.ApplyMaskTransform(mask, omegaedit.MaskXor, 0, 5))
	require.NotEqual(t, "ABCDE", string(readAll(t, s)))

	require.NoError(t, s.ApplyMaskTransform(mask, omegaedit.MaskXor, 0, 5))
	require.Equal(t, "ABCDE", string(readAll(t, s)))
}

func Test_ApplyMaskTransform_Rejects_Empty_Mask(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	err := s.ApplyMaskTransform(nil, omegaedit.MaskAnd, 0, 5)
	require.Error(t, err)
}

func Test_ApplyTransform_Full_Range_When_Length_Zero(t *testing.T) {
	t.Parallel()

	s := openSession(t, "abcde")

	upper := func(b byte, _ any) byte {
		if b >= 'a' && b <= 'z' {
			return b - ('a' - 'A')
		}

		return b
	}

	require.NoError(t, s.ApplyTransform(upper, nil, 0, 0))
	require.Equal(t, "ABCDE", string(readAll(t, s)))
}
