package omegaedit_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/omegaedit"
)

func Test_CreateCheckpoint_Flattens_Stream_And_Pushes_Frame(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	_, err := s.InsertBytes(5, []byte("FG"))
	require.NoError(t, err)

	require.Equal(t, int64(0), s.CheckpointCount())

	require.NoError(t, s.CreateCheckpoint())
	require.Equal(t, int64(1), s.CheckpointCount())

	checkpoints, err := filepath.Glob(filepath.Join(s.CheckpointDir(), ".OmegaEdit-chk.*"))
	require.NoError(t, err)
	require.Len(t, checkpoints, 1)

	require.Equal(t, int64(7), s.ComputedSize())
}

func Test_CreateCheckpoint_Preserves_ChangeCount_Across_Checkpoints(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	_, err := s.InsertBytes(0, []byte("X"))
	require.NoError(t, err)
	_, err = s.InsertBytes(0, []byte("Y"))
	require.NoError(t, err)

	before := s.ChangeCount()
	require.Equal(t, int64(2), before)

	require.NoError(t, s.CreateCheckpoint())
	require.Equal(t, before, s.ChangeCount())

	_, err = s.InsertBytes(0, []byte("Z"))
	require.NoError(t, err)
	require.Equal(t, before+1, s.ChangeCount())
}

func Test_DestroyLastCheckpoint_Pops_Frame_And_Removes_File(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	require.NoError(t, s.CreateCheckpoint())
	checkpointDir := s.CheckpointDir()

	require.NoError(t, s.DestroyLastCheckpoint())
	require.Equal(t, int64(0), s.CheckpointCount())

	checkpoints, err := filepath.Glob(filepath.Join(checkpointDir, ".OmegaEdit-chk.*"))
	require.NoError(t, err)
	require.Empty(t, checkpoints)
}

func Test_DestroyLastCheckpoint_Errors_When_No_Checkpoint(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	err := s.DestroyLastCheckpoint()
	require.ErrorIs(t, err, omegaedit.ErrNoCheckpoint)
}

func Test_GetChangeBySerial_Finds_Changes_In_Checkpointed_Frames(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	serial, err := s.InsertBytes(0, []byte("X"))
	require.NoError(t, err)

	require.NoError(t, s.CreateCheckpoint())

	ch := s.GetChangeBySerial(serial)
	require.NotNil(t, ch)
	require.Equal(t, serial, ch.Serial())
}
