package omegaedit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/omegaedit"
)

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "input.bin")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func openSession(t *testing.T, contents string) *omegaedit.Session {
	t.Helper()

	path := writeTempFile(t, contents)

	s, err := omegaedit.Open(path, omegaedit.OpenOptions{})
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func openEmptySession(t *testing.T) *omegaedit.Session {
	t.Helper()

	s, err := omegaedit.Open("", omegaedit.OpenOptions{CheckpointDir: t.TempDir()})
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func Test_Open_Copies_Original_Into_Private_Snapshot(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "ABCDE")

	s, err := omegaedit.Open(path, omegaedit.OpenOptions{})
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, int64(5), s.ComputedSize())
	require.Equal(t, path, s.FilePath())
	require.NotEmpty(t, s.CheckpointDir())

	snapshots, err := filepath.Glob(filepath.Join(s.CheckpointDir(), ".OmegaEdit-orig.*"))
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
}

func Test_Open_Empty_Path_Starts_With_Zero_Size(t *testing.T) {
	t.Parallel()

	s := openEmptySession(t)
	require.Equal(t, int64(0), s.ComputedSize())
}

func Test_Close_Removes_Snapshot_File(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, "ABCDE")

	s, err := omegaedit.Open(path, omegaedit.OpenOptions{})
	require.NoError(t, err)

	checkpointDir := s.CheckpointDir()

	require.NoError(t, s.Close())

	snapshots, err := filepath.Glob(filepath.Join(checkpointDir, ".OmegaEdit-orig.*"))
	require.NoError(t, err)
	require.Empty(t, snapshots)
}

func Test_Close_Is_Idempotent(t *testing.T) {
	t.Parallel()

	s := openEmptySession(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func Test_ID_Is_Unique_Per_Session(t *testing.T) {
	t.Parallel()

	a := openEmptySession(t)
	b := openEmptySession(t)

	require.NotEqual(t, a.ID(), b.ID())
}

func Test_Operations_After_Close_Return_ErrSessionClosed(t *testing.T) {
	t.Parallel()

	s := openEmptySession(t)
	require.NoError(t, s.Close())

	_, err := s.InsertBytes(0, []byte("x"))
	require.ErrorIs(t, err, omegaedit.ErrSessionClosed)

	err = s.CreateCheckpoint()
	require.ErrorIs(t, err, omegaedit.ErrSessionClosed)
}

func Test_SetChangesPaused_Makes_Edits_NoOp(t *testing.T) {
	t.Parallel()

	s := openEmptySession(t)

	s.SetChangesPaused(true)
	require.True(t, s.ChangesPaused())

	serial, err := s.InsertBytes(0, []byte("x"))
	require.NoError(t, err)
	require.Equal(t, int64(0), serial)
	require.Equal(t, int64(0), s.ComputedSize())

	s.SetChangesPaused(false)

	serial, err = s.InsertBytes(0, []byte("x"))
	require.NoError(t, err)
	require.NotZero(t, serial)
}
