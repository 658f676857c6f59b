package omegaedit_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/omegaedit"
)

func Test_Save_Writes_Computed_Stream_To_New_Path(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	_, err := s.InsertBytes(5, []byte("FG"))
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, s.Save(0, 0, dest, omegaedit.SaveFlagsNone))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "ABCDEFG", string(got))
}

func Test_Save_Range_Writes_Partial_Stream(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDEFGHIJ")

	dest := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, s.Save(2, 3, dest, omegaedit.SaveFlagsNone))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "CDE", string(got))
}

func Test_Save_None_AutoRenames_On_Collision(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")
	require.NoError(t, os.WriteFile(dest, []byte("existing"), 0o644))

	require.NoError(t, s.Save(0, 0, dest, omegaedit.SaveFlagsNone))

	renamed := filepath.Join(dir, "out-1.bin")
	got, err := os.ReadFile(renamed)
	require.NoError(t, err)
	require.Equal(t, "ABCDE", string(got))

	// original, untouched
	original, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "existing", string(original))
}

func Test_Save_Overwrite_Replaces_Existing_Destination(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")
	require.NoError(t, os.WriteFile(dest, []byte("existing"), 0o644))

	require.NoError(t, s.Save(0, 0, dest, omegaedit.SaveFlagsOverwrite))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "ABCDE", string(got))
}

func Test_Save_Overwrite_Refuses_When_Original_Modified_Since_Open(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	// Touch the original file on disk with a visibly later mtime than the
	// session's snapshot, simulating an external edit after Open.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(s.FilePath(), future, future))

	err := s.Save(0, 0, s.FilePath(), omegaedit.SaveFlagsOverwrite)
	require.ErrorIs(t, err, omegaedit.ErrOriginalModified)
}

func Test_Save_ForceOverwrite_Ignores_Modified_Original(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(s.FilePath(), future, future))

	require.NoError(t, s.Save(0, 0, s.FilePath(), omegaedit.SaveFlagsForceOverwrite))

	got, err := os.ReadFile(s.FilePath())
	require.NoError(t, err)
	require.Equal(t, "ABCDE", string(got))
}
