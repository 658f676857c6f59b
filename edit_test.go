package omegaedit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/omegaedit"
)

func computed(t *testing.T, s *omegaedit.Session) string {
	t.Helper()

	v, err := s.CreateViewport(0, s.ComputedSize()+1, false, omegaedit.ViewportEvtNone, nil, nil)
	require.NoError(t, err)
	defer v.Destroy()

	data, err := v.GetData()
	require.NoError(t, err)

	return string(data)
}

func Test_InsertBytes_Into_Empty_Session(t *testing.T) {
	t.Parallel()

	s := openEmptySession(t)

	serial, err := s.InsertBytes(0, []byte("0123456789"))
	require.NoError(t, err)
	require.Equal(t, int64(1), serial)

	require.Equal(t, "0123456789", computed(t, s))
	require.Equal(t, int64(1), s.ChangeCount())
}

func Test_Insert_Splits_Existing_Bytes(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	_, err := s.InsertBytes(2, []byte("xx"))
	require.NoError(t, err)

	require.Equal(t, "ABxxCDE", computed(t, s))
}

func Test_Overwrite_Models_As_Delete_Then_Insert(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	_, err := s.OverwriteBytes(1, []byte("zzz"))
	require.NoError(t, err)

	require.Equal(t, "AzzzE", computed(t, s))
}

func Test_Delete_Removes_Bytes(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	_, err := s.Delete(1, 3)
	require.NoError(t, err)

	require.Equal(t, "AE", computed(t, s))
}

func Test_UndoLast_Reverts_Single_Change(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	_, err := s.InsertBytes(0, []byte("XX"))
	require.NoError(t, err)
	require.Equal(t, "XXABCDE", computed(t, s))

	serial, err := s.UndoLast()
	require.NoError(t, err)
	require.Equal(t, int64(-1), serial)
	require.Equal(t, "ABCDE", computed(t, s))
	require.Equal(t, int64(1), s.UndoCount())
}

func Test_RedoLast_Reapplies_Undone_Change(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	_, err := s.InsertBytes(0, []byte("XX"))
	require.NoError(t, err)

	_, err = s.UndoLast()
	require.NoError(t, err)

	serial, err := s.RedoLast()
	require.NoError(t, err)
	require.Equal(t, int64(1), serial)
	require.Equal(t, "XXABCDE", computed(t, s))
	require.Equal(t, int64(0), s.UndoCount())
}

func Test_UndoLast_On_Empty_Log_Fails(t *testing.T) {
	t.Parallel()

	s := openEmptySession(t)

	_, err := s.UndoLast()
	require.ErrorIs(t, err, omegaedit.ErrNothingToUndo)
}

func Test_RedoLast_With_Nothing_Undone_Fails(t *testing.T) {
	t.Parallel()

	s := openEmptySession(t)

	_, err := s.InsertBytes(0, []byte("x"))
	require.NoError(t, err)

	_, err = s.RedoLast()
	require.ErrorIs(t, err, omegaedit.ErrNothingToRedo)
}

// Test_Transaction_Undoes_As_One_Unit checks that a single UndoLast call
// unwinds every edit made inside one BeginTransaction/EndTransaction
// block.
func Test_Transaction_Undoes_As_One_Unit(t *testing.T) {
	t.Parallel()

	s := openEmptySession(t)

	_, err := s.InsertBytes(0, []byte("A"))
	require.NoError(t, err)

	require.NoError(t, s.BeginTransaction())

	_, err = s.InsertBytes(1, []byte("B"))
	require.NoError(t, err)

	_, err = s.InsertBytes(2, []byte("C"))
	require.NoError(t, err)

	require.NoError(t, s.EndTransaction())
	require.Equal(t, "ABC", computed(t, s))

	_, err = s.UndoLast()
	require.NoError(t, err)

	require.Equal(t, "A", computed(t, s))
	require.Equal(t, int64(2), s.UndoCount())
}

func Test_BeginTransaction_Twice_Fails(t *testing.T) {
	t.Parallel()

	s := openEmptySession(t)

	require.NoError(t, s.BeginTransaction())

	err := s.BeginTransaction()
	require.ErrorIs(t, err, omegaedit.ErrTransactionAlreadyOpen)
}

func Test_EndTransaction_Without_Begin_Fails(t *testing.T) {
	t.Parallel()

	s := openEmptySession(t)

	err := s.EndTransaction()
	require.ErrorIs(t, err, omegaedit.ErrNoTransaction)
}

func Test_Clear_Resets_Active_Log_And_Model(t *testing.T) {
	t.Parallel()

	s := openSession(t, "ABCDE")

	_, err := s.InsertBytes(0, []byte("XX"))
	require.NoError(t, err)

	s.Clear()

	require.Equal(t, "ABCDE", computed(t, s))
	require.Equal(t, int64(0), s.ChangeCount())
	require.Equal(t, "NONE", s.TransactionState())
}

func Test_GetChangeBySerial_Finds_Active_Change(t *testing.T) {
	t.Parallel()

	s := openEmptySession(t)

	serial, err := s.InsertBytes(0, []byte("A"))
	require.NoError(t, err)

	ch := s.GetChangeBySerial(serial)
	require.NotNil(t, ch)
	require.Equal(t, serial, ch.Serial())
	require.Equal(t, byte('I'), ch.KindChar())
}

func Test_LastChange_And_LastUndo(t *testing.T) {
	t.Parallel()

	s := openEmptySession(t)
	require.Nil(t, s.LastChange())

	_, err := s.InsertBytes(0, []byte("A"))
	require.NoError(t, err)
	require.NotNil(t, s.LastChange())
	require.Nil(t, s.LastUndo())

	_, err = s.UndoLast()
	require.NoError(t, err)
	require.NotNil(t, s.LastUndo())
}
