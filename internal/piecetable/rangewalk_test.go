package piecetable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/omegaedit/internal/change"
)

func collectChunks(t *testing.T, m *Model, offset, length int64) []Chunk {
	t.Helper()

	var chunks []Chunk

	err := VisitRange(m, offset, length, func(c Chunk) error {
		chunks = append(chunks, c)

		return nil
	})
	require.NoError(t, err)

	return chunks
}

func Test_VisitRange_Walks_Read_And_Insert_Chunks(t *testing.T) {
	t.Parallel()

	m := NewModel(change.NewOrigin(5), 5)

	ins, err := change.NewInsert(1, 2, []byte("xx"), false)
	require.NoError(t, err)
	require.NoError(t, m.Apply(ins))

	chunks := collectChunks(t, m, 0, 7)
	require.Len(t, chunks, 3)

	require.True(t, chunks[0].IsRead)
	require.Equal(t, int64(0), chunks[0].FileOffset)
	require.Equal(t, int64(2), chunks[0].Length)

	require.False(t, chunks[1].IsRead)
	require.Equal(t, []byte("xx"), chunks[1].Data)

	require.True(t, chunks[2].IsRead)
	require.Equal(t, int64(2), chunks[2].FileOffset)
	require.Equal(t, int64(3), chunks[2].Length)
}

func Test_VisitRange_Stops_At_First_Error(t *testing.T) {
	t.Parallel()

	m := NewModel(change.NewOrigin(10), 10)

	calls := 0
	sentinel := errInjectedForTest{}

	err := VisitRange(m, 0, 10, func(c Chunk) error {
		calls++

		return sentinel
	})

	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 1, calls)
}

func Test_VisitRange_Zero_Length_Is_NoOp(t *testing.T) {
	t.Parallel()

	m := NewModel(change.NewOrigin(10), 10)

	chunks := collectChunks(t, m, 0, 0)
	require.Empty(t, chunks)
}

type errInjectedForTest struct{}

func (errInjectedForTest) Error() string { return "injected" }
