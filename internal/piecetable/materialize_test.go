package piecetable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/omegaedit/internal/change"
)

func Test_Materialize_Reads_Split_Segments(t *testing.T) {
	t.Parallel()

	origin := strings.NewReader("ABCDE")
	m := NewModel(change.NewOrigin(5), 5)

	ins, err := change.NewInsert(1, 2, []byte("xx"), false)
	require.NoError(t, err)
	require.NoError(t, m.Apply(ins))

	buf := make([]byte, 7)
	n, err := Materialize(m, origin, 0, buf)
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.Equal(t, "ABxxCDE", string(buf))
}

func Test_Materialize_Partial_Window(t *testing.T) {
	t.Parallel()

	origin := strings.NewReader("ABCDE")
	m := NewModel(change.NewOrigin(5), 5)

	buf := make([]byte, 3)
	n, err := Materialize(m, origin, 1, buf)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, "BCD", string(buf))
}

func Test_Materialize_Offset_At_End_Returns_Zero(t *testing.T) {
	t.Parallel()

	origin := strings.NewReader("ABCDE")
	m := NewModel(change.NewOrigin(5), 5)

	buf := make([]byte, 10)
	n, err := Materialize(m, origin, 5, buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func Test_Materialize_Truncates_Near_End_Of_Stream(t *testing.T) {
	t.Parallel()

	origin := strings.NewReader("ABCDE")
	m := NewModel(change.NewOrigin(5), 5)

	buf := make([]byte, 10)
	n, err := Materialize(m, origin, 3, buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "DE", string(buf[:n]))
}
