package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/osint-cli/internal/config"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, f.err
}

func newMockIndex(t *testing.T) (*Index, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	ix := NewIndex(mock, &fakeEmbedder{vec: []float32{0.6, 0.8}}, config.MemoryConfig{
		TopK:         3,
		ChunkSize:    1000,
		ChunkOverlap: 200,
	}, 2)
	return ix, mock
}

func TestChunkText(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("a", 2500)
	chunks := chunkText(text, 1000, 200)

	// step is size-overlap=800: chunks start at 0, 800, 1600.
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 900)
}

func TestChunkText_ShortAndEmpty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, chunkText("", 1000, 200))
	assert.Equal(t, []string{"short"}, chunkText("short", 1000, 200))
}

func TestIndex_Ingest(t *testing.T) {
	ix, mock := newMockIndex(t)

	mock.ExpectExec(`INSERT INTO memory_chunks`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n, err := ix.Ingest(context.Background(), "report.txt", "a short document")

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndex_Query_ReturnsChunks(t *testing.T) {
	ix, mock := newMockIndex(t)

	mock.ExpectQuery(`SELECT content FROM memory_chunks`).
		WillReturnRows(pgxmock.NewRows([]string{"content"}).
			AddRow("chunk one").
			AddRow("chunk two"))

	got, err := ix.Query(context.Background(), "defense spending")

	require.NoError(t, err)
	assert.Equal(t, []string{"chunk one", "chunk two"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndex_Query_EmptyIndexNotice(t *testing.T) {
	ix, mock := newMockIndex(t)

	mock.ExpectQuery(`SELECT content FROM memory_chunks`).
		WillReturnRows(pgxmock.NewRows([]string{"content"}))

	got, err := ix.Query(context.Background(), "anything")

	require.NoError(t, err)
	assert.Equal(t, []string{EmptyNotice}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
