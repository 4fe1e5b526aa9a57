package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leishu/pkg/core"
)

func TestBuildSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", buildSQLiteDSN(":memory:"))
	assert.Equal(t,
		"corpus.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		buildSQLiteDSN("corpus.db"))
	assert.Equal(t,
		"corpus.db?mode=ro&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		buildSQLiteDSN("corpus.db?mode=ro"))
}

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "corpus.db")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			dbPath := tt.setupPath(t)
			require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: dbPath}))
			defer func() { _ = adp.Close() }()

			require.NoError(t, adp.Exec(ctx, "CREATE TABLE t (id INTEGER)"))

			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_SessionUsesInstr(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	require.NoError(t, adp.Exec(ctx, "CREATE TABLE documents (doc_id INTEGER, doc_title TEXT)"))
	require.NoError(t, adp.Exec(ctx, "INSERT INTO documents VALUES (?, ?), (?, ?)", 1, "永乐大典", 2, "四库全书"))

	sess, err := adp.Acquire(ctx)
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()

	pred := adp.Dialect().Contains("doc_title", "?")
	var id int64
	require.NoError(t, sess.QueryRowContext(ctx, "SELECT doc_id FROM documents WHERE "+pred, "大典").Scan(&id))
	assert.Equal(t, int64(1), id)
}
