package duckdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leishu/pkg/adapter"
	"github.com/leapstack-labs/leishu/pkg/core"
)

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	require.ErrorIs(t, adp.Exec(ctx, "SELECT 1"), adapter.ErrNotConnected)
	_, err := adp.Acquire(ctx)
	require.ErrorIs(t, err, adapter.ErrNotConnected)
	assert.NoError(t, adp.Close())
}

func TestAdapter_ConnectAppliesSettings(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	cfg := core.AdapterConfig{
		Path:   ":memory:",
		Params: map[string]any{"settings": map[string]any{"threads": 2}},
	}
	require.NoError(t, adp.Connect(ctx, cfg))
	defer func() { _ = adp.Close() }()

	sess, err := adp.Acquire(ctx)
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()

	var threads string
	require.NoError(t, sess.QueryRowContext(ctx, "SELECT current_setting('threads')::VARCHAR").Scan(&threads))
	assert.Equal(t, "2", threads)
}

func TestAdapter_ConnectRejectsBadParams(t *testing.T) {
	adp := New(nil)
	err := adp.Connect(context.Background(), core.AdapterConfig{Params: map[string]any{"bogus": 1}})
	require.Error(t, err)
	assert.False(t, adp.IsConnected())
}

func TestDialect(t *testing.T) {
	adp := New(nil)
	assert.Equal(t, "duckdb", adp.DialectName())
	assert.Equal(t, "instr", adp.Dialect().SubstringFunc)
}
